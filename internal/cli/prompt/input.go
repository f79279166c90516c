// Package prompt provides interactive terminal prompts for CLI commands.
package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
)

// ErrAborted is returned when the user aborts a prompt (Ctrl+C).
var ErrAborted = errors.New("aborted")

// isAborted reports whether err means the user aborted.
func isAborted(err error) bool {
	return errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrAbort) || errors.Is(err, ErrAborted)
}

func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if isAborted(err) {
		return ErrAborted
	}
	return err
}

// Required rejects blank input.
func Required(input string) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("value is required")
	}
	return nil
}

// InputRequired prompts until a non-blank value is entered.
func InputRequired(label, defaultValue string) (string, error) {
	p := promptui.Prompt{Label: label, Default: defaultValue, Validate: Required}
	result, err := p.Run()
	return strings.TrimSpace(result), wrapError(err)
}

// Secret prompts for input without echoing it.
func Secret(label string) (string, error) {
	p := promptui.Prompt{Label: label, Mask: '*', Validate: Required}
	result, err := p.Run()
	return result, wrapError(err)
}

package config

import (
	"fmt"
	"strings"
)

// ConfigurationError reports an invalid or missing configuration value.
// It is fatal at startup.
type ConfigurationError struct {
	// Key is the offending configuration key.
	Key string

	// Value is the rejected value, empty for missing keys.
	Value string

	// Reason describes the problem.
	Reason string

	// Valid lists the accepted values, if the key is an enumeration.
	Valid []string
}

func (e *ConfigurationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "configuration error: %s", e.Key)
	if e.Value != "" {
		fmt.Fprintf(&b, " = %q", e.Value)
	}
	if e.Reason != "" {
		b.WriteString(" ")
		b.WriteString(e.Reason)
	}
	if len(e.Valid) > 0 {
		fmt.Fprintf(&b, " (valid: %s)", strings.Join(e.Valid, ", "))
	}
	return b.String()
}

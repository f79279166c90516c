package assetstore

import (
	"fmt"
	"strconv"
	"strings"
)

// Ref identifies a stored asset file.
//
// Object name format: "{id}_{version}" or "{id}_{version}_{suffix}".
// Example: "6f1c0c43_3_thumbnail-100x100"
type Ref struct {
	// ID is the asset identifier.
	ID string

	// Version is the asset file version. Each new upload gets a new version.
	Version int64

	// Suffix distinguishes derived files (e.g. thumbnails) of the same version.
	Suffix string
}

// Key returns the object name of the asset.
func (r Ref) Key() string {
	var b strings.Builder
	b.Grow(len(r.ID) + len(r.Suffix) + 22)
	b.WriteString(r.ID)
	b.WriteByte('_')
	b.WriteString(strconv.FormatInt(r.Version, 10))
	if r.Suffix != "" {
		b.WriteByte('_')
		b.WriteString(r.Suffix)
	}
	return b.String()
}

// Validate checks that the reference maps onto a safe object name.
func (r Ref) Validate() error {
	if err := validateName(r.ID); err != nil {
		return fmt.Errorf("%w: id: %v", ErrInvalidRef, err)
	}
	if strings.HasPrefix(strings.ToLower(r.ID), temporaryPrefix) {
		return fmt.Errorf("%w: id: %q prefix is reserved for temporary files", ErrInvalidRef, temporaryPrefix)
	}
	if r.Version < 0 {
		return fmt.Errorf("%w: version must not be negative", ErrInvalidRef)
	}
	if r.Suffix != "" {
		if err := validateName(r.Suffix); err != nil {
			return fmt.Errorf("%w: suffix: %v", ErrInvalidRef, err)
		}
	}
	return nil
}

func (r Ref) String() string {
	return r.Key()
}

// ValidateTemporaryName checks a temporary file name.
func ValidateTemporaryName(name string) error {
	if err := validateName(name); err != nil {
		return fmt.Errorf("%w: temporary name: %v", ErrInvalidRef, err)
	}
	return nil
}

// validateName rejects names that could escape a directory or bucket prefix.
func validateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("must not be empty")
	case name == "." || name == "..":
		return fmt.Errorf("%q is reserved", name)
	case strings.ContainsAny(name, "/\\\x00"):
		return fmt.Errorf("%q contains a path separator", name)
	}
	return nil
}

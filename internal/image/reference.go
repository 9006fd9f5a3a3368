package image

import (
	"fmt"
	"strings"
)

// Reference names a template image. Category and Name are always set;
// Version is empty only for references parsed with a missing version that
// still have to be resolved.
type Reference struct {
	Category string `json:"category" yaml:"category"`
	Name     string `json:"name" yaml:"name"`
	Version  string `json:"version" yaml:"version"`
}

// Parse splits ref into category, name, and optional version.
//
// The version is everything after the first ":"; the remainder must split on
// "/" into exactly two non-empty segments. A missing version is an error
// unless allowMissingVersion is set.
func Parse(ref string, allowMissingVersion bool) (Reference, error) {
	path, version, _ := strings.Cut(ref, ":")

	parts := strings.Split(path, "/")
	if len(parts) != 2 {
		return Reference{}, fmt.Errorf("%w: %q (expected category/name[:version])", ErrInvalidReference, ref)
	}

	r := Reference{Category: parts[0], Name: parts[1], Version: version}
	if err := r.validate(); err != nil {
		return Reference{}, fmt.Errorf("%w: %q (%v)", ErrInvalidReference, ref, err)
	}

	if r.Version == "" && !allowMissingVersion {
		return Reference{}, fmt.Errorf("%w: %q (missing version)", ErrInvalidReference, ref)
	}
	return r, nil
}

// MustParse is like Parse with a required version but panics on error.
// Intended for tests and constants.
func MustParse(ref string) Reference {
	r, err := Parse(ref, false)
	if err != nil {
		panic(err)
	}
	return r
}

// ID formats the reference as "category/name:version".
func (r Reference) ID() string {
	return r.Category + "/" + r.Name + ":" + r.Version
}

// Repository returns "category/name" without the version.
func (r Reference) Repository() string {
	return r.Category + "/" + r.Name
}

// String returns ID for versioned references and Repository otherwise.
func (r Reference) String() string {
	if r.Version == "" {
		return r.Repository()
	}
	return r.ID()
}

// HasVersion reports whether a version is set.
func (r Reference) HasVersion() bool {
	return r.Version != ""
}

// WithVersion returns a copy of r with its version replaced.
func (r Reference) WithVersion(version string) Reference {
	r.Version = version
	return r
}

// Validate reports whether r could have come from Parse. References built
// as struct literals go through it before anything is written for them.
func (r Reference) Validate() error {
	if err := r.validate(); err != nil {
		return fmt.Errorf("%w: %q (%v)", ErrInvalidReference, r.String(), err)
	}
	return nil
}

// validate checks that every segment is usable as a single directory name.
// Dot-prefixed names are reserved for the store's own bookkeeping and are
// never enumerated, so they are rejected here.
func (r Reference) validate() error {
	if err := validateSegment("category", r.Category, true); err != nil {
		return err
	}
	if err := validateSegment("name", r.Name, true); err != nil {
		return err
	}
	return validateSegment("version", r.Version, false)
}

func validateSegment(field, value string, required bool) error {
	if value == "" {
		if required {
			return fmt.Errorf("empty %s", field)
		}
		return nil
	}
	if strings.ContainsAny(value, `/\:`) {
		return fmt.Errorf("%s %q contains a path separator or colon", field, value)
	}
	if strings.HasPrefix(value, ".") {
		return fmt.Errorf("%s %q starts with a dot", field, value)
	}
	if strings.TrimSpace(value) != value {
		return fmt.Errorf("%s %q has surrounding whitespace", field, value)
	}
	return nil
}

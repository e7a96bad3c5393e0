package domain

import (
	"fmt"
	"strings"

	"github.com/BlankParticle/preview-pkg/pkg/validation"
)

// StorageKeyPrefix namespaces every stored archive under a common root so
// the same backing store can host unrelated object classes later.
const StorageKeyPrefix = "preview-pkg"

// Coordinate identifies a publishable unit: an optional scope owner, a
// package name, and the version under which it is published.
type Coordinate struct {
	Owner   string
	Name    string
	Version string
}

// ParseName splits an npm-style package name into scope owner and bare
// name. "@owner/name" yields both parts; "name" yields an unscoped
// coordinate.
func ParseName(raw, version string) (Coordinate, error) {
	coord := Coordinate{Version: version}

	name := raw
	if strings.HasPrefix(raw, "@") {
		owner, rest, ok := strings.Cut(strings.TrimPrefix(raw, "@"), "/")
		if !ok {
			return Coordinate{}, fmt.Errorf("invalid scoped package name %q: expected @owner/name", raw)
		}
		coord.Owner = owner
		name = rest
	}
	coord.Name = name

	if err := coord.Validate(); err != nil {
		return Coordinate{}, err
	}
	return coord, nil
}

// Validate checks every segment against the storage-safe charset.
func (c Coordinate) Validate() error {
	if err := validation.ValidateName("package name", c.Name); err != nil {
		return err
	}
	if err := validation.ValidateName("version", c.Version); err != nil {
		return err
	}
	if c.Owner != "" {
		if err := validation.ValidateName("scope owner", c.Owner); err != nil {
			return err
		}
	}
	return nil
}

// String renders the coordinate the way a user would spell it.
func (c Coordinate) String() string {
	if c.Owner != "" {
		return fmt.Sprintf("@%s/%s@%s", c.Owner, c.Name, c.Version)
	}
	return fmt.Sprintf("%s@%s", c.Name, c.Version)
}

// FullName returns the package name including scope, without the version.
func (c Coordinate) FullName() string {
	if c.Owner != "" {
		return "@" + c.Owner + "/" + c.Name
	}
	return c.Name
}

// KeyName flattens the scoped name for use inside a storage key. Scoped
// packages keep their leading "@" and use a double-underscore separator so
// that {owner: "a", name: "b"} and the unscoped name "a__b" can never
// produce the same key.
func (c Coordinate) KeyName() string {
	if c.Owner != "" {
		return "@" + c.Owner + "__" + c.Name
	}
	return c.Name
}

// KeyNameFor flattens a raw (possibly scoped) package name the same way
// Coordinate.KeyName does, without requiring a full coordinate.
func KeyNameFor(raw string) string {
	if strings.HasPrefix(raw, "@") {
		if owner, rest, ok := strings.Cut(raw[1:], "/"); ok {
			return "@" + owner + "__" + rest
		}
	}
	return raw
}

// StorageKey derives the canonical storage key for this coordinate under
// the given publisher identity:
//
//	preview-pkg/{identity}/{keyname}@{version}
func (c Coordinate) StorageKey(identity string) string {
	return fmt.Sprintf("%s/%s/%s@%s", StorageKeyPrefix, identity, c.KeyName(), c.Version)
}

// TarballName returns the archive file name npm-family tools produce for
// this coordinate (scope owner folded into the stem, "@" dropped).
func (c Coordinate) TarballName() string {
	if c.Owner != "" {
		return fmt.Sprintf("%s-%s-%s.tgz", c.Owner, c.Name, c.Version)
	}
	return fmt.Sprintf("%s-%s.tgz", c.Name, c.Version)
}

package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business-level errors that can occur in the
// system. These errors are used across layers to communicate specific
// failure conditions.
var (
	// Store errors
	ErrPackageNotFound = errors.New("package not found")
	ErrPackageExists   = errors.New("package already exists")
	ErrInvalidDigest   = errors.New("invalid digest")

	// Publish errors
	ErrNoVersion          = errors.New("no publish version: no explicit flag and no git revision resolvable")
	ErrIdentityMismatch   = errors.New("authenticated identity does not match publish identity")
	ErrNothingToPublish   = errors.New("no publishable packages found")
	ErrManifestNotFound   = errors.New("no package manifest in directory")
	ErrManifestNoName     = errors.New("manifest has no name field")
	ErrManifestNoVersion  = errors.New("manifest has no version field")
	ErrManifestPrivate    = errors.New("manifest is marked private")
	ErrManifestBadVersion = errors.New("manifest version is not valid semver")

	// Packer errors
	ErrPackArtifactMissing = errors.New("packer reported success but produced no artifact")

	// Auth errors
	ErrUnauthorized  = errors.New("unauthorized")
	ErrNoCredentials = errors.New("no stored credentials, run login first")
)

// ConflictError reports a checksum conflict against an already stored
// object. Both digests are carried so they can be surfaced verbatim to the
// user; conflicts are never auto-resolved.
type ConflictError struct {
	Key      string
	Expected string // digest recorded by the store
	Actual   string // digest of the bytes being offered
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("checksum conflict for %s: stored %s, offered %s", e.Key, e.Expected, e.Actual)
}

// PackError reports a packaging tool exiting nonzero, with the tool's
// combined output attached for diagnosis.
type PackError struct {
	Tool   string
	Output string
}

func (e *PackError) Error() string {
	return fmt.Sprintf("%s pack failed: %s", e.Tool, e.Output)
}

// Package validation provides input validation for identifiers that end up
// in storage keys and filesystem paths. These functions implement
// defense-in-depth against path traversal and injection attacks.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// Package name, version, and scope owner share the same restricted charset:
// lowercase alphanumeric plus dash, no leading/trailing or adjacent dashes.
var nameRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Publisher identity follows GitHub username rules: mixed-case alphanumeric
// plus dash, must start and end with an alphanumeric character.
var identityRegex = regexp.MustCompile(`^[a-zA-Z0-9]+(?:-[a-zA-Z0-9]+)*$`)

const (
	// MaxNameLength is the maximum allowed length for package names,
	// versions, and scope owners.
	MaxNameLength = 128
	// MaxIdentityLength matches GitHub's username limit.
	MaxIdentityLength = 39
)

// ValidateName validates a package name, version string, or scope owner.
func ValidateName(field, value string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", field)
	}
	if len(value) > MaxNameLength {
		return fmt.Errorf("%s too long: %d chars (max %d)", field, len(value), MaxNameLength)
	}
	if strings.Contains(value, "..") {
		return fmt.Errorf("%s contains path traversal sequence", field)
	}
	if !nameRegex.MatchString(value) {
		return fmt.Errorf("invalid %s %q: must contain only lowercase letters, digits, and dashes", field, value)
	}
	return nil
}

// ValidateIdentity validates a publisher identity (GitHub username).
func ValidateIdentity(identity string) error {
	if identity == "" {
		return fmt.Errorf("identity cannot be empty")
	}
	if len(identity) > MaxIdentityLength {
		return fmt.Errorf("identity too long: %d chars (max %d)", len(identity), MaxIdentityLength)
	}
	if !identityRegex.MatchString(identity) {
		return fmt.Errorf("invalid identity %q: must contain only alphanumeric characters and dashes", identity)
	}
	return nil
}

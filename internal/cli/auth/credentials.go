// Package auth handles client-side authentication: the GitHub device flow
// and the on-disk credential store.
package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BlankParticle/preview-pkg/internal/domain"
	"github.com/BlankParticle/preview-pkg/pkg/logger"
)

// Credentials is the single-file JSON credential store written after a
// successful login.
type Credentials struct {
	ClientID string   `json:"client_id"`
	Scopes   []string `json:"scopes"`
	Token    string   `json:"token"`
}

// CredentialsPath returns the fixed per-user location of the credential
// file. PREVIEW_PKG_CONFIG_DIR overrides the base directory.
func CredentialsPath() (string, error) {
	if dir := os.Getenv("PREVIEW_PKG_CONFIG_DIR"); dir != "" {
		return filepath.Join(dir, "auth.json"), nil
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}
	return filepath.Join(configDir, "preview-pkg", "auth.json"), nil
}

// Load reads stored credentials. A missing file returns
// domain.ErrNoCredentials; a corrupted file is deleted and treated as
// absent rather than surfaced as a crash.
func Load() (*Credentials, error) {
	path, err := CredentialsPath()
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrNoCredentials
		}
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(raw, &creds); err != nil || creds.Token == "" {
		logger.Warn("credential file corrupted, removing", "path", path)
		if rmErr := os.Remove(path); rmErr != nil {
			logger.Warn("failed to remove corrupted credential file", "path", path, "error", rmErr)
		}
		return nil, domain.ErrNoCredentials
	}

	return &creds, nil
}

// Save persists credentials with owner-only permissions.
func Save(creds *Credentials) error {
	path, err := CredentialsPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	raw, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}
	if err := os.WriteFile(path, raw, 0600); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	return nil
}

// Delete removes the credential file. Missing file is not an error.
func Delete() error {
	path, err := CredentialsPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete credentials: %w", err)
	}
	return nil
}

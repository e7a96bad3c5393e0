// Package manifest loads npm package manifests and rewrites their
// dependency entries for preview publishing.
//
// A Manifest keeps two views of the same file: the verbatim original bytes
// (for byte-exact restoration) and a parsed document (for structural
// mutation). Rewrites always go through the parsed document so unrelated
// fields survive untouched; restores always go through the original bytes
// so no formatting drift can occur.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BlankParticle/preview-pkg/internal/domain"
)

// FileName is the manifest file looked up in every candidate directory.
const FileName = "package.json"

// Manifest is a snapshot of one package manifest, owned by a single publish
// run for its duration.
type Manifest struct {
	Path string
	Dir  string

	// Raw is the original file content, kept verbatim for restoration.
	Raw []byte

	// doc is the parsed document used for structural mutation.
	doc map[string]any

	Name    string
	Version string
	Private bool

	mutated bool
}

// Load reads and parses the manifest in dir. A missing file is reported as
// domain.ErrManifestNotFound so discovery can classify it as a skip.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrManifestNotFound, dir)
		}
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}

	m := &Manifest{
		Path: path,
		Dir:  dir,
		Raw:  raw,
		doc:  doc,
	}

	if name, ok := doc["name"].(string); ok {
		m.Name = name
	}
	if version, ok := doc["version"].(string); ok {
		m.Version = version
	}
	if private, ok := doc["private"].(bool); ok {
		m.Private = private
	}

	return m, nil
}

// Mutated reports whether ApplyRewrite has touched the on-disk file since
// Load.
func (m *Manifest) Mutated() bool {
	return m.mutated
}

// Restore writes the original bytes back verbatim. Safe to call whether or
// not the manifest was mutated; a no-op manifest restore just rewrites
// identical content.
func (m *Manifest) Restore() error {
	if err := os.WriteFile(m.Path, m.Raw, 0644); err != nil {
		return fmt.Errorf("failed to restore manifest %s: %w", m.Path, err)
	}
	m.mutated = false
	return nil
}

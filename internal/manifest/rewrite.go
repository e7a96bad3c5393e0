package manifest

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/BlankParticle/preview-pkg/internal/domain"
)

// DependencyMap maps a local package name to the registry URL it will be
// fetchable from once the run's uploads land. Built once per run and
// read-only afterwards.
type DependencyMap map[string]string

// rewriteClasses are the dependency groups whose entries get rewritten.
// peerDependencies is deliberately absent: peers describe the consumer's
// environment, not something the preview tarball should pin.
var rewriteClasses = []string{"dependencies", "devDependencies", "optionalDependencies"}

// BuildDependencyMap computes the target registry URL for every named
// package in the batch. When two discovered packages share a name, the
// later one in traversal order wins; this tie-break is deliberate and
// covered by tests.
func BuildDependencyMap(manifests []*Manifest, identity, version, baseURL string) DependencyMap {
	depMap := make(DependencyMap, len(manifests))
	for _, m := range manifests {
		if m.Name == "" {
			continue
		}
		depMap[m.Name] = fmt.Sprintf("%s/packages/%s/%s/%s", baseURL, identity, domain.KeyNameFor(m.Name), version)
	}
	return depMap
}

// ApplyRewrite replaces the version string of every dependency whose name
// appears in depMap, independently for each rewritable dependency class,
// and writes the mutated document to disk. The original bytes stay captured
// in the Manifest for Restore.
func (m *Manifest) ApplyRewrite(depMap DependencyMap) error {
	changed := false
	for _, class := range rewriteClasses {
		deps, ok := m.doc[class].(map[string]any)
		if !ok {
			continue
		}
		for name := range deps {
			if url, ok := depMap[name]; ok {
				deps[name] = url
				changed = true
			}
		}
	}
	if !changed {
		return nil
	}

	mutated, err := json.MarshalIndent(m.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize mutated manifest %s: %w", m.Path, err)
	}
	mutated = append(mutated, '\n')

	// Marked before the write: WriteFile truncates first, so a failed
	// write can leave a partial file that still needs restoring.
	m.mutated = true
	if err := os.WriteFile(m.Path, mutated, 0644); err != nil {
		return fmt.Errorf("failed to write mutated manifest %s: %w", m.Path, err)
	}
	return nil
}

// Dependencies returns the current entries of one dependency class from the
// parsed document. Used by tests and by the packer's dry-run output.
func (m *Manifest) Dependencies(class string) map[string]string {
	deps, ok := m.doc[class].(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(deps))
	for name, v := range deps {
		if s, ok := v.(string); ok {
			out[name] = s
		}
	}
	return out
}

package publish

import (
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"

	"github.com/BlankParticle/preview-pkg/internal/domain"
	"github.com/BlankParticle/preview-pkg/internal/manifest"
	"github.com/BlankParticle/preview-pkg/pkg/logger"
)

// Skip records a candidate directory that was excluded from the run, with
// the reason it was excluded. Skips are reported, never fatal.
type Skip struct {
	Dir    string
	Reason string
}

// Discover expands path patterns into candidate directories and loads the
// manifest of each. Patterns follow filepath.Glob syntax; a pattern that
// names a directory directly matches itself. With no patterns the current
// directory is the only candidate.
//
// Candidates are skipped (logged and reported, not fatal) when they have no
// manifest, no name, no version, a non-semver version, or are marked
// private. Traversal order is pattern order with glob matches in lexical
// order; this order is what the dependency map's duplicate-name tie-break
// keys off.
func Discover(patterns []string) ([]*manifest.Manifest, []Skip) {
	if len(patterns) == 0 {
		patterns = []string{"."}
	}

	var dirs []string
	seen := make(map[string]bool)
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			logger.Warn("bad path pattern", "pattern", pattern, "error", err)
			continue
		}
		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil || !info.IsDir() {
				continue
			}
			if !seen[match] {
				seen[match] = true
				dirs = append(dirs, match)
			}
		}
	}

	var pkgs []*manifest.Manifest
	var skips []Skip
	for _, dir := range dirs {
		m, err := manifest.Load(dir)
		if err != nil {
			skips = append(skips, Skip{Dir: dir, Reason: err.Error()})
			logger.Info("skipping candidate", "dir", dir, "reason", err)
			continue
		}
		if reason := unsuitable(m); reason != nil {
			skips = append(skips, Skip{Dir: dir, Reason: reason.Error()})
			logger.Info("skipping candidate", "dir", dir, "package", m.Name, "reason", reason)
			continue
		}
		pkgs = append(pkgs, m)
	}

	return pkgs, skips
}

func unsuitable(m *manifest.Manifest) error {
	switch {
	case m.Name == "":
		return domain.ErrManifestNoName
	case m.Version == "":
		return domain.ErrManifestNoVersion
	case m.Private:
		return domain.ErrManifestPrivate
	}
	if _, err := semver.StrictNewVersion(m.Version); err != nil {
		return domain.ErrManifestBadVersion
	}
	return nil
}

package publish

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/BlankParticle/preview-pkg/internal/domain"
)

// VersionResolver produces the publish version for a run when the caller
// did not supply one explicitly.
type VersionResolver interface {
	Resolve(ctx context.Context) (string, error)
}

// GitVersionResolver derives the publish version from the current source
// control revision. Failure here is fatal for the whole run: every package
// in the batch shares one version string and there is no per-package
// fallback.
type GitVersionResolver struct {
	// Dir is the directory the revision is resolved in; empty means the
	// process working directory.
	Dir string
}

// Resolve returns the abbreviated hash of HEAD.
func (g *GitVersionResolver) Resolve(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--short", "HEAD")
	if g.Dir != "" {
		cmd.Dir = g.Dir
	}

	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%w: git rev-parse failed: %s", domain.ErrNoVersion, strings.TrimSpace(string(out)))
	}

	rev := strings.TrimSpace(string(out))
	if rev == "" {
		return "", domain.ErrNoVersion
	}
	return rev, nil
}

// Package packer invokes an external npm-family packaging tool to produce
// a tarball for one package directory.
//
// Each tool family has its own invocation shape and output naming
// convention, so the adapter dispatches on a closed set of tools rather
// than templating a single command line.
package packer

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/BlankParticle/preview-pkg/internal/domain"
	"github.com/BlankParticle/preview-pkg/pkg/digest"
	"github.com/BlankParticle/preview-pkg/pkg/logger"
)

// Tool is one of the supported packaging tool families.
type Tool string

const (
	ToolNpm  Tool = "npm"
	ToolYarn Tool = "yarn"
	ToolPnpm Tool = "pnpm"
	ToolBun  Tool = "bun"
)

// ParseTool validates a tool name from config or flags.
func ParseTool(s string) (Tool, error) {
	switch Tool(s) {
	case ToolNpm, ToolYarn, ToolPnpm, ToolBun:
		return Tool(s), nil
	}
	return "", fmt.Errorf("unsupported pack tool %q (supported: npm, yarn, pnpm, bun)", s)
}

// invocation is the per-tool command shape: the argument vector and the
// name of the file the tool will leave behind on success.
type invocation struct {
	args    []string
	outFile string
}

// plan resolves the invocation for one tool family. Yarn (berry) ignores
// the manifest-derived naming convention entirely and must be told the
// output name; the others name the tarball after the coordinate.
func plan(tool Tool, coord domain.Coordinate) (invocation, error) {
	tarball := coord.TarballName()
	switch tool {
	case ToolNpm:
		return invocation{args: []string{"pack"}, outFile: tarball}, nil
	case ToolPnpm:
		return invocation{args: []string{"pack"}, outFile: tarball}, nil
	case ToolYarn:
		return invocation{args: []string{"pack", "--out", tarball}, outFile: tarball}, nil
	case ToolBun:
		return invocation{args: []string{"pm", "pack"}, outFile: tarball}, nil
	}
	return invocation{}, fmt.Errorf("unsupported pack tool %q", tool)
}

// CommandPacker shells out to the real packaging tools.
type CommandPacker struct {
	// KeepArtifact leaves the produced tarball on disk after its bytes
	// have been captured.
	KeepArtifact bool
}

// Pack runs the tool in dir and captures the produced archive. Nonzero
// exit yields a domain.PackError carrying the tool output; zero exit
// without the expected artifact yields domain.ErrPackArtifactMissing,
// which signals a broken tool integration rather than a user mistake.
func (p *CommandPacker) Pack(ctx context.Context, tool Tool, dir string, coord domain.Coordinate) (*domain.PackResult, error) {
	inv, err := plan(tool, coord)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, string(tool), inv.args...)
	cmd.Dir = dir

	out, err := cmd.CombinedOutput()
	if err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return nil, &domain.PackError{Tool: string(tool), Output: string(out)}
		}
		return nil, fmt.Errorf("failed to run %s: %w", tool, err)
	}

	artifact := filepath.Join(dir, inv.outFile)
	archive, err := os.ReadFile(artifact)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: expected %s from %s", domain.ErrPackArtifactMissing, inv.outFile, tool)
		}
		return nil, fmt.Errorf("failed to read pack artifact %s: %w", artifact, err)
	}

	if !p.KeepArtifact {
		if err := os.Remove(artifact); err != nil {
			logger.Warn("failed to remove pack artifact", "path", artifact, "error", err)
		}
	}

	result := &domain.PackResult{
		Archive:    archive,
		Digest:     digest.Sum(archive),
		Size:       int64(len(archive)),
		ToolOutput: string(out),
	}

	logger.Debug("packed",
		"package", coord.String(),
		"tool", tool,
		"size", result.Size,
		"digest", result.Digest)

	return result, nil
}

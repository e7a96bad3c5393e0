package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadProject(t *testing.T) {
	t.Run("parses file", func(t *testing.T) {
		dir := t.TempDir()
		content := `packages:
  - packages/*
  - tools/cli
tool: pnpm
keep_artifact: true
`
		require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectFileName), []byte(content), 0644))

		cfg, err := LoadProject(dir)
		require.NoError(t, err)
		assert.Equal(t, []string{"packages/*", "tools/cli"}, cfg.Packages)
		assert.Equal(t, "pnpm", cfg.Tool)
		assert.True(t, cfg.KeepArtifact)
	})

	t.Run("missing file yields zero config", func(t *testing.T) {
		cfg, err := LoadProject(t.TempDir())
		require.NoError(t, err)
		assert.Empty(t, cfg.Packages)
		assert.Empty(t, cfg.Tool)
		assert.False(t, cfg.KeepArtifact)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectFileName), []byte("packages: [unclosed"), 0644))
		_, err := LoadProject(dir)
		assert.Error(t, err)
	})
}

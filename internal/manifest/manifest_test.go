package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BlankParticle/preview-pkg/internal/domain"
)

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("parses fields", func(t *testing.T) {
		dir := t.TempDir()
		writeManifest(t, dir, `{"name": "@acme/ui", "version": "1.2.3", "private": true}`)

		m, err := Load(dir)
		require.NoError(t, err)
		assert.Equal(t, "@acme/ui", m.Name)
		assert.Equal(t, "1.2.3", m.Version)
		assert.True(t, m.Private)
		assert.False(t, m.Mutated())
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(t.TempDir())
		assert.ErrorIs(t, err, domain.ErrManifestNotFound)
	})

	t.Run("invalid json", func(t *testing.T) {
		dir := t.TempDir()
		writeManifest(t, dir, `{"name":`)
		_, err := Load(dir)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse manifest")
	})
}

func TestApplyRewrite(t *testing.T) {
	const original = `{
	"name":   "app",
	"version": "1.0.0",
	"dependencies":    {"lib-a": "workspace:*", "lodash": "^4.17.0"},
	"devDependencies": {"lib-b": "1.0.0"},
	"optionalDependencies": {"lib-a": "1.0.0"},
	"peerDependencies": {"lib-a": "*"}
}
`
	depMap := DependencyMap{
		"lib-a": "http://reg/packages/me/lib-a/abc1234",
		"lib-b": "http://reg/packages/me/lib-b/abc1234",
	}

	dir := t.TempDir()
	writeManifest(t, dir, original)
	m, err := Load(dir)
	require.NoError(t, err)

	require.NoError(t, m.ApplyRewrite(depMap))
	assert.True(t, m.Mutated())

	// Reload the on-disk state to check what a pack tool would see.
	written, err := Load(dir)
	require.NoError(t, err)

	deps := written.Dependencies("dependencies")
	assert.Equal(t, "http://reg/packages/me/lib-a/abc1234", deps["lib-a"])
	assert.Equal(t, "^4.17.0", deps["lodash"], "unrelated dependency must survive")

	assert.Equal(t, "http://reg/packages/me/lib-b/abc1234", written.Dependencies("devDependencies")["lib-b"])
	assert.Equal(t, "http://reg/packages/me/lib-a/abc1234", written.Dependencies("optionalDependencies")["lib-a"])

	// Peer dependencies describe the consumer's environment and stay put.
	assert.Equal(t, "*", written.Dependencies("peerDependencies")["lib-a"])
}

func TestApplyRewriteNoMatches(t *testing.T) {
	const original = `{"name": "app", "version": "1.0.0", "dependencies": {"lodash": "^4.17.0"}}`

	dir := t.TempDir()
	path := writeManifest(t, dir, original)
	m, err := Load(dir)
	require.NoError(t, err)

	require.NoError(t, m.ApplyRewrite(DependencyMap{"lib-a": "http://reg/x"}))
	assert.False(t, m.Mutated())

	// No matches means the file is never rewritten, not even reformatted.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, string(raw))
}

func TestApplyRewriteFailedWriteStillMarksMutated(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `{"name": "app", "version": "1.0.0", "dependencies": {"lib-a": "workspace:*"}}`)
	m, err := Load(dir)
	require.NoError(t, err)

	// Point the write at a path that cannot be opened. The write is
	// truncating, so even a failed attempt may have clobbered the file;
	// the manifest must report itself mutated so restore runs on it.
	m.Path = filepath.Join(dir, "vanished", FileName)

	err = m.ApplyRewrite(DependencyMap{"lib-a": "http://reg/x"})
	require.Error(t, err)
	assert.True(t, m.Mutated(), "a failed write must still schedule a restore")
}

func TestRestoreIsByteExact(t *testing.T) {
	// Deliberately hostile formatting: tabs, odd key order, trailing
	// newline. Restore must bring all of it back verbatim.
	const original = "{\n\t\"version\": \"1.0.0\",\n\t\"name\": \"app\",\n\t\"dependencies\": {\"lib-a\": \"workspace:*\"}\n}\n"

	dir := t.TempDir()
	path := writeManifest(t, dir, original)
	m, err := Load(dir)
	require.NoError(t, err)

	require.NoError(t, m.ApplyRewrite(DependencyMap{"lib-a": "http://reg/x"}))

	mutated, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotEqual(t, original, string(mutated))

	require.NoError(t, m.Restore())
	assert.False(t, m.Mutated())

	restored, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, string(restored))

	// Restoring again is a harmless rewrite of identical bytes.
	require.NoError(t, m.Restore())
	again, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, string(again))
}

func TestBuildDependencyMap(t *testing.T) {
	load := func(t *testing.T, content string) *Manifest {
		dir := t.TempDir()
		writeManifest(t, dir, content)
		m, err := Load(dir)
		require.NoError(t, err)
		return m
	}

	t.Run("urls", func(t *testing.T) {
		manifests := []*Manifest{
			load(t, `{"name": "lib-a", "version": "1.0.0"}`),
			load(t, `{"name": "@acme/lib-b", "version": "1.0.0"}`),
		}
		depMap := BuildDependencyMap(manifests, "octocat", "abc1234", "https://preview.example.com")

		assert.Equal(t, "https://preview.example.com/packages/octocat/lib-a/abc1234", depMap["lib-a"])
		assert.Equal(t, "https://preview.example.com/packages/octocat/@acme__lib-b/abc1234", depMap["@acme/lib-b"])
	})

	t.Run("duplicate names last wins", func(t *testing.T) {
		manifests := []*Manifest{
			load(t, `{"name": "lib-a", "version": "1.0.0"}`),
			load(t, `{"name": "lib-a", "version": "2.0.0"}`),
		}
		depMap := BuildDependencyMap(manifests, "octocat", "abc1234", "http://reg")
		require.Len(t, depMap, 1)
		assert.Equal(t, "http://reg/packages/octocat/lib-a/abc1234", depMap["lib-a"])
	})

	t.Run("nameless manifests excluded", func(t *testing.T) {
		manifests := []*Manifest{load(t, `{"version": "1.0.0"}`)}
		assert.Empty(t, BuildDependencyMap(manifests, "octocat", "abc1234", "http://reg"))
	})
}

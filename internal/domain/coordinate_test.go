package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseName(t *testing.T) {
	t.Run("unscoped", func(t *testing.T) {
		coord, err := ParseName("my-lib", "1-2-3")
		require.NoError(t, err)
		assert.Equal(t, Coordinate{Name: "my-lib", Version: "1-2-3"}, coord)
	})

	t.Run("scoped", func(t *testing.T) {
		coord, err := ParseName("@acme/my-lib", "abc1234")
		require.NoError(t, err)
		assert.Equal(t, Coordinate{Owner: "acme", Name: "my-lib", Version: "abc1234"}, coord)
	})

	t.Run("scope without name", func(t *testing.T) {
		_, err := ParseName("@acme", "1-0-0")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expected @owner/name")
	})

	t.Run("invalid charset", func(t *testing.T) {
		_, err := ParseName("My.Lib", "1-0-0")
		assert.Error(t, err)
	})

	t.Run("traversal in owner", func(t *testing.T) {
		_, err := ParseName("@../../etc/passwd", "1-0-0")
		assert.Error(t, err)
	})
}

func TestCoordinateRendering(t *testing.T) {
	scoped := Coordinate{Owner: "acme", Name: "ui", Version: "abc1234"}
	unscoped := Coordinate{Name: "ui", Version: "abc1234"}

	assert.Equal(t, "@acme/ui@abc1234", scoped.String())
	assert.Equal(t, "ui@abc1234", unscoped.String())

	assert.Equal(t, "@acme/ui", scoped.FullName())
	assert.Equal(t, "ui", unscoped.FullName())

	assert.Equal(t, "acme-ui-abc1234.tgz", scoped.TarballName())
	assert.Equal(t, "ui-abc1234.tgz", unscoped.TarballName())
}

func TestStorageKey(t *testing.T) {
	scoped := Coordinate{Owner: "acme", Name: "ui", Version: "abc1234"}
	unscoped := Coordinate{Name: "ui", Version: "abc1234"}

	assert.Equal(t, "preview-pkg/octocat/@acme__ui@abc1234", scoped.StorageKey("octocat"))
	assert.Equal(t, "preview-pkg/octocat/ui@abc1234", unscoped.StorageKey("octocat"))
}

// A scoped package and an unscoped package whose name happens to contain
// the flattened separator must never collide on a storage key.
func TestStorageKeyDisjointness(t *testing.T) {
	scoped := Coordinate{Owner: "a", Name: "b", Version: "1-0-0"}
	// "a__b" itself fails name validation (adjacent dashes aside, "__" is
	// not in the charset), so the only way to collide would be through the
	// flattened form; the "@" prefix on scoped keynames rules that out.
	assert.Equal(t, "@a__b", scoped.KeyName())
	assert.NotEqual(t, "a__b", scoped.KeyName())
}

func TestKeyNameFor(t *testing.T) {
	assert.Equal(t, "ui", KeyNameFor("ui"))
	assert.Equal(t, "@acme__ui", KeyNameFor("@acme/ui"))
	// Malformed scope falls through unchanged; validation happens elsewhere.
	assert.Equal(t, "@acme", KeyNameFor("@acme"))
}

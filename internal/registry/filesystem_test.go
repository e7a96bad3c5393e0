package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starskey-io/starskey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BlankParticle/preview-pkg/internal/domain"
	"github.com/BlankParticle/preview-pkg/pkg/digest"
)

func newTestStore(t *testing.T) *FilesystemStore {
	t.Helper()
	store, err := NewFilesystemStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testMeta(checksum string) domain.Metadata {
	return domain.Metadata{
		Checksum: checksum,
		Name:     "lib-a",
		Version:  "abc1234",
		Identity: "octocat",
	}
}

func TestPutGetRoundtrip(t *testing.T) {
	store := newTestStore(t)
	data := []byte("archive bytes")
	sum := digest.Sum(data)
	key := "preview-pkg/octocat/lib-a@abc1234"

	require.NoError(t, store.Put(key, data, sum, testMeta(sum)))

	got, meta, err := store.Get(key)
	require.NoError(t, err)
	assert.Equal(t, data, got)
	assert.Equal(t, sum, meta.Checksum)
	assert.Equal(t, "lib-a", meta.Name)
	assert.Equal(t, int64(len(data)), meta.Size)
	assert.WithinDuration(t, time.Now(), meta.UploadedAt, time.Minute)
}

func TestExists(t *testing.T) {
	store := newTestStore(t)
	data := []byte("archive bytes")
	sum := digest.Sum(data)
	key := "preview-pkg/octocat/lib-a@abc1234"

	_, ok, err := store.Exists(key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put(key, data, sum, testMeta(sum)))

	checksum, ok, err := store.Exists(key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, sum, checksum)
}

func TestPutIsWriteOnce(t *testing.T) {
	store := newTestStore(t)
	data := []byte("archive bytes")
	sum := digest.Sum(data)
	key := "preview-pkg/octocat/lib-a@abc1234"

	require.NoError(t, store.Put(key, data, sum, testMeta(sum)))

	// Same key, same bytes: still rejected. Idempotency classification is
	// the caller's job via Exists.
	err := store.Put(key, data, sum, testMeta(sum))
	assert.ErrorIs(t, err, domain.ErrPackageExists)

	// Same key, different bytes: rejected, stored content untouched.
	other := []byte("tampered bytes")
	err = store.Put(key, other, digest.Sum(other), testMeta(digest.Sum(other)))
	assert.ErrorIs(t, err, domain.ErrPackageExists)

	got, _, err := store.Get(key)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestPutRejectsBadChecksums(t *testing.T) {
	store := newTestStore(t)
	data := []byte("archive bytes")

	t.Run("malformed", func(t *testing.T) {
		err := store.Put("preview-pkg/octocat/x@1", data, "not-a-digest", testMeta(""))
		assert.ErrorIs(t, err, domain.ErrInvalidDigest)
	})

	t.Run("mismatched", func(t *testing.T) {
		wrong := digest.Sum([]byte("other content"))
		err := store.Put("preview-pkg/octocat/x@1", data, wrong, testMeta(wrong))
		assert.ErrorIs(t, err, domain.ErrInvalidDigest)

		// A rejected put must not occupy the key.
		_, ok, err := store.Exists("preview-pkg/octocat/x@1")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestGetUnknownKey(t *testing.T) {
	store := newTestStore(t)
	_, _, err := store.Get("preview-pkg/octocat/ghost@1")
	assert.ErrorIs(t, err, domain.ErrPackageNotFound)
}

// plantRecord inserts a raw index record, bypassing Put, to exercise the
// store's handling of damaged or incomplete records.
func plantRecord(t *testing.T, store *FilesystemStore, key string, record []byte) {
	t.Helper()
	require.NoError(t, store.index.Update(func(txn *starskey.Txn) error {
		txn.Put([]byte(key), record)
		return nil
	}))
}

func TestGetRecordWithoutChecksumIsNotFound(t *testing.T) {
	store := newTestStore(t)
	key := "preview-pkg/octocat/lib-a@v1"

	record, err := json.Marshal(domain.Metadata{Name: "lib-a", Version: "v1", Identity: "octocat"})
	require.NoError(t, err)
	plantRecord(t, store, key, record)

	_, _, err = store.Get(key)
	assert.ErrorIs(t, err, domain.ErrPackageNotFound)
}

func TestUnreadableRecordIsNotNotFound(t *testing.T) {
	store := newTestStore(t)
	key := "preview-pkg/octocat/lib-a@v1"
	plantRecord(t, store, key, []byte("{not json"))

	// A record the index holds but cannot be decoded is a storage
	// failure, never a 404-shaped miss.
	_, _, err := store.Get(key)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrPackageNotFound)

	_, _, err = store.Exists(key)
	assert.Error(t, err)
}

func TestIdenticalContentSharesBlob(t *testing.T) {
	store := newTestStore(t)
	data := []byte("shared archive bytes")
	sum := digest.Sum(data)

	require.NoError(t, store.Put("preview-pkg/octocat/lib-a@v1", data, sum, testMeta(sum)))
	require.NoError(t, store.Put("preview-pkg/octocat/lib-b@v1", data, sum, testMeta(sum)))

	a, _, err := store.Get("preview-pkg/octocat/lib-a@v1")
	require.NoError(t, err)
	b, _, err := store.Get("preview-pkg/octocat/lib-b@v1")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBlobLayout(t *testing.T) {
	root := t.TempDir()
	store, err := NewFilesystemStore(root)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	data := []byte("archive bytes")
	sum := digest.Sum(data)
	require.NoError(t, store.Put("preview-pkg/octocat/lib-a@v1", data, sum, testMeta(sum)))

	// Digest-sharded two levels deep, no temp files left behind.
	blob := filepath.Join(root, "blobs", "sha256", sum[:2], sum)
	assert.FileExists(t, blob)
	assert.NoFileExists(t, blob+".tmp")

	raw, err := os.ReadFile(blob)
	require.NoError(t, err)
	assert.Equal(t, data, raw)
}

func TestGetReportsMissingBlobAsCorruption(t *testing.T) {
	root := t.TempDir()
	store, err := NewFilesystemStore(root)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	data := []byte("archive bytes")
	sum := digest.Sum(data)
	key := "preview-pkg/octocat/lib-a@v1"
	require.NoError(t, store.Put(key, data, sum, testMeta(sum)))

	require.NoError(t, os.Remove(filepath.Join(root, "blobs", "sha256", sum[:2], sum)))

	_, _, err = store.Get(key)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrPackageNotFound)
	assert.Contains(t, err.Error(), "store corruption")
}

package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/starskey-io/starskey"

	"github.com/BlankParticle/preview-pkg/internal/domain"
	"github.com/BlankParticle/preview-pkg/pkg/digest"
	"github.com/BlankParticle/preview-pkg/pkg/logger"
)

// FilesystemStore keeps archive bytes as digest-sharded files on disk and
// the per-key metadata records in a Starskey index. The index insert is the
// atomic check-and-set that decides which of two racing Puts wins; blob
// files are content-addressed, so writing one twice is harmless.
type FilesystemStore struct {
	rootDir string
	index   *starskey.Starskey
}

// NewFilesystemStore opens (or creates) a store rooted at rootDir.
func NewFilesystemStore(rootDir string) (*FilesystemStore, error) {
	if err := os.MkdirAll(filepath.Join(rootDir, "blobs"), 0750); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}

	index, err := starskey.Open(&starskey.Config{
		Permission:        0750,
		Directory:         filepath.Join(rootDir, "index"),
		FlushThreshold:    8 * 1024 * 1024,
		MaxLevel:          3,
		SizeFactor:        10,
		BloomFilter:       true,
		SuRF:              false,
		Logging:           false,
		Compression:       true,
		CompressionOption: starskey.SnappyCompression,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open package index: %w", err)
	}

	logger.Info("package store initialized", "root_dir", rootDir)

	return &FilesystemStore{
		rootDir: rootDir,
		index:   index,
	}, nil
}

// Exists probes the index for key and returns the recorded checksum.
func (s *FilesystemStore) Exists(key string) (string, bool, error) {
	meta, ok, err := s.lookup(key)
	if err != nil || !ok {
		return "", false, err
	}
	return meta.Checksum, true, nil
}

// Put verifies the offered bytes, writes the blob, and records the
// metadata. The record insert runs in an index transaction so two
// concurrent Puts against the same key cannot both succeed.
func (s *FilesystemStore) Put(key string, data []byte, expectedChecksum string, meta domain.Metadata) error {
	if !digest.Valid(expectedChecksum) {
		return fmt.Errorf("%w: %q", domain.ErrInvalidDigest, expectedChecksum)
	}
	if err := digest.Verify(data, expectedChecksum); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidDigest, err)
	}

	// Early reject before touching the disk. The transactional insert
	// below re-checks, so this is purely a cheap fast path.
	if _, ok, err := s.lookup(key); err != nil {
		return err
	} else if ok {
		return fmt.Errorf("%w: %s", domain.ErrPackageExists, key)
	}

	if err := s.writeBlob(expectedChecksum, data); err != nil {
		return err
	}

	meta.Checksum = expectedChecksum
	meta.Size = int64(len(data))
	meta.UploadedAt = time.Now().UTC()
	record, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	err = s.index.Update(func(txn *starskey.Txn) error {
		if existing, err := txn.Get([]byte(key)); err == nil && existing != nil {
			return fmt.Errorf("%w: %s", domain.ErrPackageExists, key)
		}
		txn.Put([]byte(key), record)
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("package stored", "key", key, "size", meta.Size, "checksum", expectedChecksum)
	return nil
}

// Get returns the stored bytes for key. A record whose blob has gone
// missing is surfaced as corruption rather than not-found: the index said
// the object exists.
func (s *FilesystemStore) Get(key string) ([]byte, domain.Metadata, error) {
	meta, ok, err := s.lookup(key)
	if err != nil {
		return nil, domain.Metadata{}, err
	}
	if !ok || meta.Checksum == "" {
		return nil, domain.Metadata{}, fmt.Errorf("%w: %s", domain.ErrPackageNotFound, key)
	}

	data, err := os.ReadFile(s.blobPath(meta.Checksum))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.Metadata{}, fmt.Errorf("store corruption: blob missing for indexed key %s (checksum %s)", key, meta.Checksum)
		}
		return nil, domain.Metadata{}, fmt.Errorf("failed to read blob: %w", err)
	}

	return data, meta, nil
}

// Close closes the metadata index.
func (s *FilesystemStore) Close() error {
	return s.index.Close()
}

func (s *FilesystemStore) lookup(key string) (domain.Metadata, bool, error) {
	// Starskey reports an absent key as a nil value with no error. An
	// error is an index failure and must not read as not-found.
	value, err := s.index.Get([]byte(key))
	if err != nil {
		return domain.Metadata{}, false, fmt.Errorf("failed to read index record for %s: %w", key, err)
	}
	if value == nil {
		return domain.Metadata{}, false, nil
	}

	var meta domain.Metadata
	if err := json.Unmarshal(value, &meta); err != nil {
		return domain.Metadata{}, false, fmt.Errorf("failed to parse index record for %s: %w", key, err)
	}
	return meta, true, nil
}

// writeBlob stores archive bytes at a digest-sharded path via a temp file
// and rename, so readers never observe a partial blob.
func (s *FilesystemStore) writeBlob(checksum string, data []byte) error {
	blobPath := s.blobPath(checksum)

	if err := os.MkdirAll(filepath.Dir(blobPath), 0750); err != nil {
		return fmt.Errorf("failed to create blob directory: %w", err)
	}

	tmpPath := blobPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0640); err != nil {
		return fmt.Errorf("failed to write blob data: %w", err)
	}
	if err := os.Rename(tmpPath, blobPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to move blob to final location: %w", err)
	}
	return nil
}

// blobPath shards blobs two levels deep by digest prefix, the same layout
// container registries use to keep directory fan-out bounded.
func (s *FilesystemStore) blobPath(checksum string) string {
	return filepath.Join(s.rootDir, "blobs", "sha256", checksum[:2], checksum)
}

// Package registry implements the server-side content-addressed package
// store: idempotent, checksum-verified archive storage keyed by publisher
// identity and package coordinate.
package registry

import (
	"github.com/BlankParticle/preview-pkg/internal/domain"
)

// Store is the contract for package storage backends.
//
// Keys are write-once: a Put against an occupied key returns
// domain.ErrPackageExists regardless of whether the offered bytes match
// what is stored. The caller owns checksum comparison and conflict
// classification; the store never overwrites.
type Store interface {
	// Exists probes a storage key and returns the recorded checksum when
	// the key is occupied.
	Exists(key string) (checksum string, ok bool, err error)

	// Put stores archive bytes under key after verifying them against
	// expectedChecksum. Returns domain.ErrPackageExists when the key is
	// already occupied and domain.ErrInvalidDigest-wrapped errors when
	// the bytes do not hash to expectedChecksum.
	Put(key string, data []byte, expectedChecksum string, meta domain.Metadata) error

	// Get returns the exact bytes previously stored under key, with the
	// recorded metadata. Returns domain.ErrPackageNotFound when the key
	// is unknown or its checksum metadata is missing.
	Get(key string) ([]byte, domain.Metadata, error)

	// Close releases the backing resources.
	Close() error
}

package publish

import (
	"context"

	"github.com/BlankParticle/preview-pkg/internal/domain"
	"github.com/BlankParticle/preview-pkg/internal/packer"
)

// Packer produces an archive for one package directory. Implemented by
// packer.CommandPacker; tests use fakes.
type Packer interface {
	Pack(ctx context.Context, tool packer.Tool, dir string, coord domain.Coordinate) (*domain.PackResult, error)
}

// UploadStatus is the coarse classification of an upload response. The
// orchestrator refines Conflict into already-exists vs checksum-conflict by
// comparing digests itself; the boundary only reports what the server said.
type UploadStatus int

const (
	UploadCreated UploadStatus = iota
	UploadConflict
	UploadError
)

// UploadResponse is the parsed response of one upload request. A response
// that cannot be parsed against this shape never reaches the orchestrator:
// the boundary reports it as an error.
type UploadResponse struct {
	Status UploadStatus

	// ExistingChecksum is the digest the store has recorded for the key,
	// set when Status is UploadConflict.
	ExistingChecksum string

	Message string
}

// Uploader submits one packed archive to the registry. Implemented by
// client.Registry over HTTP.
type Uploader interface {
	Upload(ctx context.Context, coord domain.Coordinate, archive []byte, checksum string) (*UploadResponse, error)
}

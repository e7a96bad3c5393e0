package domain

import "time"

// Outcome classifies the end state of one package in a publish run.
type Outcome string

const (
	OutcomePublished     Outcome = "published"
	OutcomeAlreadyExists Outcome = "already-exists"
	OutcomeConflict      Outcome = "conflict"
	OutcomeError         Outcome = "error"
)

// Result is the per-package record produced by the upload pass. Created
// once, never mutated afterwards.
type Result struct {
	Coordinate Coordinate
	Outcome    Outcome
	Digest     string
	Message    string
}

// OK reports whether the package ended up retrievable from the registry.
func (r Result) OK() bool {
	return r.Outcome == OutcomePublished || r.Outcome == OutcomeAlreadyExists
}

// Metadata is the record the store keeps alongside archive bytes.
type Metadata struct {
	Checksum   string    `json:"checksum"`
	Owner      string    `json:"owner,omitempty"`
	Name       string    `json:"name"`
	Version    string    `json:"version"`
	Identity   string    `json:"identity"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// PackResult captures everything the packer produced for one package. The
// archive bytes live in memory; the on-disk artifact is gone by the time a
// PackResult exists unless keep was requested.
type PackResult struct {
	Archive    []byte
	Digest     string
	Size       int64
	ToolOutput string
}

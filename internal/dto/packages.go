// Package dto defines the JSON bodies exchanged between the CLI and the
// registry server.
package dto

// UploadResult is the response body for package uploads. Exactly one of
// Message or Error is set; ExistingChecksum accompanies conflict responses
// so the client can distinguish an idempotent re-publish from a true
// checksum conflict.
type UploadResult struct {
	Message          string `json:"message,omitempty"`
	Error            string `json:"error,omitempty"`
	ExistingChecksum string `json:"existing_checksum,omitempty"`
}

// WhoamiResult is the response body for identity probes.
type WhoamiResult struct {
	Identity string `json:"identity"`
}

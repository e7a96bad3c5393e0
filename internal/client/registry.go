// Package client implements the HTTP client side of the registry's upload
// and identity boundaries.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/BlankParticle/preview-pkg/internal/domain"
	"github.com/BlankParticle/preview-pkg/internal/dto"
	"github.com/BlankParticle/preview-pkg/internal/publish"
)

// Registry is an authenticated client for one registry server.
type Registry struct {
	BaseURL    string
	Token      string
	Identity   string
	HTTPClient *http.Client
}

// New creates a registry client publishing under the given identity.
func New(baseURL, token, identity string) *Registry {
	return &Registry{
		BaseURL:    baseURL,
		Token:      token,
		Identity:   identity,
		HTTPClient: &http.Client{Timeout: 5 * time.Minute},
	}
}

// Upload submits one archive with its checksum and coordinate metadata.
// The response is classified for the orchestrator; a body that does not
// parse against the expected shape is reported as an upload error, never
// silently ignored.
func (r *Registry) Upload(ctx context.Context, coord domain.Coordinate, archive []byte, checksum string) (*publish.UploadResponse, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"name":     coord.Name,
		"owner":    coord.Owner,
		"version":  coord.Version,
		"checksum": checksum,
	}
	for field, value := range fields {
		if err := w.WriteField(field, value); err != nil {
			return nil, fmt.Errorf("failed to build upload form: %w", err)
		}
	}

	part, err := w.CreateFormFile("archive", coord.TarballName())
	if err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := part.Write(archive); err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}

	url := fmt.Sprintf("%s/api/packages/%s/upload", r.BaseURL, r.Identity)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+r.Token)

	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload response: %w", err)
	}

	var result dto.UploadResult
	if err := json.Unmarshal(body, &result); err != nil {
		return &publish.UploadResponse{
			Status:  publish.UploadError,
			Message: fmt.Sprintf("malformed upload response (status %d): %s", resp.StatusCode, truncate(body, 200)),
		}, nil
	}

	switch resp.StatusCode {
	case http.StatusCreated:
		return &publish.UploadResponse{
			Status:  publish.UploadCreated,
			Message: result.Message,
		}, nil
	case http.StatusConflict:
		if result.ExistingChecksum == "" {
			return &publish.UploadResponse{
				Status:  publish.UploadError,
				Message: fmt.Sprintf("conflict response missing existing checksum: %s", result.Error),
			}, nil
		}
		return &publish.UploadResponse{
			Status:           publish.UploadConflict,
			ExistingChecksum: result.ExistingChecksum,
			Message:          result.Error,
		}, nil
	default:
		msg := result.Error
		if msg == "" {
			msg = fmt.Sprintf("upload failed with status %d", resp.StatusCode)
		}
		return &publish.UploadResponse{Status: publish.UploadError, Message: msg}, nil
	}
}

// Whoami asks the registry which identity the stored token authenticates
// as.
func (r *Registry) Whoami(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.BaseURL+"/api/whoami", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+r.Token)

	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("whoami request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read whoami response: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return "", domain.ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("whoami failed with status %d: %s", resp.StatusCode, truncate(body, 200))
	}

	var result dto.WhoamiResult
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("malformed whoami response: %w", err)
	}
	return result.Identity, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}

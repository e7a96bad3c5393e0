// Package handlers implements the registry server's HTTP handlers.
package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/BlankParticle/preview-pkg/internal/domain"
	"github.com/BlankParticle/preview-pkg/internal/dto"
	"github.com/BlankParticle/preview-pkg/internal/httpserve/middleware"
	"github.com/BlankParticle/preview-pkg/internal/registry"
	"github.com/BlankParticle/preview-pkg/pkg/digest"
	"github.com/BlankParticle/preview-pkg/pkg/logger"
	"github.com/BlankParticle/preview-pkg/pkg/validation"
)

// MaxArchiveSize bounds a single package upload.
const MaxArchiveSize = 100 * 1024 * 1024

var (
	uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "preview_pkg_uploads_total",
		Help: "Package upload requests by outcome.",
	}, []string{"outcome"})

	fetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "preview_pkg_fetches_total",
		Help: "Package fetch requests by outcome.",
	}, []string{"outcome"})
)

// Packages serves the upload and fetch boundaries over one Store.
type Packages struct {
	store registry.Store
}

// NewPackages creates the package handlers.
func NewPackages(store registry.Store) *Packages {
	return &Packages{store: store}
}

// Upload handles POST /api/packages/:identity/upload. The identity in the
// path must match the authenticated identity; publishing into someone
// else's namespace is rejected outright, never retried.
func (h *Packages) Upload(c echo.Context) error {
	identity := c.Param("identity")
	if authed := middleware.IdentityFrom(c); authed != identity {
		uploadsTotal.WithLabelValues("forbidden").Inc()
		return c.JSON(http.StatusForbidden, dto.UploadResult{
			Error: fmt.Sprintf("authenticated as %q, cannot publish as %q", authed, identity),
		})
	}
	if err := validation.ValidateIdentity(identity); err != nil {
		uploadsTotal.WithLabelValues("invalid").Inc()
		return c.JSON(http.StatusBadRequest, dto.UploadResult{Error: err.Error()})
	}

	coord := domain.Coordinate{
		Owner:   c.FormValue("owner"),
		Name:    c.FormValue("name"),
		Version: c.FormValue("version"),
	}
	if err := coord.Validate(); err != nil {
		uploadsTotal.WithLabelValues("invalid").Inc()
		return c.JSON(http.StatusBadRequest, dto.UploadResult{Error: err.Error()})
	}

	checksum := c.FormValue("checksum")
	if !digest.Valid(checksum) {
		uploadsTotal.WithLabelValues("invalid").Inc()
		return c.JSON(http.StatusBadRequest, dto.UploadResult{Error: "missing or malformed checksum field"})
	}

	file, err := c.FormFile("archive")
	if err != nil {
		uploadsTotal.WithLabelValues("invalid").Inc()
		return c.JSON(http.StatusBadRequest, dto.UploadResult{Error: "missing archive file"})
	}
	if file.Size > MaxArchiveSize {
		uploadsTotal.WithLabelValues("invalid").Inc()
		return c.JSON(http.StatusRequestEntityTooLarge, dto.UploadResult{Error: "archive too large"})
	}

	src, err := file.Open()
	if err != nil {
		uploadsTotal.WithLabelValues("error").Inc()
		return c.JSON(http.StatusInternalServerError, dto.UploadResult{Error: "failed to read archive"})
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, MaxArchiveSize+1))
	if err != nil {
		uploadsTotal.WithLabelValues("error").Inc()
		return c.JSON(http.StatusInternalServerError, dto.UploadResult{Error: "failed to read archive"})
	}

	key := coord.StorageKey(identity)
	meta := domain.Metadata{
		Owner:    coord.Owner,
		Name:     coord.Name,
		Version:  coord.Version,
		Identity: identity,
	}

	err = h.store.Put(key, data, checksum, meta)
	switch {
	case err == nil:
		uploadsTotal.WithLabelValues("published").Inc()
		logger.Info("package published", "key", key, "size", len(data))
		return c.JSON(http.StatusCreated, dto.UploadResult{
			Message: fmt.Sprintf("published %s", coord.String()),
		})
	case errors.Is(err, domain.ErrPackageExists):
		existing, ok, probeErr := h.store.Exists(key)
		if probeErr != nil || !ok {
			uploadsTotal.WithLabelValues("error").Inc()
			return c.JSON(http.StatusInternalServerError, dto.UploadResult{Error: "failed to read existing package record"})
		}
		uploadsTotal.WithLabelValues("conflict").Inc()
		return c.JSON(http.StatusConflict, dto.UploadResult{
			Error:            fmt.Sprintf("%s already exists", coord.String()),
			ExistingChecksum: existing,
		})
	case errors.Is(err, domain.ErrInvalidDigest):
		uploadsTotal.WithLabelValues("invalid").Inc()
		return c.JSON(http.StatusBadRequest, dto.UploadResult{Error: err.Error()})
	default:
		uploadsTotal.WithLabelValues("error").Inc()
		logger.Error("package store put failed", "key", key, "error", err)
		return c.JSON(http.StatusInternalServerError, dto.UploadResult{Error: "storage failure"})
	}
}

// Fetch handles GET /packages/:identity/:keyname/:version, returning the
// archive bytes. Unknown coordinates and records without checksum metadata
// are both a plain 404.
func (h *Packages) Fetch(c echo.Context) error {
	identity := c.Param("identity")
	keyname := c.Param("keyname")
	version := c.Param("version")

	key := fmt.Sprintf("%s/%s/%s@%s", domain.StorageKeyPrefix, identity, keyname, version)
	data, meta, err := h.store.Get(key)
	if err != nil {
		if errors.Is(err, domain.ErrPackageNotFound) {
			fetchesTotal.WithLabelValues("miss").Inc()
			return c.JSON(http.StatusNotFound, dto.UploadResult{Error: "package not found"})
		}
		fetchesTotal.WithLabelValues("error").Inc()
		logger.Error("package store get failed", "key", key, "error", err)
		return c.JSON(http.StatusInternalServerError, dto.UploadResult{Error: "storage failure"})
	}

	fetchesTotal.WithLabelValues("hit").Inc()
	c.Response().Header().Set("X-Checksum-Sha256", meta.Checksum)
	return c.Blob(http.StatusOK, "application/octet-stream", data)
}

// Whoami handles GET /api/whoami.
func (h *Packages) Whoami(c echo.Context) error {
	return c.JSON(http.StatusOK, dto.WhoamiResult{Identity: middleware.IdentityFrom(c)})
}

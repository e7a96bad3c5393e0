// Package publish implements the client-side publish pipeline: discover
// candidate packages, rewrite their inter-package dependencies to preview
// registry URLs, pack each one, restore every manifest, and upload the
// archives.
//
// The pipeline runs as sequential passes over one package set, with two
// hard ordering rules: packing for all packages must finish before any
// restore is considered complete, and every restore must complete before
// the first byte goes over the network. The window during which the source
// tree differs from what the user checked in therefore never overlaps
// network I/O.
package publish

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/BlankParticle/preview-pkg/internal/domain"
	"github.com/BlankParticle/preview-pkg/internal/manifest"
	"github.com/BlankParticle/preview-pkg/internal/packer"
	"github.com/BlankParticle/preview-pkg/pkg/logger"
)

// Options configures one publish run.
type Options struct {
	// Identity is the authenticated publisher username; it namespaces
	// every storage key and dependency URL the run produces.
	Identity string

	// Version is the explicit publish version. Empty means derive one
	// from source control via the resolver.
	Version string

	// BaseURL is the registry root used to build dependency URLs.
	BaseURL string

	// Tool selects the packaging tool family.
	Tool packer.Tool
}

// Summary aggregates one publish run: one Result per surviving package,
// the skips, and any restore failures (which are reported loudly but do
// not abort the upload pass; the archives in memory are still valid).
type Summary struct {
	RunID       string
	Identity    string
	Version     string
	Results     []domain.Result
	Skips       []Skip
	RestoreErrs []error
}

// OK reports whether at least one package ended up retrievable.
func (s *Summary) OK() bool {
	for _, r := range s.Results {
		if r.OK() {
			return true
		}
	}
	return false
}

// Orchestrator sequences the publish passes across an arbitrary set of
// packages. All collaborators are boundaries so the pipeline's ordering
// rules are testable without a network or a packaging tool.
type Orchestrator struct {
	packer   Packer
	uploader Uploader
	versions VersionResolver
}

// NewOrchestrator creates an orchestrator over the given boundaries.
func NewOrchestrator(p Packer, u Uploader, v VersionResolver) *Orchestrator {
	return &Orchestrator{packer: p, uploader: u, versions: v}
}

// candidate carries one package through the passes.
type candidate struct {
	manifest *manifest.Manifest
	coord    domain.Coordinate
	pack     *domain.PackResult
	packErr  error
}

// Run executes the full pipeline. The returned error is non-nil only for
// run-fatal conditions (no resolvable version, empty batch); per-package
// failures are Results inside the Summary.
//
// Cancellation is honored between passes, but never before the restore
// pass has run: a canceled context still gets its manifests back.
func (o *Orchestrator) Run(ctx context.Context, opts Options, patterns []string) (*Summary, error) {
	summary := &Summary{
		RunID:    uuid.NewString(),
		Identity: opts.Identity,
	}
	log := logger.GetLogger().With("run_id", summary.RunID)

	// Pass 1: discover.
	pkgs, skips := Discover(patterns)
	summary.Skips = skips
	if len(pkgs) == 0 {
		return summary, domain.ErrNothingToPublish
	}
	log.Info("discovered packages", "count", len(pkgs), "skipped", len(skips))

	// Pass 2: resolve the publish version. Fatal on failure; the run
	// cannot proceed without a version string.
	version := opts.Version
	if version == "" {
		resolved, err := o.versions.Resolve(ctx)
		if err != nil {
			return summary, err
		}
		version = resolved
	}
	summary.Version = version
	log.Info("publish version resolved", "version", version)

	// Parse coordinates up front; a bad coordinate is a user-input error
	// reported as a skip, not a run failure.
	var cands []*candidate
	for _, m := range pkgs {
		coord, err := domain.ParseName(m.Name, version)
		if err != nil {
			summary.Skips = append(summary.Skips, Skip{Dir: m.Dir, Reason: err.Error()})
			log.Info("skipping candidate", "dir", m.Dir, "reason", err)
			continue
		}
		cands = append(cands, &candidate{manifest: m, coord: coord})
	}
	if len(cands) == 0 {
		return summary, domain.ErrNothingToPublish
	}

	// Pass 3: build the dependency map from all survivors.
	surviving := make([]*manifest.Manifest, len(cands))
	for i, c := range cands {
		surviving[i] = c.manifest
	}
	depMap := manifest.BuildDependencyMap(surviving, opts.Identity, version, opts.BaseURL)

	// Passes 4-6 form the mutate window. The deferred restore is the
	// guaranteed-release half of the pattern: whatever pass 5 does
	// (fail, panic, get canceled), mutated manifests go back on disk.
	restored := false
	defer func() {
		if !restored {
			summary.RestoreErrs = restoreAll(cands)
		}
	}()

	// Pass 4: mutate every surviving manifest.
	for _, c := range cands {
		if err := c.manifest.ApplyRewrite(depMap); err != nil {
			c.packErr = err
			log.Error("manifest rewrite failed", "package", c.coord.String(), "error", err)
		}
	}

	// Pass 5: pack all candidates concurrently. Each operates on its own
	// working directory; a failure is recorded per package.
	var wg sync.WaitGroup
	for _, c := range cands {
		if c.packErr != nil {
			continue
		}
		wg.Add(1)
		go func(c *candidate) {
			defer wg.Done()
			c.pack, c.packErr = o.packer.Pack(ctx, opts.Tool, c.manifest.Dir, c.coord)
		}(c)
	}
	wg.Wait()

	// Pass 6: restore barrier. Every mutated manifest is reverted before
	// the first network call, unconditionally.
	summary.RestoreErrs = restoreAll(cands)
	restored = true
	for _, err := range summary.RestoreErrs {
		log.Error("manifest restore failed", "error", err)
	}

	if err := ctx.Err(); err != nil {
		return summary, err
	}

	// Pass 7: upload concurrently. Results are append-only; one writer
	// per package task, serialized by the mutex.
	var mu sync.Mutex
	for _, c := range cands {
		wg.Add(1)
		go func(c *candidate) {
			defer wg.Done()
			result := o.uploadOne(ctx, c, opts.Identity)
			mu.Lock()
			summary.Results = append(summary.Results, result)
			mu.Unlock()
		}(c)
	}
	wg.Wait()

	return summary, nil
}

// uploadOne submits one candidate and classifies the response.
func (o *Orchestrator) uploadOne(ctx context.Context, c *candidate, identity string) domain.Result {
	if c.packErr != nil {
		return domain.Result{
			Coordinate: c.coord,
			Outcome:    domain.OutcomeError,
			Message:    c.packErr.Error(),
		}
	}

	resp, err := o.uploader.Upload(ctx, c.coord, c.pack.Archive, c.pack.Digest)
	if err != nil {
		return domain.Result{
			Coordinate: c.coord,
			Outcome:    domain.OutcomeError,
			Digest:     c.pack.Digest,
			Message:    err.Error(),
		}
	}

	switch resp.Status {
	case UploadCreated:
		return domain.Result{
			Coordinate: c.coord,
			Outcome:    domain.OutcomePublished,
			Digest:     c.pack.Digest,
			Message:    resp.Message,
		}
	case UploadConflict:
		if resp.ExistingChecksum == c.pack.Digest {
			return domain.Result{
				Coordinate: c.coord,
				Outcome:    domain.OutcomeAlreadyExists,
				Digest:     c.pack.Digest,
				Message:    resp.Message,
			}
		}
		conflict := &domain.ConflictError{
			Key:      c.coord.StorageKey(identity),
			Expected: resp.ExistingChecksum,
			Actual:   c.pack.Digest,
		}
		return domain.Result{
			Coordinate: c.coord,
			Outcome:    domain.OutcomeConflict,
			Digest:     c.pack.Digest,
			Message:    conflict.Error(),
		}
	default:
		return domain.Result{
			Coordinate: c.coord,
			Outcome:    domain.OutcomeError,
			Digest:     c.pack.Digest,
			Message:    resp.Message,
		}
	}
}

// restoreAll reverts every mutated manifest and collects failures. Safe to
// call more than once; restoring an already restored manifest is a no-op
// rewrite of identical bytes.
func restoreAll(cands []*candidate) []error {
	var errs []error
	for _, c := range cands {
		if !c.manifest.Mutated() {
			continue
		}
		if err := c.manifest.Restore(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.coord.String(), err))
		}
	}
	return errs
}

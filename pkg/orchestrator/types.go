//go:generate mockgen -destination=./mocks/orchestrator.go -package=mocks . Catalog,Downloader,Cache

package orchestrator

import (
	"context"

	"github.com/glorpus-work/hdrget/pkg/catalog"
	"github.com/glorpus-work/hdrget/pkg/download"
	"github.com/glorpus-work/hdrget/pkg/model"
	"github.com/samber/lo"
)

// Catalog is the subset of the catalog client used by the orchestrator.
type Catalog interface {
	Files(ctx context.Context, assetID string) catalog.FileSet
	DirectURL(ref model.FileRef) string
}

// Downloader probes and transfers files.
type Downloader interface {
	Reachable(ctx context.Context, url string) bool
	Fetch(ctx context.Context, url, dest string, onProgress download.ProgressFunc) (string, error)
}

// Cache is the subset of the cache manager used by the orchestrator.
type Cache interface {
	PathFor(ref model.FileRef) (string, error)
	Lookup(ref model.FileRef) (string, bool)
}

// Orchestrator ties the catalog, the downloader and the cache together.
type Orchestrator struct {
	Catalog Catalog
	DL      Downloader
	Cache   Cache
	Hooks   Hooks // Hooks for progress and event notifications

	// DefaultResolution and DefaultFormat apply when a request carries no
	// preference. Zero values mean 4k and hdr.
	DefaultResolution model.Resolution
	DefaultFormat     model.Format
}

// Event phases.
const (
	PhaseResolving   = "resolving"
	PhaseCatalog     = "catalog"
	PhaseCached      = "cached"
	PhaseProbing     = "probing"
	PhaseDownloading = "downloading"
	PhaseDone        = "done"
	PhaseExhausted   = "exhausted"
)

// Event represents a simple progress notification.
type Event struct {
	Phase string
	ID    string // asset id, or the raw input while resolving
	Msg   string
}

// Hooks carries callbacks for progress events.
type Hooks struct {
	OnEvent func(Event)
}

// Request describes one acquisition.
type Request struct {
	Input      string
	Resolution model.Resolution
	Format     model.Format
	OnProgress download.ProgressFunc
}

// Source tells where a candidate URL came from.
type Source string

const (
	SourceCatalog Source = "catalog"
	SourceDirect  Source = "direct"
)

// Outcome is the result of one attempt.
type Outcome string

const (
	OutcomeCached      Outcome = "cached"
	OutcomeDownloaded  Outcome = "downloaded"
	OutcomeUnreachable Outcome = "unreachable"
	OutcomeFailed      Outcome = "failed"
	// OutcomeUnlisted marks a pair the catalog answered without.
	OutcomeUnlisted Outcome = "unlisted"
)

// Attempt records one candidate that was tried.
type Attempt struct {
	URL        string
	Resolution model.Resolution
	Format     model.Format
	Source     Source
	Outcome    Outcome
	Err        error
}

// Result is the outcome of an acquisition. Path is empty when every
// candidate failed.
type Result struct {
	AssetID    string
	Path       string
	Resolution model.Resolution
	Format     model.Format
	Attempts   []Attempt
}

// Found reports whether a file was obtained.
func (r *Result) Found() bool {
	return r != nil && r.Path != ""
}

// AttemptedURLs returns the URLs of every attempt in order.
func (r *Result) AttemptedURLs() []string {
	if r == nil {
		return nil
	}
	return lo.Map(r.Attempts, func(a Attempt, _ int) string { return a.URL })
}

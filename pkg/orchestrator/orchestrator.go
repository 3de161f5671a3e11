// Package orchestrator turns free-form user input into a cached HDRI file:
// it resolves the input, asks the catalog what exists and walks the
// candidate files in preference order until one is cached or downloaded.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/glorpus-work/hdrget/internal/logger"
	"github.com/glorpus-work/hdrget/pkg/catalog"
	"github.com/glorpus-work/hdrget/pkg/download"
	pkgerrors "github.com/glorpus-work/hdrget/pkg/errors"
	"github.com/glorpus-work/hdrget/pkg/model"
	"github.com/glorpus-work/hdrget/pkg/resolver"
	"github.com/samber/lo"
)

const (
	fallbackResolution = model.Resolution4K
	fallbackFormat     = model.FormatHDR
)

// Acquire resolves req.Input and fetches the best available file. Hints
// carried by the input override the request's preferences. Input errors are
// returned before any network activity.
func (o *Orchestrator) Acquire(ctx context.Context, req Request) (*Result, error) {
	o.emit(Event{Phase: PhaseResolving, ID: req.Input})

	ref, err := resolver.Resolve(req.Input)
	if err != nil {
		return nil, err
	}

	res := req.Resolution
	if ref.Resolution != "" {
		res = ref.Resolution
	}
	format := req.Format
	if ref.Format != "" {
		format = ref.Format
	}
	return o.AcquireAsset(ctx, ref.ID, res, format, req.OnProgress)
}

// AcquireAsset fetches the best available file for assetID. Formats are
// tried preferred first; within a format the preferred resolution comes
// first and the rest follow from largest to smallest. When every candidate
// fails the result has no path and the error is nil.
func (o *Orchestrator) AcquireAsset(ctx context.Context, assetID string, res model.Resolution, format model.Format, onProgress download.ProgressFunc) (*Result, error) {
	if o.Catalog == nil || o.DL == nil || o.Cache == nil {
		return nil, ErrNotConfigured
	}
	if !model.ValidAssetID(assetID) {
		return nil, fmt.Errorf("%w: %q", pkgerrors.ErrInvalidInput, assetID)
	}
	res, format, err := o.preferences(res, format)
	if err != nil {
		return nil, err
	}

	files := o.Catalog.Files(ctx, assetID)
	o.emit(Event{Phase: PhaseCatalog, ID: assetID, Msg: fmt.Sprintf("%d files listed", files.Count())})

	result := &Result{AssetID: assetID}
	for _, f := range formatOrder(format) {
		for _, r := range resolutionOrder(res) {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			done, err := o.try(ctx, files, model.FileRef{AssetID: assetID, Resolution: r, Format: f}, onProgress, result)
			if err != nil || done {
				return result, err
			}
		}
	}

	o.emit(Event{Phase: PhaseExhausted, ID: assetID, Msg: fmt.Sprintf("%d candidates tried", len(result.Attempts))})
	return result, nil
}

// try attempts one candidate. It reports done when result holds a file, and
// returns an error only when the whole acquisition must stop.
func (o *Orchestrator) try(ctx context.Context, files catalog.FileSet, ref model.FileRef, onProgress download.ProgressFunc, result *Result) (bool, error) {
	url, source, ok := o.candidateURL(files, ref)
	attempt := Attempt{URL: url, Resolution: ref.Resolution, Format: ref.Format, Source: source}
	if !ok {
		// Recorded under its conventional URL so the attempt list stays in
		// preference order. No request is made for it.
		logger.Debug("Catalog does not list candidate", logger.Fields{"file": ref.FileName()})
		attempt.URL = o.Catalog.DirectURL(ref)
		attempt.Source = SourceDirect
		attempt.Outcome = OutcomeUnlisted
		o.record(result, attempt)
		return false, nil
	}

	if path, found := o.Cache.Lookup(ref); found {
		attempt.Outcome = OutcomeCached
		o.record(result, attempt)
		o.finish(result, ref, path)
		o.emit(Event{Phase: PhaseCached, ID: ref.AssetID, Msg: path})
		return true, nil
	}

	if source == SourceDirect {
		o.emit(Event{Phase: PhaseProbing, ID: ref.AssetID, Msg: url})
		if !o.DL.Reachable(ctx, url) {
			attempt.Outcome = OutcomeUnreachable
			o.record(result, attempt)
			return false, ctx.Err()
		}
	}

	dest, err := o.Cache.PathFor(ref)
	if err != nil {
		attempt.Outcome = OutcomeFailed
		attempt.Err = err
		o.record(result, attempt)
		return false, err
	}

	o.emit(Event{Phase: PhaseDownloading, ID: ref.AssetID, Msg: url})
	path, err := o.DL.Fetch(ctx, url, dest, onProgress)
	if err != nil {
		attempt.Outcome = OutcomeFailed
		attempt.Err = err
		o.record(result, attempt)
		if stopsAcquisition(ctx, err) {
			return false, err
		}
		return false, nil
	}

	attempt.Outcome = OutcomeDownloaded
	o.record(result, attempt)
	o.finish(result, ref, path)
	o.emit(Event{Phase: PhaseDone, ID: ref.AssetID, Msg: path})
	return true, nil
}

// candidateURL picks the URL for ref. A catalog that answered is trusted:
// pairs it does not list are not fetched. Only an empty catalog answer falls
// back to the conventional CDN URL.
func (o *Orchestrator) candidateURL(files catalog.FileSet, ref model.FileRef) (string, Source, bool) {
	if files.Empty() {
		return o.Catalog.DirectURL(ref), SourceDirect, true
	}
	if url, ok := files.Lookup(ref.Format, ref.Resolution); ok {
		return url, SourceCatalog, true
	}
	return "", "", false
}

func (o *Orchestrator) preferences(res model.Resolution, format model.Format) (model.Resolution, model.Format, error) {
	if res == "" {
		res = lo.CoalesceOrEmpty(o.DefaultResolution, fallbackResolution)
	}
	if format == "" {
		format = lo.CoalesceOrEmpty(o.DefaultFormat, fallbackFormat)
	}
	if !res.Valid() {
		return "", "", pkgerrors.ErrInvalidResolutionValue(string(res), lo.Map(model.AllResolutions(), func(r model.Resolution, _ int) string { return string(r) }))
	}
	if !format.Valid() {
		return "", "", pkgerrors.ErrInvalidFormatValue(string(format), lo.Map(model.AllFormats(), func(f model.Format, _ int) string { return string(f) }))
	}
	return res, format, nil
}

func (o *Orchestrator) record(result *Result, attempt Attempt) {
	result.Attempts = append(result.Attempts, attempt)
	if attempt.Err != nil {
		logger.Debug("Candidate failed", logger.Fields{"url": attempt.URL, "outcome": attempt.Outcome, "error": attempt.Err.Error()})
	}
}

func (o *Orchestrator) finish(result *Result, ref model.FileRef, path string) {
	result.Path = path
	result.Resolution = ref.Resolution
	result.Format = ref.Format
}

// emit sends a progress event if a hook is configured.
func (o *Orchestrator) emit(e Event) {
	if o.Hooks.OnEvent != nil {
		o.Hooks.OnEvent(e)
	}
}

func stopsAcquisition(ctx context.Context, err error) bool {
	return errors.Is(err, download.ErrAborted) ||
		errors.Is(err, context.Canceled) ||
		ctx.Err() != nil
}

// formatOrder returns the preferred format followed by the others.
func formatOrder(preferred model.Format) []model.Format {
	return append([]model.Format{preferred}, lo.Without(model.AllFormats(), preferred)...)
}

// resolutionOrder returns the preferred tier followed by the others from
// largest to smallest.
func resolutionOrder(preferred model.Resolution) []model.Resolution {
	rest := lo.Without(model.AllResolutions(), preferred)
	slices.Reverse(rest)
	return append([]model.Resolution{preferred}, rest...)
}

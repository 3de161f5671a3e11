package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/glorpus-work/hdrget/pkg/catalog"
	"github.com/glorpus-work/hdrget/pkg/download"
	pkgerrors "github.com/glorpus-work/hdrget/pkg/errors"
	"github.com/glorpus-work/hdrget/pkg/model"
	ocmocks "github.com/glorpus-work/hdrget/pkg/orchestrator/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const cdn = "https://dl.test/file/ph-assets/HDRIs"

func directURL(ref model.FileRef) string {
	return fmt.Sprintf("%s/%s/%s/%s", cdn, ref.Format, ref.Resolution, ref.FileName())
}

type fixture struct {
	cat   *ocmocks.MockCatalog
	dl    *ocmocks.MockDownloader
	cache *ocmocks.MockCache
	orch  *Orchestrator
	event []Event
}

func newFixture(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)
	f := &fixture{
		cat:   ocmocks.NewMockCatalog(ctrl),
		dl:    ocmocks.NewMockDownloader(ctrl),
		cache: ocmocks.NewMockCache(ctrl),
	}
	f.orch = &Orchestrator{
		Catalog: f.cat,
		DL:      f.dl,
		Cache:   f.cache,
		Hooks:   Hooks{OnEvent: func(e Event) { f.event = append(f.event, e) }},
	}
	f.cat.EXPECT().DirectURL(gomock.Any()).DoAndReturn(directURL).AnyTimes()
	f.cache.EXPECT().PathFor(gomock.Any()).DoAndReturn(func(ref model.FileRef) (string, error) {
		return "/cache/" + ref.FileName(), nil
	}).AnyTimes()
	return f
}

func (f *fixture) phases() []string {
	out := make([]string, 0, len(f.event))
	for _, e := range f.event {
		out = append(out, e.Phase)
	}
	return out
}

func TestAcquire_InvalidInputMakesNoCalls(t *testing.T) {
	for _, input := range []string{"", "   ", "hello world", "!!!"} {
		t.Run(fmt.Sprintf("%q", input), func(t *testing.T) {
			ctrl := gomock.NewController(t)
			orch := &Orchestrator{
				Catalog: ocmocks.NewMockCatalog(ctrl),
				DL:      ocmocks.NewMockDownloader(ctrl),
				Cache:   ocmocks.NewMockCache(ctrl),
			}

			res, err := orch.Acquire(context.Background(), Request{Input: input})
			require.Error(t, err)
			assert.ErrorIs(t, err, pkgerrors.ErrInvalidInput)
			assert.Nil(t, res)
		})
	}
}

func TestAcquire_CachedFileSkipsNetwork(t *testing.T) {
	f := newFixture(t)
	ref := model.FileRef{AssetID: "rocks", Resolution: model.Resolution4K, Format: model.FormatHDR}

	f.cat.EXPECT().Files(gomock.Any(), "rocks").Return(catalog.FileSet{}).Times(1)
	f.cache.EXPECT().Lookup(ref).Return("/cache/rocks_4k.hdr", true).Times(1)
	f.dl.EXPECT().Reachable(gomock.Any(), gomock.Any()).Times(0)
	f.dl.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	res, err := f.orch.Acquire(context.Background(), Request{Input: "rocks"})
	require.NoError(t, err)
	assert.True(t, res.Found())
	assert.Equal(t, "/cache/rocks_4k.hdr", res.Path)
	assert.Equal(t, model.Resolution4K, res.Resolution)
	assert.Equal(t, model.FormatHDR, res.Format)
	require.Len(t, res.Attempts, 1)
	assert.Equal(t, OutcomeCached, res.Attempts[0].Outcome)
	assert.Equal(t, []string{PhaseResolving, PhaseCatalog, PhaseCached}, f.phases())
}

func TestAcquire_SecondCallIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ref := model.FileRef{AssetID: "rocks", Resolution: model.Resolution2K, Format: model.FormatEXR}
	url := "https://dl.test/rocks_2k.exr"
	files := catalog.FileSet{model.FormatEXR: {model.Resolution2K: url}}

	f.cat.EXPECT().Files(gomock.Any(), "rocks").Return(files).Times(2)
	gomock.InOrder(
		f.cache.EXPECT().Lookup(ref).Return("/cache/rocks_2k.exr", false),
		f.dl.EXPECT().Fetch(gomock.Any(), url, "/cache/rocks_2k.exr", gomock.Any()).Return("/cache/rocks_2k.exr", nil).Times(1),
		f.cache.EXPECT().Lookup(ref).Return("/cache/rocks_2k.exr", true),
	)

	req := Request{Input: "rocks", Resolution: model.Resolution2K, Format: model.FormatEXR}
	first, err := f.orch.Acquire(context.Background(), req)
	require.NoError(t, err)
	second, err := f.orch.Acquire(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.Path, second.Path)
	assert.Equal(t, OutcomeDownloaded, first.Attempts[0].Outcome)
	assert.Equal(t, OutcomeCached, second.Attempts[0].Outcome)
}

func TestAcquire_FallsBackToNonPreferredCatalogPair(t *testing.T) {
	f := newFixture(t)
	url := "https://dl.test/sky_2k.exr"
	files := catalog.FileSet{model.FormatEXR: {model.Resolution2K: url}}
	want := model.FileRef{AssetID: "sky", Resolution: model.Resolution2K, Format: model.FormatEXR}

	f.cat.EXPECT().Files(gomock.Any(), "sky").Return(files)
	f.cache.EXPECT().Lookup(want).Return("/cache/sky_2k.exr", false)
	f.dl.EXPECT().Reachable(gomock.Any(), gomock.Any()).Times(0)
	f.dl.EXPECT().Fetch(gomock.Any(), url, "/cache/sky_2k.exr", gomock.Any()).Return("/cache/sky_2k.exr", nil)

	res, err := f.orch.Acquire(context.Background(), Request{Input: "sky", Resolution: model.Resolution4K, Format: model.FormatHDR})
	require.NoError(t, err)
	assert.True(t, res.Found())
	assert.Equal(t, model.Resolution2K, res.Resolution)
	assert.Equal(t, model.FormatEXR, res.Format)

	var wantURLs []string
	for _, c := range []struct {
		format model.Format
		res    model.Resolution
	}{
		{model.FormatHDR, model.Resolution4K},
		{model.FormatHDR, model.Resolution16K},
		{model.FormatHDR, model.Resolution8K},
		{model.FormatHDR, model.Resolution2K},
		{model.FormatHDR, model.Resolution1K},
		{model.FormatEXR, model.Resolution4K},
		{model.FormatEXR, model.Resolution16K},
		{model.FormatEXR, model.Resolution8K},
	} {
		wantURLs = append(wantURLs, directURL(model.FileRef{AssetID: "sky", Resolution: c.res, Format: c.format}))
	}
	wantURLs = append(wantURLs, url)
	assert.Equal(t, wantURLs, res.AttemptedURLs())
	assert.Equal(t, directURL(model.FileRef{AssetID: "sky", Resolution: model.Resolution4K, Format: model.FormatHDR}), res.AttemptedURLs()[0])

	last := len(res.Attempts) - 1
	for _, a := range res.Attempts[:last] {
		assert.Equal(t, OutcomeUnlisted, a.Outcome)
		assert.Equal(t, SourceDirect, a.Source)
		assert.NoError(t, a.Err)
	}
	assert.Equal(t, OutcomeDownloaded, res.Attempts[last].Outcome)
	assert.Equal(t, SourceCatalog, res.Attempts[last].Source)
}

func TestAcquire_EmptyCatalogProbesBeforeTransfer(t *testing.T) {
	f := newFixture(t)
	ref := model.FileRef{AssetID: "sky", Resolution: model.Resolution4K, Format: model.FormatHDR}
	url := directURL(ref)

	f.cat.EXPECT().Files(gomock.Any(), "sky").Return(catalog.FileSet{})
	f.cache.EXPECT().Lookup(ref).Return("", false)
	gomock.InOrder(
		f.dl.EXPECT().Reachable(gomock.Any(), url).Return(true),
		f.dl.EXPECT().Fetch(gomock.Any(), url, "/cache/sky_4k.hdr", gomock.Any()).Return("/cache/sky_4k.hdr", nil),
	)

	res, err := f.orch.Acquire(context.Background(), Request{Input: "sky"})
	require.NoError(t, err)
	assert.True(t, res.Found())
	assert.Equal(t, SourceDirect, res.Attempts[0].Source)
	assert.Equal(t, []string{PhaseResolving, PhaseCatalog, PhaseProbing, PhaseDownloading, PhaseDone}, f.phases())
}

func TestAcquire_ExhaustionReportsEveryAttempt(t *testing.T) {
	f := newFixture(t)

	f.cat.EXPECT().Files(gomock.Any(), "void").Return(nil)
	f.cache.EXPECT().Lookup(gomock.Any()).Return("", false).Times(10)
	f.dl.EXPECT().Reachable(gomock.Any(), gomock.Any()).Return(false).Times(10)
	f.dl.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	res, err := f.orch.Acquire(context.Background(), Request{Input: "void", Resolution: model.Resolution2K, Format: model.FormatEXR})
	require.NoError(t, err)
	assert.False(t, res.Found())
	assert.Empty(t, res.Path)

	var want []string
	for _, format := range []model.Format{model.FormatEXR, model.FormatHDR} {
		for _, r := range []model.Resolution{model.Resolution2K, model.Resolution16K, model.Resolution8K, model.Resolution4K, model.Resolution1K} {
			want = append(want, directURL(model.FileRef{AssetID: "void", Resolution: r, Format: format}))
		}
	}
	assert.Equal(t, want, res.AttemptedURLs())
	for _, a := range res.Attempts {
		assert.Equal(t, OutcomeUnreachable, a.Outcome)
	}
	assert.Equal(t, PhaseExhausted, f.phases()[len(f.event)-1])
}

func TestAcquire_TransferFailureContinues(t *testing.T) {
	f := newFixture(t)
	files := catalog.FileSet{
		model.FormatHDR: {
			model.Resolution4K: "https://dl.test/a_4k.hdr",
			model.Resolution1K: "https://dl.test/a_1k.hdr",
		},
	}

	f.cat.EXPECT().Files(gomock.Any(), "a").Return(files)
	f.cache.EXPECT().Lookup(gomock.Any()).Return("", false).Times(2)
	gomock.InOrder(
		f.dl.EXPECT().Fetch(gomock.Any(), "https://dl.test/a_4k.hdr", gomock.Any(), gomock.Any()).Return("", pkgerrors.ErrDownloadFailed),
		f.dl.EXPECT().Fetch(gomock.Any(), "https://dl.test/a_1k.hdr", gomock.Any(), gomock.Any()).Return("/cache/a_1k.hdr", nil),
	)

	res, err := f.orch.Acquire(context.Background(), Request{Input: "a"})
	require.NoError(t, err)
	assert.Equal(t, "/cache/a_1k.hdr", res.Path)

	outcomes := make([]Outcome, 0, len(res.Attempts))
	for _, a := range res.Attempts {
		outcomes = append(outcomes, a.Outcome)
	}
	assert.Equal(t, []Outcome{OutcomeFailed, OutcomeUnlisted, OutcomeUnlisted, OutcomeUnlisted, OutcomeDownloaded}, outcomes)
	assert.ErrorIs(t, res.Attempts[0].Err, pkgerrors.ErrDownloadFailed)
}

func TestAcquire_AbortStopsLoop(t *testing.T) {
	f := newFixture(t)
	files := catalog.FileSet{
		model.FormatHDR: {
			model.Resolution4K: "https://dl.test/a_4k.hdr",
			model.Resolution1K: "https://dl.test/a_1k.hdr",
		},
	}
	aborted := fmt.Errorf("%w: stop", download.ErrAborted)

	f.cat.EXPECT().Files(gomock.Any(), "a").Return(files)
	f.cache.EXPECT().Lookup(gomock.Any()).Return("", false).Times(1)
	f.dl.EXPECT().Fetch(gomock.Any(), "https://dl.test/a_4k.hdr", gomock.Any(), gomock.Any()).Return("", aborted).Times(1)

	res, err := f.orch.Acquire(context.Background(), Request{Input: "a"})
	require.Error(t, err)
	assert.ErrorIs(t, err, download.ErrAborted)
	require.NotNil(t, res)
	assert.False(t, res.Found())
	assert.Len(t, res.Attempts, 1)
}

func TestAcquire_CancelledContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f.cat.EXPECT().Files(gomock.Any(), "a").Return(catalog.FileSet{})

	res, err := f.orch.Acquire(ctx, Request{Input: "a"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, res.Attempts)
}

func TestAcquire_ProgressIsForwarded(t *testing.T) {
	f := newFixture(t)
	files := catalog.FileSet{model.FormatHDR: {model.Resolution4K: "https://dl.test/p_4k.hdr"}}

	var seen [][2]int64
	progress := func(read, total int64) error {
		seen = append(seen, [2]int64{read, total})
		return nil
	}

	f.cat.EXPECT().Files(gomock.Any(), "p").Return(files)
	f.cache.EXPECT().Lookup(gomock.Any()).Return("", false)
	f.dl.EXPECT().Fetch(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _, dest string, onProgress download.ProgressFunc) (string, error) {
			require.NoError(t, onProgress(10, 20))
			require.NoError(t, onProgress(20, 20))
			return dest, nil
		})

	_, err := f.orch.Acquire(context.Background(), Request{Input: "p", OnProgress: progress})
	require.NoError(t, err)
	assert.Equal(t, [][2]int64{{10, 20}, {20, 20}}, seen)
}

func TestAcquire_URLHintsOverridePreferences(t *testing.T) {
	f := newFixture(t)
	ref := model.FileRef{AssetID: "rocks", Resolution: model.Resolution1K, Format: model.FormatEXR}

	f.cat.EXPECT().Files(gomock.Any(), "rocks").Return(catalog.FileSet{})
	f.cache.EXPECT().Lookup(ref).Return("/cache/rocks_1k.exr", true)

	res, err := f.orch.Acquire(context.Background(), Request{
		Input:      "https://dl.polyhaven.org/file/ph-assets/HDRIs/exr/1k/rocks_1k.exr",
		Resolution: model.Resolution8K,
		Format:     model.FormatHDR,
	})
	require.NoError(t, err)
	assert.Equal(t, model.Resolution1K, res.Resolution)
	assert.Equal(t, model.FormatEXR, res.Format)
}

func TestAcquire_DefaultPreferences(t *testing.T) {
	f := newFixture(t)
	f.orch.DefaultResolution = model.Resolution8K
	f.orch.DefaultFormat = model.FormatEXR
	ref := model.FileRef{AssetID: "rocks", Resolution: model.Resolution8K, Format: model.FormatEXR}

	f.cat.EXPECT().Files(gomock.Any(), "rocks").Return(catalog.FileSet{})
	f.cache.EXPECT().Lookup(ref).Return("/cache/rocks_8k.exr", true)

	res, err := f.orch.Acquire(context.Background(), Request{Input: "rocks"})
	require.NoError(t, err)
	assert.Equal(t, "/cache/rocks_8k.exr", res.Path)
}

func TestAcquireAsset_InvalidPreferences(t *testing.T) {
	f := newFixture(t)

	_, err := f.orch.AcquireAsset(context.Background(), "rocks", "3k", model.FormatHDR, nil)
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidResolution)

	_, err = f.orch.AcquireAsset(context.Background(), "rocks", model.Resolution1K, "png", nil)
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidFormat)

	_, err = f.orch.AcquireAsset(context.Background(), "../rocks", model.Resolution1K, model.FormatHDR, nil)
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidInput)
}

func TestAcquire_PathForFailureStops(t *testing.T) {
	ctrl := gomock.NewController(t)
	cat := ocmocks.NewMockCatalog(ctrl)
	dl := ocmocks.NewMockDownloader(ctrl)
	cache := ocmocks.NewMockCache(ctrl)
	orch := &Orchestrator{Catalog: cat, DL: dl, Cache: cache}
	diskErr := errors.New("read-only file system")

	cat.EXPECT().Files(gomock.Any(), "a").Return(catalog.FileSet{model.FormatHDR: {model.Resolution4K: "https://dl.test/a"}})
	cache.EXPECT().Lookup(gomock.Any()).Return("", false)
	cache.EXPECT().PathFor(gomock.Any()).Return("", diskErr)

	res, err := orch.Acquire(context.Background(), Request{Input: "a"})
	assert.ErrorIs(t, err, diskErr)
	assert.Len(t, res.Attempts, 1)
}

func TestAcquire_NotConfigured(t *testing.T) {
	_, err := (&Orchestrator{}).Acquire(context.Background(), Request{Input: "rocks"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestCandidateOrder(t *testing.T) {
	assert.Equal(t,
		[]model.Resolution{model.Resolution2K, model.Resolution16K, model.Resolution8K, model.Resolution4K, model.Resolution1K},
		resolutionOrder(model.Resolution2K))
	assert.Equal(t,
		[]model.Resolution{model.Resolution16K, model.Resolution8K, model.Resolution4K, model.Resolution2K, model.Resolution1K},
		resolutionOrder(model.Resolution16K))
	assert.Equal(t, []model.Format{model.FormatEXR, model.FormatHDR}, formatOrder(model.FormatEXR))
	assert.Equal(t, []model.Format{model.FormatHDR, model.FormatEXR}, formatOrder(model.FormatHDR))
}

func TestResult_NilSafe(t *testing.T) {
	var r *Result
	assert.False(t, r.Found())
	assert.Nil(t, r.AttemptedURLs())
}

package sync_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/bandroom-dev/bandroom-sync-server/internal/review"
	"github.com/bandroom-dev/bandroom-sync-server/internal/store"
	"github.com/bandroom-dev/bandroom-sync-server/internal/store/inmemory"
	storemocks "github.com/bandroom-dev/bandroom-sync-server/internal/store/mocks"
	syncpkg "github.com/bandroom-dev/bandroom-sync-server/internal/sync"
	syncmocks "github.com/bandroom-dev/bandroom-sync-server/internal/sync/mocks"
)

// frame is a decoded stream event with just the discriminator and the raw body
type frame struct {
	Type string `json:"type"`
	raw  []byte
}

func decodeFrames(t *testing.T, body string) []frame {
	t.Helper()

	var frames []frame
	for _, chunk := range strings.Split(body, "\n\n") {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		payload, ok := strings.CutPrefix(chunk, "data: ")
		require.True(t, ok, "frame missing data prefix: %q", chunk)

		var f frame
		require.NoError(t, json.Unmarshal([]byte(payload), &f))
		f.raw = []byte(payload)
		frames = append(frames, f)
	}
	return frames
}

func frameTypes(frames []frame) []string {
	types := make([]string, len(frames))
	for i, f := range frames {
		types[i] = f.Type
	}
	return types
}

func catalogUnits(n int) []syncpkg.WorkUnit {
	units := make([]syncpkg.WorkUnit, n)
	for i := range units {
		id := uuid.New()
		units[i] = syncpkg.WorkUnit{Index: i + 1, Total: n, Label: id.String(), SongID: &id}
	}
	return units
}

func newTestOrchestrator(t *testing.T, splitter syncpkg.Splitter, resolver syncpkg.Resolver) (*syncpkg.Orchestrator, syncpkg.Registry) {
	t.Helper()

	registry := syncpkg.NewRegistry(time.Minute)
	reviews := review.NewService(inmemory.New())
	orch := syncpkg.NewOrchestrator(registry, splitter, map[syncpkg.Kind]syncpkg.Resolver{
		syncpkg.KindCalendarImport: resolver,
		syncpkg.KindCatalogMatch:   resolver,
	}, reviews)
	return orch, registry
}

func TestOrchestratorCompletesWithExactCounters(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	splitter := syncmocks.NewMockSplitter(ctrl)
	resolver := syncmocks.NewMockResolver(ctrl)

	units := catalogUnits(10)
	splitter.EXPECT().Split(gomock.Any(), gomock.Any()).Return(units, nil)

	// 7 imported, 2 duplicate skips, 1 transient failure
	call := 0
	resolver.EXPECT().Resolve(gomock.Any(), gomock.Any(), gomock.Any()).Times(10).
		DoAndReturn(func(_ context.Context, unit syncpkg.WorkUnit, _ syncpkg.Options) syncpkg.Outcome {
			call++
			switch {
			case call <= 2:
				return syncpkg.SkippedDuplicate(*unit.SongID)
			case call == 3:
				return syncpkg.Failed(syncpkg.ErrorTransient, "lookup timeout")
			default:
				return syncpkg.Imported(*unit.SongID)
			}
		})

	orch, registry := newTestOrchestrator(t, splitter, resolver)
	job := registry.Create(syncpkg.KindCatalogMatch)

	rec := httptest.NewRecorder()
	final := orch.Run(context.Background(), job, syncpkg.Request{Kind: syncpkg.KindCatalogMatch, AllEligible: true}, syncpkg.NewEncoder(rec))

	assert.Equal(t, syncpkg.StatusCompleted, final.Status)
	assert.Equal(t, 7, final.Counters.Imported)
	assert.Equal(t, 2, final.Counters.Skipped)
	assert.Equal(t, 1, final.Counters.Failed)
	assert.Equal(t, 0, final.Counters.PendingReview)
	assert.Equal(t, final.Totals.Units, final.Counters.Sum())
	assert.Equal(t, final.Totals.Units, final.Totals.Done)

	frames := decodeFrames(t, rec.Body.String())
	types := frameTypes(frames)

	assert.Equal(t, "init", types[0])
	assert.Equal(t, "complete", types[len(types)-1])
	unitStarts := 0
	for _, ft := range types {
		if ft == "unit_start" {
			unitStarts++
		}
	}
	assert.Equal(t, 10, unitStarts)
	// init + 10×(unit_start, item, progress) + complete
	assert.Len(t, frames, 32)
}

func TestOrchestratorCancelBeforeFirstUnit(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	splitter := syncmocks.NewMockSplitter(ctrl)
	resolver := syncmocks.NewMockResolver(ctrl)

	splitter.EXPECT().Split(gomock.Any(), gomock.Any()).Return(catalogUnits(5), nil)

	orch, registry := newTestOrchestrator(t, splitter, resolver)
	job := registry.Create(syncpkg.KindCatalogMatch)

	_, err := registry.RequestCancel(job.ID)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	final := orch.Run(context.Background(), job, syncpkg.Request{Kind: syncpkg.KindCatalogMatch, AllEligible: true}, syncpkg.NewEncoder(rec))

	assert.Equal(t, syncpkg.StatusCancelled, final.Status)
	assert.Equal(t, 0, final.Counters.Sum())
	assert.Equal(t, 0, final.Totals.Done)

	types := frameTypes(decodeFrames(t, rec.Body.String()))
	assert.Equal(t, []string{"init", "cancelled"}, types)
}

func TestOrchestratorCancelAfterUnitBoundary(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	splitter := syncmocks.NewMockSplitter(ctrl)
	resolver := syncmocks.NewMockResolver(ctrl)

	splitter.EXPECT().Split(gomock.Any(), gomock.Any()).Return(catalogUnits(5), nil)

	orch, registry := newTestOrchestrator(t, splitter, resolver)
	job := registry.Create(syncpkg.KindCatalogMatch)

	// Cancel arrives while unit 2 is in flight; units 1-2 must still be
	// counted and no later unit may be processed.
	call := 0
	resolver.EXPECT().Resolve(gomock.Any(), gomock.Any(), gomock.Any()).Times(2).
		DoAndReturn(func(_ context.Context, unit syncpkg.WorkUnit, _ syncpkg.Options) syncpkg.Outcome {
			call++
			if call == 2 {
				_, err := registry.RequestCancel(job.ID)
				require.NoError(t, err)
			}
			return syncpkg.Imported(*unit.SongID)
		})

	rec := httptest.NewRecorder()
	final := orch.Run(context.Background(), job, syncpkg.Request{Kind: syncpkg.KindCatalogMatch, AllEligible: true}, syncpkg.NewEncoder(rec))

	assert.Equal(t, syncpkg.StatusCancelled, final.Status)
	assert.Equal(t, 2, final.Counters.Imported)
	assert.Equal(t, 2, final.Totals.Done)
	assert.Equal(t, 5, final.Totals.Units)

	types := frameTypes(decodeFrames(t, rec.Body.String()))
	assert.Equal(t, "cancelled", types[len(types)-1])
}

func TestOrchestratorSplitterFailureIsFatal(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	splitter := syncmocks.NewMockSplitter(ctrl)
	resolver := syncmocks.NewMockResolver(ctrl)

	splitter.EXPECT().Split(gomock.Any(), gomock.Any()).
		Return(nil, fmt.Errorf("calendar unreachable"))

	orch, registry := newTestOrchestrator(t, splitter, resolver)
	job := registry.Create(syncpkg.KindCalendarImport)

	rec := httptest.NewRecorder()
	final := orch.Run(context.Background(), job, syncpkg.Request{Kind: syncpkg.KindCalendarImport, From: time.Now(), To: time.Now().Add(time.Hour)}, syncpkg.NewEncoder(rec))

	assert.Equal(t, syncpkg.StatusFailed, final.Status)

	frames := decodeFrames(t, rec.Body.String())
	types := frameTypes(frames)
	assert.Equal(t, []string{"init", "error"}, types)
	assert.Contains(t, string(frames[1].raw), "calendar unreachable")
}

func TestOrchestratorEmptyUnitListCompletes(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	splitter := syncmocks.NewMockSplitter(ctrl)
	resolver := syncmocks.NewMockResolver(ctrl)

	splitter.EXPECT().Split(gomock.Any(), gomock.Any()).Return(nil, nil)

	orch, registry := newTestOrchestrator(t, splitter, resolver)
	job := registry.Create(syncpkg.KindCatalogMatch)

	rec := httptest.NewRecorder()
	final := orch.Run(context.Background(), job, syncpkg.Request{Kind: syncpkg.KindCatalogMatch, AllEligible: true}, syncpkg.NewEncoder(rec))

	assert.Equal(t, syncpkg.StatusCompleted, final.Status)
	assert.Equal(t, 0, final.Totals.Units)

	types := frameTypes(decodeFrames(t, rec.Body.String()))
	assert.Equal(t, []string{"init", "complete"}, types)
}

func TestOrchestratorEnqueuesReviewCandidates(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	splitter := syncmocks.NewMockSplitter(ctrl)
	resolver := syncmocks.NewMockResolver(ctrl)

	units := catalogUnits(1)
	songID := *units[0].SongID
	splitter.EXPECT().Split(gomock.Any(), gomock.Any()).Return(units, nil)
	resolver.EXPECT().Resolve(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(syncpkg.NeedsReview(&store.ReviewCandidate{
			SongID:     songID,
			Proposed:   store.CatalogMatch{CatalogID: "cat-1", Title: "Midnight Train", Artist: "The Locals"},
			Confidence: 60,
		}))

	st := inmemory.NewWithSongs(store.Song{ID: songID, Title: "Midnight Train", Artist: "The Locals"})
	reviews := review.NewService(st)
	registry := syncpkg.NewRegistry(time.Minute)
	orch := syncpkg.NewOrchestrator(registry, splitter,
		map[syncpkg.Kind]syncpkg.Resolver{syncpkg.KindCatalogMatch: resolver}, reviews)

	job := registry.Create(syncpkg.KindCatalogMatch)
	rec := httptest.NewRecorder()
	final := orch.Run(context.Background(), job, syncpkg.Request{Kind: syncpkg.KindCatalogMatch, AllEligible: true}, syncpkg.NewEncoder(rec))

	assert.Equal(t, 1, final.Counters.PendingReview)

	// The queued candidate must be fetchable by song id with the emitted score
	candidate, err := reviews.GetPendingForSong(context.Background(), songID)
	require.NoError(t, err)
	assert.Equal(t, 60, candidate.Confidence)
	assert.Equal(t, store.ReviewStatusPending, candidate.Status)

	frames := decodeFrames(t, rec.Body.String())
	var reviewFrame *frame
	for i := range frames {
		if frames[i].Type == "item_needs_review" {
			reviewFrame = &frames[i]
		}
	}
	require.NotNil(t, reviewFrame)
	assert.Contains(t, string(reviewFrame.raw), candidate.ID.String())
}

func TestOrchestratorReviewEnqueueFailureDemotesToFailed(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	splitter := syncmocks.NewMockSplitter(ctrl)
	resolver := syncmocks.NewMockResolver(ctrl)

	units := catalogUnits(1)
	splitter.EXPECT().Split(gomock.Any(), gomock.Any()).Return(units, nil)
	resolver.EXPECT().Resolve(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(syncpkg.NeedsReview(&store.ReviewCandidate{SongID: *units[0].SongID, Confidence: 60}))

	failingStore := storemocks.NewMockStore(ctrl)
	failingStore.EXPECT().InsertReviewCandidate(gomock.Any(), gomock.Any()).
		Return(fmt.Errorf("connection reset"))

	registry := syncpkg.NewRegistry(time.Minute)
	orch := syncpkg.NewOrchestrator(registry, splitter,
		map[syncpkg.Kind]syncpkg.Resolver{syncpkg.KindCatalogMatch: resolver},
		review.NewService(failingStore))

	job := registry.Create(syncpkg.KindCatalogMatch)
	rec := httptest.NewRecorder()
	final := orch.Run(context.Background(), job, syncpkg.Request{Kind: syncpkg.KindCatalogMatch, AllEligible: true}, syncpkg.NewEncoder(rec))

	assert.Equal(t, syncpkg.StatusCompleted, final.Status)
	assert.Equal(t, 0, final.Counters.PendingReview)
	assert.Equal(t, 1, final.Counters.Failed)
	assert.Equal(t, final.Totals.Units, final.Counters.Sum())
}

func TestOrchestratorContainsResolverPanic(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	splitter := syncmocks.NewMockSplitter(ctrl)
	resolver := syncmocks.NewMockResolver(ctrl)

	units := catalogUnits(2)
	splitter.EXPECT().Split(gomock.Any(), gomock.Any()).Return(units, nil)

	call := 0
	resolver.EXPECT().Resolve(gomock.Any(), gomock.Any(), gomock.Any()).Times(2).
		DoAndReturn(func(_ context.Context, unit syncpkg.WorkUnit, _ syncpkg.Options) syncpkg.Outcome {
			call++
			if call == 1 {
				panic("corrupt record")
			}
			return syncpkg.Imported(*unit.SongID)
		})

	orch, registry := newTestOrchestrator(t, splitter, resolver)
	job := registry.Create(syncpkg.KindCatalogMatch)

	rec := httptest.NewRecorder()
	final := orch.Run(context.Background(), job, syncpkg.Request{Kind: syncpkg.KindCatalogMatch, AllEligible: true}, syncpkg.NewEncoder(rec))

	assert.Equal(t, syncpkg.StatusCompleted, final.Status)
	assert.Equal(t, 1, final.Counters.Failed)
	assert.Equal(t, 1, final.Counters.Imported)
}

func TestOrchestratorSurvivesStreamLoss(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	splitter := syncmocks.NewMockSplitter(ctrl)
	resolver := syncmocks.NewMockResolver(ctrl)

	units := catalogUnits(3)
	splitter.EXPECT().Split(gomock.Any(), gomock.Any()).Return(units, nil)
	resolver.EXPECT().Resolve(gomock.Any(), gomock.Any(), gomock.Any()).Times(3).
		DoAndReturn(func(_ context.Context, unit syncpkg.WorkUnit, _ syncpkg.Options) syncpkg.Outcome {
			return syncpkg.Imported(*unit.SongID)
		})

	orch, registry := newTestOrchestrator(t, splitter, resolver)
	job := registry.Create(syncpkg.KindCatalogMatch)

	// A nil encoder stands in for a dropped client connection; the job must
	// still run to completion with full counters.
	final := orch.Run(context.Background(), job, syncpkg.Request{Kind: syncpkg.KindCatalogMatch, AllEligible: true}, nil)

	assert.Equal(t, syncpkg.StatusCompleted, final.Status)
	assert.Equal(t, 3, final.Counters.Imported)
	assert.Equal(t, final.Totals.Units, final.Counters.Sum())
}

func TestOrchestratorIdempotentRerunSkips(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	splitter := syncmocks.NewMockSplitter(ctrl)
	resolver := syncmocks.NewMockResolver(ctrl)

	units := catalogUnits(4)
	splitter.EXPECT().Split(gomock.Any(), gomock.Any()).Times(2).Return(units, nil)

	seen := make(map[uuid.UUID]bool)
	resolver.EXPECT().Resolve(gomock.Any(), gomock.Any(), gomock.Any()).Times(8).
		DoAndReturn(func(_ context.Context, unit syncpkg.WorkUnit, _ syncpkg.Options) syncpkg.Outcome {
			if seen[*unit.SongID] {
				return syncpkg.SkippedDuplicate(*unit.SongID)
			}
			seen[*unit.SongID] = true
			return syncpkg.Imported(*unit.SongID)
		})

	orch, registry := newTestOrchestrator(t, splitter, resolver)
	req := syncpkg.Request{Kind: syncpkg.KindCatalogMatch, AllEligible: true}

	first := orch.Run(context.Background(), registry.Create(syncpkg.KindCatalogMatch), req, syncpkg.NewEncoder(httptest.NewRecorder()))
	assert.Equal(t, 4, first.Counters.Imported)

	second := orch.Run(context.Background(), registry.Create(syncpkg.KindCatalogMatch), req, syncpkg.NewEncoder(httptest.NewRecorder()))
	assert.Equal(t, 0, second.Counters.Imported)
	assert.Equal(t, 4, second.Counters.Skipped)
}

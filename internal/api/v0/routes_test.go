package v0

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/bandroom-dev/bandroom-sync-server/internal/review"
	reviewmocks "github.com/bandroom-dev/bandroom-sync-server/internal/review/mocks"
	"github.com/bandroom-dev/bandroom-sync-server/internal/store"
	"github.com/bandroom-dev/bandroom-sync-server/internal/store/inmemory"
	syncpkg "github.com/bandroom-dev/bandroom-sync-server/internal/sync"
	syncmocks "github.com/bandroom-dev/bandroom-sync-server/internal/sync/mocks"
)

type fixture struct {
	registry syncpkg.Registry
	splitter *syncmocks.MockSplitter
	resolver *syncmocks.MockResolver
	reviews  *reviewmocks.MockService
	server   *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	f := &fixture{
		registry: syncpkg.NewRegistry(time.Minute),
		splitter: syncmocks.NewMockSplitter(ctrl),
		resolver: syncmocks.NewMockResolver(ctrl),
		reviews:  reviewmocks.NewMockService(ctrl),
	}

	orch := syncpkg.NewOrchestrator(f.registry, f.splitter, map[syncpkg.Kind]syncpkg.Resolver{
		syncpkg.KindCalendarImport: f.resolver,
		syncpkg.KindCatalogMatch:   f.resolver,
	}, f.reviews)

	f.server = httptest.NewServer(Router(f.registry, orch, f.reviews))
	t.Cleanup(f.server.Close)
	return f
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()

	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	return resp
}

func TestStartSyncStreamsFrames(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	songID := uuid.New()
	f.splitter.EXPECT().Split(gomock.Any(), gomock.Any()).Return([]syncpkg.WorkUnit{
		{Index: 1, Total: 1, Label: songID.String(), SongID: &songID},
	}, nil)
	f.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(syncpkg.Imported(songID))

	resp := postJSON(t, f.server.URL+"/sync", `{"kind": "CATALOG_MATCH", "allEligible": true}`)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	body := readAll(t, resp)

	assert.Contains(t, body, `"type":"init"`)
	assert.Contains(t, body, `"type":"unit_start"`)
	assert.Contains(t, body, `"type":"item_imported"`)
	assert.Contains(t, body, `"type":"progress"`)
	assert.Contains(t, body, `"type":"complete"`)
}

func readAll(t *testing.T, resp *http.Response) string {
	t.Helper()

	var sb strings.Builder
	buf := make([]byte, 4096)
	for {
		n, err := resp.Body.Read(buf)
		sb.Write(buf[:n])
		if err != nil {
			break
		}
	}
	return sb.String()
}

func TestStartSyncRejectsBadRequests(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	tests := []struct {
		name string
		body string
	}{
		{name: "invalid json", body: `{"kind":`},
		{name: "unknown kind", body: `{"kind": "FULL_WIPE"}`},
		{name: "calendar without range", body: `{"kind": "CALENDAR_IMPORT"}`},
		{name: "catalog without selection", body: `{"kind": "CATALOG_MATCH"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			resp := postJSON(t, f.server.URL+"/sync", tt.body)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestCancelSync(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	job := f.registry.Create(syncpkg.KindCatalogMatch)

	resp := postJSON(t, f.server.URL+"/sync/cancel?syncId="+job.ID.String(), "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var ack CancelResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ack))
	assert.Equal(t, job.ID, ack.SyncID)
	assert.Equal(t, syncpkg.StatusCancelling, ack.Status)

	// Cancelling again is idempotent
	resp2 := postJSON(t, f.server.URL+"/sync/cancel?syncId="+job.ID.String(), "")
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
}

func TestCancelSyncUnknownJob(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	resp := postJSON(t, f.server.URL+"/sync/cancel?syncId="+uuid.NewString(), "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp2 := postJSON(t, f.server.URL+"/sync/cancel?syncId=not-a-uuid", "")
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
}

func TestGetSyncStatus(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	job := f.registry.Create(syncpkg.KindCalendarImport)

	resp, err := http.Get(f.server.URL + "/sync/" + job.ID.String())
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got syncpkg.Job
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, syncpkg.StatusPending, got.Status)

	missing, err := http.Get(f.server.URL + "/sync/" + uuid.NewString())
	require.NoError(t, err)
	defer missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestGetPendingReview(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	songID := uuid.New()
	candidate := &store.ReviewCandidate{
		ID:         uuid.New(),
		SongID:     songID,
		Confidence: 66,
		Status:     store.ReviewStatusPending,
	}
	f.reviews.EXPECT().GetPendingForSong(gomock.Any(), songID).Return(candidate, nil)

	resp, err := http.Get(f.server.URL + "/reviews?songId=" + songID.String())
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got store.ReviewCandidate
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, candidate.ID, got.ID)
}

func TestGetPendingReviewNotFound(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	songID := uuid.New()
	f.reviews.EXPECT().GetPendingForSong(gomock.Any(), songID).Return(nil, review.ErrNotFound)

	resp, err := http.Get(f.server.URL + "/reviews?songId=" + songID.String())
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestResolveReview(t *testing.T) {
	t.Parallel()

	reviewID := uuid.New()

	tests := []struct {
		name       string
		body       string
		setup      func(f *fixture)
		wantStatus int
	}{
		{
			name: "approve",
			body: `{"decision": "APPROVE"}`,
			setup: func(f *fixture) {
				f.reviews.EXPECT().Resolve(gomock.Any(), reviewID, review.DecisionApprove, nil).Return(nil)
			},
			wantStatus: http.StatusNoContent,
		},
		{
			name: "approve with alternative",
			body: `{"decision": "APPROVE", "chosenAlternative": {"catalogId": "cat-9", "title": "Backroads", "artist": "The Locals"}}`,
			setup: func(f *fixture) {
				f.reviews.EXPECT().
					Resolve(gomock.Any(), reviewID, review.DecisionApprove, &store.CatalogMatch{
						CatalogID: "cat-9", Title: "Backroads", Artist: "The Locals",
					}).Return(nil)
			},
			wantStatus: http.StatusNoContent,
		},
		{
			name: "reject",
			body: `{"decision": "REJECT"}`,
			setup: func(f *fixture) {
				f.reviews.EXPECT().Resolve(gomock.Any(), reviewID, review.DecisionReject, nil).Return(nil)
			},
			wantStatus: http.StatusNoContent,
		},
		{
			name: "unknown review",
			body: `{"decision": "APPROVE"}`,
			setup: func(f *fixture) {
				f.reviews.EXPECT().Resolve(gomock.Any(), reviewID, gomock.Any(), gomock.Any()).
					Return(review.ErrNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name: "already resolved",
			body: `{"decision": "REJECT"}`,
			setup: func(f *fixture) {
				f.reviews.EXPECT().Resolve(gomock.Any(), reviewID, gomock.Any(), gomock.Any()).
					Return(review.ErrAlreadyResolved)
			},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "invalid decision",
			body:       `{"decision": "MAYBE"}`,
			setup:      func(*fixture) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid body",
			body:       `{"decision":`,
			setup:      func(*fixture) {},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			tt.setup(f)

			resp := postJSON(t, f.server.URL+"/reviews/"+reviewID.String()+"/resolve", tt.body)
			defer resp.Body.Close()
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(HealthRouter(inmemory.New()))
	defer srv.Close()

	for _, path := range []string{"/health", "/readiness", "/version"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"), path)
		resp.Body.Close()
	}
}

func TestReadinessFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(HealthRouter(failingStore{inmemory.New()}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/readiness")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

// failingStore wraps a store with a Ping that always fails
type failingStore struct {
	store.Store
}

func (failingStore) Ping(context.Context) error {
	return fmt.Errorf("connection refused")
}

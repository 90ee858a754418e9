package sync

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/bandroom-dev/bandroom-sync-server/internal/sources"
	sourcemocks "github.com/bandroom-dev/bandroom-sync-server/internal/sources/mocks"
	storemocks "github.com/bandroom-dev/bandroom-sync-server/internal/store/mocks"
)

func TestMonthWindows(t *testing.T) {
	t.Parallel()

	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	t.Run("clips_to_range_bounds", func(t *testing.T) {
		t.Parallel()

		windows := monthWindows(day(2024, time.January, 15), day(2024, time.March, 10))
		require.Len(t, windows, 3)
		assert.Equal(t, day(2024, time.January, 15), windows[0].from)
		assert.Equal(t, day(2024, time.February, 1), windows[0].to)
		assert.Equal(t, day(2024, time.February, 1), windows[1].from)
		assert.Equal(t, day(2024, time.March, 1), windows[1].to)
		assert.Equal(t, day(2024, time.March, 1), windows[2].from)
		assert.Equal(t, day(2024, time.March, 10), windows[2].to)
	})

	t.Run("single_partial_month", func(t *testing.T) {
		t.Parallel()

		windows := monthWindows(day(2024, time.June, 5), day(2024, time.June, 20))
		require.Len(t, windows, 1)
		assert.Equal(t, day(2024, time.June, 5), windows[0].from)
		assert.Equal(t, day(2024, time.June, 20), windows[0].to)
	})

	t.Run("crosses_year_boundary", func(t *testing.T) {
		t.Parallel()

		windows := monthWindows(day(2023, time.December, 1), day(2024, time.February, 1))
		require.Len(t, windows, 2)
		assert.Equal(t, day(2024, time.January, 1), windows[1].from)
	})

	t.Run("empty_range", func(t *testing.T) {
		t.Parallel()

		assert.Empty(t, monthWindows(day(2024, time.March, 1), day(2024, time.March, 1)))
		assert.Empty(t, monthWindows(day(2024, time.March, 2), day(2024, time.March, 1)))
	})
}

func TestSplitCalendar(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	calendar := sourcemocks.NewMockCalendarProvider(ctrl)
	st := storemocks.NewMockStore(ctrl)

	from := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.February, 20, 0, 0, 0, 0, time.UTC)
	febStart := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)

	calendar.EXPECT().ListEvents(gomock.Any(), from, febStart).
		Return([]sources.EventRef{
			{ExternalID: "evt-1", Title: "January Gig"},
			{ExternalID: "evt-2", Title: "January Rehearsal"},
		}, nil)
	calendar.EXPECT().ListEvents(gomock.Any(), febStart, to).
		Return([]sources.EventRef{
			{ExternalID: "evt-3", Title: "February Gig"},
		}, nil)

	s := NewSplitter(calendar, st)
	units, err := s.Split(context.Background(), Request{Kind: KindCalendarImport, From: from, To: to})
	require.NoError(t, err)

	require.Len(t, units, 3)
	for i, unit := range units {
		assert.Equal(t, i+1, unit.Index)
		assert.Equal(t, 3, unit.Total)
		require.NotNil(t, unit.Event)
	}
	assert.Equal(t, "evt-1", units[0].Event.ExternalID)
	assert.Equal(t, "evt-3", units[2].Event.ExternalID)
}

func TestSplitCalendarListError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	calendar := sourcemocks.NewMockCalendarProvider(ctrl)
	st := storemocks.NewMockStore(ctrl)

	from := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.May, 15, 0, 0, 0, 0, time.UTC)

	calendar.EXPECT().ListEvents(gomock.Any(), from, to).
		Return(nil, fmt.Errorf("listing: %w", sources.ErrUnavailable))

	s := NewSplitter(calendar, st)
	_, err := s.Split(context.Background(), Request{Kind: KindCalendarImport, From: from, To: to})
	require.Error(t, err)
	assert.ErrorIs(t, err, sources.ErrUnavailable)
}

func TestSplitCatalog(t *testing.T) {
	t.Parallel()

	t.Run("explicit_song_ids", func(t *testing.T) {
		t.Parallel()

		ctrl := gomock.NewController(t)
		s := NewSplitter(sourcemocks.NewMockCalendarProvider(ctrl), storemocks.NewMockStore(ctrl))

		ids := []uuid.UUID{uuid.New(), uuid.New()}
		units, err := s.Split(context.Background(), Request{Kind: KindCatalogMatch, SongIDs: ids})
		require.NoError(t, err)

		require.Len(t, units, 2)
		assert.Equal(t, ids[0], *units[0].SongID)
		assert.Equal(t, ids[1], *units[1].SongID)
		assert.Equal(t, 2, units[0].Total)
	})

	t.Run("all_eligible_lists_unmatched", func(t *testing.T) {
		t.Parallel()

		ctrl := gomock.NewController(t)
		st := storemocks.NewMockStore(ctrl)
		ids := []uuid.UUID{uuid.New()}
		st.EXPECT().ListSongIDsMissingCatalog(gomock.Any()).Return(ids, nil)

		s := NewSplitter(sourcemocks.NewMockCalendarProvider(ctrl), st)
		units, err := s.Split(context.Background(), Request{Kind: KindCatalogMatch, AllEligible: true})
		require.NoError(t, err)
		require.Len(t, units, 1)
		assert.Equal(t, ids[0], *units[0].SongID)
	})

	t.Run("all_eligible_with_force_lists_everything", func(t *testing.T) {
		t.Parallel()

		ctrl := gomock.NewController(t)
		st := storemocks.NewMockStore(ctrl)
		st.EXPECT().ListSongIDs(gomock.Any()).Return([]uuid.UUID{uuid.New(), uuid.New()}, nil)

		s := NewSplitter(sourcemocks.NewMockCalendarProvider(ctrl), st)
		units, err := s.Split(context.Background(), Request{
			Kind:        KindCatalogMatch,
			AllEligible: true,
			Options:     Options{Force: true},
		})
		require.NoError(t, err)
		assert.Len(t, units, 2)
	})

	t.Run("empty_selection_yields_zero_units", func(t *testing.T) {
		t.Parallel()

		ctrl := gomock.NewController(t)
		st := storemocks.NewMockStore(ctrl)
		st.EXPECT().ListSongIDsMissingCatalog(gomock.Any()).Return(nil, nil)

		s := NewSplitter(sourcemocks.NewMockCalendarProvider(ctrl), st)
		units, err := s.Split(context.Background(), Request{Kind: KindCatalogMatch, AllEligible: true})
		require.NoError(t, err)
		assert.Empty(t, units)
	})
}

func TestRequestValidate(t *testing.T) {
	t.Parallel()

	now := time.Now()
	tests := []struct {
		name    string
		req     Request
		wantErr bool
	}{
		{name: "valid_calendar", req: Request{Kind: KindCalendarImport, From: now, To: now.Add(time.Hour)}},
		{name: "valid_catalog", req: Request{Kind: KindCatalogMatch, SongIDs: []uuid.UUID{uuid.New()}}},
		{name: "valid_catalog_all", req: Request{Kind: KindCatalogMatch, AllEligible: true}},
		{name: "unknown_kind", req: Request{Kind: "BACKUP"}, wantErr: true},
		{name: "calendar_missing_range", req: Request{Kind: KindCalendarImport}, wantErr: true},
		{name: "calendar_inverted_range", req: Request{Kind: KindCalendarImport, From: now, To: now.Add(-time.Hour)}, wantErr: true},
		{name: "catalog_no_selection", req: Request{Kind: KindCatalogMatch}, wantErr: true},
		{
			name: "valid_threshold_overrides",
			req:  Request{Kind: KindCatalogMatch, AllEligible: true, Options: Options{AutoApplyThreshold: 90, MinConfidence: 60}},
		},
		{
			name:    "inverted_override_band",
			req:     Request{Kind: KindCatalogMatch, AllEligible: true, Options: Options{AutoApplyThreshold: 40, MinConfidence: 90}},
			wantErr: true,
		},
		{
			name:    "equal_override_band",
			req:     Request{Kind: KindCatalogMatch, AllEligible: true, Options: Options{AutoApplyThreshold: 70, MinConfidence: 70}},
			wantErr: true,
		},
		{
			name:    "threshold_over_100",
			req:     Request{Kind: KindCatalogMatch, AllEligible: true, Options: Options{AutoApplyThreshold: 120}},
			wantErr: true,
		},
		{
			name:    "negative_floor",
			req:     Request{Kind: KindCalendarImport, From: now, To: now.Add(time.Hour), Options: Options{MinConfidence: -5}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

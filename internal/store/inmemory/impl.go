// Package inmemory provides an in-memory implementation of the Store
// interface, used by tests and for running without Postgres.
package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bandroom-dev/bandroom-sync-server/internal/store"
)

// memStore implements store.Store backed by maps
type memStore struct {
	mu sync.RWMutex

	eventsByExternalID map[string]store.Event
	songs              map[uuid.UUID]store.Song
	reviews            map[uuid.UUID]store.ReviewCandidate
}

var _ store.Store = (*memStore)(nil)

// New creates an empty in-memory store
func New() store.Store {
	return &memStore{
		eventsByExternalID: make(map[string]store.Event),
		songs:              make(map[uuid.UUID]store.Song),
		reviews:            make(map[uuid.UUID]store.ReviewCandidate),
	}
}

// NewWithSongs creates an in-memory store seeded with the given songs
func NewWithSongs(songs ...store.Song) store.Store {
	s := New().(*memStore)
	for _, song := range songs {
		s.songs[song.ID] = song
	}
	return s
}

func (s *memStore) GetEventByExternalID(_ context.Context, externalID string) (*store.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ev, ok := s.eventsByExternalID[externalID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &ev, nil
}

func (s *memStore) InsertEvent(_ context.Context, ev store.Event) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	s.eventsByExternalID[ev.ExternalID] = ev
	return ev.ID, nil
}

func (s *memStore) GetSong(_ context.Context, id uuid.UUID) (*store.Song, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	song, ok := s.songs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &song, nil
}

func (s *memStore) ListSongIDs(_ context.Context) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sortedIDs(func(store.Song) bool { return true }), nil
}

func (s *memStore) ListSongIDsMissingCatalog(_ context.Context) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sortedIDs(func(song store.Song) bool { return song.CatalogID == nil }), nil
}

// sortedIDs returns song ids matching the predicate, ordered by title then id
// to keep unit ordering deterministic. Callers must hold the lock.
func (s *memStore) sortedIDs(keep func(store.Song) bool) []uuid.UUID {
	songs := make([]store.Song, 0, len(s.songs))
	for _, song := range s.songs {
		if keep(song) {
			songs = append(songs, song)
		}
	}
	sort.Slice(songs, func(i, j int) bool {
		if songs[i].Title != songs[j].Title {
			return songs[i].Title < songs[j].Title
		}
		return songs[i].ID.String() < songs[j].ID.String()
	})

	ids := make([]uuid.UUID, len(songs))
	for i, song := range songs {
		ids[i] = song.ID
	}
	return ids
}

func (s *memStore) ApplyCatalogMatch(_ context.Context, songID uuid.UUID, match store.CatalogMatch, score int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	song, ok := s.songs[songID]
	if !ok {
		return store.ErrNotFound
	}

	catalogID := match.CatalogID
	song.CatalogID = &catalogID
	song.CatalogScore = &score
	song.UpdatedAt = time.Now()
	s.songs[songID] = song
	return nil
}

func (s *memStore) InsertReviewCandidate(_ context.Context, c store.ReviewCandidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	s.reviews[c.ID] = c
	return nil
}

func (s *memStore) GetReviewCandidate(_ context.Context, id uuid.UUID) (*store.ReviewCandidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.reviews[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

func (s *memStore) GetPendingReviewBySong(_ context.Context, songID uuid.UUID) (*store.ReviewCandidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.reviews {
		if c.SongID == songID && c.Status == store.ReviewStatusPending {
			candidate := c
			return &candidate, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *memStore) ResolveReviewCandidate(_ context.Context, id uuid.UUID, status store.ReviewStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.reviews[id]
	if !ok {
		return store.ErrNotFound
	}

	now := time.Now()
	c.Status = status
	c.ResolvedAt = &now
	s.reviews[id] = c
	return nil
}

func (s *memStore) Ping(_ context.Context) error {
	return nil
}

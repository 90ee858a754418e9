// Package db provides the Postgres-backed implementation of the Store
// interface using pgx.
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bandroom-dev/bandroom-sync-server/internal/store"
)

// pgStore implements store.Store backed by a pgx connection pool
type pgStore struct {
	pool *pgxpool.Pool
}

var _ store.Store = (*pgStore)(nil)

// New creates a Postgres-backed store from the given pool
func New(pool *pgxpool.Pool) store.Store {
	return &pgStore{pool: pool}
}

const getEventByExternalIDQuery = `
SELECT id, external_id, title, venue, starts_at, ends_at, status, created_at
FROM events
WHERE external_id = $1`

func (s *pgStore) GetEventByExternalID(ctx context.Context, externalID string) (*store.Event, error) {
	var ev store.Event
	err := s.pool.QueryRow(ctx, getEventByExternalIDQuery, externalID).Scan(
		&ev.ID, &ev.ExternalID, &ev.Title, &ev.Venue,
		&ev.StartsAt, &ev.EndsAt, &ev.Status, &ev.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get event by external id: %w", err)
	}
	return &ev, nil
}

const insertEventQuery = `
INSERT INTO events (id, external_id, title, venue, starts_at, ends_at, status)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`

func (s *pgStore) InsertEvent(ctx context.Context, ev store.Event) (uuid.UUID, error) {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}

	var id uuid.UUID
	err := s.pool.QueryRow(ctx, insertEventQuery,
		ev.ID, ev.ExternalID, ev.Title, ev.Venue, ev.StartsAt, ev.EndsAt, ev.Status,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert event: %w", err)
	}
	return id, nil
}

const getSongQuery = `
SELECT id, title, artist, album, duration_secs, catalog_id, catalog_score, updated_at
FROM songs
WHERE id = $1`

func (s *pgStore) GetSong(ctx context.Context, id uuid.UUID) (*store.Song, error) {
	var song store.Song
	err := s.pool.QueryRow(ctx, getSongQuery, id).Scan(
		&song.ID, &song.Title, &song.Artist, &song.Album,
		&song.DurationSecs, &song.CatalogID, &song.CatalogScore, &song.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get song: %w", err)
	}
	return &song, nil
}

const listSongIDsQuery = `
SELECT id FROM songs ORDER BY title, id`

func (s *pgStore) ListSongIDs(ctx context.Context) ([]uuid.UUID, error) {
	return s.listIDs(ctx, listSongIDsQuery)
}

const listSongIDsMissingCatalogQuery = `
SELECT id FROM songs WHERE catalog_id IS NULL ORDER BY title, id`

func (s *pgStore) ListSongIDsMissingCatalog(ctx context.Context) ([]uuid.UUID, error) {
	return s.listIDs(ctx, listSongIDsMissingCatalogQuery)
}

func (s *pgStore) listIDs(ctx context.Context, query string) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list song ids: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan song id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate song ids: %w", err)
	}
	return ids, nil
}

const applyCatalogMatchQuery = `
UPDATE songs
SET catalog_id = $2,
    catalog_title = $3,
    catalog_artist = $4,
    catalog_album = $5,
    catalog_score = $6,
    updated_at = now()
WHERE id = $1`

func (s *pgStore) ApplyCatalogMatch(ctx context.Context, songID uuid.UUID, match store.CatalogMatch, score int) error {
	tag, err := s.pool.Exec(ctx, applyCatalogMatchQuery,
		songID, match.CatalogID, match.Title, match.Artist, match.Album, score,
	)
	if err != nil {
		return fmt.Errorf("failed to apply catalog match: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

const insertReviewCandidateQuery = `
INSERT INTO review_candidates
  (id, song_id, catalog_id, catalog_title, catalog_artist, catalog_album,
   catalog_duration_secs, confidence, rationale, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

func (s *pgStore) InsertReviewCandidate(ctx context.Context, c store.ReviewCandidate) error {
	_, err := s.pool.Exec(ctx, insertReviewCandidateQuery,
		c.ID, c.SongID,
		c.Proposed.CatalogID, c.Proposed.Title, c.Proposed.Artist, c.Proposed.Album,
		c.Proposed.DurationSecs, c.Confidence, c.Rationale, c.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to insert review candidate: %w", err)
	}
	return nil
}

const getReviewCandidateQuery = `
SELECT id, song_id, catalog_id, catalog_title, catalog_artist, catalog_album,
       catalog_duration_secs, confidence, rationale, status, created_at, resolved_at
FROM review_candidates
WHERE id = $1`

func (s *pgStore) GetReviewCandidate(ctx context.Context, id uuid.UUID) (*store.ReviewCandidate, error) {
	return s.queryCandidate(ctx, getReviewCandidateQuery, id)
}

const getPendingReviewBySongQuery = `
SELECT id, song_id, catalog_id, catalog_title, catalog_artist, catalog_album,
       catalog_duration_secs, confidence, rationale, status, created_at, resolved_at
FROM review_candidates
WHERE song_id = $1 AND status = 'PENDING'
ORDER BY created_at DESC
LIMIT 1`

func (s *pgStore) GetPendingReviewBySong(ctx context.Context, songID uuid.UUID) (*store.ReviewCandidate, error) {
	return s.queryCandidate(ctx, getPendingReviewBySongQuery, songID)
}

func (s *pgStore) queryCandidate(ctx context.Context, query string, arg any) (*store.ReviewCandidate, error) {
	var c store.ReviewCandidate
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&c.ID, &c.SongID,
		&c.Proposed.CatalogID, &c.Proposed.Title, &c.Proposed.Artist, &c.Proposed.Album,
		&c.Proposed.DurationSecs, &c.Confidence, &c.Rationale, &c.Status,
		&c.CreatedAt, &c.ResolvedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get review candidate: %w", err)
	}
	return &c, nil
}

const resolveReviewCandidateQuery = `
UPDATE review_candidates
SET status = $2, resolved_at = now()
WHERE id = $1`

func (s *pgStore) ResolveReviewCandidate(ctx context.Context, id uuid.UUID, status store.ReviewStatus) error {
	tag, err := s.pool.Exec(ctx, resolveReviewCandidateQuery, id, status)
	if err != nil {
		return fmt.Errorf("failed to resolve review candidate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *pgStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

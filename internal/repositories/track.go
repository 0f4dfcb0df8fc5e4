package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/shared"
)

const trackColumns = `id, sequence, title, artist, album, duration_ms, source_kind, source_locator, artwork_locator, created_at, updated_at, deleted_at`

// TrackRepository implements models.Repository[*models.LibraryTrack].
//
// Tracks are unique per (source_kind, source_locator); see [TrackRepository.FindOrCreate].
type TrackRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.LibraryTrack] = (*TrackRepository)(nil)

// NewTrackRepository creates a new TrackRepository with the given database connection
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// Create inserts a new [models.LibraryTrack] into the database with generated ID and sequence
func (r *TrackRepository) Create(track *models.LibraryTrack) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	sequence, err := NextSequence(r.db, "tracks")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO tracks (id, sequence, title, artist, album, duration_ms, source_kind, source_locator, artwork_locator, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		track.Title(),
		nullString(track.Artist()),
		nullString(track.Album()),
		track.DurationMs(),
		string(track.Kind()),
		track.SourceLocator(),
		nullString(track.ArtworkLocator()),
		track.CreatedAt(),
		track.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert track: %w", err)
	}

	track.SetID(id)
	track.SetSequence(sequence)
	return nil
}

// Get retrieves a track by ID, excluding soft-deleted tracks
func (r *TrackRepository) Get(id string) (*models.LibraryTrack, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE id = ? AND deleted_at IS NULL`
	return r.scanOne(r.db.QueryRow(query, id))
}

// GetBySource retrieves a live track by its source kind and locator
func (r *TrackRepository) GetBySource(kind models.SourceKind, locator string) (*models.LibraryTrack, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE source_kind = ? AND source_locator = ? AND deleted_at IS NULL`
	return r.scanOne(r.db.QueryRow(query, string(kind), locator))
}

// Update modifies the metadata of an existing track
func (r *TrackRepository) Update(track *models.LibraryTrack) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	now := time.Now()
	track.SetUpdatedAt(now)

	query := `
		UPDATE tracks
		SET title = ?, artist = ?, album = ?, duration_ms = ?, artwork_locator = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		track.Title(),
		nullString(track.Artist()),
		nullString(track.Album()),
		track.DurationMs(),
		nullString(track.ArtworkLocator()),
		now,
		track.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrTrackNotFound, track.ID())
	}

	return nil
}

// Delete soft-deletes a track by ID
func (r *TrackRepository) Delete(id string) error {
	query := `
		UPDATE tracks
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrTrackNotFound, id)
	}

	return nil
}

// List retrieves all live tracks ordered by sequence.
//
// Supported criteria: "source_kind" (models.SourceKind or string), "query" (substring of title or artist).
func (r *TrackRepository) List(criteria map[string]any) ([]*models.LibraryTrack, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE deleted_at IS NULL`

	args := []any{}

	switch kind := criteria["source_kind"].(type) {
	case models.SourceKind:
		query += " AND source_kind = ?"
		args = append(args, string(kind))
	case string:
		if kind != "" {
			query += " AND source_kind = ?"
			args = append(args, kind)
		}
	}

	if q, ok := criteria["query"].(string); ok && q != "" {
		query += " AND (title LIKE ? OR artist LIKE ?)"
		pattern := "%" + q + "%"
		args = append(args, pattern, pattern)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*models.LibraryTrack
	for rows.Next() {
		track, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tracks, nil
}

// scanOne scans a single row into a [models.LibraryTrack]
func (r *TrackRepository) scanOne(row *sql.Row) (*models.LibraryTrack, error) {
	track, err := scanTrack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrTrackNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}
	return track, nil
}

// scanRow scans a row from [sql.Rows] into a [models.LibraryTrack]
func (r *TrackRepository) scanRow(rows *sql.Rows) (*models.LibraryTrack, error) {
	track, err := scanTrack(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}
	return track, nil
}

// scanTrack reads the [trackColumns] of one row, optionally preceded by extra destinations.
func scanTrack(s scanner, extra ...any) (*models.LibraryTrack, error) {
	var (
		id             string
		sequence       int
		title          string
		artist         sql.NullString
		album          sql.NullString
		durationMs     sql.NullInt64
		sourceKind     string
		sourceLocator  string
		artworkLocator sql.NullString
		createdAt      time.Time
		updatedAt      time.Time
		deletedAt      sql.NullTime
	)

	dest := append(extra, &id, &sequence, &title, &artist, &album, &durationMs, &sourceKind, &sourceLocator, &artworkLocator, &createdAt, &updatedAt, &deletedAt)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}

	var duration *int64
	if durationMs.Valid {
		d := durationMs.Int64
		duration = &d
	}

	track := models.NewLibraryTrack(models.LibraryTrackOpts{
		Title:          title,
		Artist:         artist.String,
		Album:          album.String,
		DurationMs:     duration,
		Kind:           models.SourceKind(sourceKind),
		SourceLocator:  sourceLocator,
		ArtworkLocator: artworkLocator.String,
	})
	track.SetID(id)
	track.SetSequence(sequence)
	track.SetCreatedAt(createdAt)
	track.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		track.SetDeletedAt(&deletedAt.Time)
	}

	return track, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

package repositories

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/shared"
)

// FindOrCreate returns the library row for track's source, inserting track when none exists.
//
// Deduplicates on (source_kind, source_locator). A soft-deleted row for the same source
// is restored with track's metadata instead of inserting a duplicate. created reports
// whether a new row was written.
func (r *TrackRepository) FindOrCreate(track *models.LibraryTrack) (saved *models.LibraryTrack, created bool, err error) {
	existing, err := r.getAnyBySource(track.Kind(), track.SourceLocator())
	switch {
	case err == nil && existing.DeletedAt() == nil:
		return existing, false, nil
	case err == nil:
		if err := r.restore(existing.ID(), track); err != nil {
			return nil, false, err
		}
		restored, err := r.Get(existing.ID())
		return restored, false, err
	case !errors.Is(err, shared.ErrTrackNotFound):
		return nil, false, err
	}

	if err := r.Create(track); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			existing, gerr := r.GetBySource(track.Kind(), track.SourceLocator())
			if gerr != nil {
				return nil, false, fmt.Errorf("failed to load concurrently created track: %w", gerr)
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to cache track: %w", err)
	}

	return track, true, nil
}

func (r *TrackRepository) getAnyBySource(kind models.SourceKind, locator string) (*models.LibraryTrack, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE source_kind = ? AND source_locator = ?`
	return r.scanOne(r.db.QueryRow(query, string(kind), locator))
}

func (r *TrackRepository) restore(id string, track *models.LibraryTrack) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	query := `
		UPDATE tracks
		SET title = ?, artist = ?, album = ?, duration_ms = ?, artwork_locator = ?, updated_at = ?, deleted_at = NULL
		WHERE id = ?
	`

	_, err := r.db.Exec(query,
		track.Title(),
		nullString(track.Artist()),
		nullString(track.Album()),
		track.DurationMs(),
		nullString(track.ArtworkLocator()),
		time.Now(),
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to restore track: %w", err)
	}
	return nil
}

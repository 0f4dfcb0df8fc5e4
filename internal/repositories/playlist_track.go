package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/shared"
)

// PlaylistTrackRepository manages ordered playlist membership.
//
// Positions of a playlist are always exactly {0..n-1} outside a transaction. Every
// mutation reads the current order and rewrites all positions in one transaction
// (renumber-all), so a failure leaves the previous order intact.
type PlaylistTrackRepository struct {
	db *sql.DB
}

// NewPlaylistTrackRepository creates a new PlaylistTrackRepository with the given database connection
func NewPlaylistTrackRepository(db *sql.DB) *PlaylistTrackRepository {
	return &PlaylistTrackRepository{db: db}
}

// Members returns the memberships of containerID ordered by position
func (r *PlaylistTrackRepository) Members(ctx context.Context, containerID string) ([]models.PlaylistMembership, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT playlist_id, track_id, position
		FROM playlist_tracks
		WHERE playlist_id = ?
		ORDER BY position ASC
	`, containerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist tracks: %w", err)
	}
	defer rows.Close()

	var members []models.PlaylistMembership
	for rows.Next() {
		var m models.PlaylistMembership
		if err := rows.Scan(&m.ContainerID, &m.TrackID, &m.Position); err != nil {
			return nil, fmt.Errorf("failed to scan playlist track: %w", err)
		}
		members = append(members, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return members, nil
}

// Tracks returns the tracks of containerID with their positions, in playlist order
func (r *PlaylistTrackRepository) Tracks(ctx context.Context, containerID string) ([]models.PlaylistTrack, error) {
	query := `
		SELECT pt.position, t.id, t.sequence, t.title, t.artist, t.album, t.duration_ms, t.source_kind,
			t.source_locator, t.artwork_locator, t.created_at, t.updated_at, t.deleted_at
		FROM playlist_tracks pt
		JOIN tracks t ON t.id = pt.track_id
		WHERE pt.playlist_id = ?
		ORDER BY pt.position ASC
	`

	rows, err := r.db.QueryContext(ctx, query, containerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist tracks: %w", err)
	}
	defer rows.Close()

	var tracks []models.PlaylistTrack
	for rows.Next() {
		var position int
		track, err := scanTrack(rows, &position)
		if err != nil {
			return nil, fmt.Errorf("failed to scan playlist track: %w", err)
		}
		tracks = append(tracks, models.PlaylistTrack{Track: track, Position: position})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tracks, nil
}

// Add appends trackID to containerID at MAX(position)+1, or 0 for an empty playlist.
//
// Adding a track that is already a member changes nothing; added is false and
// position is the existing one.
func (r *PlaylistTrackRepository) Add(ctx context.Context, containerID, trackID string) (position int, added bool, err error) {
	err = r.withTx(ctx, func(tx *sql.Tx) error {
		if err := requireLive(ctx, tx, "playlists", containerID, shared.ErrPlaylistNotFound); err != nil {
			return err
		}
		if err := requireLive(ctx, tx, "tracks", trackID, shared.ErrTrackNotFound); err != nil {
			return err
		}

		err := tx.QueryRowContext(ctx,
			"SELECT position FROM playlist_tracks WHERE playlist_id = ? AND track_id = ?",
			containerID, trackID,
		).Scan(&position)
		if err == nil {
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to check membership: %w", err)
		}

		if err := tx.QueryRowContext(ctx,
			"SELECT COALESCE(MAX(position) + 1, 0) FROM playlist_tracks WHERE playlist_id = ?",
			containerID,
		).Scan(&position); err != nil {
			return fmt.Errorf("failed to compute next position: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO playlist_tracks (playlist_id, track_id, position) VALUES (?, ?, ?)",
			containerID, trackID, position,
		); err != nil {
			return fmt.Errorf("failed to insert playlist track: %w", err)
		}

		added = true
		return nil
	})
	return position, added, err
}

// Remove deletes trackID from containerID and closes the gap it leaves.
//
// removed is false when the track was not a member.
func (r *PlaylistTrackRepository) Remove(ctx context.Context, containerID, trackID string) (removed bool, err error) {
	err = r.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			"DELETE FROM playlist_tracks WHERE playlist_id = ? AND track_id = ?",
			containerID, trackID,
		)
		if err != nil {
			return fmt.Errorf("failed to delete playlist track: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get affected rows: %w", err)
		}
		if rows == 0 {
			return nil
		}

		ids, err := orderedTrackIDs(ctx, tx, containerID)
		if err != nil {
			return err
		}
		if err := renumber(ctx, tx, containerID, ids); err != nil {
			return err
		}

		removed = true
		return nil
	})
	return removed, err
}

// Move places trackID at newPosition within containerID.
//
// newPosition is clamped to [0, n] where n is the member count once trackID is taken
// out, so any position past the end moves the track last. Moving a non-member is a
// no-op and moved is false.
func (r *PlaylistTrackRepository) Move(ctx context.Context, containerID, trackID string, newPosition int) (moved bool, err error) {
	err = r.withTx(ctx, func(tx *sql.Tx) error {
		ids, err := orderedTrackIDs(ctx, tx, containerID)
		if err != nil {
			return err
		}

		from := slices.Index(ids, trackID)
		if from < 0 {
			return nil
		}

		ids = slices.Delete(ids, from, from+1)
		to := min(max(newPosition, 0), len(ids))
		ids = slices.Insert(ids, to, trackID)

		if err := renumber(ctx, tx, containerID, ids); err != nil {
			return err
		}

		moved = true
		return nil
	})
	return moved, err
}

// DeleteContainer removes every membership of containerID inside tx.
//
// The caller owns tx so the memberships go away in the same transaction as the container.
func (r *PlaylistTrackRepository) DeleteContainer(ctx context.Context, tx *sql.Tx, containerID string) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM playlist_tracks WHERE playlist_id = ?", containerID); err != nil {
		return fmt.Errorf("failed to delete playlist tracks: %w", err)
	}
	return nil
}

// RemoveEverywhere removes trackID from every playlist, renumbering each affected playlist
func (r *PlaylistTrackRepository) RemoveEverywhere(ctx context.Context, trackID string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, "SELECT playlist_id FROM playlist_tracks WHERE track_id = ?", trackID)
		if err != nil {
			return fmt.Errorf("failed to query memberships: %w", err)
		}

		var containers []string
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan membership: %w", err)
			}
			containers = append(containers, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("row iteration error: %w", err)
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM playlist_tracks WHERE track_id = ?", trackID); err != nil {
			return fmt.Errorf("failed to delete memberships: %w", err)
		}

		for _, containerID := range containers {
			ids, err := orderedTrackIDs(ctx, tx, containerID)
			if err != nil {
				return err
			}
			if err := renumber(ctx, tx, containerID, ids); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *PlaylistTrackRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func orderedTrackIDs(ctx context.Context, tx *sql.Tx, containerID string) ([]string, error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT track_id FROM playlist_tracks WHERE playlist_id = ? ORDER BY position ASC",
		containerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist order: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan playlist order: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return ids, nil
}

// renumber writes position i for ids[i].
func renumber(ctx context.Context, tx *sql.Tx, containerID string, ids []string) error {
	stmt, err := tx.PrepareContext(ctx, "UPDATE playlist_tracks SET position = ? WHERE playlist_id = ? AND track_id = ?")
	if err != nil {
		return fmt.Errorf("failed to prepare renumber: %w", err)
	}
	defer stmt.Close()

	for i, id := range ids {
		if _, err := stmt.ExecContext(ctx, i, containerID, id); err != nil {
			return fmt.Errorf("failed to renumber playlist track: %w", err)
		}
	}
	return nil
}

func requireLive(ctx context.Context, tx *sql.Tx, table, id string, notFound error) error {
	var exists int
	err := tx.QueryRowContext(ctx,
		fmt.Sprintf("SELECT 1 FROM %s WHERE id = ? AND deleted_at IS NULL", table), id,
	).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", notFound, id)
	}
	if err != nil {
		return fmt.Errorf("failed to look up %s: %w", table, err)
	}
	return nil
}

package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/ytplay/internal/shared"
)

// sequenceTables maps each sequenced table to its counter table.
var sequenceTables = map[string]string{
	"playlists": "playlists_sequence",
	"tracks":    "tracks_sequence",
}

// NextSequence increments and returns the sequence counter for table.
//
// The counter row is bumped and read in one statement, so concurrent callers
// never observe the same value. Only tables with a counter table are accepted.
func NextSequence(db *sql.DB, table string) (int, error) {
	counter, ok := sequenceTables[table]
	if !ok {
		return 0, fmt.Errorf("%w: no sequence for table %q", shared.ErrInvalidInput, table)
	}

	var sequence int
	query := "UPDATE " + counter + " SET value = value + 1 WHERE id = 1 RETURNING value"
	if err := db.QueryRow(query).Scan(&sequence); err != nil {
		return 0, fmt.Errorf("failed to advance %s sequence: %w", table, err)
	}
	return sequence, nil
}

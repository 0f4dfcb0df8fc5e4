// Package repositories implements SQLite persistence for the library.
//
// Each repository handles CRUD operations with atomic sequence generation for human-readable ordering.
// Playlists and tracks support soft deletes via deleted_at timestamps and exclude deleted records from queries by default.
//
// Key Implementations:
//   - [PlaylistRepository] : named playlists
//   - [TrackRepository] : library tracks, deduplicated by source via [TrackRepository.FindOrCreate]
//   - [PlaylistTrackRepository] : ordered playlist membership with transactional renumbering
//
// The [NextSequence] function advances per-table counters kept in dedicated sequence tables.
package repositories

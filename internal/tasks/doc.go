// Package tasks orchestrates library operations with real-time progress reporting.
//
// # Core Operations
//
// [LibraryEngine] combines the remote catalog, the SQLite repositories and the queue builder:
//
//  1. Playlists : create, rename, delete, list and show
//  2. [LibraryEngine.ImportLocal] : add local audio files
//     - Tags are read concurrently by a worker pool ([TagReader], TagLib by default)
//     - Tracks are appended in argument order; untitled files use their base name
//  3. [LibraryEngine.AddRemote] : add a catalog entry by remote track id
//  4. Reordering : move within a playlist, copy or move to another playlist, remove
//  5. [LibraryEngine.PlayPlaylist] and [LibraryEngine.PlayEntry] : build a playback queue
//
// Tracks are deduplicated by source, so adding the same file or remote id twice
// reuses one library row.
//
// # Progress Reporting
//
// Long-running operations accept a progress channel. The [ProgressUpdate] struct
// contains phase, step counters, messages, and optional data. Updates use select
// with default to prevent blocking.
//
// # Deferred Resolution
//
// Queues are built from synthetic locators only; nothing here resolves a remote
// stream. Resolution happens in the data source when the engine reads bytes.
package tasks

// Package models defines domain entities and persistence interfaces for the ytplay player core.
//
// The package contains three categories of types:
//
// 1. Catalog values: data produced by the remote catalog collaborator
//   - [CatalogEntry] : a remote search result
//   - [StreamDescriptor] : the resolved direct stream URL of a remote track
//   - [RemoteTrackID] : opaque catalog identifier, key of the resolution cache
//
// 2. Persistent entities: database-backed library rows
//   - [LibraryTrack] : a local file or remote reference known to the library
//   - [Playlist] : a named container of tracks
//   - [PlaylistMembership] : ordered (playlist, track, position) relation
//
// 3. Playback values handed to the engine
//   - [PlayableItem] : locator plus display metadata; remote items carry a synthetic locator
//   - [RepeatMode] : engine-level repeat policy
//
// Synthetic locators have the form "yt:<id>" and are only turned into real
// stream URLs by the data source at read time.
package models

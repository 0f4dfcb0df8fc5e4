package models

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// SourceKind tells whether a track lives on disk or in the remote catalog.
type SourceKind string

const (
	SourceLocal  SourceKind = "local"
	SourceRemote SourceKind = "remote"
)

// Valid reports whether k is a known source kind.
func (k SourceKind) Valid() bool {
	return k == SourceLocal || k == SourceRemote
}

// LibraryTrackOpts holds the fields used to build a [LibraryTrack].
type LibraryTrackOpts struct {
	Title          string
	Artist         string
	Album          string
	DurationMs     *int64
	Kind           SourceKind
	SourceLocator  string
	ArtworkLocator string
}

// LibraryTrack is a playable item known to the library.
//
// SourceLocator is a filesystem path or file URI when Kind is [SourceLocal] and a
// [RemoteTrackID] when Kind is [SourceRemote].
type LibraryTrack struct {
	id             string
	sequence       int
	title          string
	artist         string
	album          string
	durationMs     *int64
	kind           SourceKind
	sourceLocator  string
	artworkLocator string
	createdAt      time.Time
	updatedAt      time.Time
	deletedAt      *time.Time
}

// NewLibraryTrack creates an unsaved track.
func NewLibraryTrack(opts LibraryTrackOpts) *LibraryTrack {
	now := time.Now()
	return &LibraryTrack{
		title:          opts.Title,
		artist:         opts.Artist,
		album:          opts.Album,
		durationMs:     opts.DurationMs,
		kind:           opts.Kind,
		sourceLocator:  opts.SourceLocator,
		artworkLocator: opts.ArtworkLocator,
		createdAt:      now,
		updatedAt:      now,
	}
}

func (t *LibraryTrack) ID() string                 { return t.id }
func (t *LibraryTrack) Sequence() int              { return t.sequence }
func (t *LibraryTrack) Title() string              { return t.title }
func (t *LibraryTrack) Artist() string             { return t.artist }
func (t *LibraryTrack) Album() string              { return t.album }
func (t *LibraryTrack) DurationMs() *int64         { return t.durationMs }
func (t *LibraryTrack) Kind() SourceKind           { return t.kind }
func (t *LibraryTrack) SourceLocator() string      { return t.sourceLocator }
func (t *LibraryTrack) ArtworkLocator() string     { return t.artworkLocator }
func (t *LibraryTrack) CreatedAt() time.Time       { return t.createdAt }
func (t *LibraryTrack) UpdatedAt() time.Time       { return t.updatedAt }
func (t *LibraryTrack) DeletedAt() *time.Time      { return t.deletedAt }
func (t *LibraryTrack) SetID(id string)            { t.id = id }
func (t *LibraryTrack) SetSequence(seq int)        { t.sequence = seq }
func (t *LibraryTrack) SetCreatedAt(ts time.Time)  { t.createdAt = ts }
func (t *LibraryTrack) SetUpdatedAt(ts time.Time)  { t.updatedAt = ts }
func (t *LibraryTrack) SetDeletedAt(ts *time.Time) { t.deletedAt = ts }

// Validate checks required fields.
func (t *LibraryTrack) Validate() error {
	if strings.TrimSpace(t.title) == "" {
		return fmt.Errorf("track title is required")
	}
	if !t.kind.Valid() {
		return fmt.Errorf("invalid source kind: %q", t.kind)
	}
	if strings.TrimSpace(t.sourceLocator) == "" {
		return fmt.Errorf("track source locator is required")
	}
	return nil
}

// Playable converts the track into the engine's unit.
//
// Remote tracks get a synthetic locator; nothing is resolved here.
func (t *LibraryTrack) Playable() PlayableItem {
	locator := t.sourceLocator
	if t.kind == SourceRemote {
		locator = RemoteTrackID(t.sourceLocator).Locator()
	}
	return PlayableItem{
		Locator:        locator,
		Title:          t.title,
		Artist:         t.artist,
		ArtworkLocator: t.artworkLocator,
	}
}

// TitleFromPath derives a display title from a file location.
func TitleFromPath(path string) string {
	path = strings.TrimPrefix(path, "file://")
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Playlist is a named, ordered container of tracks.
type Playlist struct {
	id        string
	sequence  int
	name      string
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewPlaylist creates an unsaved playlist.
func NewPlaylist(name string) *Playlist {
	now := time.Now()
	return &Playlist{name: name, createdAt: now, updatedAt: now}
}

func (p *Playlist) ID() string                 { return p.id }
func (p *Playlist) Sequence() int              { return p.sequence }
func (p *Playlist) Name() string               { return p.name }
func (p *Playlist) CreatedAt() time.Time       { return p.createdAt }
func (p *Playlist) UpdatedAt() time.Time       { return p.updatedAt }
func (p *Playlist) DeletedAt() *time.Time      { return p.deletedAt }
func (p *Playlist) SetID(id string)            { p.id = id }
func (p *Playlist) SetSequence(seq int)        { p.sequence = seq }
func (p *Playlist) SetName(name string)        { p.name = name }
func (p *Playlist) SetCreatedAt(ts time.Time)  { p.createdAt = ts }
func (p *Playlist) SetUpdatedAt(ts time.Time)  { p.updatedAt = ts }
func (p *Playlist) SetDeletedAt(ts *time.Time) { p.deletedAt = ts }

// Validate checks required fields.
func (p *Playlist) Validate() error {
	if strings.TrimSpace(p.name) == "" {
		return fmt.Errorf("playlist name is required")
	}
	return nil
}

// PlaylistMembership is the ordered relation (container, track, position).
//
// Positions of one container form exactly {0..n-1} at rest.
type PlaylistMembership struct {
	ContainerID string `json:"container_id"`
	TrackID     string `json:"track_id"`
	Position    int    `json:"position"`
}

// PlaylistTrack is a library track together with its position in a playlist.
type PlaylistTrack struct {
	Track    *LibraryTrack
	Position int
}

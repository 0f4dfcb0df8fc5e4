package models

import (
	"fmt"
	"strings"
	"time"
)

// Model defines the base interface for all persistent models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// RemoteScheme is the reserved locator scheme marking a remote track reference.
const RemoteScheme = "yt"

// CanonicalURLTemplate builds the catalog page URL of a remote track.
const CanonicalURLTemplate = "https://www.youtube.com/watch?v=%s"

// RemoteTrackID is the opaque catalog-assigned identifier of a remote track.
type RemoteTrackID string

func (id RemoteTrackID) String() string { return string(id) }

// Locator returns the synthetic locator "yt:<id>".
func (id RemoteTrackID) Locator() string {
	return RemoteScheme + ":" + string(id)
}

// CanonicalURL returns the catalog URL the resolver extracts streams from.
func (id RemoteTrackID) CanonicalURL() string {
	return fmt.Sprintf(CanonicalURLTemplate, string(id))
}

// IsRemoteLocator reports whether locator uses the remote scheme.
func IsRemoteLocator(locator string) bool {
	scheme, _, ok := strings.Cut(locator, ":")
	return ok && strings.EqualFold(scheme, RemoteScheme)
}

// ParseRemoteLocator extracts the id from a synthetic locator.
//
// Both "yt:<id>" and "yt://<id>" are accepted. ok is false when the scheme does not
// match or the id is blank.
func ParseRemoteLocator(locator string) (RemoteTrackID, bool) {
	if !IsRemoteLocator(locator) {
		return "", false
	}
	_, rest, _ := strings.Cut(locator, ":")
	rest = strings.TrimPrefix(rest, "//")
	rest = strings.TrimSpace(strings.TrimSuffix(rest, "/"))
	if rest == "" {
		return "", false
	}
	return RemoteTrackID(rest), true
}

// StreamDescriptor is the outcome of a successful resolution. Never mutated once produced.
type StreamDescriptor struct {
	StreamURL string `json:"stream_url"`
	MimeType  string `json:"mime_type,omitempty"`
}

// CatalogEntry is a remote search result.
type CatalogEntry struct {
	Title         string        `json:"title"`
	Artist        string        `json:"artist,omitempty"`
	DurationMs    int64         `json:"duration_ms"`
	CanonicalURL  string        `json:"canonical_url"`
	RemoteTrackID RemoteTrackID `json:"remote_track_id"`
	ThumbnailURL  string        `json:"thumbnail_url,omitempty"`
}

// LibraryTrack converts the entry into an unsaved remote library track.
func (e CatalogEntry) LibraryTrack() *LibraryTrack {
	var duration *int64
	if e.DurationMs > 0 {
		d := e.DurationMs
		duration = &d
	}
	return NewLibraryTrack(LibraryTrackOpts{
		Title:          e.Title,
		Artist:         e.Artist,
		DurationMs:     duration,
		Kind:           SourceRemote,
		SourceLocator:  e.RemoteTrackID.String(),
		ArtworkLocator: e.ThumbnailURL,
	})
}

// Playable returns a playable item referencing the entry through its synthetic locator.
func (e CatalogEntry) Playable() PlayableItem {
	return PlayableItem{
		Locator:        e.RemoteTrackID.Locator(),
		Title:          e.Title,
		Artist:         e.Artist,
		ArtworkLocator: e.ThumbnailURL,
	}
}

// PlayableItem is the unit handed to the playback engine.
//
// For remote tracks Locator is synthetic and NOT the final stream URL.
type PlayableItem struct {
	Locator        string `json:"locator"`
	Title          string `json:"title"`
	Artist         string `json:"artist,omitempty"`
	ArtworkLocator string `json:"artwork_locator,omitempty"`
}

// RepeatMode is the engine-level playback repeat policy.
type RepeatMode int

const (
	RepeatNormal RepeatMode = iota
	RepeatAll
)

func (m RepeatMode) String() string {
	switch m {
	case RepeatAll:
		return "repeat_all"
	default:
		return "normal"
	}
}

// Toggle returns the other repeat mode.
func (m RepeatMode) Toggle() RepeatMode {
	if m == RepeatAll {
		return RepeatNormal
	}
	return RepeatAll
}

// ParseRepeatMode parses "normal" or "repeat_all" (also "all").
func ParseRepeatMode(s string) (RepeatMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "normal", "off":
		return RepeatNormal, nil
	case "repeat_all", "all":
		return RepeatAll, nil
	default:
		return RepeatNormal, fmt.Errorf("unknown repeat mode: %q", s)
	}
}

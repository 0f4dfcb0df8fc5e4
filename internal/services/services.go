// package services defines the [Catalog] collaborator used to search and extract remote tracks
//
// YouTube (via extraction proxy)
package services

import (
	"context"

	"github.com/desertthunder/ytplay/internal/models"
)

// Catalog defines the remote catalog collaborator: search plus stream extraction.
//
// Errors wrap [shared.ErrNetworkFailure] for transport-level problems and
// [shared.ErrExtractionFailed] for malformed or unsupported content.
type Catalog interface {
	// Search returns entries matching query. A blank query yields no results.
	Search(ctx context.Context, query string) ([]models.CatalogEntry, error)

	// ExtractStreams returns the audio variants available for a canonical track URL.
	ExtractStreams(ctx context.Context, canonicalURL string) (*StreamInfo, error)

	// Name returns the name of the catalog (e.g., "YouTube")
	Name() string
}

// StreamInfo is the extraction result for one track.
type StreamInfo struct {
	Title         string
	Artist        string
	AudioVariants []AudioVariant
}

// AudioVariant is one candidate audio stream.
//
// IsURL is false for variants that cannot be fetched directly (e.g. manifest-only or ciphered streams).
type AudioVariant struct {
	URL        string
	MimeType   string
	AvgBitrate int
	IsURL      bool
}

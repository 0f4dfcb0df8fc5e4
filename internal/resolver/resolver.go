// Package resolver turns a remote track id into a direct stream URL.
//
// The [Resolver] calls the catalog's extraction endpoint, picks the best audio
// variant and normalizes failures into a [ResolutionError]. It never retries and
// never writes to the resolution cache; both belong to the caller.
package resolver

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytplay/internal/metrics"
	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/services"
	"github.com/desertthunder/ytplay/internal/shared"
)

// Resolver performs stream extraction against a [services.Catalog].
type Resolver struct {
	catalog services.Catalog
	logger  *log.Logger
}

// New creates a Resolver. A nil logger is replaced with the default logger.
func New(catalog services.Catalog, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.Default()
	}
	return &Resolver{catalog: catalog, logger: logger.WithPrefix("resolver")}
}

// Resolve extracts the stream for id using its deterministic canonical URL.
func (r *Resolver) Resolve(ctx context.Context, id models.RemoteTrackID) (models.StreamDescriptor, error) {
	return r.resolve(ctx, id, id.CanonicalURL())
}

// ResolveEntry extracts the stream for a search result, preferring its canonical URL.
func (r *Resolver) ResolveEntry(ctx context.Context, entry models.CatalogEntry) (models.StreamDescriptor, error) {
	url := entry.CanonicalURL
	if url == "" {
		url = entry.RemoteTrackID.CanonicalURL()
	}
	return r.resolve(ctx, entry.RemoteTrackID, url)
}

func (r *Resolver) resolve(ctx context.Context, id models.RemoteTrackID, canonicalURL string) (desc models.StreamDescriptor, err error) {
	start := time.Now()
	metrics.ResolutionsInFlight.Inc()
	defer func() {
		metrics.ResolutionsInFlight.Dec()
		metrics.ResolutionDuration.Observe(time.Since(start).Seconds())
		outcome := "ok"
		if kind, ok := KindOf(err); ok {
			outcome = kind.String()
		}
		metrics.ResolutionsTotal.WithLabelValues(outcome).Inc()
	}()

	if id == "" {
		return desc, &ResolutionError{Kind: NotFound, ID: id}
	}

	r.logger.Debug("extracting streams", "id", id, "url", canonicalURL)

	info, err := r.catalog.ExtractStreams(ctx, canonicalURL)
	if err != nil {
		rerr := &ResolutionError{Kind: classify(err), ID: id, Err: err}
		r.logger.Warn("extraction failed", "id", id, "kind", rerr.Kind, "error", err)
		return desc, rerr
	}

	best, ok := SelectBestAudio(info.AudioVariants)
	if !ok {
		r.logger.Warn("no playable stream", "id", id, "variants", len(info.AudioVariants))
		return desc, &ResolutionError{Kind: NoPlayableStream, ID: id}
	}

	r.logger.Debug("resolved stream", "id", id, "bitrate", best.AvgBitrate, "mime", best.MimeType)
	return models.StreamDescriptor{StreamURL: best.URL, MimeType: best.MimeType}, nil
}

// SelectBestAudio returns the directly playable variant with the highest average bitrate.
//
// Ties keep the first variant encountered. ok is false when no variant is playable by URL.
func SelectBestAudio(variants []services.AudioVariant) (best services.AudioVariant, ok bool) {
	for _, v := range variants {
		if !v.IsURL || v.URL == "" {
			continue
		}
		if !ok || v.AvgBitrate > best.AvgBitrate {
			best, ok = v, true
		}
	}
	return best, ok
}

// classify maps a catalog error to its coarse kind.
func classify(err error) ErrorKind {
	switch {
	case errors.Is(err, shared.ErrNetworkFailure),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return NetworkFailure
	default:
		return ExtractionFailed
	}
}

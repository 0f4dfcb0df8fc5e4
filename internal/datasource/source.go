// Package datasource implements the read interception point of the playback engine.
//
// A [Source] opens byte ranges for locators. Synthetic remote locators ("yt:<id>")
// are resolved through the resolution cache and rewritten to their stream URL
// before the read is handed to the upstream [Transport]; every other locator is
// passed through unchanged. Open blocks until resolution finishes.
package datasource

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytplay/internal/cache"
	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/resolver"
)

// ErrReadFailed matches every [ReadError] via errors.Is.
var ErrReadFailed = errors.New("read failed")

// ReadError is the I/O-level failure of an Open. Err is the cause, typically a
// [*resolver.ResolutionError] for remote locators.
type ReadError struct {
	Locator string
	Err     error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Locator, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

func (e *ReadError) Is(target error) bool { return target == ErrReadFailed }

// Source is the on-demand data source.
type Source struct {
	cache    *cache.Cache
	resolve  cache.ResolveFunc
	upstream Transport
	logger   *log.Logger
}

// NewSource creates a Source. resolve is called by the cache on a miss, usually [resolver.Resolver.Resolve].
func NewSource(c *cache.Cache, resolve cache.ResolveFunc, upstream Transport, logger *log.Logger) *Source {
	if logger == nil {
		logger = log.Default()
	}
	return &Source{cache: c, resolve: resolve, upstream: upstream, logger: logger.WithPrefix("datasource")}
}

// Open opens the byte range described by spec.
//
// Errors are always [*ReadError]. Repeated opens of the same remote locator are
// served from the cache.
func (s *Source) Open(ctx context.Context, spec DataSpec) (*Stream, error) {
	target, mimeType, err := s.Target(ctx, spec.Locator)
	if err != nil {
		return nil, err
	}

	resolved := spec
	resolved.Locator = target

	stream, err := s.upstream.Open(ctx, resolved)
	if err != nil {
		s.logger.Warn("upstream open failed", "locator", spec.Locator, "error", err)
		return nil, &ReadError{Locator: spec.Locator, Err: err}
	}
	if stream.ContentType == "" {
		stream.ContentType = mimeType
	}
	return stream, nil
}

// Target returns the upstream locator for locator, resolving remote references.
//
// mimeType is the resolved content type for remote locators and empty otherwise.
func (s *Source) Target(ctx context.Context, locator string) (target, mimeType string, err error) {
	if !models.IsRemoteLocator(locator) {
		return locator, "", nil
	}

	id, ok := models.ParseRemoteLocator(locator)
	if !ok {
		recordOpen("remote", ErrReadFailed)
		return "", "", &ReadError{Locator: locator, Err: &resolver.ResolutionError{Kind: resolver.NotFound}}
	}

	desc, err := s.cache.GetOrResolve(ctx, id, s.resolve)
	recordOpen("remote", err)
	if err != nil {
		s.logger.Warn("resolution failed", "id", id, "error", err)
		return "", "", &ReadError{Locator: locator, Err: err}
	}

	s.logger.Debug("rewrote remote locator", "id", id)
	return desc.StreamURL, desc.MimeType, nil
}

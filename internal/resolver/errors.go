package resolver

import (
	"errors"
	"fmt"

	"github.com/desertthunder/ytplay/internal/models"
)

// ErrorKind classifies a [ResolutionError].
type ErrorKind int

const (
	NetworkFailure   ErrorKind = iota // transient, caller may retry
	ExtractionFailed                  // catalog content unsupported or changed
	NoPlayableStream                  // no eligible audio variant
	NotFound                          // locator carries no remote id
)

func (k ErrorKind) String() string {
	switch k {
	case NetworkFailure:
		return "network_failure"
	case ExtractionFailed:
		return "extraction_failed"
	case NoPlayableStream:
		return "no_playable_stream"
	case NotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Retryable reports whether a later attempt may succeed.
func (k ErrorKind) Retryable() bool {
	return k == NetworkFailure
}

// ResolutionError is the normalized failure of a stream resolution.
type ResolutionError struct {
	Kind ErrorKind
	ID   models.RemoteTrackID
	Err  error
}

func (e *ResolutionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("resolve %q: %s", e.ID, e.Kind)
	}
	return fmt.Sprintf("resolve %q: %s: %v", e.ID, e.Kind, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// Is matches another *ResolutionError by kind, so errors.Is(err, &ResolutionError{Kind: NotFound}) works.
func (e *ResolutionError) Is(target error) bool {
	t, ok := target.(*ResolutionError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first [ResolutionError] in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var re *ResolutionError
	if errors.As(err, &re) {
		return re.Kind, true
	}
	return 0, false
}

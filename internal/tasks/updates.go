package tasks

import (
	"fmt"
	"path/filepath"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	ReadTags Phase = iota
	SaveTracks
	SearchCatalog
	BuildQueue
)

func (p Phase) String() string {
	switch p {
	case ReadTags:
		return "read_tags"
	case SaveTracks:
		return "save_tracks"
	case SearchCatalog:
		return "search_catalog"
	case BuildQueue:
		return "build_queue"
	default:
		return ""
	}
}

func readTagsUpdate(step, total int, path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ReadTags,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Reading %s...", step, total, filepath.Base(path)),
	}
}

func savedTrackUpdate(step, total int, r ImportFileResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SaveTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, r.Track.Title()),
		Data:    r,
	}
}

func failedTrackUpdate(step, total int, r ImportFileResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SaveTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, filepath.Base(r.Path), r.Error),
		Data:    r,
	}
}

func searchUpdate(query string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchCatalog,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Searching catalog for %q...", query),
	}
}

func queueUpdate(count, start int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BuildQueue,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Queued %d tracks, starting at #%d", count, start+1),
	}
}

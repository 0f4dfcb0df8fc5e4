// Package queue builds the playback engine's queue from playable items.
//
// Building a queue never resolves remote items: entries keep their synthetic
// locator and resolution happens when the engine reads bytes.
package queue

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/desertthunder/ytplay/internal/models"
)

// Entry is one engine-native queue entry.
type Entry struct {
	models.PlayableItem
	Index     int    `json:"index"`
	StreamURL string `json:"stream_url,omitempty"` // address of the entry on the local stream server
}

// Builder translates playable items into a [Queue].
type Builder struct {
	baseURL string
}

// NewBuilder creates a Builder. When baseURL is set, entries carry a StreamURL of the
// form {baseURL}/queue/{index}/stream.
func NewBuilder(baseURL string) *Builder {
	return &Builder{baseURL: strings.TrimSuffix(baseURL, "/")}
}

// Build creates a queue positioned at startIndex, clamped to [0, len(items)).
//
// An empty item list yields a queue with no current entry.
func (b *Builder) Build(items []models.PlayableItem, startIndex int, repeat models.RepeatMode) *Queue {
	entries := make([]Entry, len(items))
	for i, item := range items {
		entries[i] = Entry{PlayableItem: item, Index: i}
		if b.baseURL != "" {
			entries[i].StreamURL = fmt.Sprintf("%s/queue/%d/stream", b.baseURL, i)
		}
	}

	current := -1
	if len(entries) > 0 {
		current = min(max(startIndex, 0), len(entries)-1)
	}

	return &Queue{entries: entries, current: current, repeat: repeat}
}

// StreamURL returns the local stream server address for an arbitrary locator.
func (b *Builder) StreamURL(locator string) string {
	return b.baseURL + "/stream?locator=" + url.QueryEscape(locator)
}

// Queue is the engine-level queue handle. Safe for concurrent use.
type Queue struct {
	mu      sync.RWMutex
	entries []Entry
	current int
	repeat  models.RepeatMode
}

// Entries returns a copy of the queue entries.
func (q *Queue) Entries() []Entry {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return append([]Entry(nil), q.entries...)
}

func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.entries)
}

// Index returns the current position, -1 when the queue has no current entry.
func (q *Queue) Index() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.current
}

// Current returns the active entry.
func (q *Queue) Current() (Entry, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.current < 0 {
		return Entry{}, false
	}
	return q.entries[q.current], true
}

// At returns the entry at index i.
func (q *Queue) At(i int) (Entry, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if i < 0 || i >= len(q.entries) {
		return Entry{}, false
	}
	return q.entries[i], true
}

// Next advances to the following entry. With RepeatAll the last entry wraps to the first;
// otherwise ok is false at the end and the position is unchanged.
func (q *Queue) Next() (Entry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.entries)
	if n == 0 {
		return Entry{}, false
	}
	next := q.current + 1
	if next >= n {
		if q.repeat != models.RepeatAll {
			return Entry{}, false
		}
		next = 0
	}
	q.current = next
	return q.entries[next], true
}

// Previous steps back one entry, wrapping to the last entry with RepeatAll.
func (q *Queue) Previous() (Entry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.entries)
	if n == 0 {
		return Entry{}, false
	}
	prev := q.current - 1
	if prev < 0 {
		if q.repeat != models.RepeatAll {
			return Entry{}, false
		}
		prev = n - 1
	}
	q.current = prev
	return q.entries[prev], true
}

// Seek makes entry i current.
func (q *Queue) Seek(i int) (Entry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if i < 0 || i >= len(q.entries) {
		return Entry{}, false
	}
	q.current = i
	return q.entries[i], true
}

func (q *Queue) RepeatMode() models.RepeatMode {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.repeat
}

func (q *Queue) SetRepeatMode(m models.RepeatMode) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.repeat = m
}

// ToggleRepeat switches between Normal and RepeatAll and returns the new mode.
func (q *Queue) ToggleRepeat() models.RepeatMode {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.repeat = q.repeat.Toggle()
	return q.repeat
}

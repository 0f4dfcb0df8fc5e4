package queue

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/ytplay/internal/models"
)

func remoteItems(n int) []models.PlayableItem {
	items := make([]models.PlayableItem, n)
	for i := range n {
		id := models.RemoteTrackID(fmt.Sprintf("id%02d", i))
		items[i] = models.PlayableItem{Locator: id.Locator(), Title: fmt.Sprintf("Track %d", i)}
	}
	return items
}

func TestBuilder(t *testing.T) {
	t.Run("Build", func(t *testing.T) {
		t.Run("keeps synthetic locators", func(t *testing.T) {
			q := NewBuilder("").Build(remoteItems(3), 1, models.RepeatNormal)
			for i, e := range q.Entries() {
				if e.Locator != fmt.Sprintf("yt:id%02d", i) {
					t.Errorf("entry %d: unexpected locator %q", i, e.Locator)
				}
				if e.Index != i {
					t.Errorf("entry %d: unexpected index %d", i, e.Index)
				}
				if e.StreamURL != "" {
					t.Errorf("expected no stream url without base, got %q", e.StreamURL)
				}
			}
			if cur, ok := q.Current(); !ok || cur.Index != 1 {
				t.Errorf("expected current 1, got %+v", cur)
			}
		})

		t.Run("clamps start index", func(t *testing.T) {
			tests := []struct {
				start, want int
			}{
				{-5, 0},
				{0, 0},
				{2, 2},
				{3, 2},
				{99, 2},
			}
			for _, tt := range tests {
				q := NewBuilder("").Build(remoteItems(3), tt.start, models.RepeatNormal)
				if got := q.Index(); got != tt.want {
					t.Errorf("start %d: index = %d, want %d", tt.start, got, tt.want)
				}
			}
		})

		t.Run("empty queue has no current entry", func(t *testing.T) {
			q := NewBuilder("").Build(nil, 3, models.RepeatAll)
			if q.Len() != 0 || q.Index() != -1 {
				t.Errorf("unexpected queue len=%d index=%d", q.Len(), q.Index())
			}
			if _, ok := q.Current(); ok {
				t.Error("expected no current entry")
			}
			if _, ok := q.Next(); ok {
				t.Error("expected Next to fail on empty queue")
			}
			if _, ok := q.Previous(); ok {
				t.Error("expected Previous to fail on empty queue")
			}
		})

		t.Run("adds stream urls from base", func(t *testing.T) {
			q := NewBuilder("http://127.0.0.1:3000/").Build(remoteItems(2), 0, models.RepeatNormal)
			e, _ := q.At(1)
			if e.StreamURL != "http://127.0.0.1:3000/queue/1/stream" {
				t.Errorf("unexpected stream url %q", e.StreamURL)
			}
		})

		t.Run("performs no network I/O", func(t *testing.T) {
			var hits atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				time.Sleep(time.Second)
			}))
			defer server.Close()

			start := time.Now()
			q := NewBuilder(server.URL).Build(remoteItems(50), 0, models.RepeatNormal)
			if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
				t.Errorf("build took %v", elapsed)
			}
			if q.Len() != 50 {
				t.Errorf("expected 50 entries, got %d", q.Len())
			}
			if hits.Load() != 0 {
				t.Errorf("expected no requests, got %d", hits.Load())
			}
		})

		t.Run("repeat is a mode, not duplication", func(t *testing.T) {
			q := NewBuilder("").Build(remoteItems(2), 0, models.RepeatAll)
			if q.Len() != 2 {
				t.Errorf("expected 2 entries, got %d", q.Len())
			}
			if q.RepeatMode() != models.RepeatAll {
				t.Errorf("expected RepeatAll, got %s", q.RepeatMode())
			}
		})
	})

	t.Run("StreamURL", func(t *testing.T) {
		got := NewBuilder("http://localhost:3000").StreamURL("yt:abc")
		if got != "http://localhost:3000/stream?locator=yt%3Aabc" {
			t.Errorf("unexpected url %q", got)
		}
	})
}

func TestQueueNavigation(t *testing.T) {
	t.Run("normal mode stops at the ends", func(t *testing.T) {
		q := NewBuilder("").Build(remoteItems(3), 2, models.RepeatNormal)
		if _, ok := q.Next(); ok {
			t.Error("expected Next to stop at the end")
		}
		if q.Index() != 2 {
			t.Errorf("expected index unchanged, got %d", q.Index())
		}

		q.Seek(0)
		if _, ok := q.Previous(); ok {
			t.Error("expected Previous to stop at the start")
		}
	})

	t.Run("repeat all wraps", func(t *testing.T) {
		q := NewBuilder("").Build(remoteItems(3), 2, models.RepeatAll)
		if e, ok := q.Next(); !ok || e.Index != 0 {
			t.Errorf("expected wrap to 0, got %+v", e)
		}
		if e, ok := q.Previous(); !ok || e.Index != 2 {
			t.Errorf("expected wrap to 2, got %+v", e)
		}
	})

	t.Run("toggle repeat", func(t *testing.T) {
		q := NewBuilder("").Build(remoteItems(2), 1, models.RepeatNormal)
		if m := q.ToggleRepeat(); m != models.RepeatAll {
			t.Errorf("expected RepeatAll, got %s", m)
		}
		if e, ok := q.Next(); !ok || e.Index != 0 {
			t.Errorf("expected wrap after toggle, got %+v", e)
		}
		q.SetRepeatMode(models.RepeatNormal)
		if q.RepeatMode() != models.RepeatNormal {
			t.Error("expected RepeatNormal")
		}
	})

	t.Run("seek bounds", func(t *testing.T) {
		q := NewBuilder("").Build(remoteItems(2), 0, models.RepeatNormal)
		if _, ok := q.Seek(5); ok {
			t.Error("expected out-of-range seek to fail")
		}
		if _, ok := q.At(-1); ok {
			t.Error("expected negative index to fail")
		}
		if e, ok := q.Seek(1); !ok || e.Index != 1 {
			t.Errorf("expected seek to 1, got %+v", e)
		}
	})
}

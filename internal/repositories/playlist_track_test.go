package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/shared"
)

type fixture struct {
	db       *sql.DB
	members  *PlaylistTrackRepository
	playlist *models.Playlist
	ids      map[string]string // title -> track id
	titles   map[string]string // track id -> title
}

// newFixture creates playlist P holding tracks with the given titles, in order.
func newFixture(t *testing.T, titles ...string) *fixture {
	t.Helper()
	db := setupTestDB(t)
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		db:       db,
		members:  NewPlaylistTrackRepository(db),
		playlist: models.NewPlaylist("P"),
		ids:      map[string]string{},
		titles:   map[string]string{},
	}
	if err := NewPlaylistRepository(db).Create(f.playlist); err != nil {
		t.Fatalf("failed to create playlist: %v", err)
	}
	for _, title := range titles {
		id := f.track(t, title)
		if _, _, err := f.members.Add(context.Background(), f.playlist.ID(), id); err != nil {
			t.Fatalf("failed to add %s: %v", title, err)
		}
	}
	return f
}

func (f *fixture) track(t *testing.T, title string) string {
	t.Helper()
	track := remoteTrack("id-"+title, title)
	if err := NewTrackRepository(f.db).Create(track); err != nil {
		t.Fatalf("failed to create track %s: %v", title, err)
	}
	f.ids[title] = track.ID()
	f.titles[track.ID()] = title
	return track.ID()
}

// order returns "title@position" for every member of P.
func (f *fixture) order(t *testing.T) []string {
	t.Helper()
	members, err := f.members.Members(context.Background(), f.playlist.ID())
	if err != nil {
		t.Fatalf("failed to list members: %v", err)
	}
	out := make([]string, len(members))
	for i, m := range members {
		out[i] = fmt.Sprintf("%s@%d", f.titles[m.TrackID], m.Position)
	}
	return out
}

func assertOrder(t *testing.T, got []string, want ...string) {
	t.Helper()
	if !slices.Equal(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func assertDense(t *testing.T, members []models.PlaylistMembership) {
	t.Helper()
	for i, m := range members {
		if m.Position != i {
			t.Fatalf("positions not dense: member %d has position %d", i, m.Position)
		}
	}
}

func TestPlaylistTrackRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Add", func(t *testing.T) {
		t.Run("appends at the end", func(t *testing.T) {
			f := newFixture(t, "A", "B")
			pos, added, err := f.members.Add(ctx, f.playlist.ID(), f.track(t, "C"))
			if err != nil {
				t.Fatalf("failed to add: %v", err)
			}
			if !added || pos != 2 {
				t.Errorf("expected append at 2, got %d (added=%v)", pos, added)
			}
			assertOrder(t, f.order(t), "A@0", "B@1", "C@2")
		})

		t.Run("first track goes to position zero", func(t *testing.T) {
			f := newFixture(t)
			pos, _, err := f.members.Add(ctx, f.playlist.ID(), f.track(t, "A"))
			if err != nil || pos != 0 {
				t.Errorf("expected position 0, got %d (%v)", pos, err)
			}
		})

		t.Run("existing member is a no-op", func(t *testing.T) {
			f := newFixture(t, "A", "B")
			pos, added, err := f.members.Add(ctx, f.playlist.ID(), f.ids["A"])
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if added || pos != 0 {
				t.Errorf("expected existing position 0 and added=false, got %d %v", pos, added)
			}
			assertOrder(t, f.order(t), "A@0", "B@1")
		})

		t.Run("unknown playlist", func(t *testing.T) {
			f := newFixture(t, "A")
			_, _, err := f.members.Add(ctx, "missing", f.ids["A"])
			if !errors.Is(err, shared.ErrPlaylistNotFound) {
				t.Errorf("expected ErrPlaylistNotFound, got %v", err)
			}
		})

		t.Run("unknown track", func(t *testing.T) {
			f := newFixture(t, "A")
			_, _, err := f.members.Add(ctx, f.playlist.ID(), "missing")
			if !errors.Is(err, shared.ErrTrackNotFound) {
				t.Errorf("expected ErrTrackNotFound, got %v", err)
			}
			assertOrder(t, f.order(t), "A@0")
		})
	})

	t.Run("Remove", func(t *testing.T) {
		t.Run("renumbers the remaining tracks", func(t *testing.T) {
			f := newFixture(t, "A", "B", "C")
			removed, err := f.members.Remove(ctx, f.playlist.ID(), f.ids["B"])
			if err != nil || !removed {
				t.Fatalf("expected removal, got %v (%v)", removed, err)
			}
			assertOrder(t, f.order(t), "A@0", "C@1")
		})

		t.Run("non-member", func(t *testing.T) {
			f := newFixture(t, "A", "B")
			removed, err := f.members.Remove(ctx, f.playlist.ID(), "missing")
			if err != nil || removed {
				t.Errorf("expected no-op, got %v (%v)", removed, err)
			}
			assertOrder(t, f.order(t), "A@0", "B@1")
		})
	})

	t.Run("Move", func(t *testing.T) {
		tests := []struct {
			name  string
			track string
			to    int
			want  []string
		}{
			{"first to last", "A", 2, []string{"B@0", "C@1", "A@2"}},
			{"last to first", "C", 0, []string{"C@0", "A@1", "B@2"}},
			{"middle forward", "B", 2, []string{"A@0", "C@1", "B@2"}},
			{"same position", "B", 1, []string{"A@0", "B@1", "C@2"}},
			{"negative clamps to start", "C", -3, []string{"C@0", "A@1", "B@2"}},
			{"past end clamps to last", "A", 99, []string{"B@0", "C@1", "A@2"}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f := newFixture(t, "A", "B", "C")
				moved, err := f.members.Move(ctx, f.playlist.ID(), f.ids[tt.track], tt.to)
				if err != nil || !moved {
					t.Fatalf("expected move, got %v (%v)", moved, err)
				}
				assertOrder(t, f.order(t), tt.want...)
			})
		}

		t.Run("non-member is a no-op", func(t *testing.T) {
			f := newFixture(t, "A", "B", "C")
			outsider := f.track(t, "X")
			moved, err := f.members.Move(ctx, f.playlist.ID(), outsider, 0)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if moved {
				t.Error("expected moved=false")
			}
			assertOrder(t, f.order(t), "A@0", "B@1", "C@2")
		})

		t.Run("single member", func(t *testing.T) {
			f := newFixture(t, "A")
			f.members.Move(ctx, f.playlist.ID(), f.ids["A"], 5)
			assertOrder(t, f.order(t), "A@0")
		})
	})

	t.Run("Tracks", func(t *testing.T) {
		f := newFixture(t, "A", "B", "C")
		f.members.Move(ctx, f.playlist.ID(), f.ids["C"], 0)

		tracks, err := f.members.Tracks(ctx, f.playlist.ID())
		if err != nil {
			t.Fatalf("failed to list tracks: %v", err)
		}
		var got []string
		for _, pt := range tracks {
			got = append(got, fmt.Sprintf("%s@%d", pt.Track.Title(), pt.Position))
		}
		assertOrder(t, got, "C@0", "A@1", "B@2")
	})

	t.Run("DeleteContainer", func(t *testing.T) {
		f := newFixture(t, "A", "B")

		tx, err := f.db.Begin()
		if err != nil {
			t.Fatal(err)
		}
		if err := f.members.DeleteContainer(ctx, tx, f.playlist.ID()); err != nil {
			t.Fatalf("failed to delete container: %v", err)
		}
		tx.Rollback()
		assertOrder(t, f.order(t), "A@0", "B@1")

		tx, _ = f.db.Begin()
		if err := f.members.DeleteContainer(ctx, tx, f.playlist.ID()); err != nil {
			t.Fatalf("failed to delete container: %v", err)
		}
		if err := tx.Commit(); err != nil {
			t.Fatal(err)
		}
		if got := f.order(t); len(got) != 0 {
			t.Errorf("expected no members, got %v", got)
		}
	})

	t.Run("RemoveEverywhere", func(t *testing.T) {
		f := newFixture(t, "A", "B", "C")
		other := models.NewPlaylist("Q")
		NewPlaylistRepository(f.db).Create(other)
		f.members.Add(ctx, other.ID(), f.ids["B"])
		f.members.Add(ctx, other.ID(), f.ids["C"])

		if err := f.members.RemoveEverywhere(ctx, f.ids["B"]); err != nil {
			t.Fatalf("failed to remove everywhere: %v", err)
		}
		assertOrder(t, f.order(t), "A@0", "C@1")

		members, _ := f.members.Members(ctx, other.ID())
		if len(members) != 1 || members[0].TrackID != f.ids["C"] || members[0].Position != 0 {
			t.Errorf("unexpected members of Q: %+v", members)
		}
	})

	t.Run("positions stay dense under random operations", func(t *testing.T) {
		f := newFixture(t, "A", "B", "C", "D", "E")
		pool := []string{"A", "B", "C", "D", "E", "F", "G"}
		f.track(t, "F")
		f.track(t, "G")

		rng := rand.New(rand.NewPCG(1, 2))
		for range 200 {
			title := pool[rng.IntN(len(pool))]
			id := f.ids[title]
			var err error
			switch rng.IntN(3) {
			case 0:
				_, _, err = f.members.Add(ctx, f.playlist.ID(), id)
			case 1:
				_, err = f.members.Remove(ctx, f.playlist.ID(), id)
			default:
				_, err = f.members.Move(ctx, f.playlist.ID(), id, rng.IntN(9)-2)
			}
			if err != nil {
				t.Fatalf("operation failed: %v", err)
			}

			members, err := f.members.Members(ctx, f.playlist.ID())
			if err != nil {
				t.Fatalf("failed to list members: %v", err)
			}
			assertDense(t, members)
		}
	})
}

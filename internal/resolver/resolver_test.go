package resolver

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/services"
	"github.com/desertthunder/ytplay/internal/shared"
	tu "github.com/desertthunder/ytplay/internal/testing"
)

func TestResolver(t *testing.T) {
	ctx := context.Background()

	t.Run("Resolve", func(t *testing.T) {
		t.Run("picks the highest bitrate variant", func(t *testing.T) {
			catalog := &tu.MockCatalog{Info: tu.StreamInfo("u1", 128, "u2", 256)}
			r := New(catalog, nil)

			desc, err := r.Resolve(ctx, "abc123")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if desc.StreamURL != "u2" {
				t.Errorf("expected u2, got %s", desc.StreamURL)
			}
			if desc.MimeType != "audio/webm" {
				t.Errorf("expected mime type to carry over, got %q", desc.MimeType)
			}
		})

		t.Run("uses the deterministic canonical URL", func(t *testing.T) {
			catalog := &tu.MockCatalog{Info: tu.StreamInfo("u1", 128)}
			r := New(catalog, nil)

			if _, err := r.Resolve(ctx, "abc123"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			urls := catalog.ExtractedURLs()
			if len(urls) != 1 || urls[0] != "https://www.youtube.com/watch?v=abc123" {
				t.Errorf("unexpected extraction urls %v", urls)
			}
		})

		t.Run("no playable variant", func(t *testing.T) {
			info := &services.StreamInfo{AudioVariants: []services.AudioVariant{
				{URL: "m1", AvgBitrate: 320, IsURL: false},
			}}
			r := New(&tu.MockCatalog{Info: info}, nil)

			_, err := r.Resolve(ctx, "abc123")
			if !errors.Is(err, &ResolutionError{Kind: NoPlayableStream}) {
				t.Errorf("expected NoPlayableStream, got %v", err)
			}
		})

		t.Run("empty variant list", func(t *testing.T) {
			r := New(&tu.MockCatalog{Info: &services.StreamInfo{}}, nil)
			if _, err := r.Resolve(ctx, "abc123"); !errors.Is(err, &ResolutionError{Kind: NoPlayableStream}) {
				t.Errorf("expected NoPlayableStream, got %v", err)
			}
		})

		t.Run("empty id is not found", func(t *testing.T) {
			catalog := &tu.MockCatalog{Info: tu.StreamInfo("u1", 128)}
			r := New(catalog, nil)

			_, err := r.Resolve(ctx, "")
			if kind, ok := KindOf(err); !ok || kind != NotFound {
				t.Errorf("expected NotFound, got %v", err)
			}
			if catalog.ExtractCalls() != 0 {
				t.Errorf("expected no catalog calls, got %d", catalog.ExtractCalls())
			}
		})

		t.Run("normalizes catalog errors", func(t *testing.T) {
			tests := []struct {
				name string
				err  error
				want ErrorKind
			}{
				{"network failure", fmt.Errorf("%w: connection refused", shared.ErrNetworkFailure), NetworkFailure},
				{"deadline", context.DeadlineExceeded, NetworkFailure},
				{"extraction failure", fmt.Errorf("%w: bad payload", shared.ErrExtractionFailed), ExtractionFailed},
				{"unknown error", errors.New("boom"), ExtractionFailed},
			}

			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					r := New(&tu.MockCatalog{Err: tt.err}, nil)
					_, err := r.Resolve(ctx, "abc123")

					var rerr *ResolutionError
					if !errors.As(err, &rerr) {
						t.Fatalf("expected ResolutionError, got %v", err)
					}
					if rerr.Kind != tt.want {
						t.Errorf("expected kind %s, got %s", tt.want, rerr.Kind)
					}
					if rerr.ID != "abc123" {
						t.Errorf("expected id abc123, got %s", rerr.ID)
					}
					if !errors.Is(err, tt.err) {
						t.Errorf("expected cause to be preserved")
					}
				})
			}
		})

		t.Run("does not retry", func(t *testing.T) {
			catalog := &tu.MockCatalog{Err: shared.ErrNetworkFailure}
			r := New(catalog, nil)
			r.Resolve(ctx, "abc123")
			if catalog.ExtractCalls() != 1 {
				t.Errorf("expected exactly 1 call, got %d", catalog.ExtractCalls())
			}
		})
	})

	t.Run("ResolveEntry", func(t *testing.T) {
		t.Run("prefers the entry canonical URL", func(t *testing.T) {
			catalog := &tu.MockCatalog{Info: tu.StreamInfo("u1", 128)}
			r := New(catalog, nil)

			entry := models.CatalogEntry{RemoteTrackID: "abc123", CanonicalURL: "https://music.youtube.com/watch?v=abc123"}
			if _, err := r.ResolveEntry(ctx, entry); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if urls := catalog.ExtractedURLs(); urls[0] != entry.CanonicalURL {
				t.Errorf("expected %s, got %s", entry.CanonicalURL, urls[0])
			}
		})

		t.Run("falls back to the id", func(t *testing.T) {
			catalog := &tu.MockCatalog{Info: tu.StreamInfo("u1", 128)}
			r := New(catalog, nil)

			if _, err := r.ResolveEntry(ctx, models.CatalogEntry{RemoteTrackID: "xyz"}); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if urls := catalog.ExtractedURLs(); urls[0] != "https://www.youtube.com/watch?v=xyz" {
				t.Errorf("unexpected url %s", urls[0])
			}
		})
	})
}

func TestSelectBestAudio(t *testing.T) {
	tests := []struct {
		name     string
		variants []services.AudioVariant
		wantURL  string
		wantOK   bool
	}{
		{
			name:     "empty",
			variants: nil,
			wantOK:   false,
		},
		{
			name: "max bitrate wins",
			variants: []services.AudioVariant{
				{URL: "u1", AvgBitrate: 128, IsURL: true},
				{URL: "u2", AvgBitrate: 256, IsURL: true},
				{URL: "u3", AvgBitrate: 160, IsURL: true},
			},
			wantURL: "u2",
			wantOK:  true,
		},
		{
			name: "tie keeps first encountered",
			variants: []services.AudioVariant{
				{URL: "u1", AvgBitrate: 160, IsURL: true},
				{URL: "u2", AvgBitrate: 160, IsURL: true},
			},
			wantURL: "u1",
			wantOK:  true,
		},
		{
			name: "skips variants not playable by URL",
			variants: []services.AudioVariant{
				{URL: "u1", AvgBitrate: 320, IsURL: false},
				{URL: "u2", AvgBitrate: 64, IsURL: true},
			},
			wantURL: "u2",
			wantOK:  true,
		},
		{
			name: "zero bitrate still playable",
			variants: []services.AudioVariant{
				{URL: "u1", AvgBitrate: 0, IsURL: true},
			},
			wantURL: "u1",
			wantOK:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectBestAudio(tt.variants)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if got.URL != tt.wantURL {
				t.Errorf("url = %q, want %q", got.URL, tt.wantURL)
			}
		})
	}
}

func TestResolutionError(t *testing.T) {
	t.Run("Error includes id and kind", func(t *testing.T) {
		err := &ResolutionError{Kind: NetworkFailure, ID: "abc", Err: errors.New("timeout")}
		if got := err.Error(); got != `resolve "abc": network_failure: timeout` {
			t.Errorf("unexpected message %q", got)
		}
	})

	t.Run("Is matches by kind", func(t *testing.T) {
		err := fmt.Errorf("wrapped: %w", &ResolutionError{Kind: NotFound})
		if !errors.Is(err, &ResolutionError{Kind: NotFound}) {
			t.Error("expected match on kind")
		}
		if errors.Is(err, &ResolutionError{Kind: NetworkFailure}) {
			t.Error("expected no match for other kind")
		}
	})

	t.Run("Retryable", func(t *testing.T) {
		if !NetworkFailure.Retryable() {
			t.Error("network failures should be retryable")
		}
		for _, k := range []ErrorKind{ExtractionFailed, NoPlayableStream, NotFound} {
			if k.Retryable() {
				t.Errorf("%s should not be retryable", k)
			}
		}
	})
}

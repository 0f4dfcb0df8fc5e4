package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/ytplay/internal/shared"
)

func TestYouTubeCatalog(t *testing.T) {
	t.Run("NewYouTubeCatalog", func(t *testing.T) {
		t.Run("creates catalog with default URL", func(t *testing.T) {
			if svc := NewYouTubeCatalog(YouTubeOpts{}); svc == nil {
				t.Fatal("expected catalog to be created")
			} else if svc.baseURL != defaultYTBaseURL {
				t.Errorf("expected baseURL to be %s, got %s", defaultYTBaseURL, svc.baseURL)
			}
		})

		t.Run("trims trailing slash from custom URL", func(t *testing.T) {
			if svc := NewYouTubeCatalog(YouTubeOpts{BaseURL: "http://localhost:9000/"}); svc.baseURL != "http://localhost:9000" {
				t.Errorf("expected trimmed baseURL, got %s", svc.baseURL)
			}
		})

		t.Run("applies default client timeout", func(t *testing.T) {
			svc := NewYouTubeCatalog(YouTubeOpts{})
			if svc.httpClient.Timeout != defaultHTTPTimeout {
				t.Errorf("expected timeout %v, got %v", defaultHTTPTimeout, svc.httpClient.Timeout)
			}
		})
	})

	t.Run("Name", func(t *testing.T) {
		if svc := NewYouTubeCatalog(YouTubeOpts{}); svc.Name() != "YouTube" {
			t.Errorf("expected name to be 'YouTube', got %s", svc.Name())
		}
	})

	t.Run("Search", func(t *testing.T) {
		t.Run("maps results to catalog entries", func(t *testing.T) {
			results := []map[string]any{
				{
					"videoId":          "abc123",
					"title":            "Song One",
					"artists":          []map[string]any{{"name": "Artist A"}, {"name": "Artist B"}},
					"duration_seconds": 215,
					"thumbnails":       []map[string]any{{"url": "http://img/1.jpg"}},
				},
				{"videoId": "def456", "title": "Song Two", "uploader": "Uploader"},
				{"title": "No ID"},
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/search" {
					t.Errorf("expected path /api/search, got %s", r.URL.Path)
				}
				if q := r.URL.Query().Get("q"); q != "daft punk" {
					t.Errorf("expected query 'daft punk', got %q", q)
				}
				if f := r.URL.Query().Get("filter"); f != "songs" {
					t.Errorf("expected filter 'songs', got %q", f)
				}
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(results)
			}))
			defer server.Close()

			svc := NewYouTubeCatalog(YouTubeOpts{BaseURL: server.URL, RateLimit: 100})
			entries, err := svc.Search(context.Background(), "daft punk")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(entries) != 2 {
				t.Fatalf("expected 2 entries, got %d", len(entries))
			}

			first := entries[0]
			if first.RemoteTrackID != "abc123" {
				t.Errorf("expected id abc123, got %s", first.RemoteTrackID)
			}
			if first.Artist != "Artist A, Artist B" {
				t.Errorf("expected joined artists, got %q", first.Artist)
			}
			if first.DurationMs != 215000 {
				t.Errorf("expected 215000ms, got %d", first.DurationMs)
			}
			if first.ThumbnailURL != "http://img/1.jpg" {
				t.Errorf("expected thumbnail from response, got %s", first.ThumbnailURL)
			}
			if first.CanonicalURL != "https://www.youtube.com/watch?v=abc123" {
				t.Errorf("unexpected canonical url %s", first.CanonicalURL)
			}

			second := entries[1]
			if second.Artist != "Uploader" {
				t.Errorf("expected uploader fallback, got %q", second.Artist)
			}
			if second.ThumbnailURL != "https://i.ytimg.com/vi/def456/mqdefault.jpg" {
				t.Errorf("expected thumbnail fallback, got %s", second.ThumbnailURL)
			}
			if second.DurationMs != 0 {
				t.Errorf("expected unknown duration, got %d", second.DurationMs)
			}
		})

		t.Run("blank query makes no request", func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
			}))
			defer server.Close()

			svc := NewYouTubeCatalog(YouTubeOpts{BaseURL: server.URL})
			entries, err := svc.Search(context.Background(), "   ")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(entries) != 0 {
				t.Errorf("expected no entries, got %d", len(entries))
			}
			if calls.Load() != 0 {
				t.Errorf("expected no requests, got %d", calls.Load())
			}
		})

		t.Run("forwards configured headers", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("Cookie"); got != "SID=abc" {
					t.Errorf("expected cookie header, got %q", got)
				}
				json.NewEncoder(w).Encode([]any{})
			}))
			defer server.Close()

			header := http.Header{}
			header.Set("Cookie", "SID=abc")
			svc := NewYouTubeCatalog(YouTubeOpts{BaseURL: server.URL, Header: header})
			if _, err := svc.Search(context.Background(), "x"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})
	})

	t.Run("ExtractStreams", func(t *testing.T) {
		t.Run("maps audio variants", func(t *testing.T) {
			info := map[string]any{
				"title":    "Song",
				"uploader": "Uploader",
				"audio_streams": []map[string]any{
					{"url": "u1", "mime_type": "audio/webm", "average_bitrate": 128, "is_url": true},
					{"url": "u2", "mime_type": "audio/mp4", "average_bitrate": 256, "is_url": false},
				},
			}
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/streams" {
					t.Errorf("expected path /api/streams, got %s", r.URL.Path)
				}
				if u := r.URL.Query().Get("url"); u != "https://www.youtube.com/watch?v=abc123" {
					t.Errorf("unexpected url param %q", u)
				}
				json.NewEncoder(w).Encode(info)
			}))
			defer server.Close()

			svc := NewYouTubeCatalog(YouTubeOpts{BaseURL: server.URL})
			got, err := svc.ExtractStreams(context.Background(), "https://www.youtube.com/watch?v=abc123")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got.Title != "Song" || got.Artist != "Uploader" {
				t.Errorf("unexpected metadata %+v", got)
			}
			if len(got.AudioVariants) != 2 {
				t.Fatalf("expected 2 variants, got %d", len(got.AudioVariants))
			}
			if v := got.AudioVariants[1]; v.URL != "u2" || v.AvgBitrate != 256 || v.IsURL {
				t.Errorf("unexpected variant %+v", v)
			}
		})

		t.Run("rejects empty url", func(t *testing.T) {
			svc := NewYouTubeCatalog(YouTubeOpts{})
			if _, err := svc.ExtractStreams(context.Background(), ""); !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	})

	t.Run("error classification", func(t *testing.T) {
		tests := []struct {
			name   string
			status int
			body   string
			want   error
		}{
			{name: "service unavailable", status: http.StatusServiceUnavailable, want: shared.ErrNetworkFailure},
			{name: "too many requests", status: http.StatusTooManyRequests, want: shared.ErrNetworkFailure},
			{name: "bad gateway", status: http.StatusBadGateway, want: shared.ErrNetworkFailure},
			{name: "not found", status: http.StatusNotFound, body: `{"detail":"video unavailable"}`, want: shared.ErrExtractionFailed},
			{name: "internal error", status: http.StatusInternalServerError, want: shared.ErrExtractionFailed},
			{name: "malformed body", status: http.StatusOK, body: `{not json`, want: shared.ErrExtractionFailed},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(tt.status)
					w.Write([]byte(tt.body))
				}))
				defer server.Close()

				svc := NewYouTubeCatalog(YouTubeOpts{BaseURL: server.URL})
				_, err := svc.ExtractStreams(context.Background(), "https://www.youtube.com/watch?v=x")
				if !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
			})
		}

		t.Run("unreachable server is a network failure", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
			url := server.URL
			server.Close()

			svc := NewYouTubeCatalog(YouTubeOpts{BaseURL: url, Timeout: time.Second})
			_, err := svc.Search(context.Background(), "x")
			if !errors.Is(err, shared.ErrNetworkFailure) {
				t.Errorf("expected ErrNetworkFailure, got %v", err)
			}
		})

		t.Run("cancelled context is a network failure", func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			svc := NewYouTubeCatalog(YouTubeOpts{BaseURL: "http://127.0.0.1:1"})
			_, err := svc.Search(ctx, "x")
			if !errors.Is(err, shared.ErrNetworkFailure) {
				t.Errorf("expected ErrNetworkFailure, got %v", err)
			}
		})
	})
}

// YouTube [Catalog] implementation
//
// Communicates with the extraction proxy server. The proxy wraps the extractor
// library and exposes search and stream extraction as JSON endpoints.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultYTBaseURL   = "http://localhost:8080"
	defaultRateLimit   = 5.0
	defaultBurst       = 2
	thumbnailTemplate  = "https://i.ytimg.com/vi/%s/mqdefault.jpg"
	searchFilterSongs  = "songs"
	defaultHTTPTimeout = 20 * time.Second
)

// YouTubeImage represents an image/thumbnail in proxy responses.
type YouTubeImage struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// YouTubeArtist represents an artist in proxy responses.
type YouTubeArtist struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// YouTubeTrack represents a search result in proxy responses.
type YouTubeTrack struct {
	VideoID     string          `json:"videoId"`
	Title       string          `json:"title"`
	Artists     []YouTubeArtist `json:"artists"`
	Uploader    string          `json:"uploader"`
	DurationSec int             `json:"duration_seconds"`
	Thumbnails  []YouTubeImage  `json:"thumbnails"`
	URL         string          `json:"url"`
}

// YouTubeAudioStream represents one audio stream returned by /api/streams.
type YouTubeAudioStream struct {
	URL            string `json:"url"`
	MimeType       string `json:"mime_type"`
	AverageBitrate int    `json:"average_bitrate"`
	IsURL          bool   `json:"is_url"`
}

// YouTubeStreamInfo is the /api/streams response.
type YouTubeStreamInfo struct {
	Title        string               `json:"title"`
	Uploader     string               `json:"uploader"`
	Artists      []YouTubeArtist      `json:"artists"`
	AudioStreams []YouTubeAudioStream `json:"audio_streams"`
}

// YouTubeOpts configures a [YouTubeCatalog].
type YouTubeOpts struct {
	BaseURL    string
	HTTPClient *http.Client
	Header     http.Header // forwarded on every request
	RateLimit  float64     // requests per second
	Burst      int
	Timeout    time.Duration
}

// YouTubeCatalog implements the [Catalog] interface for YouTube via proxy.
type YouTubeCatalog struct {
	baseURL    string
	header     http.Header
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewYouTubeCatalog creates a new YouTube catalog client.
func NewYouTubeCatalog(opts YouTubeOpts) *YouTubeCatalog {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultYTBaseURL
	}
	if opts.HTTPClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultHTTPTimeout
		}
		opts.HTTPClient = &http.Client{Timeout: timeout}
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultRateLimit
	}
	if opts.Burst <= 0 {
		opts.Burst = defaultBurst
	}

	return &YouTubeCatalog{
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		header:     opts.Header,
		httpClient: opts.HTTPClient,
		limiter:    rate.NewLimiter(rate.Limit(opts.RateLimit), opts.Burst),
	}
}

// Name returns the catalog name.
func (y *YouTubeCatalog) Name() string {
	return "YouTube"
}

// doRequest performs a rate limited GET against the proxy and decodes the JSON body into result.
//
// Transport errors and gateway statuses wrap [shared.ErrNetworkFailure]; every other
// non-2xx status and undecodable bodies wrap [shared.ErrExtractionFailed].
func (y *YouTubeCatalog) doRequest(ctx context.Context, endpoint string, result any) error {
	if err := y.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limiter: %v", shared.ErrNetworkFailure, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, y.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	for key, values := range y.header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: request failed: %v", shared.ErrNetworkFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		kind := shared.ErrExtractionFailed
		if isTransientStatus(resp.StatusCode) {
			kind = shared.ErrNetworkFailure
		}

		var errResp struct {
			Detail string `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Detail != "" {
			return fmt.Errorf("%w: catalog API error (status %d): %s", kind, resp.StatusCode, errResp.Detail)
		}
		return fmt.Errorf("%w: catalog API error: status %d", kind, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: failed to read response: %v", shared.ErrNetworkFailure, err)
		}
		return fmt.Errorf("%w: failed to decode response: %v", shared.ErrExtractionFailed, err)
	}

	return nil
}

func isTransientStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Search returns song results for query.
//
// Calls GET /api/search?q={query}&filter=songs on the proxy. Results without a video id are dropped.
func (y *YouTubeCatalog) Search(ctx context.Context, query string) ([]models.CatalogEntry, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.CatalogEntry{}, nil
	}

	endpoint := fmt.Sprintf("/api/search?q=%s&filter=%s", url.QueryEscape(query), searchFilterSongs)

	var results []YouTubeTrack
	if err := y.doRequest(ctx, endpoint, &results); err != nil {
		return nil, err
	}

	entries := make([]models.CatalogEntry, 0, len(results))
	for _, r := range results {
		if r.VideoID == "" {
			continue
		}
		entries = append(entries, r.entry())
	}

	return entries, nil
}

func (t YouTubeTrack) entry() models.CatalogEntry {
	id := models.RemoteTrackID(t.VideoID)

	artist := t.Uploader
	if len(t.Artists) > 0 {
		names := make([]string, 0, len(t.Artists))
		for _, a := range t.Artists {
			names = append(names, a.Name)
		}
		artist = strings.Join(names, ", ")
	}

	thumbnail := fmt.Sprintf(thumbnailTemplate, t.VideoID)
	if len(t.Thumbnails) > 0 && t.Thumbnails[0].URL != "" {
		thumbnail = t.Thumbnails[0].URL
	}

	canonical := t.URL
	if canonical == "" {
		canonical = id.CanonicalURL()
	}

	var duration int64
	if t.DurationSec > 0 {
		duration = int64(t.DurationSec) * 1000
	}

	return models.CatalogEntry{
		Title:         t.Title,
		Artist:        artist,
		DurationMs:    duration,
		CanonicalURL:  canonical,
		RemoteTrackID: id,
		ThumbnailURL:  thumbnail,
	}
}

// ExtractStreams returns the audio variants for canonicalURL.
//
// Calls GET /api/streams?url={canonicalURL} on the proxy.
func (y *YouTubeCatalog) ExtractStreams(ctx context.Context, canonicalURL string) (*StreamInfo, error) {
	if strings.TrimSpace(canonicalURL) == "" {
		return nil, fmt.Errorf("%w: empty canonical url", shared.ErrInvalidInput)
	}

	endpoint := fmt.Sprintf("/api/streams?url=%s", url.QueryEscape(canonicalURL))

	var info YouTubeStreamInfo
	if err := y.doRequest(ctx, endpoint, &info); err != nil {
		return nil, err
	}

	artist := info.Uploader
	if len(info.Artists) > 0 {
		artist = info.Artists[0].Name
	}

	variants := make([]AudioVariant, len(info.AudioStreams))
	for i, s := range info.AudioStreams {
		variants[i] = AudioVariant{
			URL:        s.URL,
			MimeType:   s.MimeType,
			AvgBitrate: s.AverageBitrate,
			IsURL:      s.IsURL,
		}
	}

	return &StreamInfo{
		Title:         info.Title,
		Artist:        artist,
		AudioVariants: variants,
	}, nil
}

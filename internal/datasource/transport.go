package datasource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/ytplay/internal/metrics"
	"github.com/desertthunder/ytplay/internal/shared"
)

const defaultUpstreamTimeout = 30 * time.Second

// ErrUnsupportedLocator is returned for locators no transport can open.
var ErrUnsupportedLocator = errors.New("unsupported locator")

// ErrRangeNotSatisfiable is returned when the requested offset is past the end of the resource.
var ErrRangeNotSatisfiable = errors.New("range not satisfiable")

// DataSpec is one byte-range read request.
//
// Length <= 0 reads to the end of the resource.
type DataSpec struct {
	Locator string
	Offset  int64
	Length  int64
}

// Stream is an open byte range. The caller must close Body.
type Stream struct {
	Body        io.ReadCloser
	ContentType string
	Offset      int64
	Length      int64 // bytes in Body, -1 when unknown
	Total       int64 // size of the whole resource, -1 when unknown
}

// Transport opens byte ranges for a class of locators.
type Transport interface {
	Open(ctx context.Context, spec DataSpec) (*Stream, error)
}

// HTTPTransport fetches byte ranges with HTTP Range requests.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport creates an HTTPTransport. A nil client gets a default with no overall timeout
// on the body, since streams may be long lived; only the response headers are bounded.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			ResponseHeaderTimeout: defaultUpstreamTimeout,
		}}
	}
	return &HTTPTransport{client: client}
}

func (h *HTTPTransport) Open(ctx context.Context, spec DataSpec) (*Stream, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, spec.Locator, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if r := rangeHeader(spec); r != "" {
		req.Header.Set("Range", r)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}

	stream := &Stream{
		Body:        resp.Body,
		ContentType: resp.Header.Get("Content-Type"),
		Offset:      spec.Offset,
		Length:      resp.ContentLength,
		Total:       -1,
	}

	switch resp.StatusCode {
	case http.StatusPartialContent:
		if total, ok := parseContentRangeTotal(resp.Header.Get("Content-Range")); ok {
			stream.Total = total
		}
	case http.StatusOK:
		stream.Total = resp.ContentLength
		if spec.Offset > 0 {
			// server ignored Range
			if _, err := io.CopyN(io.Discard, resp.Body, spec.Offset); err != nil {
				resp.Body.Close()
				return nil, fmt.Errorf("failed to skip to offset %d: %w", spec.Offset, err)
			}
			if stream.Length >= 0 {
				stream.Length -= spec.Offset
			}
		}
		if spec.Length > 0 && (stream.Length < 0 || stream.Length > spec.Length) {
			stream.Body = limitReadCloser(resp.Body, spec.Length)
			stream.Length = spec.Length
		}
	case http.StatusRequestedRangeNotSatisfiable:
		resp.Body.Close()
		return nil, fmt.Errorf("%w: offset %d", ErrRangeNotSatisfiable, spec.Offset)
	default:
		resp.Body.Close()
		return nil, fmt.Errorf("%w: unexpected upstream status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	stream.Body = countBytes(stream.Body, "http")
	return stream, nil
}

func rangeHeader(spec DataSpec) string {
	switch {
	case spec.Length > 0:
		return fmt.Sprintf("bytes=%d-%d", spec.Offset, spec.Offset+spec.Length-1)
	case spec.Offset > 0:
		return fmt.Sprintf("bytes=%d-", spec.Offset)
	default:
		return ""
	}
}

// parseContentRangeTotal reads the total from "bytes a-b/total".
func parseContentRangeTotal(v string) (int64, bool) {
	_, total, ok := strings.Cut(v, "/")
	if !ok || total == "*" {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimSpace(total), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// FileTransport reads byte ranges from local files. Locators are paths or file:// URLs.
type FileTransport struct{}

func (FileTransport) Open(ctx context.Context, spec DataSpec) (*Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := filePath(spec.Locator)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%w: %s is a directory", ErrUnsupportedLocator, path)
	}

	size := info.Size()
	if spec.Offset > 0 && spec.Offset >= size {
		f.Close()
		return nil, fmt.Errorf("%w: offset %d beyond size %d", ErrRangeNotSatisfiable, spec.Offset, size)
	}
	if _, err := f.Seek(spec.Offset, io.SeekStart); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to seek: %w", err)
	}

	length := size - spec.Offset
	var body io.ReadCloser = f
	if spec.Length > 0 && spec.Length < length {
		length = spec.Length
		body = limitReadCloser(f, length)
	}

	return &Stream{
		Body:        countBytes(body, "file"),
		ContentType: contentType(path),
		Offset:      spec.Offset,
		Length:      length,
		Total:       size,
	}, nil
}

var audioTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".flac": "audio/flac",
	".ogg":  "audio/ogg",
	".opus": "audio/ogg",
	".wav":  "audio/wav",
	".webm": "audio/webm",
}

func contentType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if t, ok := audioTypes[ext]; ok {
		return t
	}
	return mime.TypeByExtension(ext)
}

func filePath(locator string) (string, error) {
	if strings.HasPrefix(locator, "file://") {
		u, err := url.Parse(locator)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrUnsupportedLocator, err)
		}
		return filepath.FromSlash(u.Path), nil
	}
	if locator == "" {
		return "", fmt.Errorf("%w: empty locator", ErrUnsupportedLocator)
	}
	return locator, nil
}

// DefaultTransport routes a locator to HTTP or file access by its scheme.
type DefaultTransport struct {
	HTTP Transport
	File Transport
}

// NewDefaultTransport routes http(s) locators to an [HTTPTransport] using client and
// everything path-like to a [FileTransport].
func NewDefaultTransport(client *http.Client) *DefaultTransport {
	return &DefaultTransport{HTTP: NewHTTPTransport(client), File: FileTransport{}}
}

func (d *DefaultTransport) Open(ctx context.Context, spec DataSpec) (*Stream, error) {
	kind := locatorKind(spec.Locator)
	var (
		stream *Stream
		err    error
	)
	switch kind {
	case "http":
		stream, err = d.HTTP.Open(ctx, spec)
	case "file":
		stream, err = d.File.Open(ctx, spec)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedLocator, spec.Locator)
	}
	recordOpen(kind, err)
	return stream, err
}

// locatorKind returns "http", "file" or the unrecognized scheme.
func locatorKind(locator string) string {
	scheme, _, ok := strings.Cut(locator, "://")
	if !ok {
		if filepath.IsAbs(locator) || !strings.Contains(locator, ":") || filepath.VolumeName(locator) != "" {
			return "file"
		}
		scheme, _, _ = strings.Cut(locator, ":")
		return strings.ToLower(scheme)
	}
	switch strings.ToLower(scheme) {
	case "http", "https":
		return "http"
	case "file":
		return "file"
	default:
		return strings.ToLower(scheme)
	}
}

func recordOpen(kind string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.DataSourceOpensTotal.WithLabelValues(kind, status).Inc()
}

type readCloser struct {
	io.Reader
	io.Closer
}

func limitReadCloser(rc io.ReadCloser, n int64) io.ReadCloser {
	return readCloser{Reader: io.LimitReader(rc, n), Closer: rc}
}

type countingReader struct {
	io.ReadCloser
	kind string
}

func (c countingReader) Read(p []byte) (int, error) {
	n, err := c.ReadCloser.Read(p)
	if n > 0 {
		metrics.DataSourceBytesTotal.WithLabelValues(c.kind).Add(float64(n))
	}
	return n, err
}

func countBytes(rc io.ReadCloser, kind string) io.ReadCloser {
	return countingReader{ReadCloser: rc, kind: kind}
}

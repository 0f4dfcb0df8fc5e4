// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/services"
)

// MockCatalog is a test double for [services.Catalog].
//
// SearchFunc and ExtractFunc override the canned results when set. Calls are counted per method.
type MockCatalog struct {
	Entries     []models.CatalogEntry
	Info        *services.StreamInfo
	Err         error
	SearchFunc  func(ctx context.Context, query string) ([]models.CatalogEntry, error)
	ExtractFunc func(ctx context.Context, canonicalURL string) (*services.StreamInfo, error)

	mu       sync.Mutex
	searches int
	extracts int
	urls     []string
}

func (m *MockCatalog) Search(ctx context.Context, query string) ([]models.CatalogEntry, error) {
	m.mu.Lock()
	m.searches++
	m.mu.Unlock()

	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Entries, nil
}

func (m *MockCatalog) ExtractStreams(ctx context.Context, canonicalURL string) (*services.StreamInfo, error) {
	m.mu.Lock()
	m.extracts++
	m.urls = append(m.urls, canonicalURL)
	m.mu.Unlock()

	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, canonicalURL)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Info, nil
}

func (m *MockCatalog) Name() string { return "mock" }

// SearchCalls returns how many times Search was called.
func (m *MockCatalog) SearchCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.searches
}

// ExtractCalls returns how many times ExtractStreams was called.
func (m *MockCatalog) ExtractCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.extracts
}

// ExtractedURLs returns the canonical URLs passed to ExtractStreams, in call order.
func (m *MockCatalog) ExtractedURLs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.urls...)
}

// StreamInfo builds a [services.StreamInfo] with directly playable variants url@bitrate.
func StreamInfo(pairs ...any) *services.StreamInfo {
	info := &services.StreamInfo{}
	for i := 0; i+1 < len(pairs); i += 2 {
		info.AudioVariants = append(info.AudioVariants, services.AudioVariant{
			URL:        pairs[i].(string),
			MimeType:   "audio/webm",
			AvgBitrate: pairs[i+1].(int),
			IsURL:      true,
		})
	}
	return info
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

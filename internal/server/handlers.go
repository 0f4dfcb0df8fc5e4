package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytplay/internal/datasource"
	"github.com/desertthunder/ytplay/internal/formatter"
	"github.com/desertthunder/ytplay/internal/queue"
	"github.com/desertthunder/ytplay/internal/resolver"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var errInvalidRange = errors.New("invalid range")

// StreamHandler serves byte ranges through the data source and exposes the active queue.
type StreamHandler struct {
	source Opener
	queue  func() *queue.Queue
	logger *log.Logger
}

func (h *StreamHandler) Routes() []Route {
	return []Route{
		{Name: "stream", Method: http.MethodGet, Path: "/stream", Handler: h.Stream},
		{Name: "queue", Method: http.MethodGet, Path: "/queue", Handler: h.Queue},
		{Name: "queue-m3u", Method: http.MethodGet, Path: "/queue.m3u", Handler: h.M3U},
		{Name: "queue-stream", Method: http.MethodGet, Path: "/queue/{index:[0-9]+}/stream", Handler: h.QueueStream},
	}
}

// Stream serves GET /stream?locator=<locator>.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	locator := r.URL.Query().Get("locator")
	if strings.TrimSpace(locator) == "" {
		writeJSONError(w, "missing locator", http.StatusBadRequest)
		return
	}
	h.serve(w, r, locator)
}

// QueueStream serves GET /queue/{index}/stream for an entry of the active queue.
func (h *StreamHandler) QueueStream(w http.ResponseWriter, r *http.Request) {
	q := h.queue()
	if q == nil {
		writeJSONError(w, "no active queue", http.StatusNotFound)
		return
	}

	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		writeJSONError(w, "invalid index", http.StatusBadRequest)
		return
	}
	entry, ok := q.At(index)
	if !ok {
		writeJSONError(w, fmt.Sprintf("no queue entry %d", index), http.StatusNotFound)
		return
	}
	h.serve(w, r, entry.Locator)
}

type queueResponse struct {
	Current int           `json:"current"`
	Repeat  string        `json:"repeat"`
	Entries []queue.Entry `json:"entries"`
}

// Queue serves GET /queue as JSON.
func (h *StreamHandler) Queue(w http.ResponseWriter, r *http.Request) {
	q := h.queue()
	if q == nil {
		writeJSONError(w, "no active queue", http.StatusNotFound)
		return
	}
	writeJSON(w, queueResponse{Current: q.Index(), Repeat: q.RepeatMode().String(), Entries: q.Entries()})
}

// M3U serves GET /queue.m3u.
func (h *StreamHandler) M3U(w http.ResponseWriter, r *http.Request) {
	q := h.queue()
	if q == nil {
		writeJSONError(w, "no active queue", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "audio/x-mpegurl")
	if err := formatter.WriteM3U(w, q.Entries()); err != nil {
		h.logger.Warn("failed to write playlist", "error", err)
	}
}

func (h *StreamHandler) serve(w http.ResponseWriter, r *http.Request, locator string) {
	offset, length, ranged, err := parseRange(r.Header.Get("Range"))
	if err != nil {
		w.Header().Set("Content-Range", "bytes */*")
		writeJSONError(w, err.Error(), http.StatusRequestedRangeNotSatisfiable)
		return
	}

	stream, err := h.source.Open(r.Context(), datasource.DataSpec{Locator: locator, Offset: offset, Length: length})
	if err != nil {
		status := statusFor(err)
		if status == http.StatusRequestedRangeNotSatisfiable {
			w.Header().Set("Content-Range", "bytes */*")
		}
		writeJSONError(w, err.Error(), status)
		return
	}
	defer stream.Body.Close()

	header := w.Header()
	// a range over an empty resource selects no bytes
	if ranged && stream.Length == 0 {
		total := "*"
		if stream.Total >= 0 {
			total = strconv.FormatInt(stream.Total, 10)
		}
		header.Set("Content-Range", "bytes */"+total)
		writeJSONError(w, "range not satisfiable", http.StatusRequestedRangeNotSatisfiable)
		return
	}

	header.Set("Accept-Ranges", "bytes")
	if stream.ContentType != "" {
		header.Set("Content-Type", stream.ContentType)
	}
	if stream.Length >= 0 {
		header.Set("Content-Length", strconv.FormatInt(stream.Length, 10))
	}

	status := http.StatusOK
	if ranged {
		status = http.StatusPartialContent
		if cr, ok := contentRange(stream); ok {
			header.Set("Content-Range", cr)
		}
	}
	w.WriteHeader(status)

	if _, err := io.Copy(w, stream.Body); err != nil {
		h.logger.Debug("stream interrupted", "locator", locator, "error", err)
	}
}

// parseRange parses a single "bytes=a-b" or "bytes=a-" range. An empty header is not ranged.
// Length is 0 for open ended ranges.
func parseRange(header string) (offset, length int64, ranged bool, err error) {
	if header == "" {
		return 0, 0, false, nil
	}

	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok || strings.Contains(spec, ",") {
		return 0, 0, false, fmt.Errorf("%w: %q", errInvalidRange, header)
	}

	first, last, ok := strings.Cut(strings.TrimSpace(spec), "-")
	if !ok || first == "" {
		return 0, 0, false, fmt.Errorf("%w: %q", errInvalidRange, header)
	}

	offset, err = strconv.ParseInt(first, 10, 64)
	if err != nil || offset < 0 {
		return 0, 0, false, fmt.Errorf("%w: %q", errInvalidRange, header)
	}
	if last == "" {
		return offset, 0, true, nil
	}

	end, err := strconv.ParseInt(last, 10, 64)
	if err != nil || end < offset {
		return 0, 0, false, fmt.Errorf("%w: %q", errInvalidRange, header)
	}
	return offset, end - offset + 1, true, nil
}

func contentRange(s *datasource.Stream) (string, bool) {
	total := "*"
	if s.Total >= 0 {
		total = strconv.FormatInt(s.Total, 10)
	}
	switch {
	case s.Length > 0:
		return fmt.Sprintf("bytes %d-%d/%s", s.Offset, s.Offset+s.Length-1, total), true
	case s.Length < 0 && s.Total > s.Offset:
		return fmt.Sprintf("bytes %d-%d/%s", s.Offset, s.Total-1, total), true
	default:
		return "", false
	}
}

// statusFor maps data source failures to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, datasource.ErrRangeNotSatisfiable):
		return http.StatusRequestedRangeNotSatisfiable
	case errors.Is(err, datasource.ErrUnsupportedLocator):
		return http.StatusBadRequest
	case errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	}
	if kind, ok := resolver.KindOf(err); ok && kind == resolver.NotFound {
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}

// SystemHandler serves health and metrics endpoints.
type SystemHandler struct{}

func (h *SystemHandler) Routes() []Route {
	return []Route{
		{Name: "healthz", Method: http.MethodGet, Path: "/healthz", Handler: h.Health},
		{Name: "metrics", Method: http.MethodGet, Path: "/metrics", Handler: promhttp.Handler().ServeHTTP},
	}
}

// Health serves GET /healthz.
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// package formatter renders playlists, search results and queues as text, CSV, Markdown and M3U
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/queue"
	"github.com/desertthunder/ytplay/internal/shared"
)

// Format names an export format.
type Format string

const (
	FormatText     Format = "text"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "md"
	FormatM3U      Format = "m3u"
)

// ParseFormat parses a format name. Empty means [FormatText].
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "m3u", "m3u8":
		return FormatM3U, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, s)
	}
}

// Ext returns the file extension for the format.
func (f Format) Ext() string {
	if f == FormatText {
		return "txt"
	}
	return string(f)
}

// PlaylistExport is a playlist with its tracks in order.
type PlaylistExport struct {
	Playlist *models.Playlist
	Tracks   []models.PlaylistTrack
}

func durationOf(t *models.LibraryTrack) string {
	if d := t.DurationMs(); d != nil {
		return shared.FormatDuration(*d)
	}
	return shared.FormatDuration(0)
}

func durationMsOf(t *models.LibraryTrack) string {
	if d := t.DurationMs(); d != nil {
		return strconv.FormatInt(*d, 10)
	}
	return ""
}

// ExportToCSV converts a PlaylistExport to CSV format with columns: Position, ID, Title, Artist, Album, DurationMs, Source, Locator
func ExportToCSV(export *PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "ID", "Title", "Artist", "Album", "DurationMs", "Source", "Locator"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, pt := range export.Tracks {
		track := pt.Track
		record := []string{
			strconv.Itoa(pt.Position),
			track.ID(),
			track.Title(),
			track.Artist(),
			track.Album(),
			durationMsOf(track),
			string(track.Kind()),
			track.SourceLocator(),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a PlaylistExport to Markdown format
func ExportToMarkdown(export *PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", export.Playlist.Name())
	fmt.Fprintf(&buf, "**Tracks**: %d\n\n", len(export.Tracks))

	buf.WriteString("## Tracks\n\n")
	for i, pt := range export.Tracks {
		track := pt.Track
		albumPart := ""
		if track.Album() != "" {
			albumPart = fmt.Sprintf(" (%s)", track.Album())
		}
		fmt.Fprintf(&buf, "%d. %s%s [%s] `%s`\n", i+1, displayName(track.Artist(), track.Title()), albumPart, durationOf(track), track.Kind())
	}

	return buf.Bytes(), nil
}

// ExportToText converts a PlaylistExport to plain text format
func ExportToText(export *PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", export.Playlist.Name())
	fmt.Fprintf(&buf, "ID: %s\n", export.Playlist.ID())
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(export.Tracks))

	for i, pt := range export.Tracks {
		fmt.Fprintf(&buf, "%d. %s [%s] (%s)\n", i+1, displayName(pt.Track.Artist(), pt.Track.Title()), durationOf(pt.Track), pt.Track.ID())
	}

	return buf.Bytes(), nil
}

// ExportToM3U renders queue entries as an extended M3U playlist.
//
// Entries with a stream server address point at it; others keep their locator, so
// a remote entry is only playable by a player that goes through the data source.
func ExportToM3U(entries []queue.Entry) []byte {
	var buf bytes.Buffer
	buf.WriteString("#EXTM3U\n")
	for _, e := range entries {
		fmt.Fprintf(&buf, "#EXTINF:-1,%s\n", displayName(e.Artist, e.Title))
		if e.StreamURL != "" {
			buf.WriteString(e.StreamURL)
		} else {
			buf.WriteString(e.Locator)
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// WriteM3U writes [ExportToM3U] output to w.
func WriteM3U(w io.Writer, entries []queue.Entry) error {
	if _, err := w.Write(ExportToM3U(entries)); err != nil {
		return fmt.Errorf("failed to write M3U: %w", err)
	}
	return nil
}

// Export renders a playlist in the given format. M3U needs a queue and is not supported here.
func Export(export *PlaylistExport, format Format) ([]byte, error) {
	switch format {
	case FormatText:
		return ExportToText(export)
	case FormatCSV:
		return ExportToCSV(export)
	case FormatMarkdown:
		return ExportToMarkdown(export)
	default:
		return nil, fmt.Errorf("%w: cannot export a playlist as %q", shared.ErrInvalidFlag, format)
	}
}

// WriteExport renders a playlist and writes it to path.
//
// Defaults to {playlist name}.{ext} in the working directory.
func WriteExport(export *PlaylistExport, format Format, path string) (string, error) {
	if path == "" {
		path = fileSafe(export.Playlist.Name()) + "." + format.Ext()
	}

	data, err := Export(export, format)
	if err != nil {
		return "", err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", format, err)
	}
	return path, nil
}

// WritePlaylists prints a playlist listing. counts maps playlist ids to track counts and may be nil.
func WritePlaylists(w io.Writer, playlists []*models.Playlist, counts map[string]int) error {
	if len(playlists) == 0 {
		_, err := fmt.Fprintln(w, Help("No playlists yet. Create one with `ytplay playlist create <name>`."))
		return err
	}

	if _, err := fmt.Fprintln(w, Title(fmt.Sprintf("Playlists (%d)", len(playlists)))); err != nil {
		return err
	}
	for _, p := range playlists {
		line := fmt.Sprintf("  %s  %s", p.Name(), Help(p.ID()))
		if counts != nil {
			line += fmt.Sprintf("  %d tracks", counts[p.ID()])
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// WriteSearchResults prints numbered catalog search results.
func WriteSearchResults(w io.Writer, query string, entries []models.CatalogEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, Warn(fmt.Sprintf("No results for %q", query)))
		return err
	}

	if _, err := fmt.Fprintln(w, Title(fmt.Sprintf("Results for %q", query))); err != nil {
		return err
	}
	for i, e := range entries {
		line := fmt.Sprintf("%2d. %s [%s]  %s", i+1, displayName(e.Artist, e.Title), shared.FormatDuration(e.DurationMs), Help(e.RemoteTrackID.String()))
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// WriteQueue prints a queue, marking the current entry.
func WriteQueue(w io.Writer, q *queue.Queue) error {
	current := q.Index()
	header := fmt.Sprintf("Queue (%d tracks, %s)", q.Len(), q.RepeatMode())
	if _, err := fmt.Fprintln(w, Title(header)); err != nil {
		return err
	}
	for _, e := range q.Entries() {
		marker := "  "
		name := displayName(e.Artist, e.Title)
		if e.Index == current {
			marker = "▶ "
			name = OK(name)
		}
		if _, err := fmt.Fprintf(w, "%s%2d. %s  %s\n", marker, e.Index+1, name, Help(e.Locator)); err != nil {
			return err
		}
	}
	return nil
}

func displayName(artist, title string) string {
	if artist == "" {
		return title
	}
	return artist + " - " + title
}

// fileSafe replaces path separators and other characters file systems reject.
func fileSafe(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "playlist"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
}

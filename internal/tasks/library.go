package tasks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytplay/internal/metrics"
	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/queue"
	"github.com/desertthunder/ytplay/internal/repositories"
	"github.com/desertthunder/ytplay/internal/services"
	"github.com/desertthunder/ytplay/internal/shared"
)

const (
	defaultImportWorkers = 4
	maxImportWorkers     = 16
)

// LibraryEngineOpts holds the dependencies of a [LibraryEngine].
type LibraryEngineOpts struct {
	Catalog   services.Catalog
	Playlists *repositories.PlaylistRepository
	Tracks    *repositories.TrackRepository
	Members   *repositories.PlaylistTrackRepository
	Tags      TagReader      // defaults to [TaglibReader]
	Builder   *queue.Builder // defaults to a builder without stream URLs
	// ArtworkDir receives covers embedded in imported local files; empty disables it.
	ArtworkDir string
	Logger     *log.Logger
}

// LibraryEngine orchestrates playlist management and playback queue assembly.
//
// Remote tracks are never resolved here; queues carry synthetic locators that the
// data source resolves at read time.
type LibraryEngine struct {
	catalog    services.Catalog
	playlists  *repositories.PlaylistRepository
	tracks     *repositories.TrackRepository
	members    *repositories.PlaylistTrackRepository
	tags       TagReader
	builder    *queue.Builder
	artworkDir string
	logger     *log.Logger
}

// NewLibraryEngine creates a new LibraryEngine.
func NewLibraryEngine(opts LibraryEngineOpts) *LibraryEngine {
	if opts.Tags == nil {
		opts.Tags = TaglibReader{}
	}
	if opts.Builder == nil {
		opts.Builder = queue.NewBuilder("")
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &LibraryEngine{
		catalog:    opts.Catalog,
		playlists:  opts.Playlists,
		tracks:     opts.Tracks,
		members:    opts.Members,
		tags:       opts.Tags,
		builder:    opts.Builder,
		artworkDir: opts.ArtworkDir,
		logger:     opts.Logger.WithPrefix("library"),
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *LibraryEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Search queries the remote catalog. A blank query returns no results without a network call.
func (e *LibraryEngine) Search(ctx context.Context, progress chan<- ProgressUpdate, query string) ([]models.CatalogEntry, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.CatalogEntry{}, nil
	}
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog not configured", shared.ErrServiceUnavailable)
	}

	e.sendProgress(progress, searchUpdate(query))
	entries, err := e.catalog.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	return entries, nil
}

// CreatePlaylist creates an empty playlist.
func (e *LibraryEngine) CreatePlaylist(name string) (*models.Playlist, error) {
	playlist := models.NewPlaylist(strings.TrimSpace(name))
	if err := e.playlists.Create(playlist); err != nil {
		return nil, err
	}
	e.logger.Info("created playlist", "id", playlist.ID(), "name", playlist.Name())
	return playlist, nil
}

// RenamePlaylist changes the name of a playlist.
func (e *LibraryEngine) RenamePlaylist(idOrName, name string) (*models.Playlist, error) {
	playlist, err := e.FindPlaylist(idOrName)
	if err != nil {
		return nil, err
	}
	playlist.SetName(strings.TrimSpace(name))
	if err := e.playlists.Update(playlist); err != nil {
		return nil, err
	}
	return playlist, nil
}

// DeletePlaylist deletes a playlist and its memberships. Tracks stay in the library.
func (e *LibraryEngine) DeletePlaylist(idOrName string) error {
	playlist, err := e.FindPlaylist(idOrName)
	if err != nil {
		return err
	}
	if err := e.playlists.Delete(playlist.ID()); err != nil {
		return err
	}
	e.logger.Info("deleted playlist", "id", playlist.ID(), "name", playlist.Name())
	return nil
}

// Playlists lists all playlists ordered by name.
func (e *LibraryEngine) Playlists() ([]*models.Playlist, error) {
	return e.playlists.List(nil)
}

// FindPlaylist looks a playlist up by ID, falling back to an exact name match.
func (e *LibraryEngine) FindPlaylist(idOrName string) (*models.Playlist, error) {
	idOrName = strings.TrimSpace(idOrName)
	if idOrName == "" {
		return nil, fmt.Errorf("%w: playlist id or name", shared.ErrMissingArgument)
	}

	playlist, err := e.playlists.Get(idOrName)
	if err == nil {
		return playlist, nil
	}
	if !errors.Is(err, shared.ErrPlaylistNotFound) {
		return nil, err
	}

	playlist, err = e.playlists.GetByName(idOrName)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, idOrName)
	}
	return playlist, nil
}

// PlaylistTracks returns the playlist together with its tracks in order.
func (e *LibraryEngine) PlaylistTracks(ctx context.Context, idOrName string) (*models.Playlist, []models.PlaylistTrack, error) {
	playlist, err := e.FindPlaylist(idOrName)
	if err != nil {
		return nil, nil, err
	}
	tracks, err := e.members.Tracks(ctx, playlist.ID())
	if err != nil {
		return nil, nil, err
	}
	return playlist, tracks, nil
}

// ImportOpts configures [LibraryEngine.ImportLocal].
type ImportOpts struct {
	Workers int // concurrent tag readers (default: 4)
}

// ImportFileResult is the outcome for one file.
type ImportFileResult struct {
	Path     string
	Track    *models.LibraryTrack
	Position int
	Created  bool // a new library row was written
	Added    bool // the track was not already in the playlist
	Error    error
}

// ImportResult summarizes an import.
type ImportResult struct {
	Playlist *models.Playlist
	Files    []ImportFileResult
	Imported int
	Failed   int
}

type tagJob struct {
	index int
	path  string
}

type tagResult struct {
	index int
	path  string
	tags  FileTags
	err   error
}

// ImportLocal adds local audio files to a playlist.
//
// Tags are read concurrently by a worker pool; tracks are then appended in input
// order so the playlist order matches the argument order. Files without a title tag
// are named after their base name. A file that cannot be read fails individually.
func (e *LibraryEngine) ImportLocal(
	ctx context.Context,
	progress chan<- ProgressUpdate,
	playlistIDOrName string,
	paths []string,
	opts ImportOpts,
) (*ImportResult, error) {
	playlist, err := e.FindPlaylist(playlistIDOrName)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no files to import", shared.ErrMissingArgument)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = defaultImportWorkers
	}
	workers = min(workers, maxImportWorkers, len(paths))

	jobs := make(chan tagJob, len(paths))
	results := make(chan tagResult, len(paths))

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go e.tagWorker(ctx, &wg, jobs, results)
	}

	for i, p := range paths {
		jobs <- tagJob{index: i, path: p}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	read := make([]tagResult, len(paths))
	step := 0
	for res := range results {
		step++
		read[res.index] = res
		e.sendProgress(progress, readTagsUpdate(step, len(paths), res.path))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &ImportResult{Playlist: playlist, Files: make([]ImportFileResult, 0, len(paths))}
	for i, res := range read {
		file := e.saveLocal(ctx, playlist.ID(), res)
		result.Files = append(result.Files, file)

		if file.Error != nil {
			result.Failed++
			metrics.LibraryImportsTotal.WithLabelValues(string(models.SourceLocal), "error").Inc()
			e.logger.Warn("import failed", "path", file.Path, "error", file.Error)
			e.sendProgress(progress, failedTrackUpdate(i+1, len(paths), file))
			continue
		}

		result.Imported++
		metrics.LibraryImportsTotal.WithLabelValues(string(models.SourceLocal), "ok").Inc()
		e.sendProgress(progress, savedTrackUpdate(i+1, len(paths), file))
	}

	return result, nil
}

// tagWorker reads tags for jobs until the channel is drained or ctx is done.
func (e *LibraryEngine) tagWorker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan tagJob, results chan<- tagResult) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			results <- tagResult{index: job.index, path: job.path, err: ctx.Err()}
			continue
		default:
		}

		res := tagResult{index: job.index, path: job.path}
		abs, err := localPath(job.path)
		if err != nil {
			res.err = err
			results <- res
			continue
		}
		res.path = abs

		tags, err := e.tags.ReadTags(abs)
		if err != nil {
			e.logger.Debug("no tags, using file name", "path", abs, "error", err)
		}
		res.tags = tags
		results <- res
	}
}

func (e *LibraryEngine) saveLocal(ctx context.Context, playlistID string, res tagResult) ImportFileResult {
	file := ImportFileResult{Path: res.path}
	if res.err != nil {
		file.Error = res.err
		return file
	}

	title := res.tags.Title
	if title == "" {
		title = models.TitleFromPath(res.path)
	}

	track := models.NewLibraryTrack(models.LibraryTrackOpts{
		Title:          title,
		Artist:         res.tags.Artist,
		Album:          res.tags.Album,
		DurationMs:     res.tags.DurationMs,
		Kind:           models.SourceLocal,
		SourceLocator:  res.path,
		ArtworkLocator: e.storeArtwork(res.tags),
	})

	saved, created, err := e.tracks.FindOrCreate(track)
	if err != nil {
		file.Error = err
		return file
	}
	file.Track, file.Created = saved, created

	file.Position, file.Added, file.Error = e.members.Add(ctx, playlistID, saved.ID())
	return file
}

// localPath returns the absolute path of an existing regular file.
func localPath(path string) (string, error) {
	path = strings.TrimPrefix(path, "file://")
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", shared.ErrInvalidInput, abs)
	}
	return abs, nil
}

// AddRemote adds a catalog entry to a playlist, reusing the library row for the same remote id.
func (e *LibraryEngine) AddRemote(ctx context.Context, playlistIDOrName string, entry models.CatalogEntry) (*ImportFileResult, error) {
	if entry.RemoteTrackID == "" {
		return nil, fmt.Errorf("%w: remote track id", shared.ErrMissingArgument)
	}
	if strings.TrimSpace(entry.Title) == "" {
		entry.Title = entry.RemoteTrackID.String()
	}

	playlist, err := e.FindPlaylist(playlistIDOrName)
	if err != nil {
		return nil, err
	}

	saved, created, err := e.tracks.FindOrCreate(entry.LibraryTrack())
	if err != nil {
		metrics.LibraryImportsTotal.WithLabelValues(string(models.SourceRemote), "error").Inc()
		return nil, err
	}

	position, added, err := e.members.Add(ctx, playlist.ID(), saved.ID())
	if err != nil {
		metrics.LibraryImportsTotal.WithLabelValues(string(models.SourceRemote), "error").Inc()
		return nil, err
	}

	metrics.LibraryImportsTotal.WithLabelValues(string(models.SourceRemote), "ok").Inc()
	e.logger.Info("added remote track", "playlist", playlist.Name(), "id", entry.RemoteTrackID, "position", position)
	return &ImportFileResult{Path: entry.RemoteTrackID.Locator(), Track: saved, Position: position, Created: created, Added: added}, nil
}

// RemoveTrack removes a track from a playlist and closes the gap.
func (e *LibraryEngine) RemoveTrack(ctx context.Context, playlistIDOrName, trackID string) error {
	playlist, err := e.FindPlaylist(playlistIDOrName)
	if err != nil {
		return err
	}
	removed, err := e.members.Remove(ctx, playlist.ID(), trackID)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("%w: %s is not in %s", shared.ErrTrackNotFound, trackID, playlist.Name())
	}
	return nil
}

// MoveTrack moves a track within a playlist. Moving a non-member changes nothing.
func (e *LibraryEngine) MoveTrack(ctx context.Context, playlistIDOrName, trackID string, position int) (bool, error) {
	playlist, err := e.FindPlaylist(playlistIDOrName)
	if err != nil {
		return false, err
	}
	return e.members.Move(ctx, playlist.ID(), trackID, position)
}

// CopyToPlaylist appends a track of one playlist to another. With move set the
// track is also removed from the source playlist.
func (e *LibraryEngine) CopyToPlaylist(ctx context.Context, fromIDOrName, toIDOrName, trackID string, move bool) error {
	from, err := e.FindPlaylist(fromIDOrName)
	if err != nil {
		return err
	}
	to, err := e.FindPlaylist(toIDOrName)
	if err != nil {
		return err
	}

	members, err := e.members.Members(ctx, from.ID())
	if err != nil {
		return err
	}
	if !slices.ContainsFunc(members, func(m models.PlaylistMembership) bool { return m.TrackID == trackID }) {
		return fmt.Errorf("%w: %s is not in %s", shared.ErrTrackNotFound, trackID, from.Name())
	}

	if _, _, err := e.members.Add(ctx, to.ID(), trackID); err != nil {
		return err
	}
	if move && from.ID() != to.ID() {
		if _, err := e.members.Remove(ctx, from.ID(), trackID); err != nil {
			return err
		}
	}
	return nil
}

// DeleteTrack removes a track from every playlist and deletes it from the library.
func (e *LibraryEngine) DeleteTrack(ctx context.Context, trackID string) error {
	if err := e.members.RemoveEverywhere(ctx, trackID); err != nil {
		return err
	}
	return e.tracks.Delete(trackID)
}

// Playables returns the playable items of a playlist in order.
func (e *LibraryEngine) Playables(ctx context.Context, playlistIDOrName string) ([]models.PlayableItem, []models.PlaylistTrack, error) {
	_, tracks, err := e.PlaylistTracks(ctx, playlistIDOrName)
	if err != nil {
		return nil, nil, err
	}
	items := make([]models.PlayableItem, len(tracks))
	for i, pt := range tracks {
		items[i] = pt.Track.Playable()
	}
	return items, tracks, nil
}

// PlayPlaylist builds a queue for a playlist starting at fromTrackID, or at the
// first track when fromTrackID is empty or not in the playlist.
func (e *LibraryEngine) PlayPlaylist(
	ctx context.Context,
	progress chan<- ProgressUpdate,
	playlistIDOrName, fromTrackID string,
	repeat models.RepeatMode,
) (*queue.Queue, error) {
	items, tracks, err := e.Playables(ctx, playlistIDOrName)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: %s", shared.ErrEmptyPlaylist, playlistIDOrName)
	}

	start := 0
	if fromTrackID != "" {
		if i := slices.IndexFunc(tracks, func(pt models.PlaylistTrack) bool { return pt.Track.ID() == fromTrackID }); i >= 0 {
			start = i
		}
	}

	e.sendProgress(progress, queueUpdate(len(items), start))
	return e.builder.Build(items, start, repeat), nil
}

// PlayEntry builds a single-item queue for a search result.
func (e *LibraryEngine) PlayEntry(entry models.CatalogEntry, repeat models.RepeatMode) *queue.Queue {
	return e.builder.Build([]models.PlayableItem{entry.Playable()}, 0, repeat)
}

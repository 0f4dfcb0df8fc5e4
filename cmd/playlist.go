package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ytplay/internal/formatter"
	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/shared"
	"github.com/desertthunder/ytplay/internal/tasks"
	"github.com/urfave/cli/v3"
)

// PlaylistCreate creates an empty playlist.
func (r *Runner) PlaylistCreate(ctx context.Context, cmd *cli.Command) error {
	engine, closeDB, err := r.openEngine()
	if err != nil {
		return err
	}
	defer closeDB()

	playlist, err := engine.CreatePlaylist(cmd.StringArg("name"))
	if err != nil {
		return err
	}
	return r.writePlain("%s Created %s (%s)\n", formatter.OK("✓"), playlist.Name(), playlist.ID())
}

// PlaylistRename renames a playlist.
func (r *Runner) PlaylistRename(ctx context.Context, cmd *cli.Command) error {
	engine, closeDB, err := r.openEngine()
	if err != nil {
		return err
	}
	defer closeDB()

	playlist, err := engine.RenamePlaylist(cmd.String("id"), cmd.String("name"))
	if err != nil {
		return err
	}
	return r.writePlain("%s Renamed to %s\n", formatter.OK("✓"), playlist.Name())
}

// PlaylistDelete deletes a playlist. Its tracks stay in the library.
func (r *Runner) PlaylistDelete(ctx context.Context, cmd *cli.Command) error {
	engine, closeDB, err := r.openEngine()
	if err != nil {
		return err
	}
	defer closeDB()

	if err := engine.DeletePlaylist(cmd.String("id")); err != nil {
		return err
	}
	return r.writePlain("%s Deleted %s\n", formatter.OK("✓"), cmd.String("id"))
}

// PlaylistList lists playlists with their track counts.
func (r *Runner) PlaylistList(ctx context.Context, cmd *cli.Command) error {
	engine, closeDB, err := r.openEngine()
	if err != nil {
		return err
	}
	defer closeDB()

	playlists, err := engine.Playlists()
	if err != nil {
		return err
	}

	counts := make(map[string]int, len(playlists))
	for _, p := range playlists {
		_, tracks, err := engine.PlaylistTracks(ctx, p.ID())
		if err != nil {
			return err
		}
		counts[p.ID()] = len(tracks)
	}
	return formatter.WritePlaylists(r.output, playlists, counts)
}

// PlaylistShow renders a playlist as text, CSV or Markdown, to stdout or to --output.
func (r *Runner) PlaylistShow(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	engine, closeDB, err := r.openEngine()
	if err != nil {
		return err
	}
	defer closeDB()

	playlist, tracks, err := engine.PlaylistTracks(ctx, cmd.String("id"))
	if err != nil {
		return err
	}
	export := &formatter.PlaylistExport{Playlist: playlist, Tracks: tracks}

	if path := cmd.String("output"); path != "" {
		written, err := formatter.WriteExport(export, format, path)
		if err != nil {
			return err
		}
		return r.writePlain("%s Exported to %s\n", formatter.OK("✓"), written)
	}

	data, err := formatter.Export(export, format)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// PlaylistAddLocal imports local audio files into a playlist.
func (r *Runner) PlaylistAddLocal(ctx context.Context, cmd *cli.Command) error {
	paths := cmd.Args().Slice()
	if len(paths) == 0 {
		return fmt.Errorf("%w: at least one file", shared.ErrMissingArgument)
	}

	engine, closeDB, err := r.openEngine()
	if err != nil {
		return err
	}
	defer closeDB()

	progress, wait := r.progress()
	result, err := engine.ImportLocal(ctx, progress, cmd.String("id"), paths, tasks.ImportOpts{Workers: cmd.Int("workers")})
	wait()
	if err != nil {
		return err
	}

	r.writePlainln("Imported %d of %d files into %s", result.Imported, len(paths), result.Playlist.Name())
	if result.Failed > 0 {
		return r.writePlain("%s\n", formatter.Warn(fmt.Sprintf("%d files failed", result.Failed)))
	}
	return nil
}

// PlaylistAddRemote adds a remote track to a playlist by id.
//
// Without --title the catalog is searched for the id to fill in metadata.
func (r *Runner) PlaylistAddRemote(ctx context.Context, cmd *cli.Command) error {
	id, err := parseRemoteID(cmd.String("remote-id"))
	if err != nil {
		return err
	}

	entry := models.CatalogEntry{
		Title:         cmd.String("title"),
		Artist:        cmd.String("artist"),
		RemoteTrackID: id,
		CanonicalURL:  id.CanonicalURL(),
	}
	if entry.Title == "" {
		entry = r.lookupEntry(ctx, entry)
	}

	engine, closeDB, err := r.openEngine()
	if err != nil {
		return err
	}
	defer closeDB()

	result, err := engine.AddRemote(ctx, cmd.String("id"), entry)
	if err != nil {
		return err
	}
	if !result.Added {
		return r.writePlain("%s %s is already at #%d\n", formatter.Warn("!"), result.Track.Title(), result.Position+1)
	}
	return r.writePlain("%s Added %s at #%d\n", formatter.OK("✓"), result.Track.Title(), result.Position+1)
}

// lookupEntry fills an entry's metadata from the first search hit with the same id.
func (r *Runner) lookupEntry(ctx context.Context, entry models.CatalogEntry) models.CatalogEntry {
	entries, err := r.catalog.Search(ctx, entry.RemoteTrackID.String())
	if err != nil {
		r.logger.Debug("metadata lookup failed", "id", entry.RemoteTrackID, "error", err)
		return entry
	}
	for _, e := range entries {
		if e.RemoteTrackID == entry.RemoteTrackID {
			return e
		}
	}
	return entry
}

// PlaylistRemove removes a track from a playlist.
func (r *Runner) PlaylistRemove(ctx context.Context, cmd *cli.Command) error {
	engine, closeDB, err := r.openEngine()
	if err != nil {
		return err
	}
	defer closeDB()

	if err := engine.RemoveTrack(ctx, cmd.String("id"), cmd.String("track")); err != nil {
		return err
	}
	return r.writePlain("%s Removed %s\n", formatter.OK("✓"), cmd.String("track"))
}

// PlaylistMove moves a track to a zero-based position within a playlist.
func (r *Runner) PlaylistMove(ctx context.Context, cmd *cli.Command) error {
	engine, closeDB, err := r.openEngine()
	if err != nil {
		return err
	}
	defer closeDB()

	moved, err := engine.MoveTrack(ctx, cmd.String("id"), cmd.String("track"), cmd.Int("position"))
	if err != nil {
		return err
	}
	if !moved {
		return fmt.Errorf("%w: %s", shared.ErrTrackNotFound, cmd.String("track"))
	}
	return r.writePlain("%s Moved %s\n", formatter.OK("✓"), cmd.String("track"))
}

// PlaylistCopy copies, or with --move moves, a track to another playlist.
func (r *Runner) PlaylistCopy(ctx context.Context, cmd *cli.Command) error {
	engine, closeDB, err := r.openEngine()
	if err != nil {
		return err
	}
	defer closeDB()

	move := cmd.Bool("move")
	if err := engine.CopyToPlaylist(ctx, cmd.String("from"), cmd.String("to"), cmd.String("track"), move); err != nil {
		return err
	}
	verb := "Copied"
	if move {
		verb = "Moved"
	}
	return r.writePlain("%s %s %s to %s\n", formatter.OK("✓"), verb, cmd.String("track"), cmd.String("to"))
}

// TrackDelete removes a track from every playlist and from the library.
func (r *Runner) TrackDelete(ctx context.Context, cmd *cli.Command) error {
	engine, closeDB, err := r.openEngine()
	if err != nil {
		return err
	}
	defer closeDB()

	if err := engine.DeleteTrack(ctx, cmd.String("track")); err != nil {
		return err
	}
	return r.writePlain("%s Deleted %s\n", formatter.OK("✓"), cmd.String("track"))
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/ytplay/internal/formatter"
	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/queue"
	"github.com/desertthunder/ytplay/internal/server"
	"github.com/desertthunder/ytplay/internal/shared"
	"github.com/urfave/cli/v3"
)

// buildQueue creates the playback queue for --playlist, or for a single --remote-id.
func (r *Runner) buildQueue(ctx context.Context, cmd *cli.Command) (*queue.Queue, error) {
	repeat, err := models.ParseRepeatMode(cmd.String("repeat"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}

	if remote := cmd.String("remote-id"); remote != "" {
		id, err := parseRemoteID(remote)
		if err != nil {
			return nil, err
		}
		entry := r.lookupEntry(ctx, models.CatalogEntry{Title: id.String(), RemoteTrackID: id})
		return r.builder.Build([]models.PlayableItem{entry.Playable()}, 0, repeat), nil
	}

	if cmd.String("playlist") == "" {
		return nil, fmt.Errorf("%w: --playlist or --remote-id", shared.ErrMissingArgument)
	}

	engine, closeDB, err := r.openEngine()
	if err != nil {
		return nil, err
	}
	defer closeDB()

	// an M3U written to stdout must start with its header
	if cmd.Bool("m3u") && cmd.String("output") == "" {
		return engine.PlayPlaylist(ctx, nil, cmd.String("playlist"), cmd.String("track"), repeat)
	}

	progress, wait := r.progress()
	q, err := engine.PlayPlaylist(ctx, progress, cmd.String("playlist"), cmd.String("track"), repeat)
	wait()
	return q, err
}

// Play builds a queue and prints it, or writes it as M3U with --m3u.
//
// M3U entries point at the stream server started by `ytplay serve`.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	q, err := r.buildQueue(ctx, cmd)
	if err != nil {
		return err
	}

	if !cmd.Bool("m3u") {
		return formatter.WriteQueue(r.output, q)
	}

	if path := cmd.String("output"); path != "" {
		if err := os.WriteFile(path, formatter.ExportToM3U(q.Entries()), 0644); err != nil {
			return fmt.Errorf("failed to write M3U file: %w", err)
		}
		return r.writePlain("%s Wrote %s\n", formatter.OK("✓"), path)
	}
	return formatter.WriteM3U(r.output, q.Entries())
}

// Serve starts the stream server, optionally with an active queue, until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	srv := server.New(server.ServerOpts{
		Addr:   r.config.Server.Addr(),
		Source: r.source,
		Logger: r.logger,
	})

	if cmd.String("playlist") != "" || cmd.String("remote-id") != "" {
		q, err := r.buildQueue(ctx, cmd)
		if err != nil {
			return err
		}
		srv.SetQueue(q)
		formatter.WriteQueue(r.output, q)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	base := "http://" + srv.Addr()
	r.writePlainln("%s", formatter.Title("Stream server on "+base))
	r.writePlain("  %s\n", formatter.Help("GET "+base+"/stream?locator=yt:<id>"))
	if srv.Queue() != nil {
		r.writePlain("  %s\n", formatter.Help("GET "+base+"/queue.m3u"))
	}

	if cmd.Bool("open") && srv.Queue() != nil {
		if err := shared.OpenBrowser(base + "/queue.m3u"); err != nil {
			r.logger.Warn("failed to open browser", "error", err)
		}
	}

	return srv.ListenAndServe(ctx)
}

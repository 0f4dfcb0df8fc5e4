package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/desertthunder/ytplay/internal/datasource"
	"github.com/desertthunder/ytplay/internal/formatter"
	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/shared"
	"github.com/urfave/cli/v3"
)

// Search queries the remote catalog.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	limit := cmd.Int("limit")

	r.logger.Info("searching catalog", "query", query, "catalog", r.catalog.Name())

	entries, err := r.catalog.Search(ctx, query)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	if cmd.Bool("json") {
		return r.writeJSON(entries, cmd.Bool("pretty"))
	}
	return formatter.WriteSearchResults(r.output, query, entries)
}

type resolveOutput struct {
	ID           models.RemoteTrackID `json:"id"`
	Locator      string               `json:"locator"`
	CanonicalURL string               `json:"canonical_url"`
	models.StreamDescriptor
}

// Resolve resolves a remote track to its current stream URL through the cache.
func (r *Runner) Resolve(ctx context.Context, cmd *cli.Command) error {
	id, err := parseRemoteID(cmd.StringArg("id"))
	if err != nil {
		return err
	}

	desc, err := r.cache.GetOrResolve(ctx, id, r.resolver.Resolve)
	if err != nil {
		return err
	}

	out := resolveOutput{ID: id, Locator: id.Locator(), CanonicalURL: id.CanonicalURL(), StreamDescriptor: desc}
	if cmd.Bool("json") {
		return r.writeJSON(out, cmd.Bool("pretty"))
	}

	r.writePlain("%s %s\n", formatter.OK("✓"), id)
	r.writePlain("  Page:   %s\n", out.CanonicalURL)
	if desc.MimeType != "" {
		r.writePlain("  Type:   %s\n", desc.MimeType)
	}
	r.writePlain("  Stream: %s\n", desc.StreamURL)

	if cmd.Bool("browser") {
		if err := shared.OpenBrowser(desc.StreamURL); err != nil {
			return err
		}
	}
	return nil
}

// Open reads a byte range of any locator through the data source.
//
// Remote locators are resolved first; local paths and URLs are read directly.
func (r *Runner) Open(ctx context.Context, cmd *cli.Command) error {
	locator := strings.TrimSpace(cmd.StringArg("locator"))
	if locator == "" {
		return fmt.Errorf("%w: locator", shared.ErrMissingArgument)
	}
	if !models.IsRemoteLocator(locator) && !strings.Contains(locator, "/") && !strings.Contains(locator, ".") {
		locator = models.RemoteTrackID(locator).Locator()
	}

	spec := datasource.DataSpec{Locator: locator, Offset: cmd.Int64("offset"), Length: cmd.Int64("length")}
	stream, err := r.source.Open(ctx, spec)
	if err != nil {
		return err
	}
	defer stream.Body.Close()

	var dst io.Writer = r.output
	if path := cmd.String("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		dst = f
	}

	n, err := io.Copy(dst, stream.Body)
	if err != nil {
		return fmt.Errorf("failed to copy stream: %w", err)
	}

	r.logger.Info("read stream", "locator", locator, "offset", stream.Offset, "bytes", n, "total", stream.Total, "type", stream.ContentType)
	return nil
}

// parseRemoteID accepts a bare id, a synthetic locator or a watch URL.
func parseRemoteID(arg string) (models.RemoteTrackID, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", fmt.Errorf("%w: remote track id", shared.ErrMissingArgument)
	}

	if id, ok := models.ParseRemoteLocator(arg); ok {
		return id, nil
	}

	if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
		u, err := url.Parse(arg)
		if err != nil {
			return "", fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
		}
		if v := u.Query().Get("v"); v != "" {
			return models.RemoteTrackID(v), nil
		}
		if u.Host == "youtu.be" {
			if id := strings.Trim(u.Path, "/"); id != "" {
				return models.RemoteTrackID(id), nil
			}
		}
		return "", fmt.Errorf("%w: no track id in %s", shared.ErrInvalidArgument, arg)
	}

	if strings.ContainsAny(arg, " /:") {
		return "", fmt.Errorf("%w: %q is not a track id", shared.ErrInvalidArgument, arg)
	}
	return models.RemoteTrackID(arg), nil
}

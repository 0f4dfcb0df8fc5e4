// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func jsonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
		&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print output", Value: true},
	}
}

func playlistFlag(name, usage string) *cli.StringFlag {
	return &cli.StringFlag{Name: name, Usage: usage, Required: true}
}

// setupCommand handles setup operations for the database and catalog headers.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Create config.toml if missing, initialize the database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:    "catalog",
				Aliases: []string{"headers"},
				Usage:   "Save browser headers forwarded to the catalog proxy",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command from browser DevTools (Copy as cURL)",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to .sh file containing cURL command",
					},
					&cli.StringFlag{
						Name:  "output",
						Usage: "Output path (default: ~/.ytplay/headers.sh)",
					},
				},
				Action: r.SetupCatalog,
			},
		},
	}
}

// searchCommand searches the remote catalog
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search the remote catalog for tracks",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query"},
		},
		Flags: append(jsonFlags(),
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of results (0 for all)",
				Value: 10,
			},
		),
		Action: r.Search,
	}
}

// resolveCommand resolves a remote track to its stream URL
func resolveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "resolve",
		Usage: "Resolve a remote track id, yt: locator or watch URL to its stream URL",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Flags: append(jsonFlags(),
			&cli.BoolFlag{
				Name:  "browser",
				Usage: "Open the stream in the default browser",
			},
		),
		Action: r.Resolve,
	}
}

// openCommand reads bytes of a locator through the data source
func openCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "open",
		Usage: "Read a byte range of a local file, URL or remote track",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "locator"},
		},
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "offset", Usage: "First byte to read"},
			&cli.Int64Flag{Name: "length", Usage: "Bytes to read (0 reads to the end)"},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write bytes to a file instead of stdout",
			},
		},
		Action: r.Open,
	}
}

// playlistCommand handles library playlist operations
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlist",
		Aliases: []string{"pl"},
		Usage:   "Manage playlists of local and remote tracks",
		Commands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "Create an empty playlist",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Action:    r.PlaylistCreate,
			},
			{
				Name:  "rename",
				Usage: "Rename a playlist",
				Flags: []cli.Flag{
					playlistFlag("id", "Playlist ID or name"),
					playlistFlag("name", "New name"),
				},
				Action: r.PlaylistRename,
			},
			{
				Name:   "delete",
				Usage:  "Delete a playlist (tracks stay in the library)",
				Flags:  []cli.Flag{playlistFlag("id", "Playlist ID or name")},
				Action: r.PlaylistDelete,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List playlists",
				Action:  r.PlaylistList,
			},
			{
				Name:  "show",
				Usage: "Show or export the tracks of a playlist",
				Flags: []cli.Flag{
					playlistFlag("id", "Playlist ID or name"),
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format (text, csv, md)",
						Value:   "text",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write to a file instead of stdout",
					},
				},
				Action: r.PlaylistShow,
			},
			{
				Name:      "add-local",
				Usage:     "Add local audio files",
				ArgsUsage: "<files...>",
				Flags: []cli.Flag{
					playlistFlag("id", "Playlist ID or name"),
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent tag readers",
						Value: 4,
					},
				},
				Action: r.PlaylistAddLocal,
			},
			{
				Name:  "add-remote",
				Usage: "Add a remote track by id",
				Flags: []cli.Flag{
					playlistFlag("id", "Playlist ID or name"),
					playlistFlag("remote-id", "Remote track id, yt: locator or watch URL"),
					&cli.StringFlag{Name: "title", Usage: "Track title (looked up when empty)"},
					&cli.StringFlag{Name: "artist", Usage: "Track artist"},
				},
				Action: r.PlaylistAddRemote,
			},
			{
				Name:  "remove",
				Usage: "Remove a track from a playlist",
				Flags: []cli.Flag{
					playlistFlag("id", "Playlist ID or name"),
					playlistFlag("track", "Track ID"),
				},
				Action: r.PlaylistRemove,
			},
			{
				Name:  "move",
				Usage: "Move a track to a zero-based position",
				Flags: []cli.Flag{
					playlistFlag("id", "Playlist ID or name"),
					playlistFlag("track", "Track ID"),
					&cli.IntFlag{Name: "position", Usage: "New position, clamped to the playlist", Required: true},
				},
				Action: r.PlaylistMove,
			},
			{
				Name:  "copy",
				Usage: "Copy a track to another playlist",
				Flags: []cli.Flag{
					playlistFlag("from", "Source playlist ID or name"),
					playlistFlag("to", "Target playlist ID or name"),
					playlistFlag("track", "Track ID"),
					&cli.BoolFlag{Name: "move", Usage: "Remove the track from the source playlist"},
				},
				Action: r.PlaylistCopy,
			},
			{
				Name:   "delete-track",
				Usage:  "Delete a track from every playlist and the library",
				Flags:  []cli.Flag{playlistFlag("track", "Track ID")},
				Action: r.TrackDelete,
			},
		},
	}
}

func queueFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "playlist", Aliases: []string{"p"}, Usage: "Playlist ID or name"},
		&cli.StringFlag{Name: "track", Usage: "Track ID to start from"},
		&cli.StringFlag{Name: "remote-id", Usage: "Queue a single remote track instead of a playlist"},
		&cli.StringFlag{Name: "repeat", Usage: "Repeat mode (normal or all)", Value: "normal"},
	}
}

// playCommand builds a playback queue
func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "play",
		Usage: "Build a playback queue without resolving remote tracks",
		Flags: append(queueFlags(),
			&cli.BoolFlag{Name: "m3u", Usage: "Write the queue as an M3U playlist"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "M3U output file"},
		),
		Action: r.Play,
	}
}

// serveCommand runs the local stream server
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve byte-range streams and the active queue over HTTP",
		Flags: append(queueFlags(),
			&cli.BoolFlag{Name: "open", Usage: "Open the queue playlist in the default browser"},
		),
		Action: r.Serve,
	}
}

package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytplay/internal/cache"
	"github.com/desertthunder/ytplay/internal/datasource"
	"github.com/desertthunder/ytplay/internal/queue"
	"github.com/desertthunder/ytplay/internal/repositories"
	"github.com/desertthunder/ytplay/internal/resolver"
	"github.com/desertthunder/ytplay/internal/services"
	"github.com/desertthunder/ytplay/internal/shared"
	"github.com/desertthunder/ytplay/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The resolution cache lives for the lifetime of the Runner, so every command of one
// process shares it.
type Runner struct {
	config     *shared.Config
	configPath string
	catalog    services.Catalog
	tags       tasks.TagReader
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	cache      *cache.Cache
	resolver   *resolver.Resolver
	source     *datasource.Source
	builder    *queue.Builder
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Catalog    services.Catalog // defaults to the configured YouTube proxy
	Tags       tasks.TagReader
	HTTPClient *http.Client // used for upstream stream reads
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Catalog == nil {
		opts.Catalog = services.NewYouTubeCatalog(services.YouTubeOpts{
			BaseURL:   opts.Config.Catalog.BaseURL,
			RateLimit: opts.Config.Catalog.RateLimit,
			Burst:     opts.Config.Catalog.Burst,
			Timeout:   opts.Config.Catalog.Timeout.Duration,
			Header:    catalogHeader(opts.Config.Catalog, opts.Logger),
		})
	}

	c := cache.NewFromConfig(opts.Config.Cache, opts.Logger)
	res := resolver.New(opts.Catalog, opts.Logger)
	source := datasource.NewSource(c, res.Resolve, datasource.NewDefaultTransport(opts.HTTPClient), opts.Logger)

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		catalog:    opts.Catalog,
		tags:       opts.Tags,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		cache:      c,
		resolver:   res,
		source:     source,
		builder:    queue.NewBuilder("http://" + opts.Config.Server.Addr()),
	}
}

// catalogHeader loads the headers forwarded to the catalog proxy from the configured cURL file.
func catalogHeader(cfg shared.CatalogConfig, logger *log.Logger) http.Header {
	if cfg.HeadersPath == "" {
		return nil
	}
	curl, err := shared.ParseCurlFile(cfg.HeadersPath)
	if err != nil {
		logger.Warn("ignoring catalog headers", "path", cfg.HeadersPath, "error", err)
		return nil
	}
	return curl.Header()
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, searchCommand, resolveCommand, openCommand, playlistCommand, playCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// openEngine opens the configured database, applies pending migrations and wires a library engine.
//
// The returned close function releases the database.
func (r *Runner) openEngine() (*tasks.LibraryEngine, func() error, error) {
	db, err := r.openDatabase()
	if err != nil {
		return nil, nil, err
	}

	engine := tasks.NewLibraryEngine(tasks.LibraryEngineOpts{
		Catalog:    r.catalog,
		Playlists:  repositories.NewPlaylistRepository(db),
		Tracks:     repositories.NewTrackRepository(db),
		Members:    repositories.NewPlaylistTrackRepository(db),
		Tags:       r.tags,
		Builder:    r.builder,
		ArtworkDir: r.config.Cache.ArtworkDir,
		Logger:     r.logger,
	})
	return engine, db.Close, nil
}

func (r *Runner) openDatabase() (*sql.DB, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

// progress returns a channel whose updates are printed, and a function that closes
// it and waits for the printer to drain.
func (r *Runner) progress() (chan tasks.ProgressUpdate, func()) {
	updates := make(chan tasks.ProgressUpdate, 32)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for u := range updates {
			r.writePlain("%s\n", u.Message)
		}
	}()
	return updates, func() {
		close(updates)
		<-done
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

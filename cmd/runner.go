package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plmigrate/internal/models"
	"github.com/desertthunder/plmigrate/internal/repositories"
	"github.com/desertthunder/plmigrate/internal/services"
	"github.com/desertthunder/plmigrate/internal/shared"
	"github.com/desertthunder/plmigrate/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	configPath  string
	config      *shared.Config
	httpClient  *http.Client
	logger      *log.Logger
	output      io.Writer
	openBrowser func(string) error
}

// RunnerOpts contains configuration options for creating a Runner.
//
// A nil Config is loaded from ConfigPath (or the --config flag) before any command runs.
type RunnerOpts struct {
	Config      *shared.Config
	ConfigPath  string
	HTTPClient  *http.Client
	Logger      *log.Logger
	Output      io.Writer
	OpenBrowser func(string) error
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = shared.OpenBrowser
	}

	return &Runner{
		configPath:  opts.ConfigPath,
		config:      opts.Config,
		httpClient:  opts.HTTPClient,
		logger:      opts.Logger,
		output:      opts.Output,
		openBrowser: opts.OpenBrowser,
	}
}

func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "plmigrate",
		Usage:   "Migrate Spotify playlists to YouTube",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Log debug output",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Only log errors",
			},
		},
		Before:   r.before,
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, spotifyCommand, youtubeCommand, migrateCommand, resetCommand, historyCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// before loads the configuration, bounds the default HTTP client, and applies the log level flags.
func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.IsSet("config") || r.configPath == "" {
		r.configPath = cmd.String("config")
	}

	if r.config == nil {
		config, err := r.loadConfig()
		if err != nil {
			return ctx, err
		}
		r.config = config
	}

	// Every outbound request gets the per-call timeout unless the caller supplied a client.
	if r.httpClient == http.DefaultClient {
		r.httpClient = &http.Client{Timeout: r.config.Migration.Timeout()}
	}

	level := shared.ParseLogLevel(r.config.Log.Level)
	switch {
	case cmd.Bool("verbose"):
		level = log.DebugLevel
	case cmd.Bool("quiet"):
		level = log.ErrorLevel
	}
	shared.SetLogLevel(r.logger, level)
	return ctx, nil
}

// loadConfig reads the config file, falling back to defaults when it does not exist.
func (r *Runner) loadConfig() (*shared.Config, error) {
	if _, err := os.Stat(r.configPath); err != nil {
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
		return shared.DefaultConfig(), nil
	}
	return shared.LoadConfig(r.configPath)
}

// saveConfig writes the current configuration back to disk.
func (r *Runner) saveConfig() error {
	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return err
	}
	r.logger.Debug("config saved", "path", r.configPath)
	return nil
}

// SetLogger replaces the logger used by all commands.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) serviceConfig(service models.Service) *shared.ServiceConfig {
	if service == models.ServiceYouTube {
		return &r.config.Credentials.YouTube
	}
	return &r.config.Credentials.Spotify
}

func (r *Runner) spotifyService() *services.SpotifyService {
	return services.NewSpotifyService(r.config.Credentials.Spotify.BaseURL, r.httpClient)
}

func (r *Runner) youtubeService() *services.YouTubeService {
	yt := r.config.Credentials.YouTube
	return services.NewYouTubeService(services.YouTubeOptions{
		Endpoint:    yt.BaseURL,
		APIKey:      yt.APIKey,
		Description: r.config.Migration.Description,
		HTTPClient:  r.httpClient,
	})
}

// credential builds a credential from the stored token of service. An expired token with a
// refresh token is refreshed and saved first; an expired token without one is returned as is
// and rejected by the engine.
func (r *Runner) credential(ctx context.Context, service models.Service) (*models.Credential, error) {
	sc := r.serviceConfig(service)
	tok := sc.Token()
	if tok == nil {
		return nil, fmt.Errorf("%w: no %s token, run 'plmigrate auth %s'", shared.ErrMissingCredentials, service, service)
	}

	if !tok.Valid() && tok.RefreshToken != "" && sc.ClientID != "" {
		r.logger.Info("refreshing token", "service", service)
		ctx = context.WithValue(ctx, oauth2.HTTPClient, r.httpClient)
		fresh, err := services.OAuthConfig(service, *sc).TokenSource(ctx, tok).Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %s token refresh failed: %v", shared.ErrCredentialInvalid, service, err)
		}
		if err := sc.Update(fresh); err != nil {
			return nil, err
		}
		if err := r.saveConfig(); err != nil {
			r.logger.Warn("failed to save refreshed token", "error", err)
		}
		tok = fresh
	}

	return models.CredentialFromToken(service, tok), nil
}

// openDatabase opens the configured database and applies pending migrations.
func (r *Runner) openDatabase() (*sql.DB, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, err
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

// newEngine wires the Spotify reader and YouTube destination into an engine. Runs are
// recorded to db when it is not nil.
func (r *Runner) newEngine(db *sql.DB) *tasks.Engine {
	m := r.config.Migration
	fetcher := tasks.NewFetcher(r.spotifyService(), tasks.FetcherOpts{
		PoolSize:  m.PoolSize,
		RateLimit: m.RateLimit,
		Timeout:   m.Timeout(),
	}, r.logger)

	engine := tasks.NewEngine(fetcher, r.youtubeService(), tasks.EngineOpts{
		PlaylistWorkers: m.PlaylistWorkers,
		SkipEmpty:       m.SkipEmpty,
		RateLimit:       m.RateLimit,
		Timeout:         m.Timeout(),
	}, r.logger)

	if db != nil {
		engine.WithRecorder(repositories.NewRunRepository(db))
	}
	return engine
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

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

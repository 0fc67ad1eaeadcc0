package main

import (
	"context"
	"database/sql"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/plmigrate/internal/models"
	"github.com/desertthunder/plmigrate/internal/shared"
	"github.com/desertthunder/plmigrate/internal/tasks"
	"github.com/desertthunder/plmigrate/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for playlist selection and migration.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, closer, err := shared.NewFileLogger(r.config.Log.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer closer.Close()
	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)

	db, err := r.openDatabase()
	if err != nil {
		r.logger.Warn("run history disabled", "error", err)
		db = nil
	} else {
		defer db.Close()
	}

	model := ui.NewModel(ctx, &tuiBackend{runner: r, db: db})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	if report := model.Report(); report != nil {
		r.writePlain("%s\n", ui.RenderReport(report))
	}
	return nil
}

// tuiBackend adapts the runner to [ui.Backend]. Credentials are rebuilt for every migration
// since the engine invalidates them when a run finishes.
type tuiBackend struct {
	runner *Runner
	db     *sql.DB
}

func (b *tuiBackend) Playlists(ctx context.Context) ([]models.Playlist, error) {
	cred, err := b.runner.credential(ctx, models.ServiceSpotify)
	if err != nil {
		return nil, err
	}
	return b.runner.spotifyService().GetPlaylists(ctx, cred)
}

func (b *tuiBackend) Migrate(ctx context.Context, refs []models.PlaylistRef, progress chan<- tasks.ProgressUpdate) (*models.Report, error) {
	source, err := b.runner.credential(ctx, models.ServiceSpotify)
	if err != nil {
		return nil, err
	}
	dest, err := b.runner.credential(ctx, models.ServiceYouTube)
	if err != nil {
		return nil, err
	}
	return b.runner.newEngine(b.db).Run(ctx, tasks.Request{Source: source, Destination: dest, Playlists: refs}, progress)
}

package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/plmigrate/internal/formatter"
	"github.com/desertthunder/plmigrate/internal/models"
	"github.com/desertthunder/plmigrate/internal/shared"
	"github.com/desertthunder/plmigrate/internal/tasks"
	"github.com/desertthunder/plmigrate/internal/ui"
	"github.com/urfave/cli/v3"
)

// Migrate copies the selected Spotify playlists to YouTube and prints the report.
//
// The report is printed (and exported) even when the run aborts, and the abort error is returned.
func (r *Runner) Migrate(ctx context.Context, cmd *cli.Command) error {
	m := &r.config.Migration
	if cmd.IsSet("pool-size") {
		m.PoolSize = cmd.Int("pool-size")
	}
	if cmd.IsSet("workers") {
		m.PlaylistWorkers = cmd.Int("workers")
	}
	if cmd.Bool("skip-empty") {
		m.SkipEmpty = true
	}

	source, err := r.credential(ctx, models.ServiceSpotify)
	if err != nil {
		return err
	}
	dest, err := r.credential(ctx, models.ServiceYouTube)
	if err != nil {
		return err
	}

	refs, err := r.selectRefs(ctx, cmd, source)
	if err != nil {
		return err
	}

	var db *sql.DB
	if !cmd.Bool("no-history") {
		if db, err = r.openDatabase(); err != nil {
			r.logger.Warn("run history disabled", "error", err)
			db = nil
		} else {
			defer db.Close()
		}
	}

	asJSON := cmd.Bool("json")
	report, runErr := r.runMigration(ctx, r.newEngine(db), tasks.Request{Source: source, Destination: dest, Playlists: refs}, !asJSON)

	if path := cmd.String("export"); path != "" && report != nil {
		if err := formatter.WriteReport(report, path); err != nil {
			r.logger.Error("failed to export report", "error", err)
		} else {
			r.logger.Info("report exported", "path", path)
		}
	}

	if report != nil {
		if asJSON {
			if err := r.writeJSON(report, true); err != nil {
				return err
			}
		} else {
			r.writePlain("\n%s\n", ui.RenderReport(report))
			if len(report.Playlists) > 0 {
				r.writePlain("%s\n", formatter.OutcomesTable(report))
			}
		}
	}
	return runErr
}

// runMigration runs engine and relays progress to the output (or the debug log when echo is false).
func (r *Runner) runMigration(ctx context.Context, engine *tasks.Engine, req tasks.Request, echo bool) (*models.Report, error) {
	progress := make(chan tasks.ProgressUpdate, 64)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for update := range progress {
			if !echo {
				r.logger.Debug("progress", "phase", update.Phase, "step", update.Step, "total", update.Total)
				continue
			}
			switch update.Phase {
			case tasks.FetchSource:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.SearchTracks:
				r.writePlain("🔍 %s\n", update.Message)
			case tasks.CreatePlaylist:
				r.writePlain("📝 %s\n", update.Message)
			case tasks.InsertTracks:
				r.writePlain("   %s\n", update.Message)
			}
		}
	}()

	report, err := engine.Run(ctx, req, progress)
	close(progress)
	<-done
	return report, err
}

// selectRefs returns the refs named by --id, or every playlist of the account with --all.
func (r *Runner) selectRefs(ctx context.Context, cmd *cli.Command, source *models.Credential) ([]models.PlaylistRef, error) {
	ids := cmd.StringSlice("id")
	all := cmd.Bool("all")

	switch {
	case all && len(ids) > 0:
		return nil, fmt.Errorf("%w: use either --id or --all", shared.ErrInvalidArgument)
	case all:
		playlists, err := r.spotifyService().GetPlaylists(ctx, source)
		if err != nil {
			return nil, fmt.Errorf("failed to list Spotify playlists: %w", err)
		}
		refs := make([]models.PlaylistRef, len(playlists))
		for i, p := range playlists {
			refs[i] = models.PlaylistRef(p.ID)
		}
		return refs, nil
	case len(ids) == 0:
		return nil, fmt.Errorf("%w: pass --id at least once or --all", shared.ErrMissingArgument)
	default:
		refs := make([]models.PlaylistRef, len(ids))
		for i, id := range ids {
			refs[i] = models.PlaylistRef(id)
		}
		return refs, nil
	}
}

// Reset deletes every playlist of the YouTube account. The engine refuses without --confirm.
func (r *Runner) Reset(ctx context.Context, cmd *cli.Command) error {
	confirmed := cmd.Bool("confirm")

	var cred *models.Credential
	if confirmed {
		var err error
		if cred, err = r.credential(ctx, models.ServiceYouTube); err != nil {
			return err
		}
	}

	n, err := r.newEngine(nil).Reset(ctx, cred, confirmed)
	if n > 0 {
		r.writePlain("✓ Deleted %d YouTube playlists\n", n)
	}
	if err != nil {
		return err
	}
	if n == 0 {
		r.writePlain("No YouTube playlists to delete\n")
	}
	return nil
}

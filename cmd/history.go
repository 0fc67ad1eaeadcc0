package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/plmigrate/internal/formatter"
	"github.com/desertthunder/plmigrate/internal/repositories"
	"github.com/desertthunder/plmigrate/internal/shared"
	"github.com/desertthunder/plmigrate/internal/ui"
	"github.com/urfave/cli/v3"
)

// History lists recorded runs, shows one run, or deletes one.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewRunRepository(db)

	if id := cmd.String("delete"); id != "" {
		if err := repo.Delete(id); err != nil {
			return notFound(id, err)
		}
		return r.writePlain("✓ Deleted run %s\n", id)
	}

	if id := cmd.String("id"); id != "" {
		report, err := repo.Get(id)
		if err != nil {
			return notFound(id, err)
		}
		if cmd.Bool("json") {
			return r.writeJSON(report, true)
		}
		r.writePlain("%s\n", ui.RenderReport(report))
		if len(report.Playlists) > 0 {
			r.writePlain("%s\n", formatter.OutcomesTable(report))
		}
		return nil
	}

	runs, err := repo.List(map[string]any{"status": cmd.String("status"), "limit": cmd.Int("limit")})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(runs, true)
	}
	if len(runs) == 0 {
		return r.writePlain("No recorded runs\n")
	}
	return r.writePlain("%s\n", formatter.RunsTable(runs))
}

func notFound(id string, err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("%w: no run with id %s", shared.ErrInvalidArgument, id)
	}
	return err
}

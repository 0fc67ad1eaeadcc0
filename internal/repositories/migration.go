package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/plmigrate/internal/models"
)

// RunRepository implements models.Repository[*models.Report] for migration run history.
type RunRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.Report] = (*RunRepository)(nil)

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

const runColumns = `
	id, status, error,
	playlists_requested, playlists_fetched, playlists_dropped,
	playlists_migrated, playlists_failed, playlists_skipped,
	tracks_resolved, tracks_unresolved, tracks_inserted, tracks_failed,
	title_collisions, started_at, finished_at
`

// Create inserts the report and its playlist outcomes in one transaction.
func (r *RunRepository) Create(report *models.Report) error {
	if err := report.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	return execTx(r.db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO migration_runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			report.RunID,
			string(report.Status),
			nullString(report.Error),
			report.PlaylistsRequested,
			report.PlaylistsFetched,
			report.PlaylistsDropped,
			report.PlaylistsMigrated,
			report.PlaylistsFailed,
			report.PlaylistsSkipped,
			report.TracksResolved,
			report.TracksUnresolved,
			report.TracksInserted,
			report.TracksFailed,
			report.TitleCollisions,
			report.StartedAt,
			nullTime(report.FinishedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}

		for i, p := range report.Playlists {
			_, err := tx.Exec(`
				INSERT INTO run_playlists (
					run_id, position, ref, title, destination_id, status,
					tracks_total, tracks_resolved, tracks_inserted, error
				)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`,
				report.RunID, i,
				nullString(string(p.Ref)),
				nullString(p.Title),
				nullString(p.DestinationID),
				string(p.Status),
				p.TracksTotal,
				p.TracksResolved,
				p.TracksInserted,
				nullString(p.Error),
			)
			if err != nil {
				return fmt.Errorf("failed to insert playlist outcome %d: %w", i, err)
			}
		}
		return nil
	})
}

// Get retrieves a report and its outcomes by run id.
func (r *RunRepository) Get(id string) (*models.Report, error) {
	report, err := r.scanRun(r.db.QueryRow(`SELECT `+runColumns+` FROM migration_runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: run %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	if report.Playlists, err = r.outcomes(id); err != nil {
		return nil, err
	}
	return report, nil
}

// Delete removes a run and its outcomes.
func (r *RunRepository) Delete(id string) error {
	return execTx(r.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM run_playlists WHERE run_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete playlist outcomes: %w", err)
		}

		result, err := tx.Exec(`DELETE FROM migration_runs WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete run: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get affected rows: %w", err)
		}
		if rows == 0 {
			return fmt.Errorf("%w: run %s", ErrNotFound, id)
		}
		return nil
	})
}

// List returns runs newest first, without their outcomes.
//
// Supported criteria: "status" (string) and "limit" (int).
func (r *RunRepository) List(criteria map[string]any) ([]*models.Report, error) {
	query := `SELECT ` + runColumns + ` FROM migration_runs WHERE 1 = 1`
	args := []any{}

	if status, ok := criteria["status"].(string); ok && status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	query += " ORDER BY started_at DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	reports := []*models.Report{}
	for rows.Next() {
		report, err := r.scanRun(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return reports, nil
}

func (r *RunRepository) outcomes(runID string) ([]models.PlaylistOutcome, error) {
	rows, err := r.db.Query(`
		SELECT ref, title, destination_id, status, tracks_total, tracks_resolved, tracks_inserted, error
		FROM run_playlists
		WHERE run_id = ?
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist outcomes: %w", err)
	}
	defer rows.Close()

	outcomes := []models.PlaylistOutcome{}
	for rows.Next() {
		var (
			ref, title, destID, errMsg sql.NullString
			status                     string
			p                          models.PlaylistOutcome
		)
		if err := rows.Scan(&ref, &title, &destID, &status, &p.TracksTotal, &p.TracksResolved, &p.TracksInserted, &errMsg); err != nil {
			return nil, fmt.Errorf("failed to scan playlist outcome: %w", err)
		}
		p.Ref = models.PlaylistRef(ref.String)
		p.Title = title.String
		p.DestinationID = destID.String
		p.Status = models.OutcomeStatus(status)
		p.Error = errMsg.String
		outcomes = append(outcomes, p)
	}
	return outcomes, rows.Err()
}

// scanRun scans a migration_runs row into a [models.Report]
func (r *RunRepository) scanRun(row scanner) (*models.Report, error) {
	var (
		report     models.Report
		status     string
		errMsg     sql.NullString
		finishedAt sql.NullTime
	)

	err := row.Scan(
		&report.RunID, &status, &errMsg,
		&report.PlaylistsRequested, &report.PlaylistsFetched, &report.PlaylistsDropped,
		&report.PlaylistsMigrated, &report.PlaylistsFailed, &report.PlaylistsSkipped,
		&report.TracksResolved, &report.TracksUnresolved, &report.TracksInserted, &report.TracksFailed,
		&report.TitleCollisions, &report.StartedAt, &finishedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	report.Status = models.RunStatus(status)
	report.Error = errMsg.String
	if finishedAt.Valid {
		report.FinishedAt = finishedAt.Time
	}
	report.Playlists = []models.PlaylistOutcome{}
	return &report, nil
}

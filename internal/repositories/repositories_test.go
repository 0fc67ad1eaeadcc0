package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/desertthunder/plmigrate/internal/models"
	"github.com/desertthunder/plmigrate/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	// every connection to :memory: is a separate database
	shared.ConfigureDatabase(db, 1, 1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func sampleReport(id string, started time.Time) *models.Report {
	r := models.NewReport(id, started)
	r.Status = models.RunCompleted
	r.PlaylistsRequested = 3
	r.PlaylistsFetched = 2
	r.PlaylistsDropped = 1
	r.PlaylistsMigrated = 2
	r.TracksResolved = 5
	r.TracksUnresolved = 1
	r.TracksInserted = 5
	r.FinishedAt = started.Add(time.Minute)
	r.Playlists = []models.PlaylistOutcome{
		{Ref: "gone", Status: models.OutcomeDropped, Error: "spotify API error: status 404"},
		{Ref: "a", Title: "Alpha", DestinationID: "yt1", Status: models.OutcomeMigrated, TracksTotal: 4, TracksResolved: 3, TracksInserted: 3},
		{Ref: "b", Title: "Beta", DestinationID: "yt2", Status: models.OutcomeMigrated, TracksTotal: 2, TracksResolved: 2, TracksInserted: 2},
	}
	return r
}

func TestRunRepository(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("Create And Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		report := sampleReport("run-1", start)

		if err := repo.Create(report); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		got, err := repo.Get("run-1")
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}

		if got.Status != models.RunCompleted || got.PlaylistsDropped != 1 || got.TracksInserted != 5 {
			t.Errorf("unexpected counts %+v", got)
		}
		if !got.StartedAt.Equal(start) || !got.FinishedAt.Equal(start.Add(time.Minute)) {
			t.Errorf("unexpected times %v %v", got.StartedAt, got.FinishedAt)
		}
		if len(got.Playlists) != 3 {
			t.Fatalf("expected 3 outcomes, got %d", len(got.Playlists))
		}
		if got.Playlists[0].Status != models.OutcomeDropped || got.Playlists[0].Title != "" {
			t.Errorf("unexpected first outcome %+v", got.Playlists[0])
		}
		if got.Playlists[1].DestinationID != "yt1" || got.Playlists[1].TracksResolved != 3 {
			t.Errorf("unexpected second outcome %+v", got.Playlists[1])
		}
	})

	t.Run("Aborted Run Without Finish Time", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		report := models.NewReport("run-2", start)
		report.Status = models.RunAborted
		report.Error = "credential invalid or expired"

		if err := repo.Create(report); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		got, err := repo.Get("run-2")
		if err != nil {
			t.Fatal(err)
		}
		if got.Error != report.Error || !got.FinishedAt.IsZero() || len(got.Playlists) != 0 {
			t.Errorf("unexpected run %+v", got)
		}
	})

	t.Run("Validation Error", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		if err := NewRunRepository(db).Create(models.NewReport("", start)); err == nil {
			t.Fatal("expected validation error")
		}
	})

	t.Run("Duplicate Id", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		if err := repo.Create(sampleReport("dup", start)); err != nil {
			t.Fatal(err)
		}
		if err := repo.Create(sampleReport("dup", start)); err == nil {
			t.Fatal("expected error for duplicate id")
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM run_playlists WHERE run_id = 'dup'").Scan(&count); err != nil {
			t.Fatal(err)
		}
		if count != 3 {
			t.Errorf("failed insert should roll back its outcomes, found %d rows", count)
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		for i := range 3 {
			r := sampleReport(fmt.Sprintf("run-%d", i), start.Add(time.Duration(i)*time.Hour))
			if i == 1 {
				r.Status = models.RunAborted
			}
			if err := repo.Create(r); err != nil {
				t.Fatal(err)
			}
		}

		all, err := repo.List(map[string]any{})
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(all) != 3 || all[0].RunID != "run-2" {
			t.Errorf("expected newest first, got %d runs starting with %v", len(all), all[0].RunID)
		}

		aborted, err := repo.List(map[string]any{"status": "aborted"})
		if err != nil {
			t.Fatal(err)
		}
		if len(aborted) != 1 || aborted[0].RunID != "run-1" {
			t.Errorf("unexpected aborted runs %v", aborted)
		}

		limited, err := repo.List(map[string]any{"limit": 2})
		if err != nil {
			t.Fatal(err)
		}
		if len(limited) != 2 {
			t.Errorf("expected 2 runs, got %d", len(limited))
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		if err := repo.Create(sampleReport("run-x", start)); err != nil {
			t.Fatal(err)
		}

		if err := repo.Delete("run-x"); err != nil {
			t.Fatalf("failed to delete run: %v", err)
		}
		if _, err := repo.Get("run-x"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
		if err := repo.Delete("run-x"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound deleting twice, got %v", err)
		}
	})

	t.Run("Closed Database", func(t *testing.T) {
		db := setupTestDB(t)
		db.Close()

		repo := NewRunRepository(db)
		if _, err := repo.List(nil); err == nil {
			t.Error("expected error listing on closed database")
		}
		if err := repo.Create(sampleReport("r", start)); err == nil {
			t.Error("expected error creating on closed database")
		}
	})
}

// Package repositories implements SQLite persistence for migration run history.
//
// [RunRepository] stores each finished [models.Report] as one migration_runs row plus one
// run_playlists row per outcome, written in a single transaction. Reports are immutable once
// recorded, so the repository offers Create, Get, List and Delete but no Update.
//
// The schema is created by shared.RunMigrations from the embedded SQL files.
package repositories

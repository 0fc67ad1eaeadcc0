package models

import (
	"errors"
	"time"
)

// RunStatus is the terminal state of a migration run.
type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunAborted   RunStatus = "aborted"
)

// OutcomeStatus describes what happened to one playlist.
type OutcomeStatus string

const (
	OutcomeMigrated OutcomeStatus = "migrated" // destination playlist created
	OutcomeFailed   OutcomeStatus = "failed"   // creation rejected
	OutcomeSkipped  OutcomeStatus = "skipped"  // no resolved tracks and skip_empty set
	OutcomeDropped  OutcomeStatus = "dropped"  // source read failed
)

// PlaylistOutcome records the result for one playlist of a run.
type PlaylistOutcome struct {
	Ref            PlaylistRef   `json:"ref,omitempty"`
	Title          string        `json:"title,omitempty"`
	DestinationID  string        `json:"destination_id,omitempty"`
	Status         OutcomeStatus `json:"status"`
	TracksTotal    int           `json:"tracks_total"`
	TracksResolved int           `json:"tracks_resolved"`
	TracksInserted int           `json:"tracks_inserted"`
	Error          string        `json:"error,omitempty"`
}

// Report summarizes a migration run. It is persisted as a migration_runs row.
type Report struct {
	RunID  string    `json:"id"`
	Status RunStatus `json:"status"`
	Error  string    `json:"error,omitempty"`

	PlaylistsRequested int `json:"playlists_requested"`
	PlaylistsFetched   int `json:"playlists_fetched"`
	PlaylistsDropped   int `json:"playlists_dropped"`
	PlaylistsMigrated  int `json:"playlists_migrated"`
	PlaylistsFailed    int `json:"playlists_failed"`
	PlaylistsSkipped   int `json:"playlists_skipped"`

	TracksResolved   int `json:"tracks_resolved"`
	TracksUnresolved int `json:"tracks_unresolved"`
	TracksInserted   int `json:"tracks_inserted"`
	TracksFailed     int `json:"tracks_failed"`

	TitleCollisions int `json:"title_collisions"`

	Playlists []PlaylistOutcome `json:"playlists"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// NewReport starts a report for run id at the given time.
func NewReport(id string, started time.Time) *Report {
	return &Report{RunID: id, StartedAt: started, Playlists: []PlaylistOutcome{}}
}

func (r *Report) ID() string           { return r.RunID }
func (r *Report) CreatedAt() time.Time { return r.StartedAt }
func (r *Report) UpdatedAt() time.Time { return r.FinishedAt }

// Validate checks the fields needed to persist the report.
func (r *Report) Validate() error {
	if r.RunID == "" {
		return errors.New("run id is required")
	}
	if r.StartedAt.IsZero() {
		return errors.New("start time is required")
	}
	switch r.Status {
	case RunCompleted, RunAborted:
	default:
		return errors.New("status must be completed or aborted")
	}
	return nil
}

// Duration is the wall time of the run, zero while it has not finished.
func (r *Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

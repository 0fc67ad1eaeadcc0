package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/desertthunder/plmigrate/internal/models"
	"github.com/desertthunder/plmigrate/internal/services"
	"github.com/desertthunder/plmigrate/internal/shared"
)

// Request is the input of one migration run.
type Request struct {
	Source      *models.Credential
	Destination *models.Credential
	Playlists   []models.PlaylistRef
}

// EngineOpts configures an [Engine].
type EngineOpts struct {
	PlaylistWorkers int           // playlists translated and written at once (default 1)
	SkipEmpty       bool          // do not create playlists with zero resolved tracks
	RateLimit       float64       // destination requests per second, <= 0 disables pacing
	Timeout         time.Duration // per destination call (default 15s)
	Now             func() time.Time
}

// RunRecorder stores finished reports. repositories.RunRepository implements it.
type RunRecorder interface {
	Create(report *models.Report) error
}

// Engine runs migrations: Fetch, Translate, Write, Finish. It keeps no state across runs.
type Engine struct {
	source   services.SourceReader
	dest     services.Destination
	fetcher  *Fetcher
	recorder RunRecorder
	workers  int
	skip     bool
	timeout  time.Duration
	limiter  *rate.Limiter
	now      func() time.Time
	logger   *log.Logger
}

// NewEngine creates an engine reading through fetcher's source and writing to dest.
func NewEngine(fetcher *Fetcher, dest services.Destination, opts EngineOpts, logger *log.Logger) *Engine {
	if opts.PlaylistWorkers <= 0 {
		opts.PlaylistWorkers = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Engine{
		source:  fetcher.source,
		dest:    dest,
		fetcher: fetcher,
		workers: opts.PlaylistWorkers,
		skip:    opts.SkipEmpty,
		timeout: opts.Timeout,
		limiter: newLimiter(opts.RateLimit),
		now:     opts.Now,
		logger:  logger,
	}
}

// WithRecorder sets where finished reports are stored.
func (e *Engine) WithRecorder(r RunRecorder) *Engine {
	e.recorder = r
	return e
}

// translation is the per-playlist result of the Translate phase.
type translation struct {
	title   string
	tracks  int
	ids     []string
	misses  int
	outcome models.PlaylistOutcome
}

// Run migrates req.Playlists and returns the report.
//
// A credential failure in any phase aborts the run; the partial report is returned with the error.
// Both credentials are invalidated before Run returns, whatever the outcome.
func (e *Engine) Run(ctx context.Context, req Request, progress chan<- ProgressUpdate) (*models.Report, error) {
	report := models.NewReport(shared.GenerateID(), e.now())
	logger := shared.WithLogger(e.logger, "run", report.RunID)

	err := e.run(ctx, req, report, logger, progress)
	e.finish(req, report, err, logger)
	sendProgress(progress, finishedUpdate(report))
	return report, err
}

func (e *Engine) run(ctx context.Context, req Request, report *models.Report, logger *log.Logger, progress chan<- ProgressUpdate) error {
	if len(req.Playlists) == 0 {
		return fmt.Errorf("%w: no playlists selected", shared.ErrMissingArgument)
	}

	now := e.now()
	if !req.Source.Valid(now) {
		return fmt.Errorf("%w: source credential is empty, expired, or invalidated", shared.ErrCredentialInvalid)
	}
	if !req.Destination.Valid(now) {
		return fmt.Errorf("%w: destination credential is empty, expired, or invalidated", shared.ErrCredentialInvalid)
	}

	vctx, cancel := context.WithTimeout(ctx, e.timeout)
	err := e.source.Validate(vctx, req.Source)
	cancel()
	if errors.Is(err, shared.ErrCredentialInvalid) {
		return fmt.Errorf("source credential check failed: %w", err)
	}
	if err != nil {
		logger.Warn("source credential check failed, continuing", "err", err)
	}

	set, stats, err := e.fetcher.fetchAll(ctx, req.Source, req.Playlists, progress)
	report.PlaylistsRequested = stats.Requested
	if err != nil {
		return err
	}
	report.PlaylistsFetched = stats.Fetched
	report.PlaylistsDropped = stats.Dropped
	report.TitleCollisions = stats.Collisions
	for _, d := range stats.Drops {
		report.Playlists = append(report.Playlists, models.PlaylistOutcome{Ref: d.Ref, Status: models.OutcomeDropped, Error: d.Err.Error()})
	}

	titles := set.Titles()
	results := make([]translation, len(titles))
	for i, title := range titles {
		results[i] = translation{
			title:   title,
			tracks:  len(set[title]),
			outcome: models.PlaylistOutcome{Ref: stats.Sources[title], Title: title, TracksTotal: len(set[title])},
		}
	}
	defer e.tally(report, results)

	if err := e.translate(ctx, req.Destination, set, results, logger, progress); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.write(ctx, req.Destination, results, logger, progress); err != nil {
		return err
	}
	return ctx.Err()
}

// translate resolves every track of every playlist. Tracks within a playlist are resolved in order.
func (e *Engine) translate(ctx context.Context, cred *models.Credential, set models.MigrationSet, results []translation, logger *log.Logger, progress chan<- ProgressUpdate) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i := range results {
		r := &results[i]
		g.Go(func() error {
			sendProgress(progress, searchTracksUpdate(i+1, len(results), r.title, r.tracks))
			r.ids = make([]string, 0, r.tracks)
			for _, name := range set[r.title] {
				match := e.resolve(gctx, cred, name)
				if match.Resolved {
					r.ids = append(r.ids, match.MediaID)
					continue
				}
				r.misses++
				if errors.Is(match.Err, shared.ErrCredentialInvalid) {
					return match.Err
				}
				logger.Debug("track unresolved", "playlist", r.title, "track", name, "err", match.Err)
			}
			r.outcome.TracksResolved = len(r.ids)
			return nil
		})
	}
	return g.Wait()
}

// write creates each playlist and inserts its resolved ids in source order.
func (e *Engine) write(ctx context.Context, cred *models.Credential, results []translation, logger *log.Logger, progress chan<- ProgressUpdate) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i := range results {
		r := &results[i]
		g.Go(func() error {
			out := &r.outcome
			if e.skip && len(r.ids) == 0 {
				out.Status = models.OutcomeSkipped
				logger.Info("playlist skipped, no resolved tracks", "title", r.title)
				return nil
			}

			var pl models.DestinationPlaylist
			err := e.call(gctx, func(ctx context.Context) (err error) {
				pl, err = e.dest.CreatePlaylist(ctx, cred, r.title)
				return err
			})
			if err != nil {
				out.Status = models.OutcomeFailed
				out.Error = err.Error()
				sendProgress(progress, createFailedUpdate(i+1, len(results), r.title, err))
				if errors.Is(err, shared.ErrCredentialInvalid) {
					return err
				}
				logger.Warn("playlist creation failed", "title", r.title, "err", err)
				return nil
			}

			out.Status = models.OutcomeMigrated
			out.DestinationID = pl.ID
			sendProgress(progress, createPlaylistUpdate(i+1, len(results), pl))

			for _, id := range r.ids {
				err := e.call(gctx, func(ctx context.Context) error {
					return e.dest.InsertItem(ctx, cred, pl.ID, id)
				})
				if err == nil {
					out.TracksInserted++
					continue
				}
				if errors.Is(err, shared.ErrCredentialInvalid) {
					out.Error = err.Error()
					return err
				}
				logger.Warn("track insert failed", "playlist", pl.ID, "video", id, "err", err)
			}
			sendProgress(progress, insertTracksUpdate(i+1, len(results), r.title, out.TracksInserted, len(r.ids)))
			return nil
		})
	}
	return g.Wait()
}

func (e *Engine) resolve(ctx context.Context, cred *models.Credential, name string) models.TrackMatch {
	var match models.TrackMatch
	err := e.call(ctx, func(ctx context.Context) error {
		match = e.dest.Resolve(ctx, cred, name)
		return nil
	})
	if err != nil {
		return models.TrackMatch{Query: name, Err: err}
	}
	return match
}

func (e *Engine) call(ctx context.Context, fn func(context.Context) error) error {
	if err := e.limiter.Wait(ctx); err != nil {
		return err
	}
	cctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	return fn(cctx)
}

// tally folds per-playlist results into the report. It runs after both phases have joined.
func (e *Engine) tally(report *models.Report, results []translation) {
	for _, r := range results {
		report.TracksResolved += len(r.ids)
		report.TracksUnresolved += r.misses

		out := r.outcome
		switch out.Status {
		case models.OutcomeMigrated:
			report.PlaylistsMigrated++
			report.TracksInserted += out.TracksInserted
			report.TracksFailed += len(r.ids) - out.TracksInserted
		case models.OutcomeFailed:
			report.PlaylistsFailed++
		case models.OutcomeSkipped:
			report.PlaylistsSkipped++
		default:
			continue
		}
		report.Playlists = append(report.Playlists, out)
	}
}

// finish invalidates both credentials, stamps the report, and records it.
func (e *Engine) finish(req Request, report *models.Report, err error, logger *log.Logger) {
	req.Source.Invalidate()
	req.Destination.Invalidate()

	report.FinishedAt = e.now()
	report.Status = models.RunCompleted
	if err != nil {
		report.Status = models.RunAborted
		report.Error = err.Error()
		logger.Error("migration aborted", "err", err)
	} else {
		logger.Info("migration finished",
			"migrated", report.PlaylistsMigrated,
			"failed", report.PlaylistsFailed,
			"dropped", report.PlaylistsDropped,
			"inserted", report.TracksInserted,
			"unresolved", report.TracksUnresolved)
	}

	if e.recorder == nil {
		return
	}
	if rerr := e.recorder.Create(report); rerr != nil {
		logger.Warn("failed to record run", "err", rerr)
	}
}

// Reset deletes every playlist owned by cred on the destination and returns how many were removed.
// It refuses unless confirmed. The listing and each delete get the per-call timeout.
func (e *Engine) Reset(ctx context.Context, cred *models.Credential, confirmed bool) (int, error) {
	if !confirmed {
		return 0, fmt.Errorf("%w: reset deletes every destination playlist and must be confirmed", shared.ErrInvalidArgument)
	}
	if !cred.Valid(e.now()) {
		return 0, fmt.Errorf("%w: destination credential is empty, expired, or invalidated", shared.ErrCredentialInvalid)
	}

	n, err := services.DeleteAllPlaylists(ctx, e.dest, cred, e.call)
	e.logger.Warn("destination reset", "deleted", n, "err", err)
	return n, err
}

package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/desertthunder/plmigrate/internal/models"
	"github.com/desertthunder/plmigrate/internal/services"
	"github.com/desertthunder/plmigrate/internal/shared"
)

const (
	DefaultPoolSize = 20
	DefaultTimeout  = 15 * time.Second
)

// FetcherOpts configures a [Fetcher].
type FetcherOpts struct {
	PoolSize  int           // concurrent fetch tasks (default 20)
	RateLimit float64       // requests per second, <= 0 disables pacing
	Timeout   time.Duration // per call (default 15s)
}

// Drop records a ref that could not be read.
type Drop struct {
	Ref models.PlaylistRef
	Err error
}

// FetchStats describes how a batch of refs was read.
type FetchStats struct {
	Requested  int // distinct refs
	Fetched    int // refs whose title and tracks were both read
	Dropped    int
	Collisions int // fetched refs whose title replaced an earlier ref's
	Drops      []Drop
	// Sources maps each title in the set to the ref it was read from.
	Sources map[string]models.PlaylistRef
}

// Fetcher reads a batch of playlists from the source on a bounded pool.
type Fetcher struct {
	source   services.SourceReader
	poolSize int
	timeout  time.Duration
	limiter  *rate.Limiter
	logger   *log.Logger
}

// NewFetcher creates a fetcher over source.
func NewFetcher(source services.SourceReader, opts FetcherOpts, logger *log.Logger) *Fetcher {
	if opts.PoolSize <= 0 {
		opts.PoolSize = DefaultPoolSize
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Fetcher{
		source:   source,
		poolSize: opts.PoolSize,
		timeout:  opts.Timeout,
		limiter:  newLimiter(opts.RateLimit),
		logger:   logger,
	}
}

func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// fetchSlot holds the results of the two tasks scheduled for one ref.
// Each task writes only its own fields.
type fetchSlot struct {
	title     string
	tracks    []string
	titleErr  error
	tracksErr error
}

func (s fetchSlot) err() error {
	return errors.Join(s.titleErr, s.tracksErr)
}

// FetchAll reads the title and tracks of every ref and assembles the [models.MigrationSet].
//
// Duplicate refs are collapsed to their first occurrence. A ref with a failed read is dropped,
// logged, and counted; the batch continues. A credential failure cancels the remaining tasks and
// is returned with no set. When two refs share a title, the later ref in request order wins.
func (f *Fetcher) FetchAll(ctx context.Context, cred *models.Credential, refs []models.PlaylistRef) (models.MigrationSet, FetchStats, error) {
	return f.fetchAll(ctx, cred, refs, nil)
}

func (f *Fetcher) fetchAll(ctx context.Context, cred *models.Credential, refs []models.PlaylistRef, progress chan<- ProgressUpdate) (models.MigrationSet, FetchStats, error) {
	refs = dedupe(refs)
	stats := FetchStats{Requested: len(refs), Sources: make(map[string]models.PlaylistRef)}
	slots := make([]fetchSlot, len(refs))

	sendProgress(progress, fetchingSourceUpdate(len(refs)))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.poolSize)

	for i, ref := range refs {
		slot := &slots[i]
		g.Go(func() error {
			slot.titleErr = f.call(gctx, func(ctx context.Context) (err error) {
				slot.title, err = f.source.FetchTitle(ctx, cred, ref)
				return err
			})
			return credentialOnly(slot.titleErr)
		})
		g.Go(func() error {
			slot.tracksErr = f.call(gctx, func(ctx context.Context) (err error) {
				slot.tracks, err = f.source.FetchTracks(ctx, cred, ref)
				return err
			})
			return credentialOnly(slot.tracksErr)
		})
	}

	if err := g.Wait(); err != nil {
		f.logger.Error("fetch aborted", "err", err)
		return nil, stats, err
	}
	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}

	set := make(models.MigrationSet, len(refs))
	for i, ref := range refs {
		slot := slots[i]
		if err := slot.err(); err != nil {
			stats.Dropped++
			stats.Drops = append(stats.Drops, Drop{Ref: ref, Err: err})
			f.logDrop(ref, err)
			sendProgress(progress, fetchedRefUpdate(i+1, len(refs), ref, err))
			continue
		}

		stats.Fetched++
		if prev, ok := stats.Sources[slot.title]; ok {
			stats.Collisions++
			f.logger.Warn("duplicate playlist title, later ref wins", "title", slot.title, "replaced", prev, "ref", ref)
		}
		set[slot.title] = slot.tracks
		stats.Sources[slot.title] = ref
		sendProgress(progress, fetchedRefUpdate(i+1, len(refs), ref, nil))
	}

	f.logger.Info("fetch complete", "requested", stats.Requested, "fetched", stats.Fetched, "dropped", stats.Dropped)
	return set, stats, nil
}

// call paces fn through the limiter and bounds it with the per-call timeout.
func (f *Fetcher) call(ctx context.Context, fn func(context.Context) error) error {
	if err := f.limiter.Wait(ctx); err != nil {
		return err
	}
	cctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	return fn(cctx)
}

func (f *Fetcher) logDrop(ref models.PlaylistRef, err error) {
	var upErr *services.UpstreamError
	if errors.As(err, &upErr) {
		f.logger.Warn("playlist dropped", "ref", ref, "status", upErr.Status, "body", upErr.Body)
		return
	}
	f.logger.Warn("playlist dropped", "ref", ref, "err", err)
}

// credentialOnly passes credential errors through to the group so it cancels the batch.
func credentialOnly(err error) error {
	if errors.Is(err, shared.ErrCredentialInvalid) {
		return err
	}
	return nil
}

func dedupe(refs []models.PlaylistRef) []models.PlaylistRef {
	seen := make(map[models.PlaylistRef]bool, len(refs))
	out := make([]models.PlaylistRef, 0, len(refs))
	for _, ref := range refs {
		if seen[ref] {
			continue
		}
		seen[ref] = true
		out = append(out, ref)
	}
	return out
}

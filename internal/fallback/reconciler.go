package fallback

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
)

const DefaultSyncInterval = 2 * time.Minute

// Syncer is a repository whose queued local records can be flushed.
type Syncer interface {
	Name() string
	Flush(ctx context.Context) (int, error)
}

// Reconciler periodically flushes the local sync queue of every repository.
type Reconciler struct {
	syncers   []Syncer
	interval  time.Duration
	scheduler gocron.Scheduler
}

func NewReconciler(interval time.Duration, syncers ...Syncer) (*Reconciler, error) {
	if interval <= 0 {
		interval = DefaultSyncInterval
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	return &Reconciler{
		syncers:   syncers,
		interval:  interval,
		scheduler: scheduler,
	}, nil
}

// Start schedules the flush job. A run still in progress when the next one
// is due makes the scheduler skip that tick.
func (r *Reconciler) Start() error {
	_, err := r.scheduler.NewJob(
		gocron.DurationJob(r.interval),
		gocron.NewTask(
			func() {
				r.FlushAll(context.Background())
			},
		),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return err
	}

	r.scheduler.Start()
	return nil
}

// Stop stops future runs. A flush already running is not interrupted.
func (r *Reconciler) Stop() error {
	return r.scheduler.Shutdown()
}

// FlushAll flushes every repository and reports how many records each synced.
// A failing repository does not stop the others.
func (r *Reconciler) FlushAll(ctx context.Context) map[string]int {
	synced := make(map[string]int, len(r.syncers))
	for _, s := range r.syncers {
		n, err := s.Flush(ctx)
		if err != nil {
			log.Error().Err(err).Str("collection", s.Name()).Msg("failed to flush local records")
		}
		synced[s.Name()] = n
	}

	return synced
}

// Package refresher keeps the default-location snapshot warm by re-running
// the aggregation on the preference-configured interval.
package refresher

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/metrowx/metro-weather/internal/geo"
	"github.com/metrowx/metro-weather/internal/prefs"
	"github.com/metrowx/metro-weather/internal/progress"
	"github.com/metrowx/metro-weather/internal/weather"
)

// Engine is the slice of the aggregation engine the refresher drives.
type Engine interface {
	CurrentWeather(ctx context.Context, fix *geo.Coordinate, lang string) *progress.Future[*weather.Snapshot]
	ClearCache()
}

// Refresher schedules periodic snapshot refreshes. It also implements
// prefs.Notifier: a preference write reschedules the job and primes the cache
// with the new settings immediately.
type Refresher struct {
	engine Engine
	store  *prefs.Store
	logger *zap.Logger

	scheduler *gocron.Scheduler

	mu  sync.Mutex
	job *gocron.Job
}

func New(engine Engine, store *prefs.Store, logger *zap.Logger) *Refresher {
	return &Refresher{
		engine:    engine,
		store:     store,
		logger:    logger,
		scheduler: gocron.NewScheduler(time.UTC),
	}
}

// Start schedules the refresh job and runs the scheduler in the background.
func (r *Refresher) Start() error {
	if err := r.schedule(r.store.Current().RefreshRate); err != nil {
		return err
	}
	r.scheduler.StartAsync()
	return nil
}

// Stop halts the scheduler. In-flight refreshes run to completion.
func (r *Refresher) Stop() {
	r.scheduler.Stop()
}

func (r *Refresher) schedule(interval time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if interval <= 0 {
		interval = prefs.DefaultRefreshRate
	}
	if r.job != nil {
		r.scheduler.RemoveByReference(r.job)
		r.job = nil
	}
	job, err := r.scheduler.Every(interval).Do(r.Refresh)
	if err != nil {
		return err
	}
	r.job = job
	r.logger.Info("refresh scheduled", zap.Duration("interval", interval))
	return nil
}

// Refresh runs one aggregation for the saved location and logs the outcome.
func (r *Refresher) Refresh() {
	p := r.store.Current()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	snap, err := r.engine.CurrentWeather(ctx, p.Location.Coord, p.Language).Get(ctx)
	switch {
	case err != nil:
		r.logger.Warn("snapshot refresh timed out", zap.Error(err))
	case snap == nil:
		r.logger.Warn("snapshot refresh yielded no data")
	default:
		r.logger.Info("snapshot refreshed", zap.String("station", snap.StationName))
	}
}

// PreferencesChanged implements prefs.Notifier.
func (r *Refresher) PreferencesChanged(p prefs.Preferences) {
	r.engine.ClearCache()
	if err := r.schedule(p.RefreshRate); err != nil {
		r.logger.Error("reschedule after preference change failed", zap.Error(err))
	}
	r.Refresh()
}

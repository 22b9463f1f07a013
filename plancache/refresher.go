package plancache

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Refresher periodically re-fetches plans for recently seen callers so the
// interactive path mostly hits a warm cache. It is optional; the Cache is
// fully functional without it.
type Refresher struct {
	cache  *Cache
	log    logrus.FieldLogger
	window time.Duration
	cron   *cron.Cron
	entry  cron.EntryID
}

// NewRefresher builds a refresher that re-fetches plans of callers seen
// within window (default: 4x the cache TTL).
func NewRefresher(cache *Cache, window time.Duration, logger logrus.FieldLogger) *Refresher {
	if window <= 0 {
		window = 4 * cache.TTL()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Refresher{
		cache:  cache,
		log:    logger,
		window: window,
		cron:   cron.New(),
	}
}

// Start schedules the refresh on the given cron spec (e.g. "@every 5m") and
// begins running it. Returns after scheduling; the work happens on the cron
// goroutine.
func (r *Refresher) Start(spec string) error {
	id, err := r.cron.AddFunc(spec, r.tick)
	if err != nil {
		return err
	}
	r.entry = id
	r.cron.Start()
	return nil
}

// Stop halts the schedule and waits for an in-progress tick to finish.
func (r *Refresher) Stop() {
	<-r.cron.Stop().Done()
}

func (r *Refresher) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	ids := r.cache.seenSince(time.Now().Add(-r.window))
	for _, id := range ids {
		if _, err := r.cache.refresh(ctx, id); err != nil {
			r.log.WithError(err).WithField("user_id", id).Warn("background plan refresh failed")
		}
		if ctx.Err() != nil {
			return
		}
	}
	if len(ids) > 0 {
		r.log.WithField("count", len(ids)).Debug("refreshed cached plans")
	}
}

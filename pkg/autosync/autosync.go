package autosync

import (
	"context"
	"strconv"
	"time"

	"github.com/propdeskhq/propdesk/pkg/cache"
	"github.com/propdeskhq/propdesk/pkg/lock"
	"github.com/propdeskhq/propdesk/pkg/logger"
)

// LastSyncKey stores the unix-millisecond timestamp of the last completed
// sync cycle.
const LastSyncKey = "ghl_last_sync_time"

// DefaultInterval is the minimum quiet period between sync cycles.
const DefaultInterval = 5 * time.Minute

// Job is one provider sync invoked by a cycle. Jobs are best-effort: a
// failure is logged and never aborts the other jobs or fails the cycle.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Runner drives the periodic provider sync. Two guards prevent redundant
// work: the persisted last-sync timestamp skips cycles that fire before the
// interval has elapsed, and a single-slot lock skips cycles that fire while
// one is still running.
type Runner struct {
	cache    *cache.Client
	interval time.Duration
	slot     *lock.SlotLock
	jobs     []Job
	log      logger.Logger
	now      func() time.Time
}

// NewRunner creates an auto-sync runner.
func NewRunner(cacheClient *cache.Client, interval time.Duration, jobs []Job, log logger.Logger) *Runner {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if log == nil {
		log = logger.Default()
	}
	return &Runner{
		cache:    cacheClient,
		interval: interval,
		slot:     lock.New(),
		jobs:     jobs,
		log:      log,
		now:      time.Now,
	}
}

// RunCycle executes one sync cycle. It reports whether the provider jobs
// actually ran; a cycle skipped by either guard returns false.
func (r *Runner) RunCycle(ctx context.Context) bool {
	if !r.slot.TryAcquire() {
		r.log.Debug("sync already in progress, skipping cycle")
		return false
	}
	defer r.slot.Release()

	if !r.due(ctx) {
		r.log.Debug("last sync too recent, skipping cycle")
		return false
	}

	for _, job := range r.jobs {
		if err := job.Run(ctx); err != nil {
			r.log.Warn("provider sync failed", "job", job.Name, "error", err)
			continue
		}
		r.log.Info("provider sync completed", "job", job.Name)
	}

	r.stamp(ctx)
	return true
}

// due reports whether the persisted last-sync stamp is older than the
// interval. A missing or unreadable stamp counts as due.
func (r *Runner) due(ctx context.Context) bool {
	if r.cache == nil {
		return true
	}
	raw, err := r.cache.Get(ctx, LastSyncKey)
	if err != nil || raw == "" {
		return true
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return true
	}
	last := time.UnixMilli(ms)
	return r.now().Sub(last) >= r.interval
}

func (r *Runner) stamp(ctx context.Context) {
	if r.cache == nil {
		return
	}
	val := strconv.FormatInt(r.now().UnixMilli(), 10)
	if err := r.cache.Set(ctx, LastSyncKey, val, 0); err != nil {
		r.log.Warn("failed to persist last sync time", "error", err)
	}
}

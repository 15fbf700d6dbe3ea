// Package feed keeps the recent-activity list fresh by polling the report
// store on a fixed interval.
package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/sightings/internal/domain"
	"github.com/couchcryptid/sightings/internal/observability"
)

// Defaults for the recent feed.
const (
	DefaultLimit    = 5
	DefaultInterval = 30 * time.Second
)

// ErrorMessage is shown when the store cannot be read.
const ErrorMessage = "Failed to load reports"

// Source lists the newest reports.
type Source interface {
	ListRecent(ctx context.Context, limit int) domain.ListResult
}

// Snapshot is the feed state at one point in time.
type Snapshot struct {
	Reports   []domain.Report `json:"reports"`
	Error     string          `json:"error,omitempty"`
	Sample    bool            `json:"sample"`
	Loading   bool            `json:"loading"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Feed polls a Source and serves the latest snapshot.
type Feed struct {
	source   Source
	limit    int
	interval time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics

	mu   sync.RWMutex
	snap Snapshot
}

// New creates a feed. It reports Loading until the first refresh finishes.
func New(source Source, limit int, interval time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Feed {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Feed{
		source:   source,
		limit:    limit,
		interval: interval,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
		snap:     Snapshot{Reports: []domain.Report{}, Loading: true},
	}
}

// Run refreshes immediately and then on every tick until ctx is done.
// Failed refreshes are not retried before the next tick.
func (f *Feed) Run(ctx context.Context) {
	f.Refresh(ctx)

	ticker := f.clock.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			f.Refresh(ctx)
		}
	}
}

// Refresh re-reads the store and replaces the snapshot. A refresh that
// finishes after a later-started one keeps the newer snapshot and returns it.
func (f *Feed) Refresh(ctx context.Context) Snapshot {
	now := f.clock.Now()
	res := f.source.ListRecent(ctx, f.limit)
	f.metrics.ListResults.WithLabelValues("feed", res.Status.String()).Inc()

	snap := Snapshot{UpdatedAt: now}
	switch res.Status {
	case domain.ListOK:
		snap.Reports = res.Reports
		f.metrics.FeedRefreshes.WithLabelValues("ok").Inc()
	case domain.ListEmpty:
		snap.Reports = domain.SampleRecentReports(now)
		snap.Sample = true
		f.metrics.FeedRefreshes.WithLabelValues("empty").Inc()
	default:
		snap.Reports = []domain.Report{}
		snap.Error = ErrorMessage
		f.metrics.FeedRefreshes.WithLabelValues("error").Inc()
		f.logger.Warn("feed refresh failed", "error", res.Err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.snap.UpdatedAt.After(now) {
		f.logger.Debug("discarding stale feed refresh", "started", now, "current", f.snap.UpdatedAt)
		return f.snap
	}
	f.snap = snap
	return snap
}

// Snapshot returns the latest feed state.
func (f *Feed) Snapshot() Snapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.snap
}

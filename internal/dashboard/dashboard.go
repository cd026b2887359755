/*
Package dashboard owns the displayed state and connects the fetcher, the scrape
job controller and the review writer to it.

All state lives on one loop goroutine. Public methods post work to that loop
and, where they return data, wait for it. Remote calls run on other goroutines
and post their results back, so a slow API never blocks the loop.
*/
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shanehull/anndash/internal/ai"
	"github.com/shanehull/anndash/internal/client"
	"github.com/shanehull/anndash/internal/fetch"
	"github.com/shanehull/anndash/internal/job"
	"github.com/shanehull/anndash/internal/logger"
	"github.com/shanehull/anndash/internal/loop"
	"github.com/shanehull/anndash/internal/metrics"
	"github.com/shanehull/anndash/internal/notify"
	"github.com/shanehull/anndash/internal/types"
	"github.com/shanehull/anndash/internal/view"
)

var (
	// ErrReadOnly is returned by scrape controls when scraping is disabled.
	ErrReadOnly = errors.New("scraping is disabled in this deployment")
	// ErrNotFound is returned when toggling an id that is not loaded.
	ErrNotFound = errors.New("announcement not found")
	// ErrDigestUnavailable is returned when no AI key is configured.
	ErrDigestUnavailable = errors.New("AI digest is not configured")
)

// Recorder persists review actions.
type Recorder interface {
	Record(id int64, checked bool) error
	ReviewedToday() int
}

// Digester summarises pending announcements.
type Digester interface {
	Digest(ctx context.Context, anns []types.Announcement) (*ai.Digest, error)
}

type Config struct {
	ScrapeEnabled bool
	PollInterval  time.Duration
	// Schedule is an optional cron expression that starts a scrape.
	Schedule string
}

// Deps are the collaborators. Only Service is required.
type Deps struct {
	Service  client.Service
	Logger   logger.Logger
	Metrics  *metrics.Metrics
	Notifier notify.Notifier
	History  Recorder
	Digester Digester
	Clock    job.Clock
	Now      func() time.Time
}

// Snapshot is a copy of the displayed state, safe to use off the loop.
type Snapshot struct {
	State         view.State
	Filtered      []types.Announcement
	Facets        view.Facets
	ScrapeEnabled bool
	Scraping      bool
	RunID         string
	ReviewedToday int
}

type Dashboard struct {
	ctx    context.Context
	cancel context.CancelFunc

	cfg      Config
	svc      client.Service
	log      logger.Logger
	metrics  *metrics.Metrics
	notifier notify.Notifier
	history  Recorder
	digester Digester
	now      func() time.Time

	loop    *loop.Loop
	writer  *loop.Loop
	fetcher *fetch.Fetcher
	ctrl    *job.Controller
	cron    *cron.Cron
	wg      sync.WaitGroup

	// Owned by the loop goroutine.
	state        view.State
	refreshSeq   uint64
	appliedSeq   uint64
	statsSeq     uint64
	appliedStats uint64
}

func New(ctx context.Context, cfg Config, deps Deps) (*Dashboard, error) {
	if deps.Service == nil {
		return nil, errors.New("dashboard requires a service")
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNop()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.NewMulti(deps.Logger)
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	ctx, cancel := context.WithCancel(ctx)
	d := &Dashboard{
		ctx:      ctx,
		cancel:   cancel,
		cfg:      cfg,
		svc:      deps.Service,
		log:      deps.Logger.With(logger.String("component", "dashboard")),
		metrics:  deps.Metrics,
		notifier: deps.Notifier,
		history:  deps.History,
		digester: deps.Digester,
		now:      deps.Now,
		loop:     loop.New(),
		writer:   loop.New(),
		state:    view.New(),
	}
	d.fetcher = fetch.New(deps.Service, deps.Logger, deps.Metrics)
	d.ctrl = job.New(ctx, deps.Service, d.loop, job.Config{
		Interval: cfg.PollInterval,
		Clock:    deps.Clock,
		Logger:   deps.Logger,
		Metrics:  deps.Metrics,
		OnFinish: d.onJobFinished,
	})

	if cfg.Schedule != "" {
		c, err := d.newScheduler(cfg.Schedule)
		if err != nil {
			cancel()
			return nil, err
		}
		d.cron = c
	}

	return d, nil
}

// Start runs the loops, the schedule and the initial fetch.
func (d *Dashboard) Start() {
	d.wg.Add(2)
	go func() {
		defer d.wg.Done()
		_ = d.loop.Run(d.ctx)
	}()
	go func() {
		defer d.wg.Done()
		_ = d.writer.Run(d.ctx)
	}()

	if d.cron != nil {
		d.cron.Start()
	}

	d.loop.Post(func() { d.refresh(nil) })
}

// Close stops background work and waits for it. Queued review writes are dropped.
func (d *Dashboard) Close() {
	if d.cron != nil {
		<-d.cron.Stop().Done()
	}
	d.cancel()
	d.wg.Wait()
}

// Refresh re-reads announcements and statistics and waits until they are applied.
func (d *Dashboard) Refresh(ctx context.Context) error {
	done := make(chan struct{})
	if err := d.loop.Do(ctx, func() { d.refresh(func() { close(done) }) }); err != nil {
		return err
	}
	return d.wait(ctx, done)
}

func (d *Dashboard) View(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := d.loop.Do(ctx, func() {
		snap = Snapshot{
			State:         d.state.Snapshot(),
			Filtered:      d.state.Filtered(),
			Facets:        d.state.Facets(),
			ScrapeEnabled: d.cfg.ScrapeEnabled,
			Scraping:      d.ctrl.Running(),
			RunID:         d.ctrl.RunID(),
		}
	})
	if err != nil {
		return Snapshot{}, err
	}
	if d.history != nil {
		snap.ReviewedToday = d.history.ReviewedToday()
	}
	return snap, nil
}

func (d *Dashboard) SetSearch(ctx context.Context, term string) error {
	return d.updateCriteria(ctx, func(c *types.Criteria) { c.Search = term })
}

func (d *Dashboard) SetType(ctx context.Context, t string) error {
	return d.updateCriteria(ctx, func(c *types.Criteria) { c.Type = t })
}

func (d *Dashboard) SetLocation(ctx context.Context, l string) error {
	return d.updateCriteria(ctx, func(c *types.Criteria) { c.Location = l })
}

func (d *Dashboard) updateCriteria(ctx context.Context, fn func(*types.Criteria)) error {
	return d.loop.Do(ctx, func() {
		c := d.state.Criteria
		fn(&c)
		d.state = d.state.WithCriteria(c)
	})
}

// Toggle flips the review flag locally and queues the remote write. The local
// change is kept even if the write fails.
func (d *Dashboard) Toggle(ctx context.Context, id int64) (types.Announcement, error) {
	var (
		updated types.Announcement
		ok      bool
	)
	err := d.loop.Do(ctx, func() {
		d.state, updated, ok = view.Toggle(d.state, id)
		if ok {
			d.queueCheck(updated.ID, updated.Checked)
		}
	})
	if err != nil {
		return types.Announcement{}, err
	}
	if !ok {
		return types.Announcement{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return updated, nil
}

// queueCheck hands the write to the single writer so updates reach the API in
// the order they were made.
func (d *Dashboard) queueCheck(id int64, checked types.Checked) {
	d.writer.Post(func() {
		err := d.svc.SetChecked(d.ctx, id, checked)
		if err != nil {
			d.metrics.Toggles.WithLabelValues("failed").Inc()
			d.log.Error("Error updating review flag",
				logger.Int64("id", id),
				logger.Int("checked", checked.Int()),
				logger.Error(err),
			)
		} else {
			d.metrics.Toggles.WithLabelValues("ok").Inc()
			if d.history != nil {
				if herr := d.history.Record(id, bool(checked)); herr != nil {
					d.log.Warn("Error saving review history", logger.Error(herr))
				}
			}
		}
		d.loop.Post(d.refreshStats)
	})
}

// StartScrape asks the controller to start a job. It reports false when one
// is already running.
func (d *Dashboard) StartScrape(ctx context.Context) (bool, error) {
	if !d.cfg.ScrapeEnabled {
		return false, ErrReadOnly
	}
	var started bool
	err := d.loop.Do(ctx, func() { started = d.ctrl.Start() })
	return started, err
}

// StopScrape ends polling early. It reports false when nothing is running.
func (d *Dashboard) StopScrape(ctx context.Context) (bool, error) {
	if !d.cfg.ScrapeEnabled {
		return false, ErrReadOnly
	}
	var stopped bool
	err := d.loop.Do(ctx, func() { stopped = d.ctrl.Stop() })
	return stopped, err
}

// Digest summarises the unchecked announcements in the current filtered view.
func (d *Dashboard) Digest(ctx context.Context) (*ai.Digest, error) {
	if d.digester == nil {
		return nil, ErrDigestUnavailable
	}

	var pending []types.Announcement
	err := d.loop.Do(ctx, func() {
		for _, a := range d.state.Filtered() {
			if !a.Checked {
				pending = append(pending, a)
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return d.digester.Digest(ctx, pending)
}

// refresh fetches both resources off the loop and applies them unless a newer
// refresh has already landed. done runs on the loop once applied or superseded.
func (d *Dashboard) refresh(done func()) {
	d.refreshSeq++
	seq := d.refreshSeq
	d.statsSeq++
	statsSeq := d.statsSeq
	prev := d.state.Stats

	go func() {
		var (
			wg    sync.WaitGroup
			anns  []types.Announcement
			stats types.Stats
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			anns = d.fetcher.Announcements(d.ctx)
		}()
		go func() {
			defer wg.Done()
			stats = d.fetcher.Stats(d.ctx, prev)
		}()
		wg.Wait()

		d.loop.Post(func() {
			if d.ctx.Err() == nil {
				if seq > d.appliedSeq {
					d.appliedSeq = seq
					d.state = d.state.WithAnnouncements(anns)
				}
				if statsSeq > d.appliedStats {
					d.appliedStats = statsSeq
					d.state = d.state.WithStats(stats)
				}
			}
			if done != nil {
				done()
			}
		})
	}()
}

func (d *Dashboard) refreshStats() {
	d.statsSeq++
	seq := d.statsSeq
	prev := d.state.Stats

	go func() {
		stats := d.fetcher.Stats(d.ctx, prev)
		d.loop.Post(func() {
			if seq > d.appliedStats && d.ctx.Err() == nil {
				d.appliedStats = seq
				d.state = d.state.WithStats(stats)
			}
		})
	}()
}

// onJobFinished runs on the loop once per run. The operator is told only
// after the re-fetch so the notice carries fresh statistics.
func (d *Dashboard) onJobFinished(outcome job.Outcome, message string) {
	d.refresh(func() {
		n := notify.Notice{
			Outcome:  string(outcome),
			Message:  message,
			Stats:    d.state.Stats,
			Finished: d.now(),
		}

		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			if err := d.notifier.Notify(d.ctx, n); err != nil {
				d.log.Warn("Error delivering scrape notice", logger.Error(err))
			}
		}()
	})
}

func (d *Dashboard) wait(ctx context.Context, done <-chan struct{}) error {
	select {
	case <-done:
		return nil
	case <-d.loop.Stopped():
		return loop.ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

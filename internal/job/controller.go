/*
Package job starts the remote scrape job and polls its status until it
finishes or the operator stops it.

Controller is not safe for concurrent use. Every method must be called from the
goroutine that runs the Poster's queue; network calls happen elsewhere and
their results are posted back.
*/
package job

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/shanehull/anndash/internal/logger"
	"github.com/shanehull/anndash/internal/metrics"
	"github.com/shanehull/anndash/internal/types"
)

// State is the controller's position in the start/poll/stop cycle.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
)

// Outcome says how a monitored run ended.
type Outcome string

const (
	OutcomeCompleted Outcome = metrics.OutcomeCompleted
	OutcomeStopped   Outcome = metrics.OutcomeStopped
)

const (
	// StoppedMessage is reported when the operator stops a run.
	StoppedMessage = "Scraping stopped early; partial results have been loaded"
	// CompletedMessage is used when the API finishes without a message.
	CompletedMessage = "Scraping completed"
)

// Remote is the scrape-control half of client.Service.
type Remote interface {
	StartScrape(ctx context.Context) error
	ScrapeStatus(ctx context.Context) (types.ScrapeStatus, error)
}

// Poster queues a closure on the owning goroutine.
type Poster interface {
	Post(fn func()) bool
}

// FinishFunc runs on the owning goroutine once per run, after polling has stopped.
type FinishFunc func(outcome Outcome, message string)

type Config struct {
	Interval time.Duration
	Clock    Clock
	Logger   logger.Logger
	Metrics  *metrics.Metrics
	OnFinish FinishFunc
}

type Controller struct {
	ctx      context.Context
	remote   Remote
	post     Poster
	clock    Clock
	interval time.Duration
	log      logger.Logger
	metrics  *metrics.Metrics
	onFinish FinishFunc

	state State
	// token identifies the current run; results carrying an older token are dropped.
	token uint64
	runID string
	task  *Task
}

// New creates an idle controller. ctx bounds every request and poll task it starts.
func New(ctx context.Context, remote Remote, post Poster, cfg Config) *Controller {
	if cfg.Clock == nil {
		cfg.Clock = RealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}

	return &Controller{
		ctx:      ctx,
		remote:   remote,
		post:     post,
		clock:    cfg.Clock,
		interval: cfg.Interval,
		log:      cfg.Logger.With(logger.String("component", "job")),
		metrics:  cfg.Metrics,
		onFinish: cfg.OnFinish,
		state:    StateIdle,
	}
}

func (c *Controller) State() State {
	return c.state
}

func (c *Controller) Running() bool {
	return c.state == StateRunning
}

// RunID identifies the current run, or is empty while idle.
func (c *Controller) RunID() string {
	return c.runID
}

// Start requests a new scrape job and begins polling its status. It returns
// false without side effects unless the controller is idle.
//
// The start request is fire-and-forget: a rejected request (for example a job
// already in progress) is logged and polling still decides when the run ends.
func (c *Controller) Start() bool {
	if c.state != StateIdle {
		return false
	}

	c.token++
	token := c.token
	c.state = StateRunning
	c.runID = uuid.NewString()
	c.metrics.JobRunning.Set(1)
	c.log.Info("Starting scrape job", logger.String("run_id", c.runID))

	runID := c.runID
	go func() {
		err := c.remote.StartScrape(c.ctx)
		c.post.Post(func() { c.requested(runID, err) })
	}()

	c.task = StartTask(c.ctx, c.clock, c.interval, func(ctx context.Context) {
		status, err := c.remote.ScrapeStatus(ctx)
		c.post.Post(func() { c.polled(token, status, err) })
	})

	return true
}

// Stop cancels polling and reports the run as stopped. It returns false
// unless a run is in progress.
func (c *Controller) Stop() bool {
	if c.state != StateRunning {
		return false
	}
	c.finish(OutcomeStopped, StoppedMessage)
	return true
}

func (c *Controller) requested(runID string, err error) {
	if err == nil {
		c.log.Debug("Scrape start request accepted", logger.String("run_id", runID))
		return
	}
	c.metrics.StartFailures.Inc()
	c.log.Warn("Scrape start request failed, still monitoring status",
		logger.String("run_id", runID),
		logger.Error(err),
	)
}

func (c *Controller) polled(token uint64, status types.ScrapeStatus, err error) {
	if token != c.token || c.task == nil || c.task.Cancelled() {
		return
	}

	c.metrics.PollTicks.Inc()
	if err != nil {
		c.metrics.PollFailures.Inc()
		c.log.Warn("Error polling scrape status",
			logger.String("run_id", c.runID),
			logger.Error(err),
		)
		return
	}

	if status.Running {
		c.log.Debug("Scrape job still running",
			logger.String("run_id", c.runID),
			logger.String("message", status.Message),
		)
		return
	}

	message := status.Message
	if message == "" {
		message = CompletedMessage
	}
	c.finish(OutcomeCompleted, message)
}

// finish cancels the poll task before anything else so no later tick can act.
func (c *Controller) finish(outcome Outcome, message string) {
	if c.task != nil {
		c.task.Cancel()
		c.task = nil
	}
	c.token++

	runID := c.runID
	c.state = StateIdle
	c.runID = ""
	c.metrics.JobRunning.Set(0)
	c.metrics.ScrapeRuns.WithLabelValues(string(outcome)).Inc()

	c.log.Info("Scrape job finished",
		logger.String("run_id", runID),
		logger.String("outcome", string(outcome)),
		logger.String("message", message),
	)

	if c.onFinish != nil {
		c.onFinish(outcome, message)
	}
}

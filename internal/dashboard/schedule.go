package dashboard

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/shanehull/anndash/internal/logger"
)

// ParseSchedule validates a five field cron expression.
func ParseSchedule(expr string) (cron.Schedule, error) {
	sched, err := scheduleParser().Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid scrape schedule %q: %w", expr, err)
	}
	return sched, nil
}

func scheduleParser() cron.Parser {
	return cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
}

// newScheduler starts a scrape on every activation. Activations while a job
// is running are no-ops.
func (d *Dashboard) newScheduler(expr string) (*cron.Cron, error) {
	if !d.cfg.ScrapeEnabled {
		return nil, fmt.Errorf("scrape schedule %q set but scraping is disabled", expr)
	}
	if _, err := ParseSchedule(expr); err != nil {
		return nil, err
	}

	cl := cronLogger{log: d.log.With(logger.String("component", "cron"))}
	c := cron.New(cron.WithParser(scheduleParser()), cron.WithChain(cron.Recover(cl)), cron.WithLogger(cl))

	if _, err := c.AddFunc(expr, d.scheduledScrape); err != nil {
		return nil, fmt.Errorf("schedule scrape: %w", err)
	}
	return c, nil
}

func (d *Dashboard) scheduledScrape() {
	d.loop.Post(func() {
		if d.ctrl.Start() {
			d.log.Info("Scheduled scrape started", logger.String("run_id", d.ctrl.RunID()))
			return
		}
		d.log.Debug("Scheduled scrape skipped, job already running")
	})
}

// cronLogger adapts Logger to cron's key/value logger.
type cronLogger struct {
	log logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.log.Debug(msg, kvFields(keysAndValues)...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.log.Error(msg, append(kvFields(keysAndValues), logger.Error(err))...)
}

func kvFields(keysAndValues []any) []logger.Field {
	fields := make([]logger.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		fields = append(fields, logger.Any(key, keysAndValues[i+1]))
	}
	return fields
}

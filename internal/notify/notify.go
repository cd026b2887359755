/*
Package notify tells the operator how a scrape run ended, on the console and
optionally by email.
*/
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/shanehull/anndash/internal/logger"
	"github.com/shanehull/anndash/internal/types"
)

const timeLayout = "02 Jan 2006 3:04 PM"

// Notice describes a finished scrape run, with statistics re-read after it ended.
type Notice struct {
	Outcome  string
	Message  string
	Stats    types.Stats
	Finished time.Time
}

// Stopped reports whether the operator ended the run early.
func (n Notice) Stopped() bool {
	return n.Outcome == "stopped"
}

type Notifier interface {
	Notify(ctx context.Context, n Notice) error
}

// Console prints a banner for each notice.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) Notify(_ context.Context, n Notice) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	heading := "✅ SCRAPE COMPLETE"
	if n.Stopped() {
		heading = "⏹ SCRAPE STOPPED"
	}

	var sb strings.Builder
	sb.WriteString("\n===========================================\n")
	sb.WriteString(heading + "\n")
	sb.WriteString("===========================================\n")
	sb.WriteString(n.Message + "\n")
	fmt.Fprintf(&sb, "Total: %d  Checked: %d  Unchecked: %d  Today: %d\n",
		n.Stats.Total, n.Stats.Checked, n.Stats.Unchecked, n.Stats.Today)
	if !n.Finished.IsZero() {
		fmt.Fprintf(&sb, "Finished: %s\n", n.Finished.Format(timeLayout))
	}
	sb.WriteString("===========================================\n")

	_, err := io.WriteString(c.out, sb.String())
	return err
}

// Multi delivers to every notifier even when some fail.
type Multi struct {
	notifiers []Notifier
	log       logger.Logger
}

func NewMulti(log logger.Logger, notifiers ...Notifier) *Multi {
	return &Multi{notifiers: notifiers, log: log.With(logger.String("component", "notify"))}
}

func (m *Multi) Notify(ctx context.Context, n Notice) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	for _, nt := range m.notifiers {
		wg.Add(1)
		go func(nt Notifier) {
			defer wg.Done()
			if err := nt.Notify(ctx, n); err != nil {
				m.log.Error("Notification failed",
					logger.String("outcome", n.Outcome),
					logger.Error(err),
				)
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(nt)
	}
	wg.Wait()

	return errors.Join(errs...)
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shanehull/anndash/internal/notify"
	"github.com/shanehull/anndash/internal/render"
)

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the interactive dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cmd)
		},
	}
}

func runInteractive(cmd *cobra.Command) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	d, err := a.newDashboard(ctx, out, true)
	if err != nil {
		return err
	}
	d.Start()
	defer d.Close()

	a.serveMetrics(ctx)

	if err := d.Refresh(ctx); err != nil {
		return err
	}

	r := newREPL(d, out)
	if err := r.list(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "Type help for a list of commands.")
	return r.run(ctx, cmd.InOrStdin())
}

func newListCommand() *cobra.Command {
	var search, annType, location string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the announcements as a table",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			d, err := a.newDashboard(ctx, cmd.OutOrStdout(), false)
			if err != nil {
				return err
			}
			d.Start()
			defer d.Close()

			if err := d.Refresh(ctx); err != nil {
				return err
			}
			if err := d.SetSearch(ctx, search); err != nil {
				return err
			}
			if err := d.SetType(ctx, annType); err != nil {
				return err
			}
			if err := d.SetLocation(ctx, location); err != nil {
				return err
			}

			return newREPL(d, cmd.OutOrStdout()).list(ctx)
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "case-insensitive search term")
	cmd.Flags().StringVarP(&annType, "type", "t", "all", "announcement type")
	cmd.Flags().StringVarP(&location, "location", "l", "all", "location")
	return cmd
}

func newStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print announcement statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			d, err := a.newDashboard(ctx, cmd.OutOrStdout(), false)
			if err != nil {
				return err
			}
			d.Start()
			defer d.Close()

			if err := d.Refresh(ctx); err != nil {
				return err
			}
			snap, err := d.View(ctx)
			if err != nil {
				return err
			}
			render.Stats(cmd.OutOrStdout(), snap.State.Stats, snap.ReviewedToday)
			return nil
		},
	}
}

// finished forwards notices to a channel so a command can wait for the run to end.
type finished chan notify.Notice

func (f finished) Notify(_ context.Context, n notify.Notice) error {
	select {
	case f <- n:
	default:
	}
	return nil
}

func newScrapeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "scrape",
		Short: "Start a scrape job and wait for it to finish",
		Long: `Start a scrape job and poll its status until it finishes. Interrupting the
command stops polling early and loads the partial results.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			done := make(finished, 1)
			d, err := a.newDashboard(ctx, cmd.OutOrStdout(), false, done)
			if err != nil {
				return err
			}
			d.Start()
			defer d.Close()

			started, err := d.StartScrape(ctx)
			if err != nil {
				return err
			}
			if !started {
				return fmt.Errorf("a scrape job is already running")
			}

			sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			select {
			case <-done:
				return nil
			case <-sigCtx.Done():
			}
			// restore default signal handling so a second Ctrl-C exits
			stop()

			stopped, err := d.StopScrape(ctx)
			if err != nil {
				return err
			}
			if !stopped {
				// the run ended on its own; its notice may still be in flight
				return nil
			}

			select {
			case <-done:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		},
	}
}

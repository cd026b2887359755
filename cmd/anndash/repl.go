package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shanehull/anndash/internal/dashboard"
	"github.com/shanehull/anndash/internal/render"
	"github.com/shanehull/anndash/internal/types"
)

const helpText = `Commands:
  list                 show the filtered announcements
  search <term>        filter by title, description, location or products
  type <type|all>      filter by announcement type
  location <loc|all>   filter by location
  clear                reset all filters
  show <id>            show one announcement
  check <id>           toggle the reviewed flag
  facets               list the available types and locations
  stats                show statistics
  refresh              reload announcements and statistics
  scrape               start a scrape job
  stop                 stop the running scrape job
  status               show whether a scrape job is running
  digest               AI summary of unreviewed announcements in the current view
  help                 show this help
  quit                 exit
`

type repl struct {
	d   *dashboard.Dashboard
	out io.Writer
}

func newREPL(d *dashboard.Dashboard, out io.Writer) *repl {
	return &repl{d: d, out: out}
}

// run reads commands until quit, EOF or ctx is done.
func (r *repl) run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		fmt.Fprint(r.out, "> ")
		select {
		case <-ctx.Done():
			fmt.Fprintln(r.out)
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			quit, err := r.exec(ctx, line)
			if err != nil {
				return err
			}
			if quit {
				return nil
			}
		}
	}
}

// exec runs one command. Only loop shutdown is returned as an error; other
// failures are printed.
func (r *repl) exec(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	name, arg := strings.ToLower(fields[0]), strings.Join(fields[1:], " ")

	var err error
	switch name {
	case "list", "ls":
		err = r.list(ctx)
	case "search":
		err = r.filter(ctx, r.d.SetSearch, arg)
	case "type":
		err = r.filter(ctx, r.d.SetType, orAll(arg))
	case "location":
		err = r.filter(ctx, r.d.SetLocation, orAll(arg))
	case "clear":
		err = r.clear(ctx)
	case "show":
		err = r.show(ctx, arg)
	case "check":
		err = r.check(ctx, arg)
	case "facets":
		err = r.facets(ctx)
	case "stats":
		err = r.stats(ctx)
	case "refresh":
		if err = r.d.Refresh(ctx); err == nil {
			err = r.list(ctx)
		}
	case "scrape":
		err = r.scrape(ctx)
	case "stop":
		err = r.stop(ctx)
	case "status":
		err = r.status(ctx)
	case "digest":
		err = r.digest(ctx)
	case "help", "?":
		fmt.Fprint(r.out, helpText)
	case "quit", "exit", "q":
		return true, nil
	default:
		fmt.Fprintf(r.out, "Unknown command %q. Type help for a list of commands.\n", name)
	}

	if err == nil {
		return false, nil
	}
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	fmt.Fprintf(r.out, "Error: %v\n", err)
	return false, nil
}

func (r *repl) list(ctx context.Context) error {
	snap, err := r.d.View(ctx)
	if err != nil {
		return err
	}
	render.Criteria(r.out, snap.State.Criteria)
	render.Announcements(r.out, snap.Filtered, len(snap.State.Announcements))
	return nil
}

func (r *repl) filter(ctx context.Context, set func(context.Context, string) error, value string) error {
	if err := set(ctx, value); err != nil {
		return err
	}
	return r.list(ctx)
}

func (r *repl) clear(ctx context.Context) error {
	c := types.DefaultCriteria()
	for _, step := range []func() error{
		func() error { return r.d.SetSearch(ctx, c.Search) },
		func() error { return r.d.SetType(ctx, c.Type) },
		func() error { return r.d.SetLocation(ctx, c.Location) },
	} {
		if err := step(); err != nil {
			return err
		}
	}
	return r.list(ctx)
}

func (r *repl) show(ctx context.Context, arg string) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}
	snap, err := r.d.View(ctx)
	if err != nil {
		return err
	}
	a, ok := snap.State.Find(id)
	if !ok {
		return fmt.Errorf("%w: %d", dashboard.ErrNotFound, id)
	}
	render.Announcement(r.out, a)
	return nil
}

func (r *repl) check(ctx context.Context, arg string) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}
	a, err := r.d.Toggle(ctx, id)
	if err != nil {
		return err
	}
	if a.Checked {
		fmt.Fprintf(r.out, "Marked #%d as reviewed\n", a.ID)
	} else {
		fmt.Fprintf(r.out, "Marked #%d as not reviewed\n", a.ID)
	}
	return nil
}

func (r *repl) facets(ctx context.Context) error {
	snap, err := r.d.View(ctx)
	if err != nil {
		return err
	}
	render.Facets(r.out, snap.Facets)
	return nil
}

func (r *repl) stats(ctx context.Context) error {
	snap, err := r.d.View(ctx)
	if err != nil {
		return err
	}
	render.Stats(r.out, snap.State.Stats, snap.ReviewedToday)
	return nil
}

func (r *repl) scrape(ctx context.Context) error {
	started, err := r.d.StartScrape(ctx)
	if err != nil {
		return err
	}
	if started {
		fmt.Fprintln(r.out, "Scrape started. You will be notified when it finishes.")
	} else {
		fmt.Fprintln(r.out, "A scrape job is already running.")
	}
	return nil
}

func (r *repl) stop(ctx context.Context) error {
	stopped, err := r.d.StopScrape(ctx)
	if err != nil {
		return err
	}
	if !stopped {
		fmt.Fprintln(r.out, "No scrape job is running.")
	}
	return nil
}

func (r *repl) status(ctx context.Context) error {
	snap, err := r.d.View(ctx)
	if err != nil {
		return err
	}
	switch {
	case !snap.ScrapeEnabled:
		fmt.Fprintln(r.out, "Scraping is disabled in this deployment.")
	case snap.Scraping:
		fmt.Fprintf(r.out, "Scraping in progress (run %s)\n", snap.RunID)
	default:
		fmt.Fprintln(r.out, "No scrape job is running.")
	}
	return nil
}

func (r *repl) digest(ctx context.Context) error {
	d, err := r.d.Digest(ctx)
	if err != nil {
		return err
	}
	render.Digest(r.out, d)
	return nil
}

func parseID(arg string) (int64, error) {
	if arg == "" {
		return 0, errors.New("an announcement id is required")
	}
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func orAll(v string) string {
	if v == "" {
		return types.AllValues
	}
	return v
}

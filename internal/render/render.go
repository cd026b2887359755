// Package render prints dashboard snapshots as terminal tables.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/shanehull/anndash/internal/ai"
	"github.com/shanehull/anndash/internal/types"
	"github.com/shanehull/anndash/internal/view"
)

const (
	titleWidth   = 48
	companyWidth = 28
)

// Announcements renders anns as a table. total is the size of the unfiltered
// collection, shown in the footer.
func Announcements(w io.Writer, anns []types.Announcement, total int) {
	t := newTable(w)

	t.AppendHeader(table.Row{"ID", "✓", "Date", "Type", "Location", "Title", "Company"})
	for _, a := range anns {
		t.AppendRow(table.Row{
			a.ID,
			checkMark(a.Checked),
			a.Date,
			a.Type,
			a.Location,
			text.Trim(a.Title, titleWidth),
			text.Trim(a.CompanyName, companyWidth),
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", fmt.Sprintf("%d of %d shown", len(anns), total), ""})

	t.Render()
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault
	return t
}

func checkMark(c types.Checked) string {
	if c {
		return "✓"
	}
	return ""
}

// Announcement prints every field of one record.
func Announcement(w io.Writer, a types.Announcement) {
	t := newTable(w)

	t.AppendRows([]table.Row{
		{"ID", a.ID},
		{"Title", a.Title},
		{"Company", a.CompanyName},
		{"Type", a.Type},
		{"Location", a.Location},
		{"Products", a.Products},
		{"Date", a.Date},
		{"URL", a.URL},
		{"Checked", checkMark(a.Checked)},
		{"Description", text.WrapSoft(a.Description, 72)},
	})
	t.Render()
}

func Stats(w io.Writer, s types.Stats, reviewedToday int) {
	t := newTable(w)

	t.AppendHeader(table.Row{"Total", "Checked", "Unchecked", "Added Today", "Reviewed Today"})
	t.AppendRow(table.Row{s.Total, s.Checked, s.Unchecked, s.Today, reviewedToday})
	t.Render()
}

func Facets(w io.Writer, f view.Facets) {
	fmt.Fprintf(w, "Types:     %s\n", joinOrNone(f.Types))
	fmt.Fprintf(w, "Locations: %s\n", joinOrNone(f.Locations))
}

// Criteria prints the active filter.
func Criteria(w io.Writer, c types.Criteria) {
	search := c.Search
	if search == "" {
		search = "(none)"
	}
	fmt.Fprintf(w, "Search: %s  Type: %s  Location: %s\n", search, orAll(c.Type), orAll(c.Location))
}

func Digest(w io.Writer, d *ai.Digest) {
	fmt.Fprintln(w, "AI SUMMARY")
	fmt.Fprintln(w, strings.Repeat("-", 20))
	for _, s := range d.Summary {
		fmt.Fprintf(w, "• %s\n", s)
	}

	if len(d.Highlights) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "REVIEW FIRST")
	fmt.Fprintln(w, strings.Repeat("-", 20))
	for _, h := range d.Highlights {
		fmt.Fprintf(w, "• [%d] %s\n", h.ID, h.Reason)
	}
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return "(none)"
	}
	return strings.Join(values, ", ")
}

func orAll(v string) string {
	if v == "" {
		return types.AllValues
	}
	return v
}

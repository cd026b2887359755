package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// RenderedMessage is an email ready to send.
type RenderedMessage struct {
	Subject string
	Text    string
	HTML    string
}

// HTMLEmailRenderer renders notices as HTML emails with a plain text fallback.
type HTMLEmailRenderer struct {
	tmpl *template.Template
}

// NewHTMLEmailRenderer creates a renderer with the default email template.
func NewHTMLEmailRenderer() *HTMLEmailRenderer {
	t := template.Must(template.New("email").Funcs(template.FuncMap{
		"when": func(n Notice) string { return n.Finished.Format(timeLayout) },
	}).Parse(emailHTMLTemplate))
	return &HTMLEmailRenderer{tmpl: t}
}

func (r *HTMLEmailRenderer) Render(n Notice) (*RenderedMessage, error) {
	var htmlBuf bytes.Buffer
	if err := r.tmpl.Execute(&htmlBuf, n); err != nil {
		return nil, fmt.Errorf("failed to render HTML template: %w", err)
	}

	return &RenderedMessage{
		Subject: subject(n),
		Text:    renderPlainText(n),
		HTML:    htmlBuf.String(),
	}, nil
}

func subject(n Notice) string {
	if n.Stopped() {
		return "Announcements: scrape stopped early"
	}
	return "Announcements: scrape complete"
}

func renderPlainText(n Notice) string {
	var sb strings.Builder

	sb.WriteString(subject(n) + "\n")
	sb.WriteString(strings.Repeat("=", 50) + "\n\n")
	sb.WriteString(n.Message + "\n\n")

	sb.WriteString("STATISTICS\n")
	sb.WriteString(strings.Repeat("-", 20) + "\n")
	fmt.Fprintf(&sb, "Total:     %d\n", n.Stats.Total)
	fmt.Fprintf(&sb, "Checked:   %d\n", n.Stats.Checked)
	fmt.Fprintf(&sb, "Unchecked: %d\n", n.Stats.Unchecked)
	fmt.Fprintf(&sb, "Today:     %d\n", n.Stats.Today)

	if !n.Finished.IsZero() {
		fmt.Fprintf(&sb, "\nFinished: %s\n", n.Finished.Format(timeLayout))
	}
	return sb.String()
}

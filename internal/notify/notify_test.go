package notify

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "gopkg.in/mail.v2"

	"github.com/shanehull/anndash/internal/logger"
	"github.com/shanehull/anndash/internal/types"
)

func completed() Notice {
	return Notice{
		Outcome:  "completed",
		Message:  "Scraping completed successfully",
		Stats:    types.Stats{Total: 42, Checked: 10, Unchecked: 32, Today: 5},
		Finished: time.Date(2026, 3, 2, 15, 4, 0, 0, time.UTC),
	}
}

func TestConsole_Notify(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewConsole(&buf).Notify(context.Background(), completed()))

	out := buf.String()
	assert.Contains(t, out, "SCRAPE COMPLETE")
	assert.Contains(t, out, "Scraping completed successfully")
	assert.Contains(t, out, "Total: 42  Checked: 10  Unchecked: 32  Today: 5")
	assert.Contains(t, out, "02 Mar 2026 3:04 PM")
}

func TestConsole_NotifyStopped(t *testing.T) {
	var buf bytes.Buffer
	n := completed()
	n.Outcome = "stopped"
	n.Message = "Scraping stopped early; partial results have been loaded"

	require.NoError(t, NewConsole(&buf).Notify(context.Background(), n))
	assert.Contains(t, buf.String(), "SCRAPE STOPPED")
	assert.NotContains(t, buf.String(), "SCRAPE COMPLETE")
}

func TestHTMLEmailRenderer_Render(t *testing.T) {
	msg, err := NewHTMLEmailRenderer().Render(completed())
	require.NoError(t, err)

	assert.Equal(t, "Announcements: scrape complete", msg.Subject)
	assert.Contains(t, msg.HTML, "Scraping completed successfully")
	assert.Contains(t, msg.HTML, ">42<")
	assert.Contains(t, msg.HTML, "Finished 02 Mar 2026 3:04 PM")
	assert.NotContains(t, msg.HTML, "Stopped early")
	assert.Contains(t, msg.Text, "Unchecked: 32")
}

func TestHTMLEmailRenderer_EscapesMessage(t *testing.T) {
	n := completed()
	n.Outcome = "stopped"
	n.Message = `Scraping failed: <script>alert(1)</script>`
	n.Finished = time.Time{}

	msg, err := NewHTMLEmailRenderer().Render(n)
	require.NoError(t, err)

	assert.Equal(t, "Announcements: scrape stopped early", msg.Subject)
	assert.NotContains(t, msg.HTML, "<script>")
	assert.Contains(t, msg.HTML, "Stopped early")
	assert.NotContains(t, msg.HTML, "Finished")
}

type fakeDialer struct {
	err  error
	sent []*gomail.Message
}

func (d *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	d.sent = append(d.sent, m...)
	return d.err
}

func TestEmail_Notify(t *testing.T) {
	dialer := &fakeDialer{}
	cfg := EmailConfig{FromEmail: "dash@example.com", ToEmail: "ops@example.com"}
	email := NewEmail(NewHTMLEmailRenderer(), NewEmailSenderWithDialer(cfg, dialer, logger.NewNop()))

	require.NoError(t, email.Notify(context.Background(), completed()))
	require.Len(t, dialer.sent, 1)

	m := dialer.sent[0]
	assert.Equal(t, []string{"dash@example.com"}, m.GetHeader("From"))
	assert.Equal(t, []string{"ops@example.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{"Announcements: scrape complete"}, m.GetHeader("Subject"))

	var raw bytes.Buffer
	_, err := m.WriteTo(&raw)
	require.NoError(t, err)
	assert.Contains(t, raw.String(), "text/html")
	assert.Contains(t, raw.String(), "text/plain")
}

func TestEmail_NotifyDialError(t *testing.T) {
	dialer := &fakeDialer{err: errors.New("connection refused")}
	email := NewEmail(NewHTMLEmailRenderer(), NewEmailSenderWithDialer(EmailConfig{ToEmail: "ops@example.com"}, dialer, logger.NewNop()))

	err := email.Notify(context.Background(), completed())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ops@example.com")
}

type recorder struct {
	mu      sync.Mutex
	notices []Notice
	err     error
}

func (r *recorder) Notify(_ context.Context, n Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
	return r.err
}

func TestMulti_DeliversToAllDespiteFailure(t *testing.T) {
	failing := &recorder{err: errors.New("smtp down")}
	ok := &recorder{}

	err := NewMulti(logger.NewNop(), failing, ok).Notify(context.Background(), completed())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "smtp down"))
	assert.Len(t, failing.notices, 1)
	assert.Len(t, ok.notices, 1)
}

func TestMulti_Empty(t *testing.T) {
	assert.NoError(t, NewMulti(logger.NewNop()).Notify(context.Background(), completed()))
}

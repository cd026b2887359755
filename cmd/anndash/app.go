package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/shanehull/anndash/internal/ai"
	"github.com/shanehull/anndash/internal/client"
	"github.com/shanehull/anndash/internal/config"
	"github.com/shanehull/anndash/internal/dashboard"
	"github.com/shanehull/anndash/internal/history"
	"github.com/shanehull/anndash/internal/logger"
	"github.com/shanehull/anndash/internal/metrics"
	"github.com/shanehull/anndash/internal/notify"
)

// app bundles what every command needs.
type app struct {
	cfg     *config.Config
	log     logger.Logger
	metrics *metrics.Metrics
	svc     *client.Client
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Logger.Level,
		Development: cfg.App.Development(),
		OutputPaths: []string{cfg.Logger.Output},
	})
	if err != nil {
		return nil, err
	}

	log.Debug("Configuration loaded",
		logger.String("api_url", cfg.API.BaseURL),
		logger.String("mode", cfg.App.Mode),
		logger.Bool("scrape_enabled", cfg.Scrape.Enabled),
	)

	return &app{
		cfg:     cfg,
		log:     log,
		metrics: metrics.New(),
		svc:     client.New(cfg.API.BaseURL, cfg.API.Timeout),
	}, nil
}

// newDashboard wires the optional collaborators. extra notifiers receive every
// notice alongside the console and email ones.
func (a *app) newDashboard(ctx context.Context, out io.Writer, schedule bool, extra ...notify.Notifier) (*dashboard.Dashboard, error) {
	notifiers := append([]notify.Notifier{notify.NewConsole(out)}, extra...)
	if a.cfg.Email.Enabled() {
		sender := notify.NewEmailSender(notify.EmailConfig{
			SMTPServer: a.cfg.Email.SMTPServer,
			SMTPPort:   a.cfg.Email.SMTPPort,
			SMTPUser:   a.cfg.Email.SMTPUser,
			SMTPPass:   a.cfg.Email.SMTPPass,
			FromEmail:  a.cfg.Email.FromEmail,
			ToEmail:    a.cfg.Email.ToEmail,
		}, a.log)
		notifiers = append(notifiers, notify.NewEmail(notify.NewHTMLEmailRenderer(), sender))
	}

	deps := dashboard.Deps{
		Service:  a.svc,
		Logger:   a.log,
		Metrics:  a.metrics,
		Notifier: notify.NewMulti(a.log, notifiers...),
	}

	if h, err := history.NewManager(a.cfg.History.Timezone, a.log); err != nil {
		a.log.Warn("Review history disabled", logger.Error(err))
	} else {
		deps.History = h
	}

	if a.cfg.AI.APIKey != "" {
		s, err := ai.New(ctx, a.cfg.AI.APIKey, a.cfg.AI.Model)
		if err != nil {
			a.log.Warn("AI digest disabled", logger.Error(err))
		} else {
			deps.Digester = s
		}
	}

	cfg := dashboard.Config{
		ScrapeEnabled: a.cfg.Scrape.Enabled,
		PollInterval:  a.cfg.Scrape.PollInterval,
	}
	if schedule {
		cfg.Schedule = a.cfg.Scrape.Schedule
	}

	return dashboard.New(ctx, cfg, deps)
}

// serveMetrics exposes /metrics until ctx is done. It is a no-op without an address.
func (a *app) serveMetrics(ctx context.Context) {
	if a.cfg.Metrics.Address == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	srv := &http.Server{
		Addr:              a.cfg.Metrics.Address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		a.log.Info("Serving metrics", logger.String("address", a.cfg.Metrics.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("Metrics server failed", logger.Error(err))
		}
	}()
}

func (a *app) close() {
	_ = a.log.Sync()
}

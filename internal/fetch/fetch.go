/*
Package fetch reads the announcement collection and statistics, degrading to an
empty or previous value instead of failing. Nothing here retries: the next user
action or scrape poll fetches again.
*/
package fetch

import (
	"context"
	"errors"

	"github.com/shanehull/anndash/internal/client"
	"github.com/shanehull/anndash/internal/logger"
	"github.com/shanehull/anndash/internal/metrics"
	"github.com/shanehull/anndash/internal/types"
)

// Source is the read side of client.Service.
type Source interface {
	Announcements(ctx context.Context) ([]types.Announcement, error)
	Stats(ctx context.Context) (types.Stats, error)
}

type Fetcher struct {
	src     Source
	log     logger.Logger
	metrics *metrics.Metrics
}

func New(src Source, log logger.Logger, m *metrics.Metrics) *Fetcher {
	return &Fetcher{src: src, log: log.With(logger.String("component", "fetch")), metrics: m}
}

// Announcements returns the full collection, or an empty one if the read failed.
func (f *Fetcher) Announcements(ctx context.Context) []types.Announcement {
	anns, err := f.src.Announcements(ctx)
	if err != nil {
		f.failed("announcements", err)
		return []types.Announcement{}
	}
	if anns == nil {
		return []types.Announcement{}
	}
	return anns
}

// Stats returns fresh statistics, or prev unchanged if the read failed.
func (f *Fetcher) Stats(ctx context.Context, prev types.Stats) types.Stats {
	stats, err := f.src.Stats(ctx)
	if err != nil {
		f.failed("stats", err)
		return prev
	}
	return stats
}

func (f *Fetcher) failed(resource string, err error) {
	kind := FailureKind(err)
	f.metrics.FetchFailures.WithLabelValues(resource, kind).Inc()
	f.log.Warn("Error fetching "+resource,
		logger.String("kind", kind),
		logger.Error(err),
	)
}

// FailureKind classifies err for logs and metrics.
func FailureKind(err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, client.ErrDecode):
		return "decode"
	case errors.Is(err, client.ErrTransport):
		return "transport"
	default:
		return "unknown"
	}
}

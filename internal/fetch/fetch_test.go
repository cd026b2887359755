package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shanehull/anndash/internal/client"
	"github.com/shanehull/anndash/internal/logger"
	"github.com/shanehull/anndash/internal/metrics"
	"github.com/shanehull/anndash/internal/types"
)

type stubSource struct {
	anns     []types.Announcement
	annsErr  error
	stats    types.Stats
	statsErr error
}

func (s *stubSource) Announcements(context.Context) ([]types.Announcement, error) {
	return s.anns, s.annsErr
}

func (s *stubSource) Stats(context.Context) (types.Stats, error) {
	return s.stats, s.statsErr
}

func TestAnnouncements_Success(t *testing.T) {
	src := &stubSource{anns: []types.Announcement{{ID: 1}, {ID: 2}}}
	f := New(src, logger.NewNop(), metrics.New())

	got := f.Announcements(context.Background())
	assert.Len(t, got, 2)
}

func TestAnnouncements_FailureYieldsEmptyCollection(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind string
	}{
		{"transport", fmt.Errorf("%w: dial tcp: refused", client.ErrTransport), "transport"},
		{"decode", fmt.Errorf("%w: unexpected token", client.ErrDecode), "decode"},
		{"other", errors.New("boom"), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := metrics.New()
			f := New(&stubSource{annsErr: tt.err}, logger.NewNop(), m)

			got := f.Announcements(context.Background())
			require.NotNil(t, got)
			assert.Empty(t, got)
			assert.Equal(t, float64(1), testutil.ToFloat64(m.FetchFailures.WithLabelValues("announcements", tt.kind)))
		})
	}
}

func TestAnnouncements_NilBecomesEmpty(t *testing.T) {
	f := New(&stubSource{}, logger.NewNop(), metrics.New())
	got := f.Announcements(context.Background())
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestStats_FailureKeepsPrevious(t *testing.T) {
	prev := types.Stats{Total: 10, Checked: 4, Unchecked: 6, Today: 1}
	f := New(&stubSource{statsErr: client.ErrTransport}, logger.NewNop(), metrics.New())

	assert.Equal(t, prev, f.Stats(context.Background(), prev))
}

func TestStats_Success(t *testing.T) {
	fresh := types.Stats{Total: 11, Checked: 5, Unchecked: 6, Today: 2}
	f := New(&stubSource{stats: fresh}, logger.NewNop(), metrics.New())

	assert.Equal(t, fresh, f.Stats(context.Background(), types.Stats{}))
}

func TestFetcher_ConcurrentCallsAreSafe(t *testing.T) {
	f := New(&stubSource{annsErr: client.ErrTransport, stats: types.Stats{Total: 1}}, logger.NewNop(), metrics.New())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = f.Announcements(context.Background())
			_ = f.Stats(context.Background(), types.Stats{})
		}()
	}
	wg.Wait()
}

func TestFailureKind_Canceled(t *testing.T) {
	err := fmt.Errorf("%w: GET /api/stats: %w", client.ErrTransport, context.Canceled)
	assert.Equal(t, "canceled", FailureKind(err))
}

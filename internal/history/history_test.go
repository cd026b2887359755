package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shanehull/anndash/internal/logger"
)

func TestManager_RecordAndCount(t *testing.T) {
	m, err := NewManagerAt(t.TempDir(), "UTC", logger.NewNop())
	require.NoError(t, err)

	require.NoError(t, m.Record(1, true))
	require.NoError(t, m.Record(2, true))
	require.NoError(t, m.Record(2, false))
	require.NoError(t, m.Record(3, true))

	assert.Equal(t, 2, m.ReviewedToday())
	assert.FileExists(t, m.HistoryFilePath())
}

func TestManager_ReloadsSameDay(t *testing.T) {
	dir := t.TempDir()

	m, err := NewManagerAt(dir, "UTC", logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Record(7, true))

	reloaded, err := NewManagerAt(dir, "UTC", logger.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.ReviewedToday())
}

func TestManager_StaleDayIsDiscarded(t *testing.T) {
	dir := t.TempDir()
	stale := `{"ReportDate":"2001-01-01","Reviews":{"1":true,"2":true}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, historyFileName), []byte(stale), 0o644))

	m, err := NewManagerAt(dir, "UTC", logger.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 0, m.ReviewedToday())
}

func TestManager_CorruptFileStartsFresh(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, historyFileName), []byte("{not json"), 0o644))

	m, err := NewManagerAt(dir, "UTC", logger.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 0, m.ReviewedToday())
	require.NoError(t, m.Record(1, true))
	assert.Equal(t, 1, m.ReviewedToday())
}

func TestManager_RollsOverAtMidnight(t *testing.T) {
	m, err := NewManagerAt(t.TempDir(), "Europe/Paris", logger.NewNop())
	require.NoError(t, err)

	now := time.Date(2026, 5, 1, 21, 30, 0, 0, time.UTC) // 23:30 in Paris
	m.now = func() time.Time { return now }
	require.NoError(t, m.Record(1, true))
	assert.Equal(t, 1, m.ReviewedToday())

	now = now.Add(time.Hour)
	assert.Equal(t, 0, m.ReviewedToday())
}

func TestNewManager_InvalidTimezone(t *testing.T) {
	_, err := NewManagerAt(t.TempDir(), "Not/AZone", logger.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid time zone")
}

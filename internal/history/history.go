/*
Package history keeps a per-day log of the review flags the operator has set,
so the dashboard can show how much was reviewed today across restarts.
*/
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/shanehull/anndash/internal/logger"
)

const (
	historyFileName = "review_history.json"
	historyDirName  = "anndash"
)

type History struct {
	ReportDate string
	// Reviews maps announcement id to the last flag written today.
	Reviews map[string]bool
}

type Manager struct {
	history         History
	mutex           sync.Mutex
	historyFilePath string
	reportLocation  *time.Location
	now             func() time.Time
	log             logger.Logger
}

// NewManager stores history under the system temp dir.
func NewManager(tzName string, log logger.Logger) (*Manager, error) {
	return NewManagerAt(filepath.Join(os.TempDir(), historyDirName), tzName, log)
}

func NewManagerAt(dir, tzName string, log logger.Logger) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory %s: %w", dir, err)
	}

	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid time zone name '%s': %w", tzName, err)
	}

	m := &Manager{
		historyFilePath: filepath.Join(dir, historyFileName),
		reportLocation:  loc,
		now:             time.Now,
		log:             log.With(logger.String("component", "history")),
	}

	m.loadHistory()
	return m, nil
}

func (m *Manager) loadHistory() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	today := m.currentReportDate()
	m.history = History{ReportDate: today, Reviews: make(map[string]bool)}

	data, err := os.ReadFile(m.historyFilePath)
	if err != nil {
		if !os.IsNotExist(err) {
			m.log.Warn("Error reading history file, starting fresh",
				logger.String("path", m.historyFilePath),
				logger.Error(err),
			)
		}
		return
	}

	var loaded History
	if err := json.Unmarshal(data, &loaded); err != nil {
		m.log.Warn("Error unmarshalling history, starting fresh", logger.Error(err))
		return
	}

	if loaded.ReportDate == today && loaded.Reviews != nil {
		m.history = loaded
		m.log.Debug("Loaded review history",
			logger.String("date", today),
			logger.Int("entries", len(loaded.Reviews)),
		)
	}
}

// rollover starts a new day's log once the date has changed. Callers hold the mutex.
func (m *Manager) rollover() {
	if today := m.currentReportDate(); m.history.ReportDate != today {
		m.history = History{ReportDate: today, Reviews: make(map[string]bool)}
	}
}

func (m *Manager) saveHistory() error {
	data, err := json.MarshalIndent(m.history, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	if err := os.WriteFile(m.historyFilePath, data, 0o644); err != nil {
		return fmt.Errorf("write history file %s: %w", m.historyFilePath, err)
	}
	return nil
}

// Record stores the flag written for id and persists the log.
func (m *Manager) Record(id int64, checked bool) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.rollover()
	m.history.Reviews[strconv.FormatInt(id, 10)] = checked
	return m.saveHistory()
}

// ReviewedToday counts announcements whose latest flag today is checked.
func (m *Manager) ReviewedToday() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.rollover()
	n := 0
	for _, checked := range m.history.Reviews {
		if checked {
			n++
		}
	}
	return n
}

func (m *Manager) HistoryFilePath() string {
	return m.historyFilePath
}

func (m *Manager) currentReportDate() string {
	return m.now().In(m.reportLocation).Format("2006-01-02")
}

package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// HealthPlanQuestion is one entry of the health-plan question log.
type HealthPlanQuestion struct {
	Question string `json:"pergunta"`
	Username string `json:"usuario"`
	Date     string `json:"data"`
}

// HealthPlanLog keeps health-plan questions in a JSON array file so the
// course team can review them.
type HealthPlanLog struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

func NewHealthPlanLog(path string) *HealthPlanLog {
	return &HealthPlanLog{path: path, now: time.Now}
}

// Record appends a question to the log file, creating it when missing.
func (l *HealthPlanLog) Record(question, username string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.read()
	if err != nil {
		return err
	}
	entries = append(entries, HealthPlanQuestion{
		Question: question,
		Username: username,
		Date:     l.now().Format("2006-01-02 15:04:05"),
	})

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode health plan log: %w", err)
	}
	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create health plan log directory: %w", err)
		}
	}
	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write health plan log: %w", err)
	}
	return os.Rename(tmp, l.path)
}

// Entries returns the logged questions in insertion order.
func (l *HealthPlanLog) Entries() ([]HealthPlanQuestion, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.read()
}

func (l *HealthPlanLog) read() ([]HealthPlanQuestion, error) {
	data, err := os.ReadFile(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read health plan log: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var entries []HealthPlanQuestion
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode health plan log: %w", err)
	}
	return entries, nil
}

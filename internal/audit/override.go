package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Pick actions recorded in the audit log
const (
	ActionLock     = "lock"
	ActionOverride = "override"
)

// PickEvent records a manual change to a game's pick
type PickEvent struct {
	Timestamp      time.Time `json:"timestamp"`
	Action         string    `json:"action"`
	GameID         string    `json:"game_id"`
	Matchup        string    `json:"matchup"`
	PreviousPick   string    `json:"previous_pick,omitempty"`
	PreviousStatus string    `json:"previous_status"`
	Pick           string    `json:"pick"`
	PickLine       string    `json:"pick_line,omitempty"`
	Client         string    `json:"client,omitempty"`
}

// Log appends pick events to a JSONL file
type Log struct {
	path string
	mu   sync.Mutex
}

// NewLog returns a log writing to path. The file and its directory are
// created on the first Record.
func NewLog(path string) *Log {
	return &Log{path: path}
}

// Path returns the JSONL file location
func (l *Log) Path() string {
	return l.path
}

// Record appends one event as a JSON line
func (l *Log) Record(event PickEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("create audit directory: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(event)
}

// ReadAll returns every recorded event in order. A missing file is an empty log.
func (l *Log) ReadAll() ([]PickEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return []PickEvent{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	events := []PickEvent{}
	decoder := json.NewDecoder(f)
	for decoder.More() {
		var event PickEvent
		if err := decoder.Decode(&event); err != nil {
			return nil, fmt.Errorf("decode audit event %d: %w", len(events)+1, err)
		}
		events = append(events, event)
	}
	return events, nil
}

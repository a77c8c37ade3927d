package safeguard

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fyrsmithlabs/projectd/internal/detect"
	"github.com/fyrsmithlabs/projectd/internal/validate"
)

// ErrAuditWrite means an audit record could not be persisted. The decision
// it describes must not be acted on.
var ErrAuditWrite = errors.New("failed to write audit event")

// AuditEvent is one immutable record of a resolution decision.
type AuditEvent struct {
	ID         string          `json:"id"`
	Timestamp  time.Time       `json:"timestamp"`
	Operation  string          `json:"operation"`
	Actor      string          `json:"actor,omitempty"`
	Detection  detect.Result   `json:"detection"`
	Validation validate.Result `json:"validation"`
	Decision   Decision        `json:"decision"`
}

// AuditLog is an append-only JSONL log. Each line is one self-contained
// record; a torn final line never invalidates prior lines.
type AuditLog struct {
	path string
	mu   sync.Mutex
}

// NewAuditLog creates the log at path, creating the parent directory if
// needed. If path is empty the default location
// ~/.config/projectd/audit.jsonl is used.
func NewAuditLog(path string) (*AuditLog, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, ".config", "projectd", "audit.jsonl")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}

	return &AuditLog{path: path}, nil
}

// Path returns the audit log location.
func (l *AuditLog) Path() string {
	return l.path
}

// Append writes one event as a single line. The line is written with one
// Write call so concurrent appenders from other processes interleave at
// record granularity, not byte granularity.
func (l *AuditLog) Append(ev *AuditEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuditWrite, err)
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuditWrite, err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("%w: %v", ErrAuditWrite, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("%w: %v", ErrAuditWrite, err)
	}

	return nil
}

// ReadEvents returns up to limit events, newest first. limit <= 0 means
// all. Unparseable lines (including a torn final line from an interrupted
// append) are skipped.
func (l *AuditLog) ReadEvents(limit int) ([]AuditEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	events, err := l.readAll()
	if err != nil {
		return nil, err
	}

	// newest first
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

// Trim rewrites the log keeping only the newest keep events, then appends
// an event recording the trim itself. This is the only operation that ever
// removes audit records.
func (l *AuditLog) Trim(keep int, actor string) error {
	if keep < 0 {
		keep = 0
	}

	l.mu.Lock()

	events, err := l.readAll()
	if err != nil {
		l.mu.Unlock()
		return err
	}

	removed := 0
	if len(events) > keep {
		removed = len(events) - keep
		events = events[removed:]
	}

	if err := l.rewrite(events); err != nil {
		l.mu.Unlock()
		return err
	}
	l.mu.Unlock()

	return l.Append(&AuditEvent{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Operation: "audit.trim",
		Actor:     actor,
		Validation: validate.Result{
			Status:   validate.StatusOK,
			Warnings: []string{fmt.Sprintf("trimmed %d audit event(s), kept %d", removed, len(events))},
		},
		Decision: DecisionAllowed,
	})
}

// readAll parses every well-formed line. Callers hold the mutex.
func (l *AuditLog) readAll() ([]AuditEvent, error) {
	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	var events []AuditEvent
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev AuditEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			// Torn or foreign line; prior records stay valid.
			continue
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read audit log: %w", err)
	}

	return events, nil
}

// rewrite atomically replaces the log with the given events. Callers hold
// the mutex.
func (l *AuditLog) rewrite(events []AuditEvent) error {
	tmp, err := os.CreateTemp(filepath.Dir(l.path), ".audit-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp audit file: %w", err)
	}
	tmpPath := tmp.Name()

	w := bufio.NewWriter(tmp)
	for i := range events {
		data, err := json.Marshal(&events[i])
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("failed to marshal audit event: %w", err)
		}
		data = append(data, '\n')
		if _, err := w.Write(data); err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("failed to write audit log: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to flush audit log: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to chmod audit log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close audit log: %w", err)
	}
	if err := os.Rename(tmpPath, l.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename audit log: %w", err)
	}

	return nil
}

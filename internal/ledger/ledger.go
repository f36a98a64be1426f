package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Statuses written by the processing pipeline. The status vocabulary is open
// ended; these are just the values the system itself produces.
const (
	StatusReceived     = "received/processing"
	StatusSent         = "sent"
	StatusFailedToSend = "failed-to-send"
)

// Record is one tracked application. DateApplied is set once at creation and
// never changes; Details accumulates keys across updates.
type Record struct {
	JobID       string         `json:"job_id"`
	Company     string         `json:"company"`
	Position    string         `json:"position"`
	Status      string         `json:"status"`
	DateApplied time.Time      `json:"date_applied"`
	LastUpdated time.Time      `json:"last_updated"`
	Details     map[string]any `json:"details"`
}

// Ledger owns the durable application store. Every operation is a
// whole-document read-modify-write on a single JSON file, serialized by an
// in-process lock. Concurrent processes remain uncoordinated.
type Ledger struct {
	mu     sync.Mutex
	path   string
	logger *zap.Logger

	now func() time.Time
}

// New creates a ledger backed by the JSON file at path. The file is created
// on the first upsert; a missing file reads as an empty ledger.
func New(path string, logger *zap.Logger) *Ledger {
	return &Ledger{
		path:   path,
		logger: logger,
		now:    time.Now,
	}
}

// Upsert inserts a new record for jobID or merge-updates the existing one.
// On update the status is overwritten, last_updated is stamped and details
// are merged key-wise into the stored mapping; date_applied is left intact.
func (l *Ledger) Upsert(jobID, company, position, status string, details map[string]any) (*Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.load()
	if err != nil {
		return nil, err
	}

	now := l.now()

	for _, record := range records {
		if record.JobID != jobID {
			continue
		}

		record.Status = status
		record.LastUpdated = now
		if record.Details == nil {
			record.Details = make(map[string]any)
		}
		for key, value := range details {
			record.Details[key] = value
		}

		if err := l.save(records); err != nil {
			return nil, err
		}

		l.logger.Info("application updated",
			zap.String("job_id", jobID),
			zap.String("status", status),
		)
		return record, nil
	}

	// Copy so the record never aliases the caller's map.
	stored := make(map[string]any, len(details))
	for key, value := range details {
		stored[key] = value
	}
	record := &Record{
		JobID:       jobID,
		Company:     company,
		Position:    position,
		Status:      status,
		DateApplied: now,
		LastUpdated: now,
		Details:     stored,
	}
	records = append(records, record)

	if err := l.save(records); err != nil {
		return nil, err
	}

	l.logger.Info("application registered",
		zap.String("job_id", jobID),
		zap.String("company", company),
		zap.String("position", position),
		zap.String("status", status),
	)
	return record, nil
}

// List returns every tracked application in insertion order.
func (l *Ledger) List() ([]*Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.load()
}

func (l *Ledger) load() ([]*Record, error) {
	data, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return []*Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading ledger %s: %w", l.path, err)
	}

	var records []*Record
	if err := json.Unmarshal(data, &records); err != nil {
		// A corrupt store is fatal; silently truncating it would lose
		// the application history.
		return nil, fmt.Errorf("parsing ledger %s: %w", l.path, err)
	}

	return records, nil
}

func (l *Ledger) save(records []*Record) error {
	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding ledger: %w", err)
	}

	if err := os.WriteFile(l.path, data, 0o644); err != nil {
		return fmt.Errorf("writing ledger %s: %w", l.path, err)
	}

	return nil
}

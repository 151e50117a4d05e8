package delivery

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FailureSink appends undelivered broadcast payloads to a JSONL file so
// nothing is lost on a send failure (spec §4.9 "append the payload to a
// JSONL sink"). Each write opens the file in append mode under a mutex
// and closes it again, the same append-only-log shape the teacher uses for its rotating audit
// log (gopkg.in/natefinch/lumberjack, pulled in transitively — kept here
// as a plain os.File append since delivery failures are low-volume and
// don't need size-based rotation).
type FailureSink struct {
	mu   sync.Mutex
	path string
}

// NewFailureSink builds a FailureSink writing to path, creating parent
// directories as needed.
func NewFailureSink(path string) (*FailureSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("delivery: creating sink directory: %w", err)
	}
	return &FailureSink{path: path}, nil
}

type sinkRecord struct {
	AssignmentID string    `json:"assignment_id"`
	FailedAt     time.Time `json:"failed_at"`
	Reason       string    `json:"reason"`
	HTML         string    `json:"html"`
}

// Append writes one failed-broadcast record.
func (s *FailureSink) Append(assignmentID, html, reason string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("delivery: opening sink file: %w", err)
	}
	defer f.Close()

	line, err := json.Marshal(sinkRecord{
		AssignmentID: assignmentID,
		FailedAt:     now,
		Reason:       reason,
		HTML:         html,
	})
	if err != nil {
		return fmt.Errorf("delivery: encoding sink record: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("delivery: writing sink record: %w", err)
	}
	return nil
}

package models

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Run represents one execution of the sync, scheduled or manually triggered.
type Run struct {
	ID         string     `json:"id"`
	Trigger    string     `json:"trigger"` // "scheduled", "manual", "once"
	Status     string     `json:"status"`  // "running", "completed", "failed"
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Error      string     `json:"error,omitempty"`
	Stats      *SyncStats `json:"stats,omitempty"`
	Output     []string   `json:"output"`
	mu         sync.Mutex
}

// AppendLog adds a log line to the run output.
func (r *Run) AppendLog(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Output = append(r.Output, line)
}

// LogsSince returns log lines starting from the given index.
func (r *Run) LogsSince(offset int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if offset >= len(r.Output) {
		return nil
	}
	lines := make([]string, len(r.Output)-offset)
	copy(lines, r.Output[offset:])
	return lines
}

// Complete marks the run as completed and attaches its final statistics.
func (r *Run) Complete(stats *SyncStats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Status = "completed"
	r.Stats = stats
	now := time.Now()
	r.FinishedAt = &now
}

// Fail marks the run as failed with an error message.
func (r *Run) Fail(err string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Status = "failed"
	r.Error = err
	now := time.Now()
	r.FinishedAt = &now
}

// RunStore is an in-memory thread-safe store of past and current runs.
type RunStore struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

// NewRunStore creates an empty run store.
func NewRunStore() *RunStore {
	return &RunStore{runs: make(map[string]*Run)}
}

// Create adds a new running run, assigning it a UUID.
func (s *RunStore) Create(trigger string) *Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := &Run{
		ID:        uuid.New().String(),
		Trigger:   trigger,
		Status:    "running",
		StartedAt: time.Now(),
		Output:    []string{},
	}
	s.runs[r.ID] = r
	return r
}

// Get returns a run by ID, or nil if not found.
func (s *RunStore) Get(id string) *Run {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runs[id]
}

// List returns all runs, most recent first.
func (s *RunStore) List() []*Run {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*Run, 0, len(s.runs))
	for _, r := range s.runs {
		result = append(result, r)
	}
	for i := 0; i < len(result); i++ {
		for j := i + 1; j < len(result); j++ {
			if result[j].StartedAt.After(result[i].StartedAt) {
				result[i], result[j] = result[j], result[i]
			}
		}
	}
	return result
}

package models

import "time"

// SyncStats accumulates per-run counters. It is created when a run starts,
// mutated once per device outcome by the sync driver, and read once at run
// end for the summary report. Nothing carries over between runs.
type SyncStats struct {
	Total     int            `json:"total"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Created   int            `json:"created"`
	Updated   int            `json:"updated"`
	Calls     map[string]int `json:"calls"` // destination calls by operation
	StartedAt time.Time      `json:"started_at"`
	Elapsed   time.Duration  `json:"elapsed_ns"`
}

// NewSyncStats returns zeroed statistics stamped with the current time.
func NewSyncStats() *SyncStats {
	return &SyncStats{
		Calls:     make(map[string]int),
		StartedAt: time.Now(),
	}
}

// RecordCall counts one destination API call for the given operation.
func (s *SyncStats) RecordCall(op string) {
	s.Calls[op]++
}

// Finish stamps the elapsed duration.
func (s *SyncStats) Finish() {
	s.Elapsed = time.Since(s.StartedAt)
}

// Package fzd holds the remote calculator daemon internals: a case store,
// an executor that spawns launchers in staged case directories, and the HTTP
// handlers the remote adapter talks to.
package fzd

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Daemon-side case statuses, as reported on the wire
const (
	CaseQueued  = "queued"
	CaseRunning = "running"
	CaseDone    = "done"
	CaseFailed  = "failed"
)

// CaseRecord is one staged case on the daemon
type CaseRecord struct {
	ID              string
	Name            string
	Model           string
	Command         string
	Dir             string
	Status          string
	ExitCode        int
	Reason          string
	CreatedAtUnixMs int64
	StartedAtUnixMs int64
	EndedAtUnixMs   int64
}

// CaseStore is the daemon's in-memory case registry
type CaseStore struct {
	mu    sync.RWMutex
	cases map[string]*CaseRecord
}

func NewCaseStore() *CaseStore {
	return &CaseStore{
		cases: make(map[string]*CaseRecord),
	}
}

func nowUnixMs() int64 {
	return time.Now().UTC().UnixMilli()
}

func (s *CaseStore) Create(id, name, model, command, dir string) (*CaseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.cases[id]; exists {
		return nil, fmt.Errorf("case already exists: %s", id)
	}
	rec := &CaseRecord{
		ID:              id,
		Name:            name,
		Model:           model,
		Command:         command,
		Dir:             dir,
		Status:          CaseQueued,
		CreatedAtUnixMs: nowUnixMs(),
	}
	s.cases[id] = rec
	return rec, nil
}

func (s *CaseStore) Get(id string) (*CaseRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.cases[id]
	return rec, ok
}

// Snapshot returns a copy of the record for handler responses
func (s *CaseStore) Snapshot(id string) (CaseRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.cases[id]
	if !ok {
		return CaseRecord{}, false
	}
	return *rec, true
}

func (s *CaseStore) SetStatus(id, status string, exitCode int, reason string) (*CaseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.cases[id]
	if !ok {
		return nil, fmt.Errorf("case not found: %s", id)
	}

	rec.Status = status
	rec.ExitCode = exitCode
	if reason != "" {
		rec.Reason = reason
	}

	switch status {
	case CaseRunning:
		if rec.StartedAtUnixMs == 0 {
			rec.StartedAtUnixMs = nowUnixMs()
		}
	case CaseDone, CaseFailed:
		rec.EndedAtUnixMs = nowUnixMs()
	}

	return rec, nil
}

// List returns snapshots of the most recently created cases, newest first.
func (s *CaseStore) List(limit int) []CaseRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	out := make([]CaseRecord, 0, len(s.cases))
	for _, rec := range s.cases {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAtUnixMs != out[j].CreatedAtUnixMs {
			return out[i].CreatedAtUnixMs > out[j].CreatedAtUnixMs
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

package api

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"optbt/sim"
)

// RunRecord is one completed simulation kept for later retrieval.
type RunRecord struct {
	ID        string                `json:"id"`
	CreatedAt time.Time             `json:"created_at"`
	Strategy  string                `json:"strategy"`
	Selector  string                `json:"selector"`
	Summary   sim.Summary           `json:"summary"`
	Result    *sim.SimulationResult `json:"-"`
}

// RunStore keeps finished runs in memory, keyed by a generated id.
type RunStore struct {
	mu   sync.RWMutex
	runs map[string]*RunRecord
}

// NewRunStore creates an empty store.
func NewRunStore() *RunStore {
	return &RunStore{runs: make(map[string]*RunRecord)}
}

// Add stores a run and returns its generated id.
func (s *RunStore) Add(strategy, selector string, result *sim.SimulationResult) *RunRecord {
	rec := &RunRecord{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		Strategy:  strategy,
		Selector:  selector,
		Summary:   result.Summary,
		Result:    result,
	}

	s.mu.Lock()
	s.runs[rec.ID] = rec
	s.mu.Unlock()
	return rec
}

// Get returns a run by id, or nil.
func (s *RunStore) Get(id string) *RunRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runs[id]
}

// List returns all runs, newest first.
func (s *RunStore) List() []*RunRecord {
	s.mu.RLock()
	out := make([]*RunRecord, 0, len(s.runs))
	for _, r := range s.runs {
		out = append(out, r)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Count returns the number of stored runs.
func (s *RunStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}

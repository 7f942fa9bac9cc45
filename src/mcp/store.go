package mcp

import (
	"sync"

	"angles-reporter/src/contracts"
)

// SavedExecution pairs a service acknowledgement with the tree that was sent.
type SavedExecution struct {
	Ack       contracts.ExecutionAck `json:"ack"`
	Execution *contracts.Execution   `json:"execution"`
}

// ExecutionStore keeps executions saved through the server so a client can
// read them back without querying the reporting service.
type ExecutionStore interface {
	// Store records a saved execution under its ack ID.
	Store(saved SavedExecution)
	// Get retrieves a saved execution by ack ID.
	Get(id string) (SavedExecution, bool)
	// ByBuild lists saved executions for a build in save order.
	ByBuild(buildID string) []SavedExecution
}

// InMemoryStore is a thread-safe in-memory implementation of ExecutionStore.
type InMemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]SavedExecution
	byBuild map[string][]string // build_id -> ack ids
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:    make(map[string]SavedExecution),
		byBuild: make(map[string][]string),
	}
}

// Store saves a copy of the execution. Storing an ID twice replaces the record
// without listing it twice for its build.
func (s *InMemoryStore) Store(saved SavedExecution) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if saved.Execution != nil {
		saved.Execution = saved.Execution.Clone()
	}
	if _, exists := s.byID[saved.Ack.ID]; !exists {
		s.byBuild[saved.Ack.BuildID] = append(s.byBuild[saved.Ack.BuildID], saved.Ack.ID)
	}
	s.byID[saved.Ack.ID] = saved
}

// Get returns a copy of the saved execution.
func (s *InMemoryStore) Get(id string) (SavedExecution, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	saved, ok := s.byID[id]
	if ok && saved.Execution != nil {
		saved.Execution = saved.Execution.Clone()
	}
	return saved, ok
}

// ByBuild returns copies of every execution saved for buildID.
func (s *InMemoryStore) ByBuild(buildID string) []SavedExecution {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byBuild[buildID]
	out := make([]SavedExecution, 0, len(ids))
	for _, id := range ids {
		saved := s.byID[id]
		if saved.Execution != nil {
			saved.Execution = saved.Execution.Clone()
		}
		out = append(out, saved)
	}
	return out
}

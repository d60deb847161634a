// Package memory provides in-memory implementations of the engine's
// persistence ports. Suitable for tests and single-run CLI sessions.
package memory

import (
	"context"
	"sync"

	"github.com/skillgate/skillgate/pkg/domain"
)

// AuditStore implements ports.AuditStore in memory.
// Safe for concurrent use; reads return snapshots.
type AuditStore struct {
	mu      sync.RWMutex
	entries []domain.AuditEntry
}

// NewAuditStore creates an empty in-memory audit store.
func NewAuditStore() *AuditStore {
	return &AuditStore{}
}

// Append stores one terminal entry. Each append is atomic.
func (s *AuditStore) Append(ctx context.Context, entry domain.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

// List returns entries in append order, optionally filtered by skill id.
func (s *AuditStore) List(ctx context.Context, skillID string) ([]domain.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.AuditEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if skillID == "" || e.SkillID == skillID {
			out = append(out, e)
		}
	}
	return out, nil
}

// WorkflowStore implements ports.WorkflowStore in memory.
type WorkflowStore struct {
	mu    sync.RWMutex
	data  map[string]domain.Workflow
	order []string
}

// NewWorkflowStore creates an empty in-memory workflow store.
func NewWorkflowStore() *WorkflowStore {
	return &WorkflowStore{data: make(map[string]domain.Workflow)}
}

// Save persists the workflow, replacing any existing one with the same id.
func (s *WorkflowStore) Save(ctx context.Context, wf domain.Workflow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[wf.ID]; !exists {
		s.order = append(s.order, wf.ID)
	}
	s.data[wf.ID] = wf
	return nil
}

// Load retrieves a workflow by id.
func (s *WorkflowStore) Load(ctx context.Context, id string) (domain.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wf, ok := s.data[id]
	if !ok {
		return domain.Workflow{}, domain.ErrWorkflowNotFound
	}
	return wf, nil
}

// Delete removes a workflow by id.
func (s *WorkflowStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// List returns stored workflow ids in insertion order.
func (s *WorkflowStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out, nil
}

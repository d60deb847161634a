// Package file provides filesystem implementations of the engine's
// persistence ports: workflows as JSON documents, the audit trail as an
// append-only JSON Lines file.
package file

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/skillgate/skillgate/pkg/domain"
)

// WorkflowStore implements ports.WorkflowStore with one JSON file per
// workflow under a base directory.
type WorkflowStore struct {
	BasePath string
}

// NewWorkflowStore creates a WorkflowStore rooted at basePath.
// If basePath is empty, it defaults to ".skillgate/workflows".
func NewWorkflowStore(basePath string) *WorkflowStore {
	if basePath == "" {
		basePath = filepath.Join(".skillgate", "workflows")
	}
	return &WorkflowStore{BasePath: basePath}
}

func (s *WorkflowStore) path(id string) string {
	return filepath.Join(s.BasePath, id+".json")
}

// Save persists the workflow as a JSON document.
func (s *WorkflowStore) Save(ctx context.Context, wf domain.Workflow) error {
	if wf.ID == "" {
		return fmt.Errorf("workflow id cannot be empty")
	}

	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure workflow directory: %w", err)
	}

	data, err := json.MarshalIndent(wf, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal workflow: %w", err)
	}

	if err := os.WriteFile(s.path(wf.ID), data, 0644); err != nil {
		return fmt.Errorf("failed to write workflow file: %w", err)
	}
	return nil
}

// Load retrieves a workflow document by id.
func (s *WorkflowStore) Load(ctx context.Context, id string) (domain.Workflow, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Workflow{}, domain.ErrWorkflowNotFound
		}
		return domain.Workflow{}, fmt.Errorf("failed to read workflow file: %w", err)
	}

	var wf domain.Workflow
	if err := json.Unmarshal(data, &wf); err != nil {
		return domain.Workflow{}, fmt.Errorf("failed to unmarshal workflow: %w", err)
	}
	return wf, nil
}

// Delete removes the workflow file.
func (s *WorkflowStore) Delete(ctx context.Context, id string) error {
	if err := os.Remove(s.path(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete workflow file: %w", err)
	}
	return nil
}

// List returns the ids of stored workflows, sorted for determinism.
func (s *WorkflowStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}

// AuditStore implements ports.AuditStore as an append-only JSON Lines file.
// Appends are serialized by a mutex; List re-reads the file, so results are
// a snapshot.
type AuditStore struct {
	Path string
	mu   sync.Mutex
}

// NewAuditStore creates an AuditStore writing to path.
// If path is empty, it defaults to ".skillgate/audit.jsonl".
func NewAuditStore(path string) *AuditStore {
	if path == "" {
		path = filepath.Join(".skillgate", "audit.jsonl")
	}
	return &AuditStore{Path: path}
}

// Append writes one terminal entry as a single JSON line.
func (s *AuditStore) Append(ctx context.Context, entry domain.AuditEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.Path), 0755); err != nil {
		return fmt.Errorf("failed to ensure audit directory: %w", err)
	}

	f, err := os.OpenFile(s.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// List returns entries in append order, optionally filtered by skill id.
func (s *AuditStore) List(ctx context.Context, skillID string) ([]domain.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	var entries []domain.AuditEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry domain.AuditEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, fmt.Errorf("corrupt audit entry: %w", err)
		}
		if skillID == "" || entry.SkillID == skillID {
			entries = append(entries, entry)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read audit log: %w", err)
	}
	return entries, nil
}

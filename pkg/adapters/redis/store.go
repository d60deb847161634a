// Package redis provides Redis-backed implementations of the engine's
// persistence ports, for deployments where the audit trail and workflow
// documents must survive process restarts.
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/skillgate/skillgate/pkg/domain"

	backend "github.com/redis/go-redis/v9"
)

const defaultPrefix = "skillgate:"

// NewClient creates a plain redis client from connection settings.
func NewClient(address, password string, db int) *backend.Client {
	return backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
}

// AuditStore implements ports.AuditStore using Redis.
//
// Entries live in an append-only LIST (RPUSH preserves append order and is
// atomic per entry); a per-skill LIST acts as the filter index.
type AuditStore struct {
	client *backend.Client
	prefix string
}

// AuditOption configures the audit store.
type AuditOption func(*AuditStore)

// WithAuditPrefix sets the key prefix (default "skillgate:").
func WithAuditPrefix(prefix string) AuditOption {
	return func(s *AuditStore) { s.prefix = prefix }
}

// NewAuditStore creates a Redis audit store from an existing client.
func NewAuditStore(client *backend.Client, opts ...AuditOption) *AuditStore {
	s := &AuditStore{client: client, prefix: defaultPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AuditStore) key() string               { return s.prefix + "audit" }
func (s *AuditStore) skillKey(id string) string { return s.prefix + "audit:skill:" + id }

// Append stores one terminal audit entry.
func (s *AuditStore) Append(ctx context.Context, entry domain.AuditEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, s.key(), data)
	pipe.RPush(ctx, s.skillKey(entry.SkillID), data)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// List returns audit entries in append order, optionally filtered by skill.
func (s *AuditStore) List(ctx context.Context, skillID string) ([]domain.AuditEntry, error) {
	key := s.key()
	if skillID != "" {
		key = s.skillKey(skillID)
	}

	raw, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read audit log: %w", err)
	}

	entries := make([]domain.AuditEntry, 0, len(raw))
	for _, item := range raw {
		var entry domain.AuditEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal audit entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// WorkflowStore implements ports.WorkflowStore using Redis. Workflows are
// JSON values under a key prefix with a SET index.
type WorkflowStore struct {
	client *backend.Client
	prefix string
}

// WorkflowOption configures the workflow store.
type WorkflowOption func(*WorkflowStore)

// WithWorkflowPrefix sets the key prefix (default "skillgate:").
func WithWorkflowPrefix(prefix string) WorkflowOption {
	return func(s *WorkflowStore) { s.prefix = prefix }
}

// NewWorkflowStore creates a Redis workflow store from an existing client.
func NewWorkflowStore(client *backend.Client, opts ...WorkflowOption) *WorkflowStore {
	s := &WorkflowStore{client: client, prefix: defaultPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *WorkflowStore) key(id string) string { return s.prefix + "workflow:" + id }
func (s *WorkflowStore) indexKey() string     { return s.prefix + "workflows" }

// Save persists a workflow document.
func (s *WorkflowStore) Save(ctx context.Context, wf domain.Workflow) error {
	data, err := json.Marshal(wf)
	if err != nil {
		return fmt.Errorf("failed to marshal workflow: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(wf.ID), data, 0)
	pipe.SAdd(ctx, s.indexKey(), wf.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save workflow: %w", err)
	}
	return nil
}

// Load retrieves a workflow by id.
func (s *WorkflowStore) Load(ctx context.Context, id string) (domain.Workflow, error) {
	val, err := s.client.Get(ctx, s.key(id)).Result()
	if err != nil {
		if err == backend.Nil {
			return domain.Workflow{}, domain.ErrWorkflowNotFound
		}
		return domain.Workflow{}, fmt.Errorf("failed to load workflow: %w", err)
	}

	var wf domain.Workflow
	if err := json.Unmarshal([]byte(val), &wf); err != nil {
		return domain.Workflow{}, fmt.Errorf("failed to unmarshal workflow: %w", err)
	}
	return wf, nil
}

// Delete removes a workflow by id.
func (s *WorkflowStore) Delete(ctx context.Context, id string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(id))
	pipe.SRem(ctx, s.indexKey(), id)
	_, err := pipe.Exec(ctx)
	return err
}

// List returns stored workflow ids.
func (s *WorkflowStore) List(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}
	return ids, nil
}

package registry

import (
	"fmt"
	"sync"

	"github.com/skillgate/skillgate/pkg/domain"
	"github.com/skillgate/skillgate/pkg/schema"
)

// Registry manages the available skill definitions. It is the single owner
// of skill state: definitions are stored on Register, replaced as a whole on
// re-registration of the same id, and removed on Unregister. Safe for
// concurrent use.
type Registry struct {
	mu     sync.RWMutex
	skills map[string]domain.SkillDefinition
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		skills: make(map[string]domain.SkillDefinition),
	}
}

// Register validates and stores a skill definition.
//
// The signature must pass schema.CheckSignature, and the id must not already
// be registered. Skills in the reserved sensitive set are stored with
// IsSensitive forced to true, so a caller cannot strip the approval
// requirement from the built-ins at registration time.
func (r *Registry) Register(def domain.SkillDefinition) error {
	if err := schema.CheckSignature(def); err != nil {
		return err
	}

	def.IsSensitive = IsSensitive(def)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.skills[def.ID]; exists {
		return &domain.SignatureError{
			SkillID: def.ID,
			Field:   "id",
			Reason:  "already registered",
		}
	}

	r.skills[def.ID] = def
	return nil
}

// Replace stores a definition over an existing one with the same id.
// Used by editors; audit entries created under the old definition keep
// the parameters they were recorded with.
func (r *Registry) Replace(def domain.SkillDefinition) error {
	if err := schema.CheckSignature(def); err != nil {
		return err
	}

	def.IsSensitive = IsSensitive(def)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.skills[def.ID]; !exists {
		return fmt.Errorf("replace %s: %w", def.ID, domain.ErrSkillNotFound)
	}

	r.skills[def.ID] = def
	return nil
}

// Unregister removes a definition. Removing an unknown id is a no-op:
// unregistration is idempotent.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.skills, id)
}

// Lookup returns the definition for the given id.
func (r *Registry) Lookup(id string) (domain.SkillDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.skills[id]
	if !ok {
		return domain.SkillDefinition{}, fmt.Errorf("lookup %s: %w", id, domain.ErrSkillNotFound)
	}
	return def, nil
}

// List returns all registered definitions. The slice is a snapshot.
func (r *Registry) List() []domain.SkillDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]domain.SkillDefinition, 0, len(r.skills))
	for _, def := range r.skills {
		defs = append(defs, def)
	}
	return defs
}

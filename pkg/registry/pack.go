package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/skillgate/skillgate/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Pack represents the structure of a skills.yaml / skills.json file.
type Pack struct {
	Skills []domain.SkillDefinition `yaml:"skills" json:"skills"`
}

// LoadPack reads a skill pack file (YAML or JSON) and returns its
// definitions. A missing file is treated as "no skills configured".
func LoadPack(path string) ([]domain.SkillDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read skill pack: %w", err)
	}

	var pack Pack
	ext := strings.ToLower(filepath.Ext(path))

	if ext == ".json" {
		if err := json.Unmarshal(data, &pack); err != nil {
			return nil, fmt.Errorf("failed to parse skill pack %s: %w", path, err)
		}
	} else {
		// Default to YAML
		if err := yaml.Unmarshal(data, &pack); err != nil {
			return nil, fmt.Errorf("failed to parse skill pack %s: %w", path, err)
		}
	}

	return pack.Skills, nil
}

// RegisterPack loads a pack file and registers every definition.
// Registration stops at the first invalid signature so a bad pack does not
// half-load silently.
func (r *Registry) RegisterPack(path string) error {
	defs, err := LoadPack(path)
	if err != nil {
		return err
	}
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			return fmt.Errorf("skill pack %s: %w", path, err)
		}
	}
	return nil
}

package domain

// ParamType is the closed set of types a skill parameter may declare.
type ParamType string

const (
	ParamString  ParamType = "string"
	ParamNumber  ParamType = "number"
	ParamBoolean ParamType = "boolean"
	ParamPath    ParamType = "path"

	// ParamAny is only valid as a declared workflow input/output type.
	// It is not accepted in a parameter signature.
	ParamAny ParamType = "any"
)

// SkillParameter describes one typed parameter in a skill signature.
type SkillParameter struct {
	Name     string    `json:"name" yaml:"name" mapstructure:"name"`
	Type     ParamType `json:"type" yaml:"type" mapstructure:"type"`
	Required bool      `json:"required,omitempty" yaml:"required,omitempty" mapstructure:"required"`
}

// SkillDefinition describes a registered skill: its identity, parameter
// signature and sensitivity. Owned exclusively by the Registry; replaced
// as a whole on edit, never mutated in place.
type SkillDefinition struct {
	ID          string           `json:"id" yaml:"id" mapstructure:"id"`
	Name        string           `json:"name" yaml:"name" mapstructure:"name"`
	Description string           `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	Category    string           `json:"category,omitempty" yaml:"category,omitempty" mapstructure:"category"`
	Parameters  []SkillParameter `json:"parameters,omitempty" yaml:"parameters,omitempty" mapstructure:"parameters"`

	// IsSensitive marks a skill as requiring human approval before it runs.
	// The reserved built-ins are sensitive regardless of this flag.
	IsSensitive bool `json:"is_sensitive,omitempty" yaml:"is_sensitive,omitempty" mapstructure:"is_sensitive"`

	// Output declares the result type this skill produces, used for
	// workflow edge compatibility checks. Empty means "any".
	Output ParamType `json:"output,omitempty" yaml:"output,omitempty" mapstructure:"output"`
}

// OutputType resolves the declared output type, defaulting to "any".
func (d SkillDefinition) OutputType() ParamType {
	if d.Output == "" {
		return ParamAny
	}
	return d.Output
}

// Parameter returns the named parameter from the signature, if present.
func (d SkillDefinition) Parameter(name string) (SkillParameter, bool) {
	for _, p := range d.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return SkillParameter{}, false
}

// Built-in skill identifiers. These four are implemented by the action
// executor; the first three form the reserved sensitive set.
const (
	SkillRunTerminalCommand = "run_terminal_command"
	SkillWriteFile          = "write_file"
	SkillDeleteFile         = "delete_file"
	SkillReadFile           = "read_file"
)

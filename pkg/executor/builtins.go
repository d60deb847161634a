package executor

import "github.com/skillgate/skillgate/pkg/domain"

// Builtins returns the definitions of the four built-in skills, for seeding
// a registry. The registry re-derives sensitivity, so the flags here are
// informational.
func Builtins() []domain.SkillDefinition {
	return []domain.SkillDefinition{
		{
			ID:          domain.SkillRunTerminalCommand,
			Name:        "Run Terminal Command",
			Description: "Run a shell command and capture its output.",
			Category:    "system",
			Parameters: []domain.SkillParameter{
				{Name: "command", Type: domain.ParamString, Required: true},
				{Name: "working_dir", Type: domain.ParamPath},
			},
			IsSensitive: true,
			Output:      domain.ParamAny,
		},
		{
			ID:          domain.SkillReadFile,
			Name:        "Read File",
			Description: "Read a file from the local filesystem.",
			Category:    "filesystem",
			Parameters: []domain.SkillParameter{
				{Name: "path", Type: domain.ParamPath, Required: true},
			},
			Output: domain.ParamString,
		},
		{
			ID:          domain.SkillWriteFile,
			Name:        "Write File",
			Description: "Write content to a file on the local filesystem.",
			Category:    "filesystem",
			Parameters: []domain.SkillParameter{
				{Name: "path", Type: domain.ParamPath, Required: true},
				{Name: "content", Type: domain.ParamString, Required: true},
			},
			IsSensitive: true,
			Output:      domain.ParamString,
		},
		{
			ID:          domain.SkillDeleteFile,
			Name:        "Delete File",
			Description: "Delete a file from the local filesystem.",
			Category:    "filesystem",
			Parameters: []domain.SkillParameter{
				{Name: "path", Type: domain.ParamPath, Required: true},
			},
			IsSensitive: true,
			Output:      domain.ParamString,
		},
	}
}

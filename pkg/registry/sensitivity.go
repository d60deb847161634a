package registry

import "github.com/skillgate/skillgate/pkg/domain"

// reservedSensitive is the fixed set of skill ids that always require
// approval, regardless of registration flags.
var reservedSensitive = map[string]struct{}{
	domain.SkillRunTerminalCommand: {},
	domain.SkillWriteFile:          {},
	domain.SkillDeleteFile:         {},
}

// IsSensitive is the sensitivity classifier: pure function of the
// definition. A skill is sensitive if its id is in the reserved set or it
// was explicitly flagged at registration.
func IsSensitive(def domain.SkillDefinition) bool {
	if _, reserved := reservedSensitive[def.ID]; reserved {
		return true
	}
	return def.IsSensitive
}

// IsReserved reports whether the id belongs to the reserved sensitive set.
func IsReserved(id string) bool {
	_, ok := reservedSensitive[id]
	return ok
}

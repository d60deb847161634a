package schema

import (
	"encoding/json"
	"fmt"

	"github.com/skillgate/skillgate/pkg/domain"
)

// paramTypes is the closed set accepted in skill signatures.
var paramTypes = map[domain.ParamType]struct{}{
	domain.ParamString:  {},
	domain.ParamNumber:  {},
	domain.ParamBoolean: {},
	domain.ParamPath:    {},
}

// KnownType reports whether t is a valid signature parameter type.
// domain.ParamAny is deliberately excluded: it exists only for workflow
// IO compatibility, not for parameter declarations.
func KnownType(t domain.ParamType) bool {
	_, ok := paramTypes[t]
	return ok
}

// ParseType converts a type name string to a ParamType.
func ParseType(s string) (domain.ParamType, error) {
	t := domain.ParamType(s)
	if !KnownType(t) {
		return "", fmt.Errorf("unsupported type: %s", s)
	}
	return t, nil
}

// CheckValue validates a single value against a declared type.
// Numeric checks accept the types JSON unmarshaling produces (float64,
// json.Number) alongside native Go integers and floats.
func CheckValue(t domain.ParamType, value any) error {
	switch t {
	case domain.ParamString, domain.ParamPath:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected %s, got %T", t, value)
		}
		if t == domain.ParamPath && s == "" {
			return fmt.Errorf("expected non-empty path")
		}
		return nil

	case domain.ParamNumber:
		switch v := value.(type) {
		case int, int8, int16, int32, int64, float32, float64:
			return nil
		case json.Number:
			if _, err := v.Float64(); err != nil {
				return fmt.Errorf("expected number, got %q", v.String())
			}
			return nil
		default:
			return fmt.Errorf("expected number, got %T", value)
		}

	case domain.ParamBoolean:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("expected boolean, got %T", value)
		}
		return nil

	case domain.ParamAny:
		return nil

	default:
		return fmt.Errorf("unsupported type: %s", t)
	}
}

// Compatible reports whether a value of type src may flow into a slot of
// type dst. Exact match, or an "any"-typed endpoint on either side.
func Compatible(src, dst domain.ParamType) bool {
	if src == domain.ParamAny || dst == domain.ParamAny {
		return true
	}
	return src == dst
}

package schema

import (
	"strconv"

	"github.com/skillgate/skillgate/pkg/domain"
)

// CheckSignature validates a skill definition's parameter signature at
// registration time. All failures are reported, each with a field reference;
// the returned error matches domain.ErrSignatureInvalid.
func CheckSignature(def domain.SkillDefinition) error {
	var errs []error

	if def.ID == "" {
		errs = append(errs, &domain.SignatureError{
			SkillID: def.ID, Field: "id", Reason: "required",
		})
	}
	if def.Name == "" {
		errs = append(errs, &domain.SignatureError{
			SkillID: def.ID, Field: "name", Reason: "required",
		})
	}

	seen := make(map[string]struct{}, len(def.Parameters))
	for i, p := range def.Parameters {
		if p.Name == "" {
			errs = append(errs, &domain.SignatureError{
				SkillID: def.ID,
				Field:   paramField(i, p.Name),
				Reason:  "parameter name required",
			})
		} else if _, dup := seen[p.Name]; dup {
			errs = append(errs, &domain.SignatureError{
				SkillID: def.ID,
				Field:   paramField(i, p.Name),
				Reason:  "duplicate parameter name",
			})
		} else {
			seen[p.Name] = struct{}{}
		}

		if !KnownType(p.Type) {
			errs = append(errs, &domain.SignatureError{
				SkillID: def.ID,
				Field:   paramField(i, p.Name),
				Reason:  "unknown parameter type " + string(p.Type),
			})
		}
	}

	if def.Output != "" && !KnownType(def.Output) && def.Output != domain.ParamAny {
		errs = append(errs, &domain.SignatureError{
			SkillID: def.ID, Field: "output", Reason: "unknown output type " + string(def.Output),
		})
	}

	if len(errs) == 1 {
		return errs[0]
	}
	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

func paramField(i int, name string) string {
	if name == "" {
		return "parameters[" + strconv.Itoa(i) + "]"
	}
	return "parameters." + name
}

// Validate checks a call's parameter map against a signature. Required
// parameters must be present and every provided value must match its
// declared type; unknown parameters are rejected so typos fail loudly.
// The returned error matches domain.ErrParameterInvalid.
func Validate(def domain.SkillDefinition, params map[string]any) error {
	var errs []error

	for _, p := range def.Parameters {
		value, exists := params[p.Name]
		if !exists {
			if p.Required {
				errs = append(errs, &domain.ParameterError{
					SkillID: def.ID, Param: p.Name, Reason: "required",
				})
			}
			continue
		}
		if err := CheckValue(p.Type, value); err != nil {
			errs = append(errs, &domain.ParameterError{
				SkillID: def.ID, Param: p.Name, Reason: err.Error(),
			})
		}
	}

	for name := range params {
		if _, ok := def.Parameter(name); !ok {
			errs = append(errs, &domain.ParameterError{
				SkillID: def.ID, Param: name, Reason: "not declared in signature",
			})
		}
	}

	if len(errs) == 1 {
		return errs[0]
	}
	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

package middleware

import (
	"context"
	"regexp"

	"github.com/skillgate/skillgate/pkg/domain"
	"github.com/skillgate/skillgate/pkg/ports"
)

type redactionMiddleware struct {
	next     ports.AuditStore
	patterns []*regexp.Regexp
}

// NewRedactionMiddleware creates a middleware that masks parameter values
// whose keys match any of the patterns before the entry reaches the store.
// Masking happens at write time, so the stored trail never contains the
// original values.
func NewRedactionMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.AuditStore) ports.AuditStore {
		return &redactionMiddleware{next: next, patterns: patterns}
	}
}

func (m *redactionMiddleware) Append(ctx context.Context, entry domain.AuditEntry) error {
	// Deep clone first: the caller's map is also the pipeline's in-memory
	// view of the execution and must not be rewritten.
	entry.Parameters = deepCopyMap(entry.Parameters)
	maskMap(entry.Parameters, m.patterns)
	return m.next.Append(ctx, entry)
}

func (m *redactionMiddleware) List(ctx context.Context, skillID string) ([]domain.AuditEntry, error) {
	return m.next.List(ctx, skillID)
}

// Helpers

func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if subMap, ok := v.(map[string]any); ok {
			out[k] = deepCopyMap(subMap)
		} else {
			out[k] = v // shallow copy of value
		}
	}
	return out
}

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		for _, p := range patterns {
			if p.MatchString(k) {
				m[k] = "***"
				break
			}
		}

		if subMap, ok := v.(map[string]any); ok {
			maskMap(subMap, patterns)
		}
	}
}

package workflow

import (
	"fmt"
	"strings"

	"github.com/skillgate/skillgate/pkg/domain"
)

// EvalCondition evaluates an edge condition as a boolean predicate over the
// source node's result.
//
// Grammar (deliberately small, matching what the graph editor emits):
//
//	""                      always true
//	"result"                result is truthy
//	"!result"               result is falsy
//	"result == <literal>"   string comparison against the rendered result
//	"result != <literal>"   negated comparison
//	"exit_code == <n>"      terminal command exit code comparison
//	"exit_code != <n>"
//
// Literals may be quoted with single or double quotes.
func EvalCondition(cond string, result any) bool {
	cond = strings.TrimSpace(cond)
	if cond == "" {
		return true
	}

	if lhs, rhs, negate, ok := splitComparison(cond); ok {
		return compare(lhs, rhs, result) != negate
	}

	if rest, ok := strings.CutPrefix(cond, "!"); ok {
		return !EvalCondition(rest, result)
	}

	if cond == "result" {
		return truthy(result)
	}

	// Unknown conditions fail closed: a gate nobody can read should not
	// release a side effect.
	return false
}

func splitComparison(cond string) (lhs, rhs string, negate, ok bool) {
	if l, r, found := strings.Cut(cond, "!="); found {
		return strings.TrimSpace(l), trimLiteral(r), true, true
	}
	if l, r, found := strings.Cut(cond, "=="); found {
		return strings.TrimSpace(l), trimLiteral(r), false, true
	}
	return "", "", false, false
}

func trimLiteral(s string) string {
	s = strings.TrimSpace(s)
	return strings.Trim(s, "'\"")
}

func compare(lhs, rhs string, result any) bool {
	switch lhs {
	case "result":
		return renderResult(result) == rhs
	case "exit_code":
		if out, ok := result.(domain.TerminalOutput); ok {
			return fmt.Sprintf("%d", out.ExitCode) == rhs
		}
		return false
	default:
		return false
	}
}

func renderResult(result any) string {
	switch v := result.(type) {
	case nil:
		return ""
	case string:
		return v
	case domain.TerminalOutput:
		return strings.TrimSpace(v.Stdout)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func truthy(result any) bool {
	switch v := result.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != "" && !strings.EqualFold(v, "false")
	case int:
		return v != 0
	case float64:
		return v != 0
	case domain.TerminalOutput:
		return v.ExitCode == 0
	default:
		return true
	}
}

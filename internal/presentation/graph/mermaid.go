// Package graph renders workflow documents as Mermaid flowcharts for
// terminal output and documentation.
package graph

import (
	"fmt"
	"strings"

	"github.com/skillgate/skillgate/pkg/domain"
)

// RunOverlay contains the outcome of a workflow run to visualize on the graph.
type RunOverlay struct {
	ExecutedNodes []string
	SkippedNodes  []string
	FailedNode    string
}

// RenderOptions controls styling of the generated chart.
type RenderOptions struct {
	// SensitiveSkills marks skill ids whose nodes render as subroutine
	// shapes, flagging the approval gate.
	SensitiveSkills map[string]bool

	// Overlay applies run-outcome styles (executed/skipped/failed).
	Overlay *RunOverlay
}

// GenerateMermaid produces a Mermaid flowchart syntax string from a workflow.
// It applies semantic styling:
// - Entry nodes (no incoming edge): ((Circle))
// - Sensitive-skill nodes: [[Subroutine]]
// - Default: [Rectangle]
// Data-binding edges are labeled with the target parameter, conditional
// edges with the condition; ordering-only edges render dotted.
func GenerateMermaid(wf domain.Workflow, opts RenderOptions) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	hasIncoming := make(map[string]bool)
	for _, e := range wf.Edges {
		hasIncoming[e.Target] = true
	}

	for _, node := range wf.Nodes {
		// Sanitize ID for Mermaid
		safeID := sanitizeMermaidID(node.ID)

		// Node Shape
		opener, closer := "[", "]"
		switch {
		case opts.SensitiveSkills[node.SkillID]:
			opener, closer = "[[", "]]" // Subroutine
		case !hasIncoming[node.ID]:
			opener, closer = "((", "))" // Circle (entry)
		}

		label := node.ID
		if node.SkillID != "" && node.SkillID != node.ID {
			label = fmt.Sprintf("%s <br/> %s", node.ID, node.SkillID)
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, label, closer))
	}

	for _, edge := range wf.Edges {
		safeFrom := sanitizeMermaidID(edge.Source)
		safeTo := sanitizeMermaidID(edge.Target)

		arrow := "-->"
		if edge.TargetParam == "" {
			// Ordering-only edge, no data flows across it.
			arrow = "-.->"
		}

		switch {
		case edge.Condition != "":
			// Escape double quotes in condition for Mermaid label
			safeCondition := strings.ReplaceAll(edge.Condition, "\"", "'")
			if edge.TargetParam != "" {
				arrow = fmt.Sprintf("-- \"%s\" -->", safeCondition)
			} else {
				arrow = fmt.Sprintf("-. \"%s\" .->", safeCondition)
			}
		case edge.TargetParam != "":
			arrow = fmt.Sprintf("-- \"%s\" -->", edge.TargetParam)
		}

		sb.WriteString(fmt.Sprintf("    %s %s %s\n", safeFrom, arrow, safeTo))
	}

	// Apply Overlay Styles
	if opts.Overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef executed fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef skipped fill:#eeeeee,stroke:#9e9e9e,stroke-dasharray: 5 5,color:#000;\n")
		sb.WriteString("    classDef failed fill:#ffcdd2,stroke:#b71c1c,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range opts.Overlay.ExecutedNodes {
			safeID := sanitizeMermaidID(id)
			if seen[safeID] || safeID == "" || id == opts.Overlay.FailedNode {
				continue
			}
			seen[safeID] = true
			sb.WriteString(fmt.Sprintf("    class %s executed;\n", safeID))
		}
		for _, id := range opts.Overlay.SkippedNodes {
			safeID := sanitizeMermaidID(id)
			if seen[safeID] || safeID == "" {
				continue
			}
			seen[safeID] = true
			sb.WriteString(fmt.Sprintf("    class %s skipped;\n", safeID))
		}
		if opts.Overlay.FailedNode != "" {
			sb.WriteString(fmt.Sprintf("    class %s failed;\n", sanitizeMermaidID(opts.Overlay.FailedNode)))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}

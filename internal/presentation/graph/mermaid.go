package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/flowstory/pkg/domain"
)

// GraphOverlay contains dynamic state data to visualize on the graph.
type GraphOverlay struct {
	Highlighted []string // e.g. screens related to a user story
	CurrentNode string   // the selection
}

// GenerateMermaid produces a Mermaid flowchart of an extracted flow.
// It applies semantic styling:
// - Root frame: ((Circle))
// - Frame: [Rectangle]
// - Destination outside the flow: [/Parallelogram/] reached by a dotted edge
// Edges are labeled with their trigger.
func GenerateMermaid(flow *domain.FlowExtractionResult, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	if flow == nil {
		return sb.String()
	}

	inFlow := make(map[string]bool, len(flow.Frames))
	for i, f := range flow.Frames {
		inFlow[f.ID] = true
		opener, closer := "[", "]"
		if i == 0 {
			opener, closer = "((", "))"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", sanitizeMermaidID(f.ID), opener, label(f.Name, f.ID), closer)
	}

	// Destinations dropped by the frame cap or missing from the document.
	omitted := make(map[string]bool)
	for _, e := range flow.Connections {
		if !inFlow[e.To] && !omitted[e.To] {
			omitted[e.To] = true
			fmt.Fprintf(&sb, "    %s[/\"%s\"/]\n", sanitizeMermaidID(e.To), label("", e.To))
		}
	}

	for _, e := range flow.Connections {
		action := strings.ReplaceAll(e.Action, "\"", "'")
		arrow := fmt.Sprintf("-- \"%s\" -->", action)
		if omitted[e.To] {
			arrow = fmt.Sprintf("-. \"%s\" .->", action)
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", sanitizeMermaidID(e.From), arrow, sanitizeMermaidID(e.To))
	}

	if len(omitted) > 0 {
		sb.WriteString("    classDef omitted stroke-dasharray: 5 5,color:#888;\n")
		for _, e := range flow.Connections {
			if omitted[e.To] {
				fmt.Fprintf(&sb, "    class %s omitted;\n", sanitizeMermaidID(e.To))
				delete(omitted, e.To)
			}
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef highlighted fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.Highlighted {
			safeID := sanitizeMermaidID(id)
			if id != "" && !seen[safeID] {
				seen[safeID] = true
				fmt.Fprintf(&sb, "    class %s highlighted;\n", safeID)
			}
		}
		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
		}
	}

	return sb.String()
}

// Overlay highlights the screens related to the stories of doc.
func Overlay(doc *domain.StoryDocument, current string) *GraphOverlay {
	o := &GraphOverlay{CurrentNode: current}
	if doc == nil {
		return o
	}
	for _, s := range doc.UserStories {
		for _, r := range s.RelatedScreens {
			o.Highlighted = append(o.Highlighted, r.ID)
		}
	}
	return o
}

func label(name, id string) string {
	if name == "" || name == id {
		return id
	}
	return strings.ReplaceAll(name, "\"", "'") + " <br/> " + id
}

// sanitizeMermaidID maps node ids such as "12:34" or "I1:2;3:4" to Mermaid-safe identifiers.
func sanitizeMermaidID(id string) string {
	r := strings.NewReplacer(":", "_", ";", "_", ".", "_", "-", "_", "/", "_", "\\", "_", " ", "_")
	return "n" + r.Replace(id)
}

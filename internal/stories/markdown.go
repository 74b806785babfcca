package stories

import (
	"fmt"
	"strings"

	"github.com/aretw0/flowstory/pkg/domain"
)

// Markdown renders a story document for export.
func Markdown(title string, doc *domain.StoryDocument) string {
	var sb strings.Builder
	if title == "" {
		title = "User Stories"
	}
	fmt.Fprintf(&sb, "# %s\n", title)

	if doc == nil || len(doc.UserStories) == 0 {
		sb.WriteString("\n_No user stories._\n")
		return sb.String()
	}

	for _, s := range doc.UserStories {
		sb.WriteString("\n## ")
		if s.ID != "" {
			fmt.Fprintf(&sb, "%s: ", s.ID)
		}
		sb.WriteString(s.Title)
		sb.WriteString("\n")

		if s.Description != "" {
			fmt.Fprintf(&sb, "\n%s\n", s.Description)
		}

		if len(s.AcceptanceCriteria) > 0 {
			sb.WriteString("\n**Acceptance Criteria**\n\n")
			for _, c := range s.AcceptanceCriteria {
				fmt.Fprintf(&sb, "- %s\n", c)
			}
		}

		if len(s.RelatedScreens) > 0 {
			sb.WriteString("\n**Related Screens**\n\n")
			for _, r := range s.RelatedScreens {
				name := r.Name
				if name == "" {
					name = r.ID
				}
				if r.Link != "" {
					fmt.Fprintf(&sb, "- [%s](%s)\n", name, r.Link)
				} else {
					fmt.Fprintf(&sb, "- %s\n", name)
				}
			}
		}
	}
	return sb.String()
}

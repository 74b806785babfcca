package stories

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/aretw0/flowstory/pkg/domain"
)

const promptText = `Analyze the following user interface flow and generate user stories based on the screens and their relationships.
The flow consists of multiple screens, and an overall flow image.
Please create comprehensive user stories that cover the main functionalities and user interactions visible in the flow.

Return the user stories in the following JSON format:
{
  "userStories": [
    {
      "id": "US001",
      "title": "Short title of the user story",
      "description": "As a [user type], I want to [action], so that [benefit]",
      "acceptanceCriteria": [
        "Criterion 1",
        "Criterion 2"
      ],
      "relatedScreens": [
        {"name": "Screen1", "id": "screen_id_1"},
        {"name": "Screen2", "id": "screen_id_2"}
      ]
    }
  ]
}

Flow name: {{.FlowName}}
Number of screens: {{len .Frames}}
Screen names and IDs: {{range $i, $f := .Frames}}{{if $i}}, {{end}}{{$f.Name}} ({{$f.ID}}){{end}}

Connections between screens:
{{range .Connections}}From {{.From}} to {{.To}} on {{.Action}}
{{end}}`

var promptTemplate = template.Must(template.New("prompt").Parse(promptText))

// UnnamedFlow is used when the flow has no frames.
const UnnamedFlow = "Unnamed Flow"

// FlowName derives the flow name from the first word of the first frame's name.
func FlowName(flow *domain.FlowExtractionResult) string {
	if len(flow.Frames) == 0 {
		return UnnamedFlow
	}
	name, _, _ := strings.Cut(flow.Frames[0].Name, " ")
	return name
}

// Prompt builds the text part of the generation request.
func Prompt(flow *domain.FlowExtractionResult) (string, error) {
	var buf bytes.Buffer
	err := promptTemplate.Execute(&buf, struct {
		FlowName    string
		Frames      []domain.FrameRecord
		Connections []domain.Edge
	}{
		FlowName:    FlowName(flow),
		Frames:      flow.Frames,
		Connections: flow.Connections,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return buf.String(), nil
}

// ImageURL returns the data URL of a base64 PNG payload.
func ImageURL(payload string) string {
	return "data:image/png;base64," + payload
}

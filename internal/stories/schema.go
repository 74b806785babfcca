package stories

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/flowstory/pkg/domain"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/mitchellh/mapstructure"
)

// documentSchema describes the JSON object the model is asked to return.
var documentSchema = newDocumentSchema()

func newDocumentSchema() *openapi3.Schema {
	screen := openapi3.NewObjectSchema().
		WithProperty("name", openapi3.NewStringSchema()).
		WithProperty("id", openapi3.NewStringSchema())
	screen.Required = []string{"id"}

	story := openapi3.NewObjectSchema().
		WithProperty("id", openapi3.NewStringSchema()).
		WithProperty("title", openapi3.NewStringSchema()).
		WithProperty("description", openapi3.NewStringSchema()).
		WithProperty("acceptanceCriteria", openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema())).
		WithProperty("relatedScreens", openapi3.NewArraySchema().WithItems(screen))
	story.Required = []string{"relatedScreens"}

	doc := openapi3.NewObjectSchema().
		WithProperty("userStories", openapi3.NewArraySchema().WithItems(story))
	doc.Required = []string{"userStories"}
	return doc
}

// Parse validates the model output against the story schema and decodes it.
func Parse(content string) (*domain.StoryDocument, error) {
	var raw any
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON in response: %w", err)
	}

	if err := documentSchema.VisitJSON(raw); err != nil {
		return nil, fmt.Errorf("response does not match story schema: %w", err)
	}

	var doc domain.StoryDocument
	if err := mapstructure.Decode(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode stories: %w", err)
	}
	return &doc, nil
}

// Backfill sets the link of every related screen from the frames of the flow.
// Screens that are not part of the flow get an empty link.
func Backfill(doc *domain.StoryDocument, flow *domain.FlowExtractionResult) {
	links := make(map[string]string, len(flow.Frames))
	for _, f := range flow.Frames {
		links[f.ID] = f.Link
	}
	for i := range doc.UserStories {
		screens := doc.UserStories[i].RelatedScreens
		for j := range screens {
			screens[j].Link = links[screens[j].ID]
		}
	}
}

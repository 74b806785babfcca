package ports

import (
	"context"

	"github.com/aretw0/flowstory/pkg/domain"
)

// StoryGenerator turns an extracted flow into user stories.
// Related screens in the returned document carry the frame links of the flow.
type StoryGenerator interface {
	Generate(ctx context.Context, flow *domain.FlowExtractionResult, apiKey string) (*domain.StoryDocument, error)
}

package stories

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/flowstory/internal/logging"
	"github.com/aretw0/flowstory/pkg/domain"
	"github.com/sashabaranov/go-openai"
)

// Defaults for the generation API.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o"
	DefaultTimeout = 2 * time.Minute
)

// Generator implements ports.StoryGenerator on an OpenAI-compatible chat completion API.
type Generator struct {
	baseURL    string
	model      string
	timeout    time.Duration
	httpClient *http.Client
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
}

// Option configures the Generator.
type Option func(*Generator)

// WithBaseURL points the generator at another OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(g *Generator) {
		if url != "" {
			g.baseURL = url
		}
	}
}

// WithModel sets the chat model.
func WithModel(model string) Option {
	return func(g *Generator) {
		if model != "" {
			g.model = model
		}
	}
}

// WithTimeout bounds a single generation call.
func WithTimeout(d time.Duration) Option {
	return func(g *Generator) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Generator) {
		g.httpClient = c
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(g *Generator) {
		g.hooks = hooks
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGenerator creates a Generator.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		baseURL: DefaultBaseURL,
		model:   DefaultModel,
		timeout: DefaultTimeout,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate sends the flow and its images to the model and returns the parsed stories,
// with related screen links filled in. Any failure is reported as domain.ErrGeneration.
func (g *Generator) Generate(ctx context.Context, flow *domain.FlowExtractionResult, apiKey string) (*domain.StoryDocument, error) {
	start := time.Now()
	doc, err := g.generate(ctx, flow, apiKey)
	if err != nil {
		err = fmt.Errorf("%w: %s", domain.ErrGeneration, describe(err))
		g.logger.Error("story generation failed", "error", err)
	}

	if g.hooks.OnGenerated != nil {
		ev := &domain.GenerationEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventGenerated},
			Duration:  time.Since(start),
			Err:       err,
		}
		if len(flow.Frames) > 0 {
			ev.RootID = flow.Frames[0].ID
		}
		if doc != nil {
			ev.Stories = len(doc.UserStories)
		}
		g.hooks.OnGenerated(ctx, ev)
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (g *Generator) generate(ctx context.Context, flow *domain.FlowExtractionResult, apiKey string) (*domain.StoryDocument, error) {
	if apiKey == "" {
		return nil, errors.New("missing API key")
	}

	req, err := g.Request(flow)
	if err != nil {
		return nil, err
	}
	g.logger.Debug("requesting stories", "model", g.model, "frames", len(flow.Frames), "connections", len(flow.Connections))

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = g.baseURL
	if g.httpClient != nil {
		cfg.HTTPClient = g.httpClient
	}
	client := openai.NewClientWithConfig(cfg)

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, errors.New("no content in the response")
	}

	doc, err := Parse(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	Backfill(doc, flow)

	g.logger.Info("stories generated", "stories", len(doc.UserStories), "tokens", resp.Usage.TotalTokens)
	return doc, nil
}

// Request builds the chat completion request for a flow: one user message
// holding the prompt, the flow image and every frame image.
func (g *Generator) Request(flow *domain.FlowExtractionResult) (openai.ChatCompletionRequest, error) {
	prompt, err := Prompt(flow)
	if err != nil {
		return openai.ChatCompletionRequest{}, err
	}

	parts := make([]openai.ChatMessagePart, 0, len(flow.Frames)+2)
	parts = append(parts,
		openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: prompt},
		openai.ChatMessagePart{
			Type:     openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{URL: ImageURL(flow.FlowImage)},
		},
	)
	for _, f := range flow.Frames {
		parts = append(parts, openai.ChatMessagePart{
			Type:     openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{URL: ImageURL(f.Image)},
		})
	}

	return openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, MultiContent: parts},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}, nil
}

// describe turns API failures into the message shown to the user.
func describe(err error) string {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return fmt.Sprintf("HTTP error! status: %d", apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return fmt.Sprintf("HTTP error! status: %d", reqErr.HTTPStatusCode)
	}
	return err.Error()
}

package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/flowstory"
	"github.com/aretw0/flowstory/internal/logging"
	"github.com/aretw0/flowstory/internal/presentation/graph"
	"github.com/aretw0/flowstory/internal/stories"
	"github.com/aretw0/flowstory/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// LastStoriesURI is the resource holding the most recently generated stories as Markdown.
const LastStoriesURI = "flowstory://stories/last"

// FlowSummary describes an extracted flow without its images.
type FlowSummary struct {
	Name        string         `json:"name" jsonschema_description:"Name of the root frame"`
	Frames      []FrameSummary `json:"frames" jsonschema_description:"Frames in visitation order"`
	Connections []domain.Edge  `json:"connections" jsonschema_description:"Navigation edges between frames"`
	Truncated   bool           `json:"truncated" jsonschema_description:"True when the frame cap was reached"`
	Notices     []string       `json:"notices,omitempty" jsonschema_description:"Informational notices raised during extraction"`
}

// FrameSummary is a frame of a FlowSummary.
type FrameSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Link string `json:"link"`
}

// NodeArgs are the arguments of the extract_flow and flow_graph tools.
type NodeArgs struct {
	NodeID string `json:"node_id"`
}

// GenerateArgs are the arguments of the generate_stories tool.
type GenerateArgs struct {
	NodeID string `json:"node_id"`
	APIKey string `json:"api_key,omitempty"`
}

// Server exposes the engine as an MCP Server.
type Server struct {
	engine    *flowstory.Engine
	apiKey    string
	logger    *slog.Logger
	mcpServer *server.MCPServer

	mu       sync.Mutex
	lastName string
	lastDoc  *domain.StoryDocument
}

// Option configures the Server.
type Option func(*Server)

// WithAPIKey sets the key used when generate_stories is called without one.
func WithAPIKey(key string) Option {
	return func(s *Server) {
		s.apiKey = key
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine *flowstory.Engine, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("flowstory-mcp", strings.TrimSpace(flowstory.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on addr using SSE until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: extract_flow
	extractTool := mcp.NewTool("extract_flow",
		mcp.WithDescription("Walk the prototype flow starting at a frame and list its screens and connections."),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("ID of the frame the flow starts at")),
		mcp.WithOutputSchema[FlowSummary](),
	)
	s.mcpServer.AddTool(extractTool, mcp.NewStructuredToolHandler(s.handleExtract))

	// TOOL: generate_stories
	generateTool := mcp.NewTool("generate_stories",
		mcp.WithDescription("Generate user stories for the prototype flow starting at a frame."),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("ID of the frame the flow starts at")),
		mcp.WithString("api_key", mcp.Description("Generation API key (defaults to the server configuration)")),
		mcp.WithOutputSchema[domain.StoryDocument](),
	)
	s.mcpServer.AddTool(generateTool, mcp.NewStructuredToolHandler(s.handleGenerate))

	// TOOL: flow_graph
	s.mcpServer.AddTool(mcp.NewTool("flow_graph",
		mcp.WithDescription("Render the prototype flow starting at a frame as a Mermaid chart."),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("ID of the frame the flow starts at")),
	), s.handleGraph)
}

func (s *Server) extract(ctx context.Context, nodeID string) (*domain.SceneNode, *domain.FlowExtractionResult, []string, error) {
	root, err := s.engine.Resolve(ctx, nodeID)
	if err != nil {
		return nil, nil, nil, err
	}

	var mu sync.Mutex
	var notices []string
	res, err := s.engine.Extract(ctx, root, flowstory.Notify(func(ctx context.Context, notice string) {
		mu.Lock()
		notices = append(notices, notice)
		mu.Unlock()
	}))
	if err != nil {
		return nil, nil, nil, err
	}
	return root, res, notices, nil
}

func (s *Server) handleExtract(ctx context.Context, request mcp.CallToolRequest, args NodeArgs) (FlowSummary, error) {
	root, res, notices, err := s.extract(ctx, args.NodeID)
	if err != nil {
		return FlowSummary{}, describe(err)
	}
	return Summarize(root.Name, res, notices), nil
}

func (s *Server) handleGenerate(ctx context.Context, request mcp.CallToolRequest, args GenerateArgs) (domain.StoryDocument, error) {
	apiKey := args.APIKey
	if apiKey == "" {
		apiKey = s.apiKey
	}

	root, res, _, err := s.extract(ctx, args.NodeID)
	if err != nil {
		return domain.StoryDocument{}, describe(err)
	}
	doc, err := s.engine.Generate(ctx, res, apiKey)
	if err != nil {
		s.logger.Error("MCP generate_stories failed", "node_id", args.NodeID, "err", err)
		return domain.StoryDocument{}, err
	}

	s.mu.Lock()
	s.lastName, s.lastDoc = root.Name, doc
	s.mu.Unlock()
	return *doc, nil
}

func (s *Server) handleGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	nodeID := request.GetString("node_id", "")
	_, res, _, err := s.extract(ctx, nodeID)
	if err != nil {
		return mcp.NewToolResultError(describe(err).Error()), nil
	}
	return mcp.NewToolResultText(graph.GenerateMermaid(res, &graph.GraphOverlay{CurrentNode: nodeID})), nil
}

func (s *Server) registerResources() {
	// EXPOSE: flowstory://stories/last
	s.mcpServer.AddResource(mcp.NewResource(LastStoriesURI, "Last Generated User Stories",
		mcp.WithMIMEType("text/markdown"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      LastStoriesURI,
				MIMEType: "text/markdown",
				Text:     s.LastStories(),
			},
		}, nil
	})
}

// LastStories renders the most recently generated stories as Markdown.
func (s *Server) LastStories() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return stories.Markdown(s.lastName, s.lastDoc)
}

// Summarize strips the images from an extraction.
func Summarize(name string, res *domain.FlowExtractionResult, notices []string) FlowSummary {
	sum := FlowSummary{
		Name:        name,
		Frames:      make([]FrameSummary, 0, len(res.Frames)),
		Connections: res.Connections,
		Truncated:   res.Truncated,
		Notices:     notices,
	}
	for _, f := range res.Frames {
		sum.Frames = append(sum.Frames, FrameSummary{ID: f.ID, Name: f.Name, Link: f.Link})
	}
	return sum
}

// describe maps a missing or non-frame node to the message shown to hosts.
func describe(err error) error {
	if errors.Is(err, domain.ErrNoSelection) {
		return fmt.Errorf("please select a frame within a prototype flow: %w", err)
	}
	return err
}

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/aretw0/flowstory"
	"github.com/aretw0/flowstory/internal/logging"
	"github.com/aretw0/flowstory/pkg/domain"
	"github.com/aretw0/flowstory/pkg/ports"
)

// Messages posted to the presentation layer.
const (
	TextInitializing  = "Initializing..."
	TextAnalyzing     = "Analyzing flow..."
	TextGenerating    = "Generating user stories..."
	TextNoSelection   = "Please select a frame within a prototype flow"
	TextNoFlow        = "No flow selected. Please select a flow and try again."
	TextExtractError  = "Error extracting flow data: "
	TextGenerateError = "Failed to generate user stories: "
)

type lane int

const (
	laneSelect lane = iota
	laneGenerate
)

// request identifies one unit of work. Generation requests also remember the
// selection they started under, so a new selection makes them stale.
type request struct {
	seq    uint64
	lane   lane
	selSeq uint64
}

// Session orchestrates extraction and generation for one host.
type Session struct {
	engine    *flowstory.Engine
	publisher ports.Publisher
	apiKey    string
	initial   string
	logger    *slog.Logger

	mu        sync.Mutex
	nextSeq   uint64
	selSeq    uint64
	genSeq    uint64
	selCancel context.CancelFunc
	genCancel context.CancelFunc
	selection string
	lastFlow  *domain.FlowExtractionResult
	lastDoc   *domain.StoryDocument
}

// Option configures the Session.
type Option func(*Session)

// WithAPIKey sets the fallback key used when a request carries none.
func WithAPIKey(key string) Option {
	return func(s *Session) {
		s.apiKey = key
	}
}

// WithSelection sets the selection analysed by Start.
func WithSelection(nodeID string) Option {
	return func(s *Session) {
		s.initial = nodeID
	}
}

// WithLogger configures a logger for the Session.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// New creates a Session posting to publisher.
func New(engine *flowstory.Engine, publisher ports.Publisher, opts ...Option) *Session {
	s := &Session{
		engine:    engine,
		publisher: publisher,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start announces the session, waits until the scene graph is ready and
// analyses the initial selection.
func (s *Session) Start(ctx context.Context) error {
	s.publish(ctx, domain.Message{Type: domain.MessageProcessing, Message: TextInitializing})

	if r, ok := s.engine.Graph().(ports.Readier); ok {
		select {
		case <-r.Ready():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.logger.Debug("scene graph ready")
	return s.Select(ctx, s.initial)
}

// Select records nodeID as the current selection and analyses its flow.
// An empty or non-frame selection is reported as no-selection.
func (s *Session) Select(ctx context.Context, nodeID string) error {
	ctx, req, done := s.begin(ctx, laneSelect, nodeID)
	defer done()

	root, err := s.engine.Resolve(ctx, nodeID)
	if errors.Is(err, domain.ErrNoSelection) {
		s.post(ctx, req, domain.Message{Type: domain.MessageNoSelection, Message: TextNoSelection})
		return nil
	}
	if err != nil {
		s.post(ctx, req, domain.Message{Type: domain.MessageError, Message: TextExtractError + err.Error()})
		return err
	}

	s.post(ctx, req, domain.Message{Type: domain.MessageProcessing, Message: TextAnalyzing})
	res, err := s.engine.Extract(ctx, root, flowstory.Notify(s.notifier(req)))
	if err != nil {
		s.post(ctx, req, domain.Message{Type: domain.MessageError, Message: TextExtractError + err.Error()})
		return err
	}

	if !s.remember(req, res, nil) {
		s.logger.Debug("dropping stale flow", "seq", req.seq, "root", root.ID)
		return nil
	}
	connections := res.Connections
	if connections == nil {
		connections = []domain.Edge{}
	}
	s.post(ctx, req, domain.Message{
		Type:            domain.MessageFlowSelected,
		Name:            root.Name,
		FrameCount:      len(res.Frames),
		ConnectionCount: len(connections),
		Connections:     connections,
	})
	return nil
}

// Generate extracts the flow of nodeID (or of the current selection when empty)
// and posts the generated user stories.
func (s *Session) Generate(ctx context.Context, nodeID, apiKey string) error {
	ctx, req, done := s.begin(ctx, laneGenerate, "")
	defer done()

	if nodeID == "" {
		nodeID = s.Selection()
	}
	if apiKey == "" {
		apiKey = s.apiKey
	}

	root, err := s.engine.Resolve(ctx, nodeID)
	if errors.Is(err, domain.ErrNoSelection) {
		s.post(ctx, req, domain.Message{Type: domain.MessageNoSelection, Message: TextNoSelection})
		s.post(ctx, req, domain.Message{Type: domain.MessageError, Message: TextNoFlow})
		return err
	}
	if err != nil {
		s.post(ctx, req, domain.Message{Type: domain.MessageError, Message: err.Error()})
		return err
	}

	s.post(ctx, req, domain.Message{Type: domain.MessageProcessing, Message: TextGenerating})
	res, err := s.engine.Extract(ctx, root, flowstory.Notify(s.notifier(req)))
	if err != nil {
		s.post(ctx, req, domain.Message{Type: domain.MessageError, Message: err.Error()})
		return err
	}

	doc, err := s.engine.Generate(ctx, res, apiKey)
	if err != nil {
		s.post(ctx, req, domain.Message{Type: domain.MessageError, Message: generationText(err)})
		return err
	}

	if !s.remember(req, res, doc) {
		s.logger.Debug("dropping stale stories", "seq", req.seq, "root", root.ID)
		return nil
	}
	s.post(ctx, req, domain.Message{Type: domain.MessageUserStories, Data: doc})
	return nil
}

// Handle dispatches an inbound message.
func (s *Session) Handle(ctx context.Context, msg domain.InboundMessage) error {
	switch msg.Type {
	case domain.MessageGenerateStories:
		return s.Generate(ctx, msg.NodeID, msg.APIKey)
	case domain.MessageSelectionChange:
		return s.Select(ctx, msg.NodeID)
	case domain.MessageExportStories:
		s.logger.Info("exporting stories is handled by the presentation layer")
		return nil
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownMessage, msg.Type)
	}
}

// Serve handles every message of src until ctx is done or the source closes.
// Each message runs in its own goroutine so a new selection can supersede slow work.
func (s *Session) Serve(ctx context.Context, src ports.MessageSource) error {
	msgs, err := src.Messages(ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := s.Handle(ctx, msg); err != nil {
					s.logger.Warn("message failed", "type", msg.Type, "err", err)
				}
			}()
		}
	}
}

// Selection returns the current selection.
func (s *Session) Selection() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection
}

// LastFlow returns the most recent successful extraction, or nil.
func (s *Session) LastFlow() *domain.FlowExtractionResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFlow
}

// LastStories returns the most recent generated document, or nil.
func (s *Session) LastStories() *domain.StoryDocument {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastDoc
}

// begin registers a new request on its lane and cancels the work it supersedes.
// A selection supersedes both lanes; a generation only supersedes older generations.
func (s *Session) begin(ctx context.Context, l lane, nodeID string) (context.Context, request, func()) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSeq++
	req := request{seq: s.nextSeq, lane: l}
	switch l {
	case laneSelect:
		cancelIfSet(s.selCancel)
		cancelIfSet(s.genCancel)
		s.selSeq, s.selCancel = req.seq, cancel
		s.genCancel = nil
		s.selection = nodeID
	case laneGenerate:
		cancelIfSet(s.genCancel)
		s.genSeq, s.genCancel = req.seq, cancel
	}
	req.selSeq = s.selSeq

	return ctx, req, func() {
		cancel()
		s.mu.Lock()
		defer s.mu.Unlock()
		switch {
		case l == laneSelect && s.selSeq == req.seq:
			s.selCancel = nil
		case l == laneGenerate && s.genSeq == req.seq:
			s.genCancel = nil
		}
	}
}

func cancelIfSet(cancel context.CancelFunc) {
	if cancel != nil {
		cancel()
	}
}

func (s *Session) currentLocked(req request) bool {
	if req.lane == laneSelect {
		return s.selSeq == req.seq
	}
	return s.genSeq == req.seq && s.selSeq == req.selSeq
}

// remember stores the results of req if it is still current.
func (s *Session) remember(req request, res *domain.FlowExtractionResult, doc *domain.StoryDocument) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.currentLocked(req) {
		return false
	}
	s.lastFlow = res
	if doc != nil {
		s.lastDoc = doc
	}
	return true
}

// post publishes msg on behalf of req. Messages of superseded requests are dropped.
func (s *Session) post(ctx context.Context, req request, msg domain.Message) {
	s.mu.Lock()
	current := s.currentLocked(req)
	s.mu.Unlock()
	if !current {
		s.logger.Debug("dropping stale message", "type", msg.Type, "seq", req.seq)
		return
	}
	msg.Seq = req.seq
	s.publish(ctx, msg)
}

func (s *Session) publish(ctx context.Context, msg domain.Message) {
	// Publishing outlives request cancellation so final errors still reach the host.
	if err := s.publisher.Publish(context.WithoutCancel(ctx), msg); err != nil {
		s.logger.Error("failed to publish message", "type", msg.Type, "err", err)
	}
}

func (s *Session) notifier(req request) flowstory.Notifier {
	return func(ctx context.Context, notice string) {
		s.post(ctx, req, domain.Message{Type: domain.MessageInfo, Message: notice})
	}
}

// generationText is the user-visible form of a generation failure.
func generationText(err error) string {
	return TextGenerateError + strings.TrimPrefix(err.Error(), domain.ErrGeneration.Error()+": ")
}

package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/flowstory"
	"github.com/aretw0/flowstory/internal/logging"
	"github.com/aretw0/flowstory/internal/presentation/graph"
	"github.com/aretw0/flowstory/pkg/domain"
	"github.com/aretw0/flowstory/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const maxBodySize = 1 << 20

// Server exposes a session over HTTP. Progress is streamed to clients via SSE.
type Server struct {
	Session *session.Session
	Streams *StreamManager

	metrics http.Handler
	baseCtx context.Context
	logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithMetrics mounts a metrics handler on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithBaseContext sets the context of the work started by requests.
// Cancelling it stops in-flight extractions.
func WithBaseContext(ctx context.Context) Option {
	return func(s *Server) {
		s.baseCtx = ctx
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates the HTTP handler for a session whose publisher is streams.
func NewHandler(sess *session.Session, streams *StreamManager, opts ...Option) http.Handler {
	s := &Server{
		Session: sess,
		Streams: streams,
		baseCtx: context.Background(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	r.Get("/events", s.SubscribeEvents)
	r.Get("/graph", s.GetGraph)
	r.Post("/selection", s.PostSelection)
	r.Post("/messages", s.PostMessage)

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type requestIDKey struct{}

// requestID tags every request with an X-Request-ID, reusing the caller's if present.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"app":         "flowstory-http",
		"version":     strings.TrimSpace(flowstory.Version),
		"selection":   s.Session.Selection(),
		"subscribers": s.Streams.Subscribers(),
	})
}

type selectionRequest struct {
	NodeID string `json:"nodeId"`
}

type acceptedResponse struct {
	RequestID string `json:"requestId"`
}

// PostSelection handles the POST /selection request. The flow is analysed in
// the background and reported on the event stream.
func (s *Server) PostSelection(w http.ResponseWriter, r *http.Request) {
	var body selectionRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("PostSelection: Invalid request body", "err", err)
		return
	}

	reqID := requestIDFrom(r.Context())
	s.dispatch(reqID, domain.InboundMessage{Type: domain.MessageSelectionChange, NodeID: body.NodeID})
	writeJSON(w, http.StatusAccepted, acceptedResponse{RequestID: reqID})
}

// PostMessage handles the POST /messages request.
func (s *Server) PostMessage(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	msg, err := session.DecodeMessage(raw)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, domain.ErrUnknownMessage) {
			status = http.StatusUnprocessableEntity
		}
		http.Error(w, err.Error(), status)
		s.logger.Warn("PostMessage: rejected", "err", err)
		return
	}

	reqID := requestIDFrom(r.Context())
	s.dispatch(reqID, msg)
	writeJSON(w, http.StatusAccepted, acceptedResponse{RequestID: reqID})
}

func (s *Server) dispatch(reqID string, msg domain.InboundMessage) {
	logger := s.logger.With("request_id", reqID, "type", msg.Type)
	go func() {
		if err := s.Session.Handle(s.baseCtx, msg); err != nil {
			logger.Warn("request failed", "err", err)
			return
		}
		logger.Debug("request done")
	}()
}

// GetGraph handles the GET /graph request: a Mermaid chart of the last flow.
// With ?format=json the flow itself is returned.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	flow := s.Session.LastFlow()
	if flow == nil {
		http.Error(w, "No flow selected", http.StatusNotFound)
		return
	}

	if r.URL.Query().Get("format") == "json" {
		writeJSON(w, http.StatusOK, flow)
		return
	}

	overlay := graph.Overlay(s.Session.LastStories(), s.Session.Selection())
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, graph.GenerateMermaid(flow, overlay))
}

// SubscribeEvents handles the GET /events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	id, ch, cancel := s.Streams.Subscribe()
	defer cancel()
	s.logger.Info("SSE: Client subscribed", "client_id", id)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "client_id", id)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/debrief"
	"github.com/aretw0/debrief/internal/logging"
	"github.com/aretw0/debrief/pkg/domain"
	"github.com/aretw0/debrief/pkg/ports"
	"github.com/aretw0/debrief/pkg/runner"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ScriptURI is the resource exposing the reflection questions.
const ScriptURI = "debrief://script"

// ViewResponse is the structured result of every tool.
// A turn that failed after recording the user message carries both View and Error.
type ViewResponse struct {
	View      *debrief.View `json:"view" jsonschema_description:"The session after the call"`
	Error     string        `json:"error,omitempty" jsonschema_description:"Set when the model could not be reached"`
	Retryable bool          `json:"retryable,omitempty" jsonschema_description:"True when retry_turn can complete the turn"`
}

// SessionArgs identifies a session.
type SessionArgs struct {
	SessionID string `json:"session_id"`
}

// MessageArgs carries a free-text user message.
type MessageArgs struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

// AnswerArgs carries a yes/no answer.
type AnswerArgs struct {
	SessionID string `json:"session_id"`
	Yes       bool   `json:"yes"`
}

// Server exposes a ports.Conversation as an MCP server.
type Server struct {
	conv      ports.Conversation
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(conv ports.Conversation, opts ...Option) *Server {
	s := &Server{
		conv:      conv,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("debrief-mcp", debrief.Version()),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, e.g. for in-process transports.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops when ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

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
	sessionID := func(required bool) mcp.ToolOption {
		opts := []mcp.PropertyOption{mcp.Description("The session ID")}
		if required {
			opts = append(opts, mcp.Required())
		}
		return mcp.WithString("session_id", opts...)
	}

	s.mcpServer.AddTool(mcp.NewTool("open_session",
		mcp.WithDescription("Open a reflection session, creating it with the first question if it does not exist. Omit session_id to get a new one."),
		sessionID(false),
		mcp.WithOutputSchema[ViewResponse](),
	), mcp.NewStructuredToolHandler(s.handleOpen))

	s.mcpServer.AddTool(mcp.NewTool("send_message",
		mcp.WithDescription("Send the user's reply to the current question."),
		sessionID(true),
		mcp.WithString("text", mcp.Required(), mcp.Description("The user's message")),
		mcp.WithOutputSchema[ViewResponse](),
	), mcp.NewStructuredToolHandler(s.handleSend))

	s.mcpServer.AddTool(mcp.NewTool("answer",
		mcp.WithDescription("Answer a yes/no question (move on to the next question, or anything else to talk about). Only valid when show_yes_no is true."),
		sessionID(true),
		mcp.WithBoolean("yes", mcp.Required(), mcp.Description("True for yes, false for no")),
		mcp.WithOutputSchema[ViewResponse](),
	), mcp.NewStructuredToolHandler(s.handleAnswer))

	s.mcpServer.AddTool(mcp.NewTool("retry_turn",
		mcp.WithDescription("Retry a turn whose model call failed (pending is true)."),
		sessionID(true),
		mcp.WithOutputSchema[ViewResponse](),
	), mcp.NewStructuredToolHandler(s.handleRetry))

	s.mcpServer.AddTool(mcp.NewTool("end_session",
		mcp.WithDescription("End the session now and save its summary."),
		sessionID(true),
		mcp.WithOutputSchema[ViewResponse](),
	), mcp.NewStructuredToolHandler(s.handleEnd))

	s.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Get the current state of a session without changing it."),
		sessionID(true),
		mcp.WithOutputSchema[ViewResponse](),
	), mcp.NewStructuredToolHandler(s.handleGet))
}

func (s *Server) handleOpen(ctx context.Context, _ mcp.CallToolRequest, args SessionArgs) (ViewResponse, error) {
	return s.result(s.conv.Open(ctx, args.SessionID))
}

func (s *Server) handleSend(ctx context.Context, _ mcp.CallToolRequest, args MessageArgs) (ViewResponse, error) {
	clean, err := runner.SanitizeInput(args.Text)
	if err != nil {
		s.logger.Warn("MCP send_message: input rejected", "err", err, "size", len(args.Text))
		return ViewResponse{}, fmt.Errorf("input rejected: %w", err)
	}
	return s.result(s.conv.Send(ctx, args.SessionID, clean))
}

func (s *Server) handleAnswer(ctx context.Context, _ mcp.CallToolRequest, args AnswerArgs) (ViewResponse, error) {
	return s.result(s.conv.Answer(ctx, args.SessionID, args.Yes))
}

func (s *Server) handleRetry(ctx context.Context, _ mcp.CallToolRequest, args SessionArgs) (ViewResponse, error) {
	return s.result(s.conv.Retry(ctx, args.SessionID))
}

func (s *Server) handleEnd(ctx context.Context, _ mcp.CallToolRequest, args SessionArgs) (ViewResponse, error) {
	return s.result(s.conv.End(ctx, args.SessionID))
}

func (s *Server) handleGet(ctx context.Context, _ mcp.CallToolRequest, args SessionArgs) (ViewResponse, error) {
	return s.result(s.conv.Get(ctx, args.SessionID))
}

// result keeps a partially applied turn visible to the agent instead of failing the tool call.
func (s *Server) result(view *debrief.View, err error) (ViewResponse, error) {
	if err == nil {
		return ViewResponse{View: view}, nil
	}
	if view == nil {
		return ViewResponse{}, err
	}
	s.logger.Warn("MCP turn failed", "session_id", view.SessionID, "err", err)
	return ViewResponse{
		View:      view,
		Error:     err.Error(),
		Retryable: errors.Is(err, domain.ErrModelUnavailable),
	}, nil
}

func (s *Server) registerResources() {
	scripted, ok := s.conv.(interface{ Script() domain.Script })
	if !ok {
		return
	}
	s.mcpServer.AddResource(mcp.NewResource(ScriptURI, "Reflection Script",
		mcp.WithResourceDescription("The questions asked in every session, in order"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.Marshal(scripted.Script())
		if err != nil {
			return nil, fmt.Errorf("encode script: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      ScriptURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}

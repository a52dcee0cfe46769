package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/aretw0/debrief"
	"github.com/aretw0/debrief/pkg/runner"
	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
)

// Client message types accepted on the WebSocket.
const (
	WSMessage = "message"
	WSAnswer  = "answer"
	WSRetry   = "retry"
	WSEnd     = "end"
	WSPing    = "ping"
)

// WSRequest is a client frame.
type WSRequest struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	Yes  bool   `json:"yes,omitempty"`
}

// WSError is sent back when a client frame fails. Views are sent as plain view objects.
type WSError struct {
	Type  string        `json:"type"`
	Error string        `json:"error"`
	View  *debrief.View `json:"view,omitempty"`
}

// ServeWebSocket handles GET /sessions/{id}/ws.
// Every view of the session is pushed to the client; client frames drive the conversation.
func (s *Server) ServeWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	view, err := s.Conversation.Get(r.Context(), sessionID)
	if err != nil {
		s.fail(w, r, nil, err)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.logger.Error("WebSocket accept failed", "session_id", sessionID, "err", err)
		return
	}
	defer ws.Close(websocket.StatusNormalClosure, "session closed")

	ch, unsubscribe := s.Streams.Subscribe(sessionID)
	defer unsubscribe()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := writeFrame(ctx, ws, view); err != nil {
		return
	}

	// Output loop: published views -> client.
	go func() {
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if err := ws.Write(ctx, websocket.MessageText, msg); err != nil {
					s.logger.Debug("WebSocket write error", "session_id", sessionID, "err", err)
					return
				}
			}
		}
	}()

	s.inputLoop(ctx, ws, sessionID)
}

func (s *Server) inputLoop(ctx context.Context, ws *websocket.Conn, sessionID string) {
	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
				s.logger.Warn("WebSocket read error", "session_id", sessionID, "err", err)
			}
			return
		}

		var req WSRequest
		if err := json.Unmarshal(data, &req); err != nil {
			// Raw frames are treated as message text.
			req = WSRequest{Type: WSMessage, Text: string(data)}
		}

		var view *debrief.View
		switch req.Type {
		case WSMessage:
			var text string
			text, err = runner.SanitizeInput(req.Text)
			if err == nil {
				view, err = s.Conversation.Send(ctx, sessionID, text)
			}
		case WSAnswer:
			view, err = s.Conversation.Answer(ctx, sessionID, req.Yes)
		case WSRetry:
			view, err = s.Conversation.Retry(ctx, sessionID)
		case WSEnd:
			view, err = s.Conversation.End(ctx, sessionID)
		case WSPing:
			if err := writeFrame(ctx, ws, map[string]string{"type": "pong"}); err != nil {
				return
			}
			continue
		default:
			if err := writeFrame(ctx, ws, WSError{Type: "error", Error: "unknown frame type " + req.Type}); err != nil {
				return
			}
			continue
		}

		if view != nil {
			s.Streams.Publish(view)
		}
		if err != nil {
			if err := writeFrame(ctx, ws, WSError{Type: "error", Error: err.Error(), View: view}); err != nil {
				return
			}
		}
	}
}

func writeFrame(ctx context.Context, ws *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return ws.Write(ctx, websocket.MessageText, data)
}

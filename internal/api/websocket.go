package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/ashureev/websearch-agent/internal/domain"
	"github.com/ashureev/websearch-agent/internal/identity"
	"github.com/ashureev/websearch-agent/internal/render"
)

const wsWriteTimeout = 10 * time.Second

// Socket event types sent in addition to domain progress events.
const (
	socketEventNotice = "notice"
	socketEventReport = "report"
	socketEventError  = "error"
	socketEventPong   = "pong"
)

// Limiter throttles research requests per client key.
type Limiter interface {
	Allow(key string) bool
}

// socketRequest is a client message on the research socket.
type socketRequest struct {
	Type  string `json:"type"`
	ID    string `json:"id,omitempty"`
	Query string `json:"query,omitempty"`
}

// socketEvent is a server message on the research socket.
type socketEvent struct {
	Type      string            `json:"type"`
	ID        string            `json:"id,omitempty"`
	Tool      string            `json:"tool,omitempty"`
	Arguments string            `json:"arguments,omitempty"`
	IsError   bool              `json:"is_error,omitempty"`
	Iteration int               `json:"iteration,omitempty"`
	Message   string            `json:"message,omitempty"`
	ErrorHTML string            `json:"error_html,omitempty"`
	Report    *ResearchResponse `json:"report,omitempty"`
}

// WebSocketHandler streams research progress over a WebSocket.
type WebSocketHandler struct {
	*Handler
	sm            *SessionManager
	limiter       Limiter
	allowedOrigin string
	isDev         bool
}

// NewWebSocketHandler creates a new WebSocket handler. limiter may be nil.
func NewWebSocketHandler(base *Handler, sm *SessionManager, limiter Limiter, allowedOrigin string, isDev bool) *WebSocketHandler {
	return &WebSocketHandler{
		Handler:       base,
		sm:            sm,
		limiter:       limiter,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
	}
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	sessionID := identity.SessionIDFromContext(r.Context())
	slog.Info("WebSocket connection request", "user_id", userID, "session_id", sessionID, "ip", identity.IPFromRequest(r))

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "user_id", userID)
		return
	}
	ws.SetReadLimit(h.maxRequestBodySize)
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "user_id", userID)
		}
	}()

	h.sm.Register(userID, sessionID, ws)
	defer h.sm.Unregister(userID, sessionID, ws)
	slog.Debug("Research sockets open", "count", h.sm.Count())

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var wg sync.WaitGroup
	h.readLoop(ctx, ws, identity.ClientKey(r), userID, &wg)
	cancel()
	wg.Wait()
	slog.Info("Research socket ended", "user_id", userID)
}

func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "*" {
		return true
	}
	if origin == h.allowedOrigin {
		return true
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigin)
	return false
}

func (h *WebSocketHandler) readLoop(ctx context.Context, ws *websocket.Conn, clientKey, userID string, wg *sync.WaitGroup) {
	for {
		_, message, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 || errors.Is(err, context.Canceled) {
				slog.Debug("WebSocket closed by client", "user_id", userID)
			} else {
				slog.Warn("WebSocket read error", "error", err, "user_id", userID)
			}
			return
		}

		var req socketRequest
		if err := json.Unmarshal(message, &req); err != nil {
			h.send(ctx, ws, socketEvent{Type: socketEventError, Message: "invalid message"})
			continue
		}

		switch req.Type {
		case "ping":
			h.send(ctx, ws, socketEvent{Type: socketEventPong, ID: req.ID})
		case "research":
			if strings.TrimSpace(req.Query) == "" {
				h.send(ctx, ws, socketEvent{Type: socketEventNotice, ID: req.ID, Message: domain.EmptyQueryNotice})
				continue
			}
			if h.limiter != nil && !h.limiter.Allow(clientKey) {
				h.send(ctx, ws, socketEvent{Type: socketEventNotice, ID: req.ID, Message: "Rate limit exceeded. Try again shortly."})
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				h.research(ctx, ws, req, userID)
			}()
		default:
			h.send(ctx, ws, socketEvent{Type: socketEventError, ID: req.ID, Message: "unknown message type"})
		}
	}
}

// research runs one query and finishes with exactly one notice, report or error event.
func (h *WebSocketHandler) research(ctx context.Context, ws *websocket.Conn, req socketRequest, userID string) {
	onEvent := func(e domain.Event) {
		h.send(ctx, ws, socketEvent{
			Type:      string(e.Type),
			ID:        req.ID,
			Tool:      e.Tool,
			Arguments: e.Arguments,
			IsError:   e.IsError,
			Iteration: e.Iteration,
		})
	}

	report, err := h.researcher.Research(ctx, req.Query, onEvent)
	switch {
	case errors.Is(err, domain.ErrEmptyQuery):
		h.send(ctx, ws, socketEvent{Type: socketEventNotice, ID: req.ID, Message: domain.EmptyQueryNotice})
	case err != nil:
		slog.Error("Research over socket failed", "error", err, "user_id", userID)
		h.send(ctx, ws, socketEvent{Type: socketEventError, ID: req.ID, Message: err.Error(), ErrorHTML: render.ErrorHTML(err)})
	default:
		resp := NewResearchResponse(report)
		h.send(ctx, ws, socketEvent{Type: socketEventReport, ID: req.ID, Report: &resp})
	}
}

// send writes v to the socket. coder/websocket serializes concurrent writers.
func (h *WebSocketHandler) send(ctx context.Context, ws *websocket.Conn, v socketEvent) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("Failed to encode socket event", "error", err)
		return
	}
	writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	if err := ws.Write(writeCtx, websocket.MessageText, data); err != nil && ctx.Err() == nil {
		slog.Debug("WebSocket write error", "error", err, "type", v.Type)
	}
}

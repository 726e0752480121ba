package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/ashureev/websearch-agent/internal/domain"
	"github.com/ashureev/websearch-agent/internal/identity"
	"github.com/ashureev/websearch-agent/internal/render"
)

// ResearchRequest is the body of POST /api/research.
type ResearchRequest struct {
	Query string `json:"query"`
}

// ResearchResponse is a rendered report.
type ResearchResponse struct {
	ID         string `json:"id"`
	Query      string `json:"query"`
	Markdown   string `json:"markdown"`
	HTML       string `json:"html"`
	Iterations int    `json:"iterations"`
	ToolCalls  int    `json:"tool_calls"`
	DurationMs int64  `json:"duration_ms"`
}

// NewResearchResponse converts a report for the wire.
func NewResearchResponse(r *domain.Report) ResearchResponse {
	return ResearchResponse{
		ID:         r.ID,
		Query:      r.Query,
		Markdown:   r.Markdown,
		HTML:       r.HTML,
		Iterations: r.Iterations,
		ToolCalls:  r.ToolCalls,
		DurationMs: r.DurationMs(),
	}
}

// ResearchHandler handles research endpoints.
type ResearchHandler struct {
	*Handler
}

// NewResearchHandler creates a new research handler.
func NewResearchHandler(base *Handler) *ResearchHandler {
	return &ResearchHandler{Handler: base}
}

type researchRequestKey struct{}

// RegisterRoutes registers research routes. Middlewares apply to POST /api/research
// only, and only once the body carries a non-blank query.
func (h *ResearchHandler) RegisterRoutes(r chi.Router, middlewares ...func(http.Handler) http.Handler) {
	run := chi.Chain(middlewares...).HandlerFunc(h.Research)
	r.Route("/api", func(r chi.Router) {
		r.Get("/config", h.GetConfig)
		r.Post("/research", h.decodeResearch(run))
	})
}

// GetConfig returns the server configuration for the frontend.
func (h *ResearchHandler) GetConfig(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, map[string]string{
		"provider": h.provider,
		"model":    h.model,
		"title":    AppTitle,
	})
}

// decodeResearch parses the body and answers blank queries before next runs.
func (h *ResearchHandler) decodeResearch(next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxRequestBodySize)

		var req ResearchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				Error(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			Error(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(req.Query) == "" {
			writeEmptyQueryNotice(w)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), researchRequestKey{}, req)))
	}
}

func writeEmptyQueryNotice(w http.ResponseWriter) {
	JSON(w, http.StatusBadRequest, map[string]string{
		"error":  domain.EmptyQueryNotice,
		"notice": "warning",
	})
}

// Research runs the agent for a decoded query and returns the report.
func (h *ResearchHandler) Research(w http.ResponseWriter, r *http.Request) {
	req, _ := r.Context().Value(researchRequestKey{}).(ResearchRequest)
	userID := identity.UserIDFromContext(r.Context())
	requestID := chiMiddleware.GetReqID(r.Context())

	report, err := h.researcher.Research(r.Context(), req.Query, nil)
	if errors.Is(err, domain.ErrEmptyQuery) {
		writeEmptyQueryNotice(w)
		return
	}
	if err != nil {
		slog.Error("Research request failed", "error", err, "user_id", userID, "request_id", requestID)
		JSON(w, http.StatusBadGateway, map[string]string{
			"error":      err.Error(),
			"error_html": render.ErrorHTML(err),
		})
		return
	}

	slog.Info("Research request served", "report_id", report.ID, "user_id", userID, "request_id", requestID)
	JSON(w, http.StatusOK, NewResearchResponse(report))
}

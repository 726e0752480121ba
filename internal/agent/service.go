package agent

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ashureev/websearch-agent/internal/domain"
	"github.com/ashureev/websearch-agent/internal/render"
)

// Service turns research queries into rendered reports.
type Service struct {
	processor Processor
	timeout   time.Duration
}

// NewServiceWithProcessor creates a new research service. A non-positive
// timeout disables the per-request deadline.
func NewServiceWithProcessor(processor Processor, timeout time.Duration) *Service {
	return &Service{
		processor: processor,
		timeout:   timeout,
	}
}

// Research answers query. Blank queries return domain.ErrEmptyQuery without
// contacting the model. Panics raised while researching are returned as errors.
func (s *Service) Research(ctx context.Context, query string, onEvent domain.EventFunc) (report *domain.Report, err error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrEmptyQuery
	}
	if onEvent == nil {
		onEvent = func(domain.Event) {}
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	id := uuid.NewString()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("research panicked", "report_id", id, "panic", r, "stack", string(debug.Stack()))
			report = nil
			err = fmt.Errorf("research panicked: %v", r)
		}
	}()

	slog.Info("research started", "report_id", id, "query_len", len(query))
	onEvent(domain.Event{Type: domain.EventStarted})

	result, err := s.processor.Run(ctx, query, onEvent)
	if err != nil {
		slog.Warn("research failed", "report_id", id, "duration", time.Since(start), "error", err)
		return nil, err
	}

	report = &domain.Report{
		ID:         id,
		Query:      query,
		Markdown:   result.FinalAnswer,
		HTML:       render.Markdown(result.FinalAnswer),
		Iterations: result.Iterations,
		ToolCalls:  result.ToolCalls,
		Duration:   time.Since(start),
	}

	slog.Info("research complete",
		"report_id", id,
		"iterations", report.Iterations,
		"tool_calls", report.ToolCalls,
		"duration", report.Duration,
	)
	return report, nil
}

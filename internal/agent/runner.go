package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/ashureev/websearch-agent/internal/domain"
	"github.com/ashureev/websearch-agent/internal/llm"
)

const maxObservationLen = 20000

// ErrEmptyAnswer is returned when the model stops without producing any text.
var ErrEmptyAnswer = errors.New("model returned an empty answer")

// Runner drives the model/tool loop for a single query.
type Runner struct {
	llm   llm.Client
	tools *ToolRegistry
	cfg   Config
}

// NewRunner creates a runner. Zero values in cfg fall back to DefaultConfig.
func NewRunner(client llm.Client, tools *ToolRegistry, cfg Config) *Runner {
	defaults := DefaultConfig()
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = defaults.SystemPrompt
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaults.MaxTokens
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = defaults.MaxIterations
	}
	if tools == nil {
		tools = NewToolRegistry()
	}
	return &Runner{llm: client, tools: tools, cfg: cfg}
}

// Run asks the model to answer query, executing tool calls until it replies
// without any.
func (r *Runner) Run(ctx context.Context, query string, onEvent domain.EventFunc) (*Result, error) {
	if onEvent == nil {
		onEvent = func(domain.Event) {}
	}

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: r.cfg.SystemPrompt},
		{Role: llm.RoleUser, Content: query},
	}
	toolDefs := r.tools.Definitions()
	toolCalls := 0

	for iteration := 1; iteration <= r.cfg.MaxIterations; iteration++ {
		slog.Debug("starting iteration", "iteration", iteration)

		resp, err := r.llm.Chat(ctx, llm.ChatRequest{
			Messages:    messages,
			Tools:       toolDefs,
			Temperature: r.cfg.Temperature,
			MaxTokens:   r.cfg.MaxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("llm request failed: %w", err)
		}

		messages = append(messages, resp.Message)

		if len(resp.Message.ToolCalls) == 0 {
			answer := strings.TrimSpace(resp.Message.Content)
			if answer == "" {
				return nil, ErrEmptyAnswer
			}
			return &Result{FinalAnswer: answer, Iterations: iteration, ToolCalls: toolCalls}, nil
		}

		for _, tc := range resp.Message.ToolCalls {
			toolCalls++
			onEvent(domain.Event{Type: domain.EventToolCall, Tool: tc.Name, Arguments: tc.Arguments, Iteration: iteration})

			observation, failed := r.executeTool(ctx, tc)
			onEvent(domain.Event{Type: domain.EventToolResult, Tool: tc.Name, IsError: failed, Iteration: iteration})

			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				ToolCallID: tc.ID,
				Name:       tc.Name,
				Content:    observation,
			})
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("max iterations (%d) exceeded", r.cfg.MaxIterations)
}

// executeTool returns the observation for tc and whether the call failed.
func (r *Runner) executeTool(ctx context.Context, tc llm.ToolCall) (string, bool) {
	tool, ok := r.tools.Get(tc.Name)
	if !ok {
		slog.Warn("unknown tool called", "name", tc.Name)
		return fmt.Sprintf("Error: unknown tool '%s'", tc.Name), true
	}

	slog.Info("executing tool", "name", tc.Name, "args", tc.Arguments)

	result, err := tool.Execute(ctx, tc.Arguments)
	if err != nil {
		slog.Error("tool execution failed", "name", tc.Name, "error", err)
		return "Error: " + err.Error(), true
	}

	if len(result) > maxObservationLen {
		result = truncateObservation(result, maxObservationLen)
	}

	slog.Debug("tool completed", "name", tc.Name, "result_len", len(result))
	return result, false
}

// truncateObservation cuts s to at most limit bytes on a rune boundary.
func truncateObservation(s string, limit int) string {
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "\n... (truncated)"
}

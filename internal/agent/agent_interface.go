package agent

import (
	"context"

	"github.com/ashureev/websearch-agent/internal/domain"
)

// Processor produces a final answer for a research query.
// This interface is implemented by Runner.
type Processor interface {
	// Run answers query, reporting tool activity through onEvent.
	Run(ctx context.Context, query string, onEvent domain.EventFunc) (*Result, error)
}

// Tool is a capability the model may invoke during research.
type Tool interface {
	Name() string
	Description() string
	// Parameters returns the JSON schema of the tool arguments.
	Parameters() map[string]any
	// Execute runs the tool with the raw JSON arguments produced by the model.
	Execute(ctx context.Context, arguments string) (string, error)
}

// Ensure Runner implements Processor.
var _ Processor = (*Runner)(nil)

package domain

// EventType categorizes research progress events.
type EventType string

const (
	// EventStarted is emitted once the agent accepts a query.
	EventStarted EventType = "started"
	// EventToolCall is emitted before the agent runs a tool.
	EventToolCall EventType = "tool_call"
	// EventToolResult is emitted after a tool returns.
	EventToolResult EventType = "tool_result"
)

// Event is a progress notification emitted while a report is being produced.
type Event struct {
	Type      EventType `json:"type"`
	Tool      string    `json:"tool,omitempty"`
	Arguments string    `json:"arguments,omitempty"`
	IsError   bool      `json:"is_error,omitempty"`
	Iteration int       `json:"iteration,omitempty"`
}

// EventFunc receives progress events. Implementations must be safe to call
// from the goroutine running the research.
type EventFunc func(Event)

// Package agent implements the tool-calling research agent.
package agent

// Config holds agent configuration.
type Config struct {
	SystemPrompt  string
	Temperature   float32
	MaxTokens     int
	MaxIterations int
}

// DefaultConfig returns the sampling settings the assistant ships with.
func DefaultConfig() Config {
	return Config{
		SystemPrompt:  DefaultSystemPrompt,
		Temperature:   0.3,
		MaxTokens:     1024,
		MaxIterations: 8,
	}
}

// Result is the raw outcome of a research run.
type Result struct {
	FinalAnswer string
	Iterations  int
	ToolCalls   int
}

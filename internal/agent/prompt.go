package agent

import (
	_ "embed"
	"strings"
)

//go:embed prompts/system.txt
var systemPrompt string

// DefaultSystemPrompt instructs the model how to structure and source a report.
var DefaultSystemPrompt = strings.TrimSpace(systemPrompt)

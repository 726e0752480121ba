// Package domain contains core domain types for the research assistant.
package domain

import (
	"errors"
	"time"
)

// ErrEmptyQuery is returned when a research query is blank after trimming.
var ErrEmptyQuery = errors.New("research query is empty")

// EmptyQueryNotice is the user-facing message shown for a blank query.
const EmptyQueryNotice = "Please enter a research question"

// Report is the outcome of one research request. It lives only for the
// duration of the request and is never persisted.
type Report struct {
	ID         string        `json:"id"`
	Query      string        `json:"query"`
	Markdown   string        `json:"markdown"`
	HTML       string        `json:"html"`
	Iterations int           `json:"iterations"`
	ToolCalls  int           `json:"tool_calls"`
	Duration   time.Duration `json:"-"`
}

// DurationMs returns the research duration in milliseconds.
func (r *Report) DurationMs() int64 {
	return r.Duration.Milliseconds()
}

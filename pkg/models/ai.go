// Package models contains shared data models used across the JobDesk codebase.
package models

import (
	"context"
	"time"
)

// AIProvider is implemented by every hosted or local language model backend.
// Services receive it by injection and never construct a provider themselves.
type AIProvider interface {
	// Complete sends a single prompt and returns the model's text reply.
	Complete(ctx context.Context, req CompletionRequest) (Completion, error)
	// Name returns the provider identifier (e.g., "ollama", "openai").
	Name() string
}

// CompletionRequest is one single-shot prompt.
type CompletionRequest struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Completion is the provider's reply.
type Completion struct {
	Text  string
	Model string
}

// Extraction is the best-effort structured output of parsing a job email.
// Every field may be blank when the model omitted or garbled it.
type Extraction struct {
	Reference   string     `json:"reference"`
	Customer    string     `json:"customer"`
	Description string     `json:"description"`
	Trades      []string   `json:"trades"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Checklist   []string   `json:"checklist"`
	Provider    string     `json:"provider"`
	Model       string     `json:"model"`
}

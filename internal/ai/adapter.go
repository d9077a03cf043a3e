package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kiranshivaraju/jobdesk/internal/ai/llm"
	"github.com/kiranshivaraju/jobdesk/pkg/models"
)

const (
	maxEmailBytes      = 20000
	extractMaxTokens   = 1024
	checklistMaxTokens = 800
	reportMaxTokens    = 1200
)

// Adapter turns free-text job emails into structured data through a
// models.AIProvider. It owns the prompt and response shapes; providers only
// move text.
type Adapter struct {
	provider    models.AIProvider
	timeout     time.Duration
	temperature float64
	now         func() time.Time
}

// NewAdapter creates an Adapter. Each call is bounded by timeout.
func NewAdapter(provider models.AIProvider, timeout time.Duration, temperature float64) *Adapter {
	return &Adapter{
		provider:    provider,
		timeout:     timeout,
		temperature: temperature,
		now:         time.Now,
	}
}

// Provider returns the underlying provider's name.
func (a *Adapter) Provider() string { return a.provider.Name() }

// ExtractJob asks the model for the job fields and checklist in one call.
// The returned Extraction may be partially blank; an error means nothing
// usable came back.
func (a *Adapter) ExtractJob(ctx context.Context, subject, body string) (models.Extraction, error) {
	prompt := extractPrompt(subject, truncateString(body, maxEmailBytes), a.now())

	c, err := a.complete(ctx, extractSystem, prompt, extractMaxTokens)
	if err != nil {
		return models.Extraction{}, err
	}

	ext, err := parseExtraction(c.Text)
	if err != nil {
		return models.Extraction{}, err
	}
	ext.Provider = a.provider.Name()
	ext.Model = c.Model
	ext.Description = truncateString(ext.Description, 2000)
	return ext, nil
}

// GenerateChecklist asks for a standalone checklist for the described job.
func (a *Adapter) GenerateChecklist(ctx context.Context, description string, trades []string) ([]string, error) {
	if strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("%w: no job description to build a checklist from", llm.ErrInvalidResponse)
	}

	c, err := a.complete(ctx, checklistSystem, checklistPrompt(description, trades), checklistMaxTokens)
	if err != nil {
		return nil, err
	}

	items := parseChecklist(c.Text)
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: empty checklist", llm.ErrInvalidResponse)
	}
	return items, nil
}

// NarrateReport writes a plain-text business summary of the report.
func (a *Adapter) NarrateReport(ctx context.Context, r *models.Report) (string, error) {
	c, err := a.complete(ctx, reportSystem, reportPrompt(r), reportMaxTokens)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(c.Text)
	if text == "" {
		return "", fmt.Errorf("%w: empty report", llm.ErrInvalidResponse)
	}
	return text, nil
}

func (a *Adapter) complete(ctx context.Context, system, prompt string, maxTokens int) (models.Completion, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	c, err := a.provider.Complete(callCtx, models.CompletionRequest{
		System:      system,
		Prompt:      prompt,
		MaxTokens:   maxTokens,
		Temperature: a.temperature,
	})
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, llm.ErrInferenceTimeout) {
			return models.Completion{}, fmt.Errorf("%w: %v", llm.ErrInferenceTimeout, err)
		}
		return models.Completion{}, err
	}
	return c, nil
}

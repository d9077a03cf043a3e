// Package intake turns incoming job emails into stored jobs.
package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kiranshivaraju/jobdesk/internal/cache"
	"github.com/kiranshivaraju/jobdesk/internal/store"
	"github.com/kiranshivaraju/jobdesk/pkg/models"
)

var (
	ErrInvalidEmail = errors.New("invalid email")
	ErrInvalidDraft = errors.New("invalid job draft")
)

// extractionTTL bounds how long a cached extraction is reused.
const extractionTTL = 24 * time.Hour

// Extractor is the slice of the AI adapter intake needs.
type Extractor interface {
	ExtractJob(ctx context.Context, subject, body string) (models.Extraction, error)
	GenerateChecklist(ctx context.Context, description string, trades []string) ([]string, error)
	Provider() string
}

// Refresher is notified after every stored change.
type Refresher interface {
	Refresh(ctx context.Context)
}

// Email is the raw input pasted into the New Job Entry view.
type Email struct {
	Subject string
	Body    string
}

func (e Email) validate() (Email, error) {
	e.Subject = strings.TrimSpace(e.Subject)
	e.Body = strings.TrimSpace(e.Body)
	if e.Subject == "" {
		return e, fmt.Errorf("%w: subject is required", ErrInvalidEmail)
	}
	if e.Body == "" {
		return e, fmt.Errorf("%w: body is required", ErrInvalidEmail)
	}
	return e, nil
}

// Outcome is an extraction that has not been stored.
type Outcome struct {
	Extraction models.Extraction
	Cached     bool
	// ChecklistError is set when the separate checklist call failed.
	ChecklistError error
}

// Result is what Process created. ExtractionError is non-nil when the job
// was stored with blank fields because the model gave nothing usable.
type Result struct {
	Job             *models.Job
	Extraction      models.Extraction
	Cached          bool
	ExtractionError error
}

// Draft holds user-entered or corrected job fields.
type Draft struct {
	Subject     string
	Body        string
	Reference   string
	Customer    string
	Description string
	Trades      []string
	Status      string
	DueDate     *time.Time
	Checklist   []string
}

type Service struct {
	store          store.Store
	ai             Extractor
	cache          cache.Cache
	mirror         Refresher
	defaultDueDays int
	now            func() time.Time
}

// NewService wires the intake flow. c and mirror may be nil.
func NewService(s store.Store, ai Extractor, c cache.Cache, mirror Refresher, defaultDueDays int) *Service {
	if c == nil {
		c = cache.Nop{}
	}
	return &Service{
		store:          s,
		ai:             ai,
		cache:          c,
		mirror:         mirror,
		defaultDueDays: defaultDueDays,
		now:            time.Now,
	}
}

// Extract runs the AI adapter without storing anything.
func (s *Service) Extract(ctx context.Context, email Email) (*Outcome, error) {
	email, err := email.validate()
	if err != nil {
		return nil, err
	}

	key := cache.ExtractionKey(s.ai.Provider(), email.Subject, email.Body)
	if ext, ok := s.cached(ctx, key); ok {
		return &Outcome{Extraction: ext, Cached: true}, nil
	}

	ext, err := s.ai.ExtractJob(ctx, email.Subject, email.Body)
	if err != nil {
		return nil, fmt.Errorf("extract job: %w", err)
	}

	out := &Outcome{Extraction: ext}
	if len(ext.Checklist) == 0 && ext.Description != "" {
		items, err := s.ai.GenerateChecklist(ctx, ext.Description, ext.Trades)
		if err != nil {
			slog.WarnContext(ctx, "checklist generation failed", "provider", s.ai.Provider(), "error", err)
			out.ChecklistError = err
		} else {
			out.Extraction.Checklist = items
		}
	}

	// A partial result is not cached so the next attempt can fill the checklist.
	if out.ChecklistError == nil {
		s.remember(ctx, key, out.Extraction)
	}
	return out, nil
}

// Process extracts and stores a job. Only an invalid email or a store
// failure returns an error.
func (s *Service) Process(ctx context.Context, email Email) (*Result, error) {
	email, err := email.validate()
	if err != nil {
		return nil, err
	}

	res := &Result{}
	outcome, err := s.Extract(ctx, email)
	if err != nil {
		slog.WarnContext(ctx, "extraction failed, storing job with blank fields",
			"provider", s.ai.Provider(), "error", err)
		res.ExtractionError = err
	} else {
		res.Extraction = outcome.Extraction
		res.Cached = outcome.Cached
	}

	ext := res.Extraction
	job := &models.Job{
		Reference:   ext.Reference,
		Subject:     email.Subject,
		EmailBody:   email.Body,
		Description: ext.Description,
		Customer:    ext.Customer,
		Trades:      cleanList(ext.Trades),
		DueDate:     ext.DueDate,
		Checklist:   models.ChecklistFromTexts(cleanList(ext.Checklist)),
	}
	if job.DueDate == nil && s.defaultDueDays > 0 {
		d := models.Day(s.now()).AddDate(0, 0, s.defaultDueDays)
		job.DueDate = &d
	}

	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("store job: %w", err)
	}
	slog.InfoContext(ctx, "job created from email", "job_id", job.ID,
		"cached", res.Cached, "extraction_failed", res.ExtractionError != nil)

	s.refresh(ctx)
	res.Job = job
	return res, nil
}

// CreateManual stores a job from user-entered fields without calling the model.
func (s *Service) CreateManual(ctx context.Context, d Draft) (*models.Job, error) {
	job := &models.Job{
		Reference:   strings.TrimSpace(d.Reference),
		Subject:     strings.TrimSpace(d.Subject),
		EmailBody:   strings.TrimSpace(d.Body),
		Description: strings.TrimSpace(d.Description),
		Customer:    strings.TrimSpace(d.Customer),
		Trades:      cleanList(d.Trades),
		Checklist:   models.ChecklistFromTexts(cleanList(d.Checklist)),
	}
	if job.Subject == "" && job.Description == "" {
		return nil, fmt.Errorf("%w: subject or description is required", ErrInvalidDraft)
	}
	if d.Status != "" {
		st, err := models.ParseStatus(d.Status)
		if err != nil {
			return nil, err
		}
		job.Status = st
	}
	if d.DueDate != nil {
		day := models.Day(*d.DueDate)
		job.DueDate = &day
	}

	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("store job: %w", err)
	}
	slog.InfoContext(ctx, "job created manually", "job_id", job.ID)

	s.refresh(ctx)
	return job, nil
}

func (s *Service) cached(ctx context.Context, key string) (models.Extraction, bool) {
	data, found, err := s.cache.Get(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "extraction cache read failed", "error", err)
		return models.Extraction{}, false
	}
	if !found {
		return models.Extraction{}, false
	}
	var ext models.Extraction
	if err := json.Unmarshal(data, &ext); err != nil {
		slog.WarnContext(ctx, "discarding unreadable cached extraction", "error", err)
		return models.Extraction{}, false
	}
	return ext, true
}

func (s *Service) remember(ctx context.Context, key string, ext models.Extraction) {
	data, err := json.Marshal(ext)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, extractionTTL); err != nil {
		slog.WarnContext(ctx, "extraction cache write failed", "error", err)
	}
}

func (s *Service) refresh(ctx context.Context) {
	if s.mirror != nil {
		s.mirror.Refresh(ctx)
	}
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if v := strings.TrimSpace(item); v != "" {
			out = append(out, v)
		}
	}
	return out
}

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	mw "github.com/kiranshivaraju/jobdesk/internal/api/middleware"
	"github.com/kiranshivaraju/jobdesk/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Auth      *mw.Auth
	RateLimit *mw.RateLimit

	HealthHandler http.HandlerFunc

	// New Job Entry
	IntakeHandler  http.HandlerFunc
	PreviewHandler http.HandlerFunc

	// Job Tracker
	CreateJobHandler        http.HandlerFunc
	ListJobsHandler         http.HandlerFunc
	GetJobHandler           http.HandlerFunc
	CorrectJobHandler       http.HandlerFunc
	SetStatusHandler        http.HandlerFunc
	SetDueDateHandler       http.HandlerFunc
	SetChecklistItemHandler http.HandlerFunc

	// Status Reports
	WeeklyReportHandler http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	if deps.Auth == nil {
		deps.Auth = mw.NewAuth("")
	}
	if deps.RateLimit == nil {
		deps.RateLimit = mw.NewRateLimit(nil, 0)
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RealIP)
	r.Use(mw.RequestID)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Public health check
		r.Get("/health", orNotImplemented(deps.HealthHandler))

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.Authenticate)

			r.Route("/intake", func(r chi.Router) {
				r.Use(deps.RateLimit.Limit)
				r.Post("/", orNotImplemented(deps.IntakeHandler))
				r.Post("/preview", orNotImplemented(deps.PreviewHandler))
			})

			r.Route("/jobs", func(r chi.Router) {
				r.Post("/", orNotImplemented(deps.CreateJobHandler))
				r.Get("/", orNotImplemented(deps.ListJobsHandler))

				r.Route("/{jobID}", func(r chi.Router) {
					r.Get("/", orNotImplemented(deps.GetJobHandler))
					r.Patch("/", orNotImplemented(deps.CorrectJobHandler))
					r.Put("/status", orNotImplemented(deps.SetStatusHandler))
					r.Put("/due-date", orNotImplemented(deps.SetDueDateHandler))
					r.Put("/checklist/{index}", orNotImplemented(deps.SetChecklistItemHandler))
				})
			})

			r.With(whenNarrative(deps.RateLimit.Limit)).
				Get("/reports/weekly", orNotImplemented(deps.WeeklyReportHandler))
		})
	})

	return r
}

// whenNarrative applies limit only to report requests that call the model.
func whenNarrative(limit func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		limited := limit(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if narrative, _ := strconv.ParseBool(r.URL.Query().Get("narrative")); narrative {
				limited.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}

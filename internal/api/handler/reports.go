package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/kiranshivaraju/jobdesk/internal/api/response"
	"github.com/kiranshivaraju/jobdesk/pkg/models"
)

// Reporter builds the Status Reports view.
type Reporter interface {
	Weekly(ctx context.Context, now time.Time) (*models.Report, error)
	WeeklyWithNarrative(ctx context.Context, now time.Time) (*models.Report, error)
}

// NewWeeklyReportHandler returns GET /api/v1/reports/weekly. Pass
// ?narrative=true to ask the model for a prose summary.
func NewWeeklyReportHandler(rep Reporter, now func() time.Time) http.HandlerFunc {
	if now == nil {
		now = time.Now
	}
	return func(w http.ResponseWriter, r *http.Request) {
		narrative := false
		if v := r.URL.Query().Get("narrative"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				badRequest(w, "narrative must be true or false")
				return
			}
			narrative = b
		}

		build := rep.Weekly
		if narrative {
			build = rep.WeeklyWithNarrative
		}
		report, err := build(r.Context(), now())
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.JSON(w, toReportResponse(report))
	}
}

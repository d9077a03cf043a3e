package ai

import (
	"fmt"
	"strings"
	"time"

	"github.com/kiranshivaraju/jobdesk/pkg/models"
)

const extractSystem = `You extract structured data from repair job emails for a building maintenance company.
Reply with a single JSON object and nothing else.`

const extractTemplate = `Today is %s.

Extract the following information from this repair job email:
Subject: %s
Details: %s

Return JSON with these keys:
  "reference":   job or work-order number from the subject if present, else ""
  "customer":    customer or site name, else ""
  "description": brief scope of work
  "trades":      list of every trade needed (e.g. "plumbing", "electrical")
  "due_date":    requested completion date as YYYY-MM-DD, else ""
  "checklist":   list of short task strings to complete the job`

const checklistSystem = `You write practical job checklists for repair technicians.`

const checklistTemplate = `Create a detailed checklist for this repair job: %s
Trades involved: %s

Include steps for:
1. Initial assessment
2. Required inspections
3. Work execution
4. Quality checks
5. Client communication

Format as a numbered list, one short task per line.`

const reportSystem = `You write concise weekly status reports for a repair business owner.`

const reportTemplate = `Generate a weekly status report from this job data (as of %s):

%s
Provide:
1. Total number of active jobs
2. Jobs by status
3. Upcoming due dates
4. Key actions needed

Format as a clear business report in plain text.`

func extractPrompt(subject, body string, now time.Time) string {
	return fmt.Sprintf(extractTemplate, now.UTC().Format(models.DateLayout), subject, body)
}

func checklistPrompt(description string, trades []string) string {
	t := strings.Join(trades, ", ")
	if t == "" {
		t = "unspecified"
	}
	return fmt.Sprintf(checklistTemplate, description, t)
}

func reportPrompt(r *models.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Total jobs: %d\n", r.Total)
	for _, g := range r.ByStatus {
		fmt.Fprintf(&b, "%s: %d\n", g.Label, g.Count)
	}
	b.WriteString("\nJobs:\n")
	for _, g := range r.ByStatus {
		for _, j := range g.Jobs {
			due := "none"
			if j.DueDate != nil {
				due = j.DueDate.Format(models.DateLayout)
			}
			done, total := j.ChecklistProgress()
			fmt.Fprintf(&b, "- %s | %s | %s | customer: %s | due: %s | checklist %d/%d\n",
				j.ID, g.Label, truncateString(j.Description, 200), j.Customer, due, done, total)
		}
	}
	if len(r.Overdue) > 0 {
		b.WriteString("\nOverdue:")
		for _, j := range r.Overdue {
			b.WriteString(" " + j.ID)
		}
		b.WriteString("\n")
	}
	return fmt.Sprintf(reportTemplate, r.GeneratedAt.UTC().Format(models.DateLayout), b.String())
}

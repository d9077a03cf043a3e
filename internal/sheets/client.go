// Package sheets mirrors the job list into a Google Sheets spreadsheet.
package sheets

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/kiranshivaraju/jobdesk/internal/config"
	"github.com/kiranshivaraju/jobdesk/pkg/models"
)

// Header is the first row written to the sheet.
var Header = []string{
	"Job ID", "Reference", "Customer", "Scope of Work", "Required Trades",
	"Due Date", "Status", "Checklist Done", "Created Date", "Updated Date",
}

const timestampLayout = "2006-01-02 15:04"

// Client writes rows to one sheet of one spreadsheet.
type Client struct {
	srv           *sheets.Service
	spreadsheetID string
	sheetName     string
}

// NewClient authenticates with the service-account JSON named in cfg.
func NewClient(ctx context.Context, cfg config.SheetsConfig) (*Client, error) {
	data, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read sheets credentials: %w", err)
	}
	jwt, err := google.JWTConfigFromJSON(data, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse sheets credentials: %w", err)
	}
	return NewClientWithOptions(ctx, cfg.SpreadsheetID, cfg.SheetName, option.WithHTTPClient(jwt.Client(ctx)))
}

// NewClientWithOptions builds a Client from explicit API client options.
func NewClientWithOptions(ctx context.Context, spreadsheetID, sheetName string, opts ...option.ClientOption) (*Client, error) {
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %w", err)
	}
	if sheetName == "" {
		sheetName = "Sheet1"
	}
	return &Client{srv: srv, spreadsheetID: spreadsheetID, sheetName: sheetName}, nil
}

// Push replaces the sheet contents with a header row and one row per job.
func (c *Client) Push(ctx context.Context, jobs []*models.Job) error {
	sheet := quoteSheet(c.sheetName)

	_, err := c.srv.Spreadsheets.Values.Clear(c.spreadsheetID, sheet, &sheets.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear sheet %s: %w", c.sheetName, err)
	}

	vr := &sheets.ValueRange{Values: Rows(jobs)}
	_, err = c.srv.Spreadsheets.Values.Update(c.spreadsheetID, sheet+"!A1", vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write sheet %s: %w", c.sheetName, err)
	}
	return nil
}

// Rows renders the header plus one row per job.
func Rows(jobs []*models.Job) [][]interface{} {
	rows := make([][]interface{}, 0, len(jobs)+1)

	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	rows = append(rows, header)

	for _, j := range jobs {
		due := ""
		if j.DueDate != nil {
			due = j.DueDate.Format(models.DateLayout)
		}
		done, total := j.ChecklistProgress()
		rows = append(rows, []interface{}{
			j.ID,
			j.Reference,
			j.Customer,
			j.Description,
			strings.Join(j.Trades, ", "),
			due,
			j.Status.Label(),
			fmt.Sprintf("%d/%d", done, total),
			j.CreatedAt.UTC().Format(timestampLayout),
			j.UpdatedAt.UTC().Format(timestampLayout),
		})
	}
	return rows
}

// quoteSheet quotes a sheet name for A1 notation when it needs it.
func quoteSheet(name string) string {
	if strings.ContainsAny(name, " '!") {
		return "'" + strings.ReplaceAll(name, "'", "''") + "'"
	}
	return name
}

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiranshivaraju/jobdesk/pkg/models"
)

const jobColumns = `id, reference, subject, email_body, description, customer, trades, status, due_date, created_at, updated_at`

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, now: time.Now}
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) CreateJob(ctx context.Context, job *models.Job) error {
	if job.Status != "" && !job.Status.Valid() {
		return fmt.Errorf("%w: %q", models.ErrInvalidStatus, job.Status)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create job: %w", err)
	}
	defer tx.Rollback(ctx)

	var seq int64
	if err := tx.QueryRow(ctx, `SELECT nextval('job_number_seq')`).Scan(&seq); err != nil {
		return fmt.Errorf("next job id: %w", err)
	}

	candidate := job.Clone()
	// Stored timestamps have microsecond precision.
	if err := prepareNew(candidate, uint64(seq), s.now().UTC().Truncate(time.Microsecond)); err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO jobs (seq, `+jobColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		seq, candidate.ID, candidate.Reference, candidate.Subject, candidate.EmailBody,
		candidate.Description, candidate.Customer, candidate.Trades, string(candidate.Status),
		candidate.DueDate, candidate.CreatedAt, candidate.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create job %s: id already taken: %w", candidate.ID, err)
		}
		return fmt.Errorf("create job: %w", err)
	}

	if err := insertChecklist(ctx, tx, candidate.ID, candidate.Checklist); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create job: %w", err)
	}

	*job = *candidate
	return nil
}

func (s *PostgresStore) GetJob(ctx context.Context, id string) (*models.Job, error) {
	j, err := scanJob(s.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := s.loadChecklists(ctx, s.pool, []*models.Job{j}); err != nil {
		return nil, err
	}
	return j, nil
}

func (s *PostgresStore) ListJobs(ctx context.Context, filter JobFilter) ([]*models.Job, int, error) {
	where := ""
	args := []any{}
	if filter.Status != "" {
		where = " WHERE status = $1"
		args = append(args, string(filter.Status))
	}

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM jobs`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count jobs: %w", err)
	}

	query := `SELECT ` + jobColumns + ` FROM jobs` + where + ` ORDER BY seq`
	offset, limit := filter.window()
	if limit >= 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, limit, offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	jobs := []*models.Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, 0, err
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list jobs: %w", err)
	}

	if err := s.loadChecklists(ctx, s.pool, jobs); err != nil {
		return nil, 0, err
	}
	return jobs, total, nil
}

// UpdateJob locks the row, applies opts in Go and writes the result back in
// the same transaction.
func (s *PostgresStore) UpdateJob(ctx context.Context, id string, opts ...JobUpdateOption) (*models.Job, error) {
	params := collectParams(opts)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin update job: %w", err)
	}
	defer tx.Rollback(ctx)

	j, err := scanJob(tx.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}
	if err := s.loadChecklists(ctx, tx, []*models.Job{j}); err != nil {
		return nil, err
	}

	if err := params.apply(j, s.now().UTC().Truncate(time.Microsecond)); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx,
		`UPDATE jobs SET reference = $2, description = $3, customer = $4, trades = $5,
		   status = $6, due_date = $7, updated_at = $8
		 WHERE id = $1`,
		j.ID, j.Reference, j.Description, j.Customer, j.Trades, string(j.Status), j.DueDate, j.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update job: %w", err)
	}

	if params.checklistChanged() {
		if _, err := tx.Exec(ctx, `DELETE FROM checklist_items WHERE job_id = $1`, j.ID); err != nil {
			return nil, fmt.Errorf("clear checklist: %w", err)
		}
		if err := insertChecklist(ctx, tx, j.ID, j.Checklist); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit update job: %w", err)
	}
	return j, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// loadChecklists fills Checklist on each job with one query.
func (s *PostgresStore) loadChecklists(ctx context.Context, q querier, jobs []*models.Job) error {
	if len(jobs) == 0 {
		return nil
	}
	byID := make(map[string]*models.Job, len(jobs))
	ids := make([]string, 0, len(jobs))
	for _, j := range jobs {
		j.Checklist = []models.ChecklistItem{}
		byID[j.ID] = j
		ids = append(ids, j.ID)
	}

	rows, err := q.Query(ctx,
		`SELECT job_id, text, done FROM checklist_items
		 WHERE job_id = ANY($1) ORDER BY job_id, position`, ids)
	if err != nil {
		return fmt.Errorf("load checklists: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			jobID string
			item  models.ChecklistItem
		)
		if err := rows.Scan(&jobID, &item.Text, &item.Done); err != nil {
			return fmt.Errorf("scan checklist item: %w", err)
		}
		if j, ok := byID[jobID]; ok {
			j.Checklist = append(j.Checklist, item)
		}
	}
	return rows.Err()
}

func insertChecklist(ctx context.Context, tx pgx.Tx, jobID string, items []models.ChecklistItem) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(items))
	for i, item := range items {
		rows = append(rows, []any{jobID, i, item.Text, item.Done})
	}
	_, err := tx.CopyFrom(ctx,
		pgx.Identifier{"checklist_items"},
		[]string{"job_id", "position", "text", "done"},
		pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("insert checklist: %w", err)
	}
	return nil
}

func scanJob(row pgx.Row) (*models.Job, error) {
	var (
		j      models.Job
		status string
	)
	err := row.Scan(&j.ID, &j.Reference, &j.Subject, &j.EmailBody, &j.Description, &j.Customer,
		&j.Trades, &status, &j.DueDate, &j.CreatedAt, &j.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan job: %w", err)
	}
	j.Status = models.Status(status)
	j.CreatedAt = j.CreatedAt.UTC()
	j.UpdatedAt = j.UpdatedAt.UTC()
	if j.Trades == nil {
		j.Trades = []string{}
	}
	return &j, nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}

var _ Store = (*PostgresStore)(nil)

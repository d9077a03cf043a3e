package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/hashicorp/go-memdb"
	"github.com/kiranshivaraju/jobdesk/pkg/models"
)

const (
	tableIndex = "index"
	tableJobs  = "jobs"
)

// indexEntry keeps the last sequence number handed out per table.
type indexEntry struct {
	Table string
	Index uint64
}

type jobRecord struct {
	ID  string
	Seq uint64
	Job *models.Job
}

// MemoryStore keeps jobs in process memory for the life of the session.
type MemoryStore struct {
	db  *memdb.MemDB
	now func() time.Time
}

// NewMemoryStore returns an empty in-memory job store.
func NewMemoryStore() (*MemoryStore, error) {
	schema := &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tableIndex: {
				Name: tableIndex,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "Table"},
					},
				},
			},
			tableJobs: {
				Name: tableJobs,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ID"},
					},
				},
			},
		},
	}

	db, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, fmt.Errorf("create memdb: %w", err)
	}
	return &MemoryStore{db: db, now: time.Now}, nil
}

func (s *MemoryStore) Ping(_ context.Context) error { return nil }

func (s *MemoryStore) CreateJob(_ context.Context, job *models.Job) error {
	tx := s.db.Txn(true)
	defer tx.Abort()

	seq, err := lastIndex(tx, tableJobs)
	if err != nil {
		return err
	}
	seq++

	if err := prepareNew(job, seq, s.now().UTC()); err != nil {
		return err
	}
	if err := tx.Insert(tableJobs, &jobRecord{ID: job.ID, Seq: seq, Job: job.Clone()}); err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	if err := tx.Insert(tableIndex, &indexEntry{Table: tableJobs, Index: seq}); err != nil {
		return fmt.Errorf("update index: %w", err)
	}

	tx.Commit()
	return nil
}

func (s *MemoryStore) GetJob(_ context.Context, id string) (*models.Job, error) {
	tx := s.db.Txn(false)
	defer tx.Abort()

	rec, err := getRecord(tx, id)
	if err != nil {
		return nil, err
	}
	return rec.Job.Clone(), nil
}

func (s *MemoryStore) ListJobs(_ context.Context, filter JobFilter) ([]*models.Job, int, error) {
	tx := s.db.Txn(false)
	defer tx.Abort()

	it, err := tx.Get(tableJobs, "id")
	if err != nil {
		return nil, 0, fmt.Errorf("list jobs: %w", err)
	}

	var recs []*jobRecord
	for obj := it.Next(); obj != nil; obj = it.Next() {
		rec := obj.(*jobRecord)
		if filter.Status != "" && rec.Job.Status != filter.Status {
			continue
		}
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Seq < recs[j].Seq })

	jobs := make([]*models.Job, 0, len(recs))
	for _, rec := range recs {
		jobs = append(jobs, rec.Job.Clone())
	}
	return filter.paginate(jobs), len(jobs), nil
}

func (s *MemoryStore) UpdateJob(_ context.Context, id string, opts ...JobUpdateOption) (*models.Job, error) {
	tx := s.db.Txn(true)
	defer tx.Abort()

	rec, err := getRecord(tx, id)
	if err != nil {
		return nil, err
	}

	updated := rec.Job.Clone()
	if err := collectParams(opts).apply(updated, s.now().UTC()); err != nil {
		return nil, err
	}
	if err := tx.Insert(tableJobs, &jobRecord{ID: rec.ID, Seq: rec.Seq, Job: updated}); err != nil {
		return nil, fmt.Errorf("update job: %w", err)
	}

	tx.Commit()
	return updated.Clone(), nil
}

func getRecord(tx *memdb.Txn, id string) (*jobRecord, error) {
	obj, err := tx.First(tableJobs, "id", id)
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	if obj == nil {
		return nil, ErrNotFound
	}
	return obj.(*jobRecord), nil
}

func lastIndex(tx *memdb.Txn, table string) (uint64, error) {
	obj, err := tx.First(tableIndex, "id", table)
	if err != nil {
		return 0, fmt.Errorf("read index: %w", err)
	}
	if obj == nil {
		return 0, nil
	}
	return obj.(*indexEntry).Index, nil
}

var _ Store = (*MemoryStore)(nil)

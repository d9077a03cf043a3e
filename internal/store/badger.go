package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/kiranshivaraju/jobdesk/pkg/models"
)

const (
	badgerJobPrefix = "jobs/"
	badgerSeqKey    = "seq/jobs"
	seqBandwidth    = 16
)

type badgerRecord struct {
	Seq uint64      `json:"seq"`
	Job *models.Job `json:"job"`
}

// BadgerStore keeps jobs in an embedded Badger database so they survive a
// restart without a Postgres server.
type BadgerStore struct {
	db  *badger.DB
	seq *badger.Sequence
	now func() time.Time
}

// NewBadgerStore opens (or creates) the database under dataDir.
func NewBadgerStore(dataDir string) (*BadgerStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	opts := badger.DefaultOptions(filepath.Join(dataDir, "badger"))
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	seq, err := db.GetSequence([]byte(badgerSeqKey), seqBandwidth)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open job sequence: %w", err)
	}

	return &BadgerStore{db: db, seq: seq, now: time.Now}, nil
}

// Close releases the leased sequence range and closes the database.
func (s *BadgerStore) Close() error {
	if err := s.seq.Release(); err != nil {
		s.db.Close()
		return fmt.Errorf("release job sequence: %w", err)
	}
	return s.db.Close()
}

func (s *BadgerStore) Ping(_ context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger: database is closed")
	}
	return nil
}

func (s *BadgerStore) CreateJob(_ context.Context, job *models.Job) error {
	n, err := s.seq.Next()
	if err != nil {
		return fmt.Errorf("next job id: %w", err)
	}
	// Badger sequences start at zero; job numbers start at one.
	seq := n + 1

	if err := prepareNew(job, seq, s.now().UTC()); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return putRecord(txn, &badgerRecord{Seq: seq, Job: job})
	})
}

func (s *BadgerStore) GetJob(_ context.Context, id string) (*models.Job, error) {
	var rec *badgerRecord
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		rec, err = getBadgerRecord(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec.Job, nil
}

func (s *BadgerStore) ListJobs(_ context.Context, filter JobFilter) ([]*models.Job, int, error) {
	var recs []*badgerRecord
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(badgerJobPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec badgerRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("decode job %s: %w", it.Item().Key(), err)
			}
			if filter.Status != "" && rec.Job.Status != filter.Status {
				continue
			}
			recs = append(recs, &rec)
		}
		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list jobs: %w", err)
	}

	sort.Slice(recs, func(i, j int) bool { return recs[i].Seq < recs[j].Seq })

	jobs := make([]*models.Job, 0, len(recs))
	for _, rec := range recs {
		jobs = append(jobs, rec.Job)
	}
	return filter.paginate(jobs), len(jobs), nil
}

func (s *BadgerStore) UpdateJob(_ context.Context, id string, opts ...JobUpdateOption) (*models.Job, error) {
	params := collectParams(opts)

	var updated *models.Job
	err := s.db.Update(func(txn *badger.Txn) error {
		rec, err := getBadgerRecord(txn, id)
		if err != nil {
			return err
		}
		if err := params.apply(rec.Job, s.now().UTC()); err != nil {
			return err
		}
		updated = rec.Job
		return putRecord(txn, rec)
	})
	if err != nil {
		return nil, err
	}
	return updated.Clone(), nil
}

func getBadgerRecord(txn *badger.Txn, id string) (*badgerRecord, error) {
	item, err := txn.Get([]byte(badgerJobPrefix + id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}

	var rec badgerRecord
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	}); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", id, err)
	}
	return &rec, nil
}

func putRecord(txn *badger.Txn, rec *badgerRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := txn.Set([]byte(badgerJobPrefix+rec.Job.ID), data); err != nil {
		return fmt.Errorf("store job: %w", err)
	}
	return nil
}

var _ Store = (*BadgerStore)(nil)

// Package history persists reconciled runs in a bbolt database so past
// reports can be listed and reprinted.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	bolt "go.etcd.io/bbolt"

	"github.com/AndreyAkinshin/automatest/internal/index"
)

// FileName is the database file created inside the logs directory.
const FileName = "history.db"

// IDLayout formats run IDs; IDs sort chronologically.
const IDLayout = "2006-01-02_15-04-05"

var runsBucket = []byte("runs")

// ErrNotFound is returned by Get for an unknown run ID.
var ErrNotFound = errors.New("run not found")

// ErrExists is returned by Save when a run with the same ID is stored.
var ErrExists = errors.New("run already recorded")

var (
	encoder, _ = zstd.NewWriter(nil)
	decoder, _ = zstd.NewReader(nil)
)

// Record is one stored run.
type Record struct {
	ID        string        `json:"id"`
	StartedAt time.Time     `json:"started_at"`
	Runner    string        `json:"runner"`
	Totals    index.Totals  `json:"totals"`
	Groups    []index.Group `json:"groups"`
}

// NewRecord captures the current contents of idx.
func NewRecord(started time.Time, runner string, idx *index.Index) Record {
	return Record{
		ID:        started.Format(IDLayout),
		StartedAt: started,
		Runner:    runner,
		Totals:    idx.Totals(),
		Groups:    idx.Groups(),
	}
}

// Index rebuilds the aggregation index of the run.
func (r Record) Index() *index.Index {
	return index.FromGroups(r.Groups)
}

// Store is a bbolt-backed run history.
type Store struct {
	db *bolt.DB
	mu sync.RWMutex
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(runsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init history bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores a run under its ID.
func (s *Store) Save(rec Record) error {
	if rec.ID == "" {
		return errors.New("run ID is required")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}
	compressed := encoder.EncodeAll(data, nil)

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(runsBucket)
		if b.Get([]byte(rec.ID)) != nil {
			return fmt.Errorf("%w: %s", ErrExists, rec.ID)
		}
		return b.Put([]byte(rec.ID), compressed)
	})
}

// Get returns the run with the given ID.
func (s *Store) Get(id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rec *Record
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(runsBucket).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		r, err := decodeRecord(data)
		if err != nil {
			return fmt.Errorf("decode run %s: %w", id, err)
		}
		rec = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// List returns up to limit runs, newest first. A limit of zero or less
// returns every run.
func (s *Store) List(limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []Record
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(runsBucket).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(records) >= limit {
				break
			}
			rec, err := decodeRecord(v)
			if err != nil {
				return fmt.Errorf("decode run %s: %w", string(k), err)
			}
			records = append(records, *rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func decodeRecord(data []byte) (*Record, error) {
	raw, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

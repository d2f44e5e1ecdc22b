// Package quotes keeps the history of priced quotes in a write-ahead log.
package quotes

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"

	"github.com/vadiminshakov/bsprice/internal/domain"
)

const (
	DefaultDir     = "./wal/quotes"
	segmentLimit   = 1000
	maxSegments    = 100
	quoteKeyPrefix = "quote_"

	// retained is how many entries survive segment rotation.
	retained = segmentLimit * maxSegments
)

// WALStore persists quotes in a WAL.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewWALStore opens (or creates) the quote WAL under dir.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = DefaultDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "quote_",
		SegmentThreshold: segmentLimit,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init quote WAL")
	}

	return &WALStore{wal: wal}, nil
}

// Save appends the quote to the WAL.
func (s *WALStore) Save(quote domain.Quote) error {
	if s == nil || s.wal == nil {
		return errors.New("quote store is not initialized")
	}
	if quote.ID == "" {
		return errors.New("quote id is required")
	}

	payload, err := json.Marshal(quote)
	if err != nil {
		return errors.Wrap(err, "marshal quote")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	if err := s.wal.Write(nextIndex, quoteKeyPrefix+quote.ID, payload); err != nil {
		return errors.Wrapf(err, "write quote %s", quote.ID)
	}
	return nil
}

// QuotesAfter returns up to limit quotes written after the provided WAL index,
// oldest first. limit <= 0 returns everything still retained. Entries dropped
// by segment rotation are skipped.
func (s *WALStore) QuotesAfter(index uint64, limit int) ([]domain.QuoteRecord, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("quote store is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.wal.CurrentIndex()
	start, capacity := scanWindow(index, current, limit)
	if capacity == 0 {
		return nil, nil
	}

	records := make([]domain.QuoteRecord, 0, capacity)
	for idx := start; idx <= current; idx++ {
		key, payload, err := s.wal.Get(idx)
		if err != nil || !strings.HasPrefix(key, quoteKeyPrefix) {
			continue
		}

		var quote domain.Quote
		if err := json.Unmarshal(payload, &quote); err != nil {
			return nil, errors.Wrapf(err, "decode quote at index %d", idx)
		}
		records = append(records, domain.QuoteRecord{Index: idx, Quote: quote})
		if limit > 0 && len(records) == limit {
			break
		}
	}

	return records, nil
}

// scanWindow returns the first index worth reading and the most records the
// read can yield. Indexes older than the retained window are never scanned.
func scanWindow(index, current uint64, limit int) (start uint64, capacity int) {
	if index >= current {
		return current + 1, 0
	}
	start = index + 1
	if current > retained && start <= current-retained {
		start = current - retained + 1
	}
	n := current - start + 1
	if limit > 0 && uint64(limit) < n {
		n = uint64(limit)
	}
	return start, int(n)
}

// CurrentIndex returns the latest WAL index stored.
func (s *WALStore) CurrentIndex() uint64 {
	if s == nil || s.wal == nil {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.wal.CurrentIndex()
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("quote store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}

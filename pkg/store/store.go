// Package store owns the current snapshot of the five dashboard tables.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/harrisonrobin/taskboard/pkg/model"
)

// ErrAllTablesFailed is returned by Reload when no table could be fetched.
// The previous snapshot stays current.
var ErrAllTablesFailed = errors.New("all table fetches failed")

// Fetcher reads one named sheet.
type Fetcher interface {
	Fetch(ctx context.Context, sheetName string) ([]model.Record, error)
}

// Store holds the current Snapshot behind an atomic pointer. Reload is the
// only writer; readers always see a whole snapshot.
type Store struct {
	fetcher Fetcher
	sheets  map[model.Table]string
	timeout time.Duration
	log     logrus.FieldLogger
	now     func() time.Time

	current atomic.Pointer[model.Snapshot]
}

// New creates a Store reading the given sheet names. timeout bounds each
// table fetch; zero disables the bound.
func New(fetcher Fetcher, sheets map[model.Table]string, timeout time.Duration, log logrus.FieldLogger) *Store {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Store{
		fetcher: fetcher,
		sheets:  sheets,
		timeout: timeout,
		log:     log,
		now:     time.Now,
	}
	s.current.Store(model.NewSnapshot(nil, time.Time{}))
	return s
}

// Snapshot returns the current snapshot. It is never nil; before the first
// reload every table is empty. Callers must not modify it.
func (s *Store) Snapshot() *model.Snapshot {
	return s.current.Load()
}

type tableResult struct {
	table   model.Table
	records []model.Record
	err     error
}

// Reload fetches all tables concurrently and swaps in the new snapshot once
// every fetch has finished. A failed table is replaced by an empty one. When
// every fetch fails the current snapshot is kept and ErrAllTablesFailed is
// returned. If ctx ends before the fetches finish nothing is swapped in.
// Concurrent reloads are allowed; the last one to finish wins.
func (s *Store) Reload(ctx context.Context) (*model.Snapshot, error) {
	results := make(chan tableResult, len(model.AllTables))
	var wg sync.WaitGroup
	for _, table := range model.AllTables {
		wg.Add(1)
		go func(table model.Table) {
			defer wg.Done()
			records, err := s.fetchTable(ctx, table)
			results <- tableResult{table: table, records: records, err: err}
		}(table)
	}
	wg.Wait()
	close(results)

	// Tables that failed because the caller gave up are not empty; keep the
	// current snapshot rather than publish a partial one.
	if err := ctx.Err(); err != nil {
		s.log.WithError(err).Warn("reload cancelled, keeping current snapshot")
		return s.Snapshot(), fmt.Errorf("reload cancelled: %w", err)
	}

	tables := make(map[model.Table][]model.Record, len(model.AllTables))
	var errs []error
	for r := range results {
		if r.err != nil {
			s.log.WithError(r.err).WithField("table", r.table).Warn("table fetch failed, using empty table")
			errs = append(errs, r.err)
			tables[r.table] = []model.Record{}
			continue
		}
		tables[r.table] = r.records
	}

	if len(errs) == len(model.AllTables) {
		return s.Snapshot(), fmt.Errorf("%w: %w", ErrAllTablesFailed, errors.Join(errs...))
	}

	snap := model.NewSnapshot(tables, s.now())
	s.current.Store(snap)
	s.log.WithFields(logrus.Fields{
		"meetings": len(snap.Meetings),
		"todos":    len(snap.Todos),
		"failed":   len(errs),
	}).Info("snapshot reloaded")
	return snap, nil
}

func (s *Store) fetchTable(ctx context.Context, table model.Table) ([]model.Record, error) {
	name, ok := s.sheets[table]
	if !ok || name == "" {
		return nil, fmt.Errorf("no sheet configured for table %s", table)
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	records, err := s.fetcher.Fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []model.Record{}
	}
	return records, nil
}

package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/harrisonrobin/taskboard/pkg/model"
)

var testSheets = map[model.Table]string{
	model.Meetings:      "01_會議工作清單",
	model.Categories:    "02_分類設定",
	model.Organizations: "03_單位設定",
	model.Staff:         "04_人員設定",
	model.Todos:         "05_待辦追蹤",
}

type fakeFetcher struct {
	mu      sync.Mutex
	tables  map[string][]model.Record
	failing map[string]bool
	calls   int
}

func (f *fakeFetcher) Fetch(ctx context.Context, sheet string) ([]model.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failing[sheet] {
		return nil, fmt.Errorf("sheet %s unavailable", sheet)
	}
	rows := f.tables[sheet]
	out := make([]model.Record, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out, nil
}

func newFake() *fakeFetcher {
	return &fakeFetcher{
		tables: map[string][]model.Record{
			"01_會議工作清單": {{model.MeetingTitle: "預算審查", model.MeetingStatus: model.StatusPending}},
			"02_分類設定":   {{model.CategoryName: "計畫類", model.EnabledColumn: model.FlagYes}},
			"05_待辦追蹤":   {{model.TodoTask: "寄送紀錄", model.TodoStatus: model.StatusCompleted}},
		},
		failing: map[string]bool{},
	}
}

func newTestStore(f Fetcher) *Store {
	log, _ := test.NewNullLogger()
	return New(f, testSheets, time.Second, log)
}

func TestSnapshotBeforeReload(t *testing.T) {
	s := newTestStore(newFake())
	snap := s.Snapshot()
	require.NotNil(t, snap)
	if len(snap.Meetings) != 0 || snap.Meetings == nil {
		t.Errorf("Expected empty non-nil meetings, got %#v", snap.Meetings)
	}
}

func TestReloadIsIdempotent(t *testing.T) {
	s := newTestStore(newFake())

	first, err := s.Reload(context.Background())
	require.NoError(t, err)
	second, err := s.Reload(context.Background())
	require.NoError(t, err)

	if first == second {
		t.Error("Expected reload to publish a fresh snapshot")
	}
	opt := cmpopts.IgnoreFields(model.Snapshot{}, "LoadedAt")
	if diff := cmp.Diff(first, second, opt); diff != "" {
		t.Errorf("Reloads diverged (-first +second):\n%s", diff)
	}
	if s.Snapshot() != second {
		t.Error("Expected current snapshot to be the last reload")
	}
}

func TestReloadIsolatesTableFailures(t *testing.T) {
	f := newFake()
	f.failing["02_分類設定"] = true
	s := newTestStore(f)

	snap, err := s.Reload(context.Background())
	require.NoError(t, err)
	if len(snap.Categories) != 0 {
		t.Errorf("Expected failed table to be empty, got %d rows", len(snap.Categories))
	}
	if len(snap.Meetings) != 1 || len(snap.Todos) != 1 {
		t.Errorf("Expected sibling tables to load, got meetings=%d todos=%d", len(snap.Meetings), len(snap.Todos))
	}
}

func TestReloadAllFailedKeepsSnapshot(t *testing.T) {
	f := newFake()
	s := newTestStore(f)
	good, err := s.Reload(context.Background())
	require.NoError(t, err)

	for _, name := range testSheets {
		f.failing[name] = true
	}
	snap, err := s.Reload(context.Background())
	if !errors.Is(err, ErrAllTablesFailed) {
		t.Fatalf("Expected ErrAllTablesFailed, got %v", err)
	}
	if snap != good || s.Snapshot() != good {
		t.Error("Expected last good snapshot to be preserved")
	}
}

func TestReloadMissingSheetName(t *testing.T) {
	log, _ := test.NewNullLogger()
	sheets := map[model.Table]string{model.Meetings: "01_會議工作清單"}
	s := New(newFake(), sheets, 0, log)

	snap, err := s.Reload(context.Background())
	require.NoError(t, err)
	if len(snap.Meetings) != 1 {
		t.Errorf("Expected meetings to load, got %d", len(snap.Meetings))
	}
}

// barrierFetcher only answers once all five fetches are in flight.
type barrierFetcher struct {
	wg sync.WaitGroup
}

func (b *barrierFetcher) Fetch(ctx context.Context, sheet string) ([]model.Record, error) {
	b.wg.Done()
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return []model.Record{{"sheet": sheet}}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestReloadFetchesConcurrently(t *testing.T) {
	b := &barrierFetcher{}
	b.wg.Add(len(model.AllTables))
	s := newTestStore(b)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	snap, err := s.Reload(ctx)
	require.NoError(t, err, "fetches were not issued concurrently")
	for table, sheet := range testSheets {
		rows := snap.Table(table)
		if len(rows) != 1 || rows[0]["sheet"] != sheet {
			t.Errorf("Table %s assembled from wrong sheet: %v", table, rows)
		}
	}
}

func TestConcurrentReloadsNeverTear(t *testing.T) {
	f := newFake()
	s := newTestStore(f)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Reload(context.Background())
		}()
		go func() {
			defer wg.Done()
			snap := s.Snapshot()
			if snap == nil {
				t.Error("nil snapshot observed")
				return
			}
			if len(snap.Meetings) != len(snap.Todos) {
				t.Errorf("torn snapshot: meetings=%d todos=%d", len(snap.Meetings), len(snap.Todos))
			}
		}()
	}
	wg.Wait()
	if f.calls != 8*len(model.AllTables) {
		t.Errorf("Expected %d fetches, got %d", 8*len(model.AllTables), f.calls)
	}
}

// stallingFetcher answers every sheet but one at once; the stalled sheet
// waits for the context.
type stallingFetcher struct {
	*fakeFetcher
	stall   string
	started chan struct{}
}

func (f *stallingFetcher) Fetch(ctx context.Context, sheet string) ([]model.Record, error) {
	if sheet != f.stall {
		return f.fakeFetcher.Fetch(ctx, sheet)
	}
	close(f.started)
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestReloadCancelledKeepsSnapshot(t *testing.T) {
	s := newTestStore(newFake())
	before, err := s.Reload(context.Background())
	require.NoError(t, err)
	require.Len(t, before.Todos, 1)

	f := &stallingFetcher{fakeFetcher: newFake(), stall: testSheets[model.Todos], started: make(chan struct{})}
	s.fetcher = f
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-f.started
		cancel()
	}()

	snap, err := s.Reload(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if snap != before || s.Snapshot() != before {
		t.Error("Cancelled reload replaced the snapshot")
	}
	if len(s.Snapshot().Todos) != 1 {
		t.Errorf("Expected todos to survive, got %d", len(s.Snapshot().Todos))
	}
}

// Package coordinator keeps the derived dashboard views in step with the
// remote spreadsheet: it reloads the store, recomputes views, and re-reads
// canonical state after every accepted write.
package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/harrisonrobin/taskboard/pkg/derive"
	"github.com/harrisonrobin/taskboard/pkg/model"
	"github.com/harrisonrobin/taskboard/pkg/writer"
)

// State is the coordinator's load state.
type State int

const (
	Idle State = iota
	Loading
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Store is the snapshot owner reloaded by the coordinator.
type Store interface {
	Reload(ctx context.Context) (*model.Snapshot, error)
	Snapshot() *model.Snapshot
}

// Writer sends one write action.
type Writer interface {
	Write(ctx context.Context, action string, payload map[string]string) writer.Result
}

// Observer receives the recomputed view after each successful reload.
type Observer func(derive.View)

// Coordinator drives reloads and writes. Reloads may overlap; the store keeps
// whichever snapshot lands last.
type Coordinator struct {
	store  Store
	writer Writer
	log    logrus.FieldLogger
	now    func() time.Time

	mu        sync.RWMutex
	state     State
	lastErr   error
	view      derive.View
	observers map[int]Observer
	nextID    int
	inflight  int
}

// New creates a Coordinator in the Idle state.
func New(store Store, w Writer, log logrus.FieldLogger) *Coordinator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	c := &Coordinator{
		store:     store,
		writer:    w,
		log:       log,
		now:       time.Now,
		observers: make(map[int]Observer),
	}
	c.view = derive.ComputeView(store.Snapshot(), c.now())
	return c
}

// SetClock replaces the time source used for derivations.
func (c *Coordinator) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// State returns the current state and the error of the last failed reload.
func (c *Coordinator) State() (State, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state, c.lastErr
}

// View returns the view of the last successful reload.
func (c *Coordinator) View() derive.View {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.view
}

// Snapshot returns the store's current snapshot.
func (c *Coordinator) Snapshot() *model.Snapshot {
	return c.store.Snapshot()
}

// Now returns the coordinator's notion of the current time.
func (c *Coordinator) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now()
}

// Subscribe registers fn for view updates and returns a func that removes it.
func (c *Coordinator) Subscribe(fn Observer) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.observers[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.observers, id)
			c.mu.Unlock()
		})
	}
}

// TriggerReload moves to Loading, reloads the store and recomputes the view.
// On success the state becomes Ready and observers are notified. If the
// reload fails outright the state becomes Failed and the last good snapshot
// and view are kept. Cancelling ctx does not abort a reload already started;
// the store's per-fetch timeout bounds it.
func (c *Coordinator) TriggerReload(ctx context.Context) (derive.View, error) {
	c.mu.Lock()
	c.state = Loading
	c.inflight++
	c.mu.Unlock()

	snap, err := c.store.Reload(context.WithoutCancel(ctx))

	c.mu.Lock()
	c.inflight--
	if err != nil {
		if c.inflight == 0 {
			c.state = Failed
		}
		c.lastErr = err
		view := c.view
		c.mu.Unlock()
		c.log.WithError(err).Error("reload failed, keeping last snapshot")
		return view, err
	}

	// An overlapping reload may already have swapped in a newer snapshot;
	// derive from whatever the store holds now.
	if current := c.store.Snapshot(); current != nil {
		snap = current
	}
	view := derive.ComputeView(snap, c.now())
	c.view = view
	c.lastErr = nil
	if c.inflight == 0 {
		c.state = Ready
	}
	observers := make([]Observer, 0, len(c.observers))
	for _, fn := range c.observers {
		observers = append(observers, fn)
	}
	c.mu.Unlock()

	for _, fn := range observers {
		fn(view)
	}
	return view, nil
}

// SubmitWrite sends a write. On success it reloads so the view reflects the
// spreadsheet's canonical state; on failure it reports the result and leaves
// the snapshot alone. A reload error after an accepted write is logged and
// returned alongside the successful result. Like reloads, a write is not
// cancelled by ctx once submitted.
func (c *Coordinator) SubmitWrite(ctx context.Context, action string, payload map[string]string) (writer.Result, error) {
	ctx = context.WithoutCancel(ctx)
	result := c.writer.Write(ctx, action, payload)
	if !result.Success {
		c.log.WithFields(logrus.Fields{"action": action, "reason": result.Reason}).Warn("write failed")
		return result, nil
	}
	if _, err := c.TriggerReload(ctx); err != nil {
		return result, err
	}
	return result, nil
}

package observability

import (
	"context"
	"sync"
	"time"

	"github.com/skillgate/skillgate/pkg/domain"
)

// SkillStats aggregates outcomes for one skill.
type SkillStats struct {
	Executions int `json:"executions"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	Denied     int `json:"denied"`
}

// Snapshot is a point-in-time view of engine activity.
type Snapshot struct {
	Submitted int                   `json:"submitted"`
	Pending   int                   `json:"pending"`
	BySkill   map[string]SkillStats `json:"by_skill,omitempty"`
	LastEvent time.Time             `json:"last_event,omitzero"`
}

// Watcher aggregates lifecycle events into a live activity snapshot.
// Register Hooks() with the pipeline, then read Snapshot() on demand or
// Watch() for a push feed.
type Watcher struct {
	mu        sync.Mutex
	submitted int
	pending   int
	bySkill   map[string]SkillStats
	denied    map[string]struct{}
	lastEvent time.Time
	subs      []chan Snapshot
}

// NewWatcher creates an empty watcher.
func NewWatcher() *Watcher {
	return &Watcher{
		bySkill: make(map[string]SkillStats),
		denied:  make(map[string]struct{}),
	}
}

// Hooks returns the lifecycle hooks that feed this watcher.
func (w *Watcher) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSubmitted: func(_ context.Context, ev *domain.ExecutionEvent) {
			w.record(ev, func() {
				w.submitted++
				stats := w.bySkill[ev.SkillID]
				stats.Executions++
				w.bySkill[ev.SkillID] = stats
			})
		},
		OnPending: func(_ context.Context, ev *domain.ExecutionEvent) {
			w.record(ev, func() { w.pending++ })
		},
		OnDecision: func(_ context.Context, ev *domain.ExecutionEvent) {
			w.record(ev, func() {
				if w.pending > 0 {
					w.pending--
				}
				// Denials are counted here: the terminal event reports a
				// denied execution as failed (error kind ApprovalDenied).
				if ev.Status == domain.StatusDenied {
					w.denied[ev.ExecutionID] = struct{}{}
					stats := w.bySkill[ev.SkillID]
					stats.Denied++
					w.bySkill[ev.SkillID] = stats
				}
			})
		},
		OnTerminal: func(_ context.Context, ev *domain.ExecutionEvent) {
			w.record(ev, func() {
				if _, wasDenied := w.denied[ev.ExecutionID]; wasDenied {
					delete(w.denied, ev.ExecutionID)
					return
				}
				stats := w.bySkill[ev.SkillID]
				if ev.Status == domain.StatusCompleted {
					stats.Completed++
				} else {
					stats.Failed++
				}
				w.bySkill[ev.SkillID] = stats
			})
		},
	}
}

// Snapshot returns the current aggregate view.
func (w *Watcher) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

// Watch returns a channel that receives a snapshot after every lifecycle
// event until ctx is done. Slow readers miss intermediate snapshots rather
// than blocking the pipeline.
func (w *Watcher) Watch(ctx context.Context) <-chan Snapshot {
	ch := make(chan Snapshot, 1)

	w.mu.Lock()
	w.subs = append(w.subs, ch)
	w.mu.Unlock()

	go func() {
		<-ctx.Done()
		w.mu.Lock()
		for i, sub := range w.subs {
			if sub == ch {
				w.subs = append(w.subs[:i], w.subs[i+1:]...)
				break
			}
		}
		w.mu.Unlock()
		close(ch)
	}()

	return ch
}

func (w *Watcher) record(ev *domain.ExecutionEvent, apply func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	apply()
	w.lastEvent = ev.Timestamp
	snap := w.snapshotLocked()
	for _, sub := range w.subs {
		select {
		case sub <- snap:
		default:
			// Drop the stale snapshot and replace it with the fresh one.
			select {
			case <-sub:
			default:
			}
			select {
			case sub <- snap:
			default:
			}
		}
	}
}

func (w *Watcher) snapshotLocked() Snapshot {
	bySkill := make(map[string]SkillStats, len(w.bySkill))
	for k, v := range w.bySkill {
		bySkill[k] = v
	}
	return Snapshot{
		Submitted: w.submitted,
		Pending:   w.pending,
		BySkill:   bySkill,
		LastEvent: w.lastEvent,
	}
}

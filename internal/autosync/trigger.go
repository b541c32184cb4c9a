// Package autosync pushes queued workouts to the sync server when the device
// comes back online.
package autosync

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/liftlog/internal/models"
)

// Observer reports connectivity and notifies on changes.
type Observer interface {
	Fetch(ctx context.Context) (models.NetState, error)
	Subscribe(fn func(models.NetState)) (unsubscribe func())
}

// Syncer pushes locally queued workouts to the server.
type Syncer interface {
	SyncPendingWorkouts(ctx context.Context) error
}

// Status is a snapshot of the trigger for diagnostics.
type Status struct {
	Monitoring        bool       `json:"monitoring"`
	PreviouslyOffline bool       `json:"previously_offline"`
	Attempts          int        `json:"attempts"`
	LastSyncAt        *time.Time `json:"last_sync_at,omitempty"`
	LastError         string     `json:"last_error,omitempty"`
}

// Trigger fires one sync per offline to online transition. Sync failures are
// logged and swallowed; the next transition or manual check retries.
type Trigger struct {
	observer Observer
	syncer   Syncer
	log      *slog.Logger
	now      func() time.Time

	mu                sync.Mutex
	monitoring        bool
	previouslyOffline bool
	unsubscribe       func()
	ctx               context.Context

	syncMu     sync.Mutex
	attempts   int
	lastSyncAt *time.Time
	lastErr    string

	wg sync.WaitGroup
}

// New creates a Trigger. Nothing is observed until StartMonitoring.
func New(observer Observer, syncer Syncer, log *slog.Logger) *Trigger {
	return &Trigger{
		observer: observer,
		syncer:   syncer,
		log:      log,
		now:      time.Now,
	}
}

// StartMonitoring captures the current connectivity as the baseline and then
// subscribes to changes. A running subscription is replaced. Syncs started
// from notifications use ctx.
func (t *Trigger) StartMonitoring(ctx context.Context) {
	t.StopMonitoring()

	st, err := t.observer.Fetch(ctx)
	if err != nil {
		t.log.Warn("connectivity baseline unavailable, assuming offline", "error", err)
		st = models.NetState{}
	}

	t.mu.Lock()
	t.previouslyOffline = !st.Online()
	t.ctx = ctx
	t.monitoring = true
	t.mu.Unlock()

	unsubscribe := t.observer.Subscribe(t.handleChange)

	t.mu.Lock()
	t.unsubscribe = unsubscribe
	t.mu.Unlock()

	t.log.Info("connectivity monitoring started", "online", st.Online())
}

// StopMonitoring cancels the subscription. Safe to call when not monitoring.
func (t *Trigger) StopMonitoring() {
	t.mu.Lock()
	unsubscribe := t.unsubscribe
	t.unsubscribe = nil
	wasMonitoring := t.monitoring
	t.monitoring = false
	t.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if wasMonitoring {
		t.log.Info("connectivity monitoring stopped")
	}
}

// CheckAndSync syncs immediately if the device is online, regardless of edge
// tracking. It reports whether a sync was attempted.
func (t *Trigger) CheckAndSync(ctx context.Context) bool {
	st, err := t.observer.Fetch(ctx)
	if err != nil {
		t.log.Warn("connectivity check failed", "error", err)
		return false
	}
	if !st.Online() {
		t.log.Debug("offline, skipping sync")
		return false
	}
	t.SyncData(ctx)
	return true
}

// SyncData runs the workout sync. Runs are serialized; errors are logged only.
func (t *Trigger) SyncData(ctx context.Context) {
	t.syncMu.Lock()
	defer t.syncMu.Unlock()

	t.attempts++
	err := t.syncer.SyncPendingWorkouts(ctx)
	if err != nil {
		t.lastErr = err.Error()
		t.log.Warn("workout sync failed, will retry on next reconnect", "error", err)
		return
	}
	now := t.now()
	t.lastSyncAt = &now
	t.lastErr = ""
	t.log.Info("workout sync complete")
}

// Wait blocks until syncs started from connectivity notifications finish.
func (t *Trigger) Wait() {
	t.wg.Wait()
}

// Status returns a snapshot of the trigger.
func (t *Trigger) Status() Status {
	t.mu.Lock()
	s := Status{Monitoring: t.monitoring, PreviouslyOffline: t.previouslyOffline}
	t.mu.Unlock()

	t.syncMu.Lock()
	s.Attempts = t.attempts
	s.LastSyncAt = t.lastSyncAt
	s.LastError = t.lastErr
	t.syncMu.Unlock()
	return s
}

func (t *Trigger) handleChange(st models.NetState) {
	isConnected := st.Online()

	t.mu.Lock()
	if !t.monitoring {
		t.mu.Unlock()
		return
	}
	fire := t.previouslyOffline && isConnected
	t.previouslyOffline = !isConnected
	ctx := t.ctx
	if fire {
		t.wg.Add(1)
	}
	t.mu.Unlock()

	if !fire {
		return
	}
	t.log.Info("back online, syncing workouts")
	go func() {
		defer t.wg.Done()
		t.SyncData(ctx)
	}()
}

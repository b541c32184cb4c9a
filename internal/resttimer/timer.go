// Package resttimer implements the rest period countdown that runs between sets.
//
// The timer is a small state machine (idle, running, paused) advanced one second
// at a time by Tick. While running, a single driver goroutine feeds Tick from a
// clockwork ticker; tests drive it with a fake clock or by calling Tick directly.
package resttimer

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/jonboulle/clockwork"
)

// MaxDuration is the longest accepted rest period.
const MaxDuration = 2 * time.Hour

// ErrInvalidDuration is returned by Start and SetDefault when the rest period
// is not positive or exceeds MaxDuration.
var ErrInvalidDuration = errors.New("rest duration must be positive and at most 2h")

// Alerter delivers the device cue when a rest period ends.
type Alerter interface {
	RestComplete(exerciseID, setID string)
}

// Timer is the rest timer controller. The zero value is not usable; use New.
type Timer struct {
	clock clockwork.Clock
	alert Alerter
	log   *slog.Logger

	mu         sync.Mutex
	active     bool
	remaining  int
	configured int // global default, seconds
	duration   int // length of the current or last countdown, seconds
	exerciseID *string
	setID      *string

	gen    uint64
	ticker clockwork.Ticker
	stop   chan struct{}

	onComplete func(exerciseID, setID string)
	onTick     func(models.RestTimerState)
}

// New creates an idle timer with the given default rest period.
func New(clock clockwork.Clock, defaultDuration time.Duration, alert Alerter, log *slog.Logger) *Timer {
	secs := toSeconds(defaultDuration)
	return &Timer{
		clock:      clock,
		alert:      alert,
		log:        log,
		configured: secs,
		duration:   secs,
	}
}

// OnComplete registers the callback invoked once at the end of every countdown.
func (t *Timer) OnComplete(fn func(exerciseID, setID string)) {
	t.mu.Lock()
	t.onComplete = fn
	t.mu.Unlock()
}

// OnTick registers a callback invoked with the new state after every tick.
func (t *Timer) OnTick(fn func(models.RestTimerState)) {
	t.mu.Lock()
	t.onTick = fn
	t.mu.Unlock()
}

// SetDefault changes the global default rest period used when Start gets no override.
func (t *Timer) SetDefault(d time.Duration) error {
	secs := toSeconds(d)
	if secs <= 0 || d > MaxDuration {
		return ErrInvalidDuration
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.configured = secs
	if !t.active && t.remaining == 0 {
		t.duration = secs
	}
	return nil
}

// Default returns the configured default rest period. Unlike
// State().DefaultDuration it is not changed by a custom countdown.
func (t *Timer) Default() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return time.Duration(t.configured) * time.Second
}

// Start begins a countdown for the given set, cancelling any countdown in
// flight. A zero custom duration uses the configured default.
func (t *Timer) Start(exerciseID, setID string, custom time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	secs := t.configured
	if custom != 0 {
		secs = toSeconds(custom)
	}
	if secs <= 0 || custom > MaxDuration {
		return fmt.Errorf("starting rest timer with %s: %w", custom, ErrInvalidDuration)
	}

	t.cancelDriverLocked()
	t.duration = secs
	t.remaining = secs
	t.active = true
	t.exerciseID = &exerciseID
	t.setID = &setID
	t.startDriverLocked()

	t.log.Debug("rest timer started", "exercise_id", exerciseID, "set_id", setID, "seconds", secs)
	return nil
}

// Pause suspends a running countdown. It is a no-op unless running.
func (t *Timer) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active || t.remaining == 0 {
		return
	}
	t.cancelDriverLocked()
	t.active = false
}

// Resume continues a paused countdown. It is a no-op unless paused.
func (t *Timer) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active || t.remaining == 0 {
		return
	}
	t.active = true
	t.startDriverLocked()
}

// Skip returns to idle from any state without firing the completion side effects.
func (t *Timer) Skip() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelDriverLocked()
	t.active = false
	t.remaining = 0
	t.exerciseID = nil
	t.setID = nil
}

// Tick advances a running countdown by one second. When the countdown reaches
// zero the timer goes idle and the completion side effects run exactly once.
// Ticks while idle or paused are ignored.
func (t *Timer) Tick() {
	t.mu.Lock()
	gen := t.gen
	t.mu.Unlock()
	t.tick(gen)
}

// State returns a snapshot of the timer.
func (t *Timer) State() models.RestTimerState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stateLocked()
}

// Close stops the driver goroutine, if any.
func (t *Timer) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelDriverLocked()
}

// tick reports whether the driver for gen should keep running.
func (t *Timer) tick(gen uint64) bool {
	t.mu.Lock()
	if gen != t.gen || !t.active {
		t.mu.Unlock()
		return false
	}

	if t.remaining > 0 {
		t.remaining--
	}

	var completed bool
	var exerciseID, setID string
	if t.remaining == 0 {
		completed = true
		exerciseID, setID = deref(t.exerciseID), deref(t.setID)
		t.active = false
		t.exerciseID = nil
		t.setID = nil
		t.cancelDriverLocked()
	}

	state := t.stateLocked()
	onTick, onComplete := t.onTick, t.onComplete
	t.mu.Unlock()

	if onTick != nil {
		onTick(state)
	}
	if completed {
		t.log.Info("rest period complete", "exercise_id", exerciseID, "set_id", setID)
		if t.alert != nil {
			t.alert.RestComplete(exerciseID, setID)
		}
		if onComplete != nil {
			onComplete(exerciseID, setID)
		}
	}
	return !completed
}

// startDriverLocked launches the single ticker goroutine for a new generation.
func (t *Timer) startDriverLocked() {
	t.gen++
	gen := t.gen
	ticker := t.clock.NewTicker(time.Second)
	stop := make(chan struct{})
	t.ticker = ticker
	t.stop = stop

	go func() {
		for {
			select {
			case <-stop:
				return
			case <-ticker.Chan():
				if !t.tick(gen) {
					return
				}
			}
		}
	}()
}

// cancelDriverLocked stops the live ticker and invalidates its generation.
func (t *Timer) cancelDriverLocked() {
	t.gen++
	if t.ticker != nil {
		t.ticker.Stop()
		t.ticker = nil
	}
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
}

func (t *Timer) stateLocked() models.RestTimerState {
	return models.RestTimerState{
		IsActive:        t.active,
		TimeRemaining:   t.remaining,
		DefaultDuration: t.duration,
		ExerciseID:      t.exerciseID,
		SetID:           t.setID,
	}
}

// FormatTime renders seconds as M:SS. Negative input renders as 0:00.
func FormatTime(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func toSeconds(d time.Duration) int {
	return int(d.Round(time.Second) / time.Second)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

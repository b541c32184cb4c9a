package netstate

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/claude/liftlog/internal/autosync"
	"github.com/claude/liftlog/internal/models"
	"github.com/jonboulle/clockwork"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// healthServer answers /healthz with 200 while healthy is true, 503 otherwise.
func healthServer(t *testing.T, healthy *atomic.Bool) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" {
			http.NotFound(w, r)
			return
		}
		if healthy.Load() {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// TestFetch verifies both connectivity flags are derived from interfaces and
// the health endpoint.
func TestFetch(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	srv := healthServer(t, &healthy)

	p := NewProber(clockwork.NewFakeClock(), srv.URL, time.Second, discardLogger())
	p.interfacesUp = func() bool { return true }

	st, err := p.Fetch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !st.Online() {
		t.Errorf("Fetch = %+v, want online", st)
	}

	healthy.Store(false)
	st, _ = p.Fetch(context.Background())
	if !st.Connected || st.InternetReachable {
		t.Errorf("Fetch with unhealthy server = %+v, want connected only", st)
	}

	p.interfacesUp = func() bool { return false }
	st, _ = p.Fetch(context.Background())
	if st.Connected || st.InternetReachable {
		t.Errorf("Fetch without interfaces = %+v, want offline", st)
	}
}

// TestFetchNoServer verifies that without a server URL the internet is never
// reported reachable.
func TestFetchNoServer(t *testing.T) {
	p := NewProber(clockwork.NewFakeClock(), "", time.Second, discardLogger())
	p.interfacesUp = func() bool { return true }
	st, _ := p.Fetch(context.Background())
	if st.InternetReachable {
		t.Error("reachable without a server URL")
	}
}

// TestPollNotifiesOnChange verifies listeners get the initial state and then
// only actual changes.
func TestPollNotifiesOnChange(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	srv := healthServer(t, &healthy)

	clock := clockwork.NewFakeClock()
	p := NewProber(clock, srv.URL, 10*time.Second, discardLogger())
	p.interfacesUp = func() bool { return true }

	events := make(chan models.NetState, 8)
	unsubscribe := p.Subscribe(func(st models.NetState) { events <- st })
	defer unsubscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	p.Start(ctx)
	defer p.Stop()

	expect := func(want bool) {
		t.Helper()
		select {
		case st := <-events:
			if st.Online() != want {
				t.Errorf("event online = %v, want %v", st.Online(), want)
			}
		case <-ctx.Done():
			t.Fatalf("no event, want online=%v", want)
		}
	}

	expect(true)

	healthy.Store(false)
	if err := clock.BlockUntilContext(ctx, 1); err != nil {
		t.Fatal(err)
	}
	clock.Advance(10 * time.Second)
	expect(false)

	// Same state again: no event.
	clock.Advance(10 * time.Second)
	select {
	case st := <-events:
		t.Errorf("unexpected event %+v for unchanged state", st)
	case <-time.After(100 * time.Millisecond):
	}
}

type chanSyncer chan struct{}

func (c chanSyncer) SyncPendingWorkouts(context.Context) error {
	c <- struct{}{}
	return nil
}

// TestFirstPollReachesTrigger verifies that a prober started after the
// trigger's baseline delivers its first observation to the trigger, so a
// reconnect between baseline and first poll still syncs.
func TestFirstPollReachesTrigger(t *testing.T) {
	var healthy atomic.Bool
	srv := healthServer(t, &healthy)

	p := NewProber(clockwork.NewFakeClock(), srv.URL, 10*time.Second, discardLogger())
	p.interfacesUp = func() bool { return true }

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	synced := make(chanSyncer, 4)
	trigger := autosync.New(p, synced, discardLogger())
	trigger.StartMonitoring(ctx)
	defer trigger.StopMonitoring()
	if !trigger.Status().PreviouslyOffline {
		t.Fatal("baseline = online, want offline while the server is unhealthy")
	}

	healthy.Store(true)
	p.Start(ctx)
	defer p.Stop()

	select {
	case <-synced:
	case <-ctx.Done():
		t.Fatal("no sync after the first poll saw the server")
	}
	trigger.Wait()
}

// TestStopIsIdempotent verifies Stop without Start and double Stop are safe.
func TestStopIsIdempotent(t *testing.T) {
	p := NewProber(clockwork.NewFakeClock(), "", time.Second, discardLogger())
	p.interfacesUp = func() bool { return false }
	p.Stop()
	p.Start(context.Background())
	p.Stop()
	p.Stop()
}

// TestStaticNotifiesEverySet verifies the static observer delivers repeated
// states and honours unsubscribe.
func TestStaticNotifiesEverySet(t *testing.T) {
	s := NewStatic(models.NetState{})
	var n int
	unsubscribe := s.Subscribe(func(models.NetState) { n++ })

	online := models.NetState{Connected: true, InternetReachable: true}
	s.Set(online)
	s.Set(online)
	if n != 2 {
		t.Errorf("notifications = %d, want 2", n)
	}

	unsubscribe()
	s.Set(online)
	if n != 2 {
		t.Errorf("notified after unsubscribe")
	}
	if st, _ := s.Fetch(context.Background()); !st.Online() {
		t.Errorf("Fetch = %+v, want online", st)
	}
}

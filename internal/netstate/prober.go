// Package netstate observes device connectivity.
package netstate

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/jonboulle/clockwork"
)

const probeTimeout = 5 * time.Second

// Prober polls connectivity on an interval. A device is connected when a
// non-loopback interface is up; the internet is reachable when the sync
// server health endpoint answers 200.
type Prober struct {
	clock     clockwork.Clock
	client    *http.Client
	healthURL string
	interval  time.Duration
	log       *slog.Logger

	// interfacesUp is replaceable in tests.
	interfacesUp func() bool

	mu        sync.Mutex
	last      *models.NetState
	listeners map[int]func(models.NetState)
	nextID    int
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewProber creates a prober for the sync server at serverURL.
func NewProber(clock clockwork.Clock, serverURL string, interval time.Duration, log *slog.Logger) *Prober {
	healthURL := ""
	if serverURL != "" {
		healthURL = serverURL + "/healthz"
	}
	return &Prober{
		clock:        clock,
		client:       &http.Client{Timeout: probeTimeout},
		healthURL:    healthURL,
		interval:     interval,
		log:          log,
		interfacesUp: anyInterfaceUp,
		listeners:    map[int]func(models.NetState){},
	}
}

// Fetch probes connectivity now. It does not notify listeners.
func (p *Prober) Fetch(ctx context.Context) (models.NetState, error) {
	var st models.NetState
	st.Connected = p.interfacesUp()
	if !st.Connected || p.healthURL == "" {
		return st, nil
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.healthURL, nil)
	if err != nil {
		return st, fmt.Errorf("building probe request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		p.log.Debug("reachability probe failed", "url", p.healthURL, "error", err)
		return st, nil
	}
	resp.Body.Close()
	st.InternetReachable = resp.StatusCode == http.StatusOK
	return st, nil
}

// Subscribe registers fn for connectivity changes and returns its unsubscribe func.
func (p *Prober) Subscribe(fn func(models.NetState)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.listeners, id)
	}
}

// Start begins polling. The first poll runs immediately and always notifies.
// Calling Start while running is a no-op.
func (p *Prober) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.last = nil

	ticker := p.clock.NewTicker(p.interval)
	go p.run(ctx, ticker, p.done)
}

// Stop ends polling and waits for the poll goroutine to exit.
func (p *Prober) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel = nil
	p.done = nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (p *Prober) run(ctx context.Context, ticker clockwork.Ticker, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			p.poll(ctx)
		}
	}
}

func (p *Prober) poll(ctx context.Context) {
	st, err := p.Fetch(ctx)
	if err != nil {
		p.log.Warn("connectivity probe failed", "error", err)
		return
	}
	if ctx.Err() != nil {
		return
	}

	p.mu.Lock()
	if p.last != nil && *p.last == st {
		p.mu.Unlock()
		return
	}
	p.last = &st
	listeners := make([]func(models.NetState), 0, len(p.listeners))
	for _, fn := range p.listeners {
		listeners = append(listeners, fn)
	}
	p.mu.Unlock()

	p.log.Info("connectivity changed", "connected", st.Connected, "internet_reachable", st.InternetReachable)
	for _, fn := range listeners {
		fn(st)
	}
}

func anyInterfaceUp() bool {
	ifaces, err := net.Interfaces()
	if err != nil {
		return false
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp != 0 && iface.Flags&net.FlagLoopback == 0 {
			return true
		}
	}
	return false
}

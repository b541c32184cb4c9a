package netstate

import (
	"context"
	"sync"

	"github.com/claude/liftlog/internal/models"
)

// Static is an observer whose state only changes through Set. Every Set
// notifies all listeners, even when the state is unchanged.
type Static struct {
	mu        sync.Mutex
	state     models.NetState
	listeners map[int]func(models.NetState)
	nextID    int
}

// NewStatic creates a Static observer reporting st.
func NewStatic(st models.NetState) *Static {
	return &Static{state: st, listeners: map[int]func(models.NetState){}}
}

func (s *Static) Fetch(context.Context) (models.NetState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, nil
}

func (s *Static) Subscribe(fn func(models.NetState)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// Set records st and delivers it to every listener.
func (s *Static) Set(st models.NetState) {
	s.mu.Lock()
	s.state = st
	listeners := make([]func(models.NetState), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(st)
	}
}

// Listeners reports how many subscriptions are live.
func (s *Static) Listeners() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

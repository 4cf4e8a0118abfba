package realtime

import (
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

type sentEvent struct {
	Event   string
	Payload any
}

// fakeSender records delivered events; flipping fail simulates a torn-down
// transport.
type fakeSender struct {
	mu     sync.Mutex
	events []sentEvent
	fail   bool
}

func (s *fakeSender) Send(event string, payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("broken pipe")
	}
	s.events = append(s.events, sentEvent{Event: event, Payload: payload})
	return nil
}

func (s *fakeSender) sent() []sentEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]sentEvent, len(s.events))
	copy(out, s.events)
	return out
}

func (s *fakeSender) lastEvent(t *testing.T) sentEvent {
	t.Helper()
	events := s.sent()
	if len(events) == 0 {
		t.Fatal("expected at least one event, got none")
	}
	return events[len(events)-1]
}

func (s *fakeSender) eventNames() []string {
	names := make([]string, 0)
	for _, ev := range s.sent() {
		names = append(names, ev.Event)
	}
	return names
}

func newTestRouter() (*Router, *Registry) {
	registry := NewRegistry()
	logger := zerolog.Nop()
	fanout := NewFanout(registry, nil, nil, &logger)
	router := NewRouter(registry, fanout, nil, &logger)
	return router, registry
}

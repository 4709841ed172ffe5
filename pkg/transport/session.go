package transport

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Handler processes one delivered message. Handlers run on the goroutine
// that calls Pump, never on the publisher's goroutine.
type Handler func(msg Message)

// Session is one consumer's handle on the broker: a set of topic
// subscriptions sharing a single inbox, drained explicitly via Pump.
//
// The session delivers nothing on its own. A caller that never pumps never
// sees a sample, which keeps all handler execution on the caller's own
// goroutine.
type Session struct {
	id      string
	broker  Broker
	inbox   chan Message
	mu      sync.Mutex
	handler map[string]Handler
	topics  []string
	closed  bool
}

const defaultInboxSize = 64

// NewSession creates a session on the broker with a buffered inbox.
func NewSession(broker Broker) *Session {
	return &Session{
		id:      "session-" + uuid.New().String(),
		broker:  broker,
		inbox:   make(chan Message, defaultInboxSize),
		handler: make(map[string]Handler),
	}
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// Subscribe registers a handler for a topic. The handler is invoked for each
// message drained by Pump.
func (s *Session) Subscribe(topic string, h Handler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("session %s is closed", s.id)
	}
	if _, exists := s.handler[topic]; exists {
		return fmt.Errorf("session %s already subscribed to %q", s.id, topic)
	}
	if err := s.broker.Subscribe(s.id, topic, s.inbox); err != nil {
		return err
	}
	s.handler[topic] = h
	s.topics = append(s.topics, topic)
	return nil
}

// Publish sends a payload on a topic, stamped with the session's ID.
func (s *Session) Publish(topic string, payload any) error {
	return s.broker.Publish(topic, payload)
}

// Pump drains the inbox for at most one timeslice, dispatching each message
// to its topic handler, and reports whether anything arrived.
//
// Everything already queued is dispatched without blocking. If the inbox is
// empty, Pump blocks up to the timeslice for the first arrival and then
// drains whatever else is ready.
func (s *Session) Pump(timeslice time.Duration) bool {
	delivered := false
	deadline := time.Now().Add(timeslice)

	for {
		select {
		case msg := <-s.inbox:
			s.dispatch(msg)
			delivered = true
		default:
			if delivered || timeslice <= 0 {
				return delivered
			}
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return false
			}
			select {
			case msg := <-s.inbox:
				s.dispatch(msg)
				delivered = true
			case <-time.After(remaining):
				return delivered
			}
		}
	}
}

func (s *Session) dispatch(msg Message) {
	s.mu.Lock()
	h, ok := s.handler[msg.Topic]
	s.mu.Unlock()
	if ok {
		h(msg)
	}
}

// Close tears down all subscriptions. The session delivers nothing afterwards.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	var firstErr error
	for _, topic := range s.topics {
		if err := s.broker.Unsubscribe(s.id, topic); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.topics = nil
	s.handler = make(map[string]Handler)
	return firstErr
}

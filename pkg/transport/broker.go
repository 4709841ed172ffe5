package transport

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrSlowConsumer reports that one or more subscribers had a full delivery
// channel and missed a published message.
var ErrSlowConsumer = errors.New("slow consumer")

// TopicBroker implements the Broker interface.
// subscribers maps topic -> subscriber ID -> delivery channel.
type TopicBroker struct {
	subscribers map[string]map[string]chan<- Message
	mu          sync.RWMutex
}

// NewBroker creates a new in-process topic broker.
func NewBroker() *TopicBroker {
	return &TopicBroker{
		subscribers: make(map[string]map[string]chan<- Message),
	}
}

// Publish delivers a message to every subscriber of the topic.
//
// Delivery is non-blocking: a subscriber whose channel is full misses the
// message. Sensor feeds publish at their own cadence and consumers only care
// about the latest sample, so a slow consumer loses old samples rather than
// stalling the publisher.
func (b *TopicBroker) Publish(topic string, payload any) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	subs, ok := b.subscribers[topic]
	if !ok || len(subs) == 0 {
		return nil
	}

	msg := Message{
		Topic:     topic,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	var dropped int
	for _, ch := range subs {
		select {
		case ch <- msg:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		return fmt.Errorf("%w: %d subscriber(s) on %q", ErrSlowConsumer, dropped, topic)
	}
	return nil
}

// Subscribe registers a channel to receive messages published on topic.
func (b *TopicBroker) Subscribe(subscriberID, topic string, ch chan<- Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.subscribers[topic]
	if !ok {
		subs = make(map[string]chan<- Message)
		b.subscribers[topic] = subs
	}
	if _, exists := subs[subscriberID]; exists {
		return fmt.Errorf("subscriber %s is already subscribed to %q", subscriberID, topic)
	}

	subs[subscriberID] = ch
	return nil
}

// Unsubscribe removes a subscriber's registration for a topic.
func (b *TopicBroker) Unsubscribe(subscriberID, topic string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.subscribers[topic]
	if !ok {
		return fmt.Errorf("no subscribers on topic %q", topic)
	}
	if _, exists := subs[subscriberID]; !exists {
		return fmt.Errorf("subscriber %s is not subscribed to %q", subscriberID, topic)
	}

	delete(subs, subscriberID)
	if len(subs) == 0 {
		delete(b.subscribers, topic)
	}
	return nil
}

// Reset drops all subscriptions.
func (b *TopicBroker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = make(map[string]map[string]chan<- Message)
}

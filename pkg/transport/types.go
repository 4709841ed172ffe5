package transport

import (
	"time"
)

// Message is a single sample or command carried on a topic.
type Message struct {
	Topic     string    // topic the message was published on
	From      string    // session ID of the publisher (empty for anonymous publishers)
	Payload   any       // the actual sample or command
	Timestamp time.Time // when the message was published
}

// Publisher can publish messages onto a topic.
type Publisher interface {
	Publish(topic string, payload any) error
}

// Broker routes topic-addressed messages to subscribed sessions.
type Broker interface {
	Publisher
	// Subscribe registers a channel to receive messages on a topic.
	Subscribe(subscriberID, topic string, ch chan<- Message) error
	// Unsubscribe removes a subscriber's registration for a topic.
	Unsubscribe(subscriberID, topic string) error
}

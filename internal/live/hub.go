// Package live fans out ingestion events to connected dashboard viewers.
// Delivery is at-most-once with no replay: a viewer not subscribed at
// publish time never sees that event.
package live

import (
	"sync"
	"time"
)

// Topic is a logical event channel.
type Topic string

const (
	TopicTraffic Topic = "traffic"
	TopicAlerts  Topic = "alerts"
)

// ValidTopic reports whether t names a known topic.
func ValidTopic(t Topic) bool {
	return t == TopicTraffic || t == TopicAlerts
}

// Event types published by the ingestion pipeline.
const (
	EventNewTraffic = "new_traffic"
	EventNewAlert   = "new_alert"
)

// Event is the envelope delivered to subscribers.
type Event struct {
	Type      string      `json:"type"`
	Timestamp string      `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// NewEvent stamps an event envelope.
func NewEvent(eventType string, data interface{}) Event {
	return Event{
		Type:      eventType,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data:      data,
	}
}

// Subscription is one viewer's receive side. Events arrive on C in publish
// order per topic until Drop.
type Subscription struct {
	C      chan Event
	topics map[Topic]struct{}
	closed bool
}

// Hub is the process-local subscriber registry, keyed by topic. Populate on
// connect, purge on disconnect.
type Hub struct {
	mu     sync.RWMutex
	topics map[Topic]map[*Subscription]struct{}
}

// NewHub builds an empty registry.
func NewHub() *Hub {
	return &Hub{topics: map[Topic]map[*Subscription]struct{}{
		TopicTraffic: {},
		TopicAlerts:  {},
	}}
}

// NewSubscription registers a viewer connection with a buffered mailbox.
func (h *Hub) NewSubscription(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = 64
	}
	return &Subscription{
		C:      make(chan Event, buffer),
		topics: make(map[Topic]struct{}),
	}
}

// Subscribe adds sub to a topic. Unknown topics are ignored.
func (h *Hub) Subscribe(sub *Subscription, topic Topic) {
	if !ValidTopic(topic) {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if sub.closed {
		return
	}
	h.topics[topic][sub] = struct{}{}
	sub.topics[topic] = struct{}{}
}

// Unsubscribe removes sub from a topic.
func (h *Hub) Unsubscribe(sub *Subscription, topic Topic) {
	if !ValidTopic(topic) {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.topics[topic], sub)
	delete(sub.topics, topic)
}

// Drop purges a subscription from every topic and closes its mailbox.
// Safe to call more than once.
func (h *Hub) Drop(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sub.closed {
		return
	}
	for topic := range sub.topics {
		delete(h.topics[topic], sub)
	}
	sub.topics = make(map[Topic]struct{})
	sub.closed = true
	close(sub.C)
}

// Publish delivers evt to every current subscriber of topic. Sends never
// block: a subscriber whose mailbox is full misses the event.
func (h *Hub) Publish(topic Topic, evt Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.topics[topic] {
		select {
		case sub.C <- evt:
		default:
		}
	}
}

// SubscriberCount returns the current subscriber count for a topic.
func (h *Hub) SubscriberCount(topic Topic) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Package memory contains an in-memory publisher used in tests and when no
// Pub/Sub project is configured.
package memory

import (
	"context"
	"fmt"
	"sync"
)

// DefaultCapacity bounds how many messages New keeps.
const DefaultCapacity = 1024

// PublishedMessage captures one publish call.
type PublishedMessage struct {
	ID      string
	Topic   string
	Payload any
}

// Publisher keeps the most recent published payloads for inspection.
type Publisher struct {
	mu       sync.RWMutex
	capacity int
	seq      int
	messages []PublishedMessage
}

// New returns a Publisher holding up to DefaultCapacity messages.
func New() *Publisher {
	return NewWithCapacity(DefaultCapacity)
}

// NewWithCapacity returns a Publisher that drops the oldest message once
// capacity is reached.
func NewWithCapacity(capacity int) *Publisher {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Publisher{capacity: capacity}
}

// Publish records the message and returns a sequential ID.
func (p *Publisher) Publish(_ context.Context, topic string, payload any) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq++
	id := fmt.Sprintf("memory-%d", p.seq)
	if len(p.messages) == p.capacity {
		p.messages = append(p.messages[:0], p.messages[1:]...)
	}
	p.messages = append(p.messages, PublishedMessage{ID: id, Topic: topic, Payload: payload})
	return id, nil
}

// Messages returns a copy of the retained messages, oldest first.
func (p *Publisher) Messages() []PublishedMessage {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]PublishedMessage, len(p.messages))
	copy(out, p.messages)
	return out
}

// MessagesFor returns the retained messages published to topic.
func (p *Publisher) MessagesFor(topic string) []PublishedMessage {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []PublishedMessage
	for _, m := range p.messages {
		if m.Topic == topic {
			out = append(out, m)
		}
	}
	return out
}

// Package events provides a small in-process pub/sub bus. The engine
// publishes observable state changes (rotation resets, autosaves, session
// lifecycle) and the WebSocket monitor fans them out to clients.
package events

import (
	"sync"
	"time"
)

// Type enumerates the engine's observable events.
type Type string

const (
	TypeSessionCreated  Type = "session_created"
	TypeSessionResumed  Type = "session_resumed"
	TypeSessionFinished Type = "session_finished"
	TypeRotationReset   Type = "rotation_reset"
	TypeAutosave        Type = "autosave"
)

// Event is one published occurrence with free-form detail fields.
type Event struct {
	Type      Type           `json:"type"`
	At        time.Time      `json:"at"`
	UserID    string         `json:"user_id,omitempty"`
	SessionID string         `json:"session_id,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Bus is a non-blocking fan-out bus. Slow subscribers drop events rather
// than stalling the engine.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]chan Event
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Publish delivers e to every subscriber. Never blocks.
func (b *Bus) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default: // subscriber too slow, drop
		}
	}
}

// Subscribe registers a buffered subscriber channel. The returned cancel
// func removes the subscription and closes the channel.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, 64)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

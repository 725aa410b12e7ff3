// Package events fans out note lifecycle events to in-process subscribers,
// such as the /ops/events stream.
package events

import (
	"sync"
	"time"
)

// Event types published by the notes service.
const (
	NoteCreated = "note.created"
	NoteFailed  = "note.failed"
)

// Event describes one change. NoteID is empty for failures that happened
// before a note existed.
type Event struct {
	Type      string    `json:"type"`
	NoteID    string    `json:"note_id,omitempty"`
	Source    string    `json:"source,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"ts"`
}

// Bus provides simple in-process pub/sub. Slow subscribers miss events
// rather than blocking publishers.
type Bus struct {
	mu     sync.RWMutex
	subs   map[chan Event]struct{}
	size   int
	closed bool
}

func NewBus(size int) *Bus {
	if size <= 0 {
		size = 16
	}
	return &Bus{subs: make(map[chan Event]struct{}), size: size}
}

func (b *Bus) Subscribe() <-chan Event {
	ch := make(chan Event, b.size)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.subs[ch] = struct{}{}
	return ch
}

// Unsubscribe removes and closes a channel returned by Subscribe.
func (b *Bus) Unsubscribe(sub <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		if ch == sub {
			delete(b.subs, ch)
			close(ch)
			return
		}
	}
}

// Close ends every subscription. Later subscribers receive a closed channel.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
}

func (b *Bus) Publish(ev Event) {
	if b == nil {
		return
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

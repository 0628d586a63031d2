package orchestrator

import (
	"log"
	"sync"
)

// EventEmitter publishes orchestrator events to any number of subscribers.
// Every event is also appended to an in-memory history so that late
// subscribers can replay the full stream in order.
type EventEmitter struct {
	mu          sync.Mutex
	history     []Event
	subscribers map[int]chan Event
	nextID      int
	bufferSize  int
	closed      bool
	dropped     uint64
}

// NewEventEmitter creates an emitter whose subscriber channels hold up to
// bufferSize events.
func NewEventEmitter(bufferSize int) *EventEmitter {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	return &EventEmitter{
		subscribers: make(map[int]chan Event),
		bufferSize:  bufferSize,
	}
}

// Emit appends the event to the history and delivers it to all
// subscribers. A subscriber that cannot keep up has events dropped from
// its channel rather than blocking the orchestrator; the history always
// stays complete.
func (e *EventEmitter) Emit(event Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}

	e.history = append(e.history, event)

	for _, ch := range e.subscribers {
		select {
		case ch <- event:
		default:
			e.dropped++
			if e.dropped%10 == 1 { // Log every 10th drop to avoid spam
				log.Printf("[orchestrator] WARNING: subscriber channel full, dropped event (total dropped: %d): type=%s", e.dropped, event.Type)
			}
		}
	}
}

// Subscribe registers a new subscriber and returns its channel along with
// an unsubscribe function. If replay is true the channel is pre-loaded
// with the history recorded so far; events emitted after Subscribe returns
// follow in order.
func (e *EventEmitter) Subscribe(replay bool) (<-chan Event, func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	size := e.bufferSize
	if replay && len(e.history) > size {
		size = len(e.history) + e.bufferSize
	}
	ch := make(chan Event, size)

	if replay {
		for _, ev := range e.history {
			ch <- ev
		}
	}

	if e.closed {
		close(ch)
		return ch, func() {}
	}

	id := e.nextID
	e.nextID++
	e.subscribers[id] = ch

	unsubscribe := func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if _, ok := e.subscribers[id]; ok {
			delete(e.subscribers, id)
			close(ch)
		}
	}

	return ch, unsubscribe
}

// History returns a copy of all events emitted so far, in order.
func (e *EventEmitter) History() []Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Event(nil), e.history...)
}

// DroppedCount returns the total number of events dropped from subscriber
// channels.
func (e *EventEmitter) DroppedCount() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dropped
}

// Close closes all subscriber channels. Further Emit calls are no-ops.
func (e *EventEmitter) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	for id, ch := range e.subscribers {
		delete(e.subscribers, id)
		close(ch)
	}
}

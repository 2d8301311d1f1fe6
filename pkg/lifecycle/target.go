package lifecycle

import "sync"

// Event names.
const (
	EventVisibilityChange = "visibilitychange"
	EventPageHide         = "pagehide"
	EventPageShow         = "pageshow"
)

// Event is delivered to listeners.
type Event struct {
	Type string

	// Hidden is the document's hidden state at dispatch time.
	Hidden bool
}

// Listener handles an Event.
type Listener func(Event)

// ListenerID identifies a registered listener.
type ListenerID uint64

// EventTarget is a registry of listeners keyed by event name, in the manner
// of a DOM EventTarget. It is safe for concurrent use. Listeners run on the
// dispatching goroutine, in registration order.
type EventTarget struct {
	mu        sync.RWMutex
	nextID    ListenerID
	listeners map[string][]entry
}

type entry struct {
	id ListenerID
	fn Listener
}

// NewEventTarget creates an empty EventTarget.
func NewEventTarget() *EventTarget {
	return &EventTarget{listeners: make(map[string][]entry)}
}

// AddListener registers fn for event and returns its ID.
func (t *EventTarget) AddListener(event string, fn Listener) ListenerID {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	id := t.nextID
	t.listeners[event] = append(t.listeners[event], entry{id: id, fn: fn})
	return id
}

// RemoveListener unregisters a listener. Unknown IDs are ignored.
func (t *EventTarget) RemoveListener(event string, id ListenerID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	list := t.listeners[event]
	for i, e := range list {
		if e.id == id {
			t.listeners[event] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	if len(t.listeners[event]) == 0 {
		delete(t.listeners, event)
	}
}

// Dispatch delivers ev to every listener registered for event.
func (t *EventTarget) Dispatch(event string, ev Event) {
	t.mu.RLock()
	list := make([]entry, len(t.listeners[event]))
	copy(list, t.listeners[event])
	t.mu.RUnlock()

	ev.Type = event
	for _, e := range list {
		if e.fn != nil {
			e.fn(ev)
		}
	}
}

// Listeners returns the number of listeners registered for event.
func (t *EventTarget) Listeners(event string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.listeners[event])
}

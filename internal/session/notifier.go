package session

import (
	"sync"
	"time"

	"resource-dashboard/internal/stopwatch"
)

const (
	// EventFrame repaints the stopwatch placeholder.
	EventFrame = "frame"
	// EventSurprise asks the page to play a one-shot animation.
	EventSurprise = "surprise"
)

// AnimationBalloons is the only surprise animation the page knows.
const AnimationBalloons = "balloons"

// Event describes payloads pushed to a session's placeholders.
type Event struct {
	Type      string          `json:"type"`
	Display   string          `json:"display,omitempty"`
	Phase     stopwatch.Phase `json:"phase,omitempty"`
	Running   bool            `json:"running"`
	Animation string          `json:"animation,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Sink receives events for one attached placeholder, typically a websocket.
type Sink interface {
	Send(Event) error
	Close() error
}

// Notifier keeps track of attached sinks and broadcasts events to them.
type Notifier struct {
	mu    sync.Mutex
	sinks map[Sink]struct{}
}

// NewNotifier constructs a notifier instance.
func NewNotifier() *Notifier {
	return &Notifier{sinks: make(map[Sink]struct{})}
}

// Register attaches a sink.
func (n *Notifier) Register(sink Sink) {
	n.mu.Lock()
	n.sinks[sink] = struct{}{}
	n.mu.Unlock()
}

// Unregister removes the sink and closes it.
func (n *Notifier) Unregister(sink Sink) {
	if sink == nil {
		return
	}
	n.mu.Lock()
	_, ok := n.sinks[sink]
	delete(n.sinks, sink)
	n.mu.Unlock()
	if ok {
		_ = sink.Close()
	}
}

// Broadcast sends the event to every sink, dropping sinks that fail.
func (n *Notifier) Broadcast(event Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for sink := range n.sinks {
		if err := sink.Send(event); err != nil {
			delete(n.sinks, sink)
			_ = sink.Close()
		}
	}
}

// Len returns the number of attached sinks.
func (n *Notifier) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sinks)
}

// CloseAll detaches and closes every sink.
func (n *Notifier) CloseAll() {
	n.mu.Lock()
	sinks := n.sinks
	n.sinks = make(map[Sink]struct{})
	n.mu.Unlock()
	for sink := range sinks {
		_ = sink.Close()
	}
}

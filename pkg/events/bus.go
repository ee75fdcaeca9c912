package events

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/specdeck/specdeck/logging"
)

// Handler consumes published events. Handlers run synchronously on the
// publisher's goroutine, in subscription order.
type Handler func(Event)

// Subscription is the opaque handle returned by Subscribe. Callers retain it
// and pass it back to Unsubscribe; removal is by handle identity, so closure
// equality never matters.
type Subscription struct {
	id  uint64
	typ EventType
}

type registration struct {
	id      uint64
	handler Handler
}

// Bus is a synchronous pub/sub dispatcher. A single mutex guards the handler
// registry and the optional event log.
type Bus struct {
	mu       sync.Mutex
	handlers map[EventType][]registration
	nextID   uint64

	logEvents bool
	eventLog  []Event

	logger *logrus.Entry
}

// Option configures a Bus.
type Option func(*Bus)

// WithEventLog enables the append-only in-memory event log.
func WithEventLog() Option {
	return func(b *Bus) { b.logEvents = true }
}

// WithLogger replaces the default logger used to report recovered handler
// panics.
func WithLogger(logger *logrus.Entry) Option {
	return func(b *Bus) { b.logger = logger }
}

// NewBus creates an event bus.
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		handlers: make(map[EventType][]registration),
		logger:   logging.NewLogger("event-bus"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a handler for an event type and returns its handle.
func (b *Bus) Subscribe(typ EventType, handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.handlers[typ] = append(b.handlers[typ], registration{id: b.nextID, handler: handler})
	return &Subscription{id: b.nextID, typ: typ}
}

// Unsubscribe removes a previously registered handler. It is a no-op for a
// nil or unknown subscription and never fails.
func (b *Bus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	regs := b.handlers[sub.typ]
	for i, reg := range regs {
		if reg.id == sub.id {
			b.handlers[sub.typ] = append(regs[:i:i], regs[i+1:]...)
			return
		}
	}
}

// Publish constructs an Event and synchronously invokes every handler
// currently registered for the type, in subscription order, on the caller's
// goroutine. A panicking handler is recovered and logged; the remaining
// handlers still run. Handlers may subscribe or unsubscribe during delivery
// without corrupting the in-flight dispatch.
func (b *Bus) Publish(typ EventType, payload Payload, source string) {
	event := Event{
		Type:      typ,
		Payload:   payload,
		Timestamp: time.Now(),
		Source:    source,
	}

	b.mu.Lock()
	regs := b.handlers[typ]
	// Copy before iterating so mutation during delivery is safe.
	snapshot := make([]registration, len(regs))
	copy(snapshot, regs)
	if b.logEvents {
		b.eventLog = append(b.eventLog, event)
	}
	b.mu.Unlock()

	for _, reg := range snapshot {
		b.deliver(reg.handler, event)
	}
}

func (b *Bus) deliver(handler Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			if b.logger != nil {
				b.logger.WithFields(logrus.Fields{
					"event":  event.Type,
					"source": event.Source,
					"panic":  r,
				}).Error("Event handler panicked")
			}
		}
	}()
	handler(event)
}

// EventLog returns a copy of the recorded events. Empty unless the bus was
// created with WithEventLog.
func (b *Bus) EventLog() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	log := make([]Event, len(b.eventLog))
	copy(log, b.eventLog)
	return log
}

// ClearEventLog discards all recorded events.
func (b *Bus) ClearEventLog() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.eventLog = nil
}

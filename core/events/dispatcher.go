package events

import (
	"sync"

	"github.com/meditrack/lifeline/core/logger"
	"github.com/meditrack/lifeline/core/model"
)

// Subscription identifies one registered callback so it can be removed.
type Subscription struct {
	kind model.EventKind
	id   uint64
}

// Handler is invoked with a normalized event.
type Handler func(model.Event)

type registration struct {
	id uint64
	fn Handler
}

// Dispatcher routes normalized events to registered handlers by kind.
// Handlers for a kind run in registration order. A panicking handler is
// recovered and logged; the remaining handlers still run. Events with no
// registered handler are dropped.
type Dispatcher struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[model.EventKind][]registration
	log    logger.Logger
}

// NewDispatcher creates a Dispatcher. A nil logger panics; pass
// logger.NopLogger from infra for silent operation.
func NewDispatcher(log logger.Logger) *Dispatcher {
	return &Dispatcher{
		subs: make(map[model.EventKind][]registration),
		log:  log,
	}
}

// On registers fn for events of the given kind and returns its subscription.
func (d *Dispatcher) On(kind model.EventKind, fn Handler) Subscription {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	d.subs[kind] = append(d.subs[kind], registration{id: d.nextID, fn: fn})
	return Subscription{kind: kind, id: d.nextID}
}

// Off removes a subscription. Removing an unknown subscription is a no-op.
func (d *Dispatcher) Off(sub Subscription) {
	d.mu.Lock()
	defer d.mu.Unlock()
	regs := d.subs[sub.kind]
	for i, r := range regs {
		if r.id == sub.id {
			d.subs[sub.kind] = append(regs[:i], regs[i+1:]...)
			return
		}
	}
}

// Dispatch invokes every handler registered for the event's kind, in
// registration order. One message is fully dispatched before the next.
func (d *Dispatcher) Dispatch(ev model.Event) {
	d.mu.Lock()
	regs := make([]registration, len(d.subs[ev.Kind]))
	copy(regs, d.subs[ev.Kind])
	d.mu.Unlock()

	for _, r := range regs {
		d.invoke(ev, r)
	}
}

func (d *Dispatcher) invoke(ev model.Event, r registration) {
	defer func() {
		if rec := recover(); rec != nil {
			d.log.Errorf("handler for %s panicked: %v", ev.Kind, rec)
		}
	}()
	r.fn(ev)
}

// HandlerCount reports the number of handlers registered for a kind.
func (d *Dispatcher) HandlerCount(kind model.EventKind) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.subs[kind])
}

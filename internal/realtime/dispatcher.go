package realtime

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Consumer receives every event delivered while it is registered.
type Consumer func(Event)

// ConsumerID identifies a registered Consumer for removal.
type ConsumerID string

// Dispatcher decodes inbound frames and fans them out to consumers.
//
// Hooks are fixed at construction and always run before consumers; Clear
// only drops consumers.
type Dispatcher struct {
	mu        sync.RWMutex
	consumers map[ConsumerID]Consumer
	hooks     []Consumer
	logger    *zap.Logger
}

// NewDispatcher creates a Dispatcher. Hooks run for every event, in order.
func NewDispatcher(logger *zap.Logger, hooks ...Consumer) *Dispatcher {
	return &Dispatcher{
		consumers: make(map[ConsumerID]Consumer),
		hooks:     hooks,
		logger:    logger,
	}
}

// Add registers c and returns the ID used to remove it.
func (d *Dispatcher) Add(c Consumer) ConsumerID {
	id := ConsumerID(uuid.New().String())

	d.mu.Lock()
	d.consumers[id] = c
	n := len(d.consumers)
	d.mu.Unlock()

	d.logger.Debug("consumer added", zap.String("consumerID", string(id)), zap.Int("consumers", n))
	return id
}

// Remove unregisters the consumer with the given ID. Unknown IDs are ignored.
func (d *Dispatcher) Remove(id ConsumerID) {
	d.mu.Lock()
	_, ok := d.consumers[id]
	delete(d.consumers, id)
	n := len(d.consumers)
	d.mu.Unlock()

	if ok {
		d.logger.Debug("consumer removed", zap.String("consumerID", string(id)), zap.Int("consumers", n))
	}
}

// Clear unregisters every consumer.
func (d *Dispatcher) Clear() {
	d.mu.Lock()
	d.consumers = make(map[ConsumerID]Consumer)
	d.mu.Unlock()
}

// Len returns the number of registered consumers.
func (d *Dispatcher) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.consumers)
}

// Dispatch decodes frame and delivers it. Frames that fail to decode are
// dropped.
func (d *Dispatcher) Dispatch(frame []byte) {
	ev, err := DecodeEvent(frame)
	if err != nil {
		d.logger.Debug("dropping inbound frame", zap.Int("bytes", len(frame)), zap.Error(err))
		return
	}
	d.Deliver(ev)
}

// Deliver runs the hooks and then every currently registered consumer.
func (d *Dispatcher) Deliver(ev Event) {
	for _, h := range d.hooks {
		d.invoke(h, ev)
	}

	// Copy consumers to avoid holding lock during delivery
	d.mu.RLock()
	consumers := make([]Consumer, 0, len(d.consumers))
	for _, c := range d.consumers {
		consumers = append(consumers, c)
	}
	d.mu.RUnlock()

	for _, c := range consumers {
		d.invoke(c, ev)
	}
}

func (d *Dispatcher) invoke(c Consumer, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("consumer panicked",
				zap.String("event", ev.Type()),
				zap.Any("panic", r),
			)
		}
	}()
	c(ev)
}

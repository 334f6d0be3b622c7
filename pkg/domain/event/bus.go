package event

import (
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Subscriber receives events from the bus
type Subscriber func(ev Event)

type subscriberEntry struct {
	id uint64
	fn Subscriber
}

// Bus is a typed event bus. It rides on watermill's gochannel for its
// pub/sub infrastructure while keeping a direct subscriber registry so
// payloads keep their Go types. Buses are instance-scoped; there is no
// package-level singleton.
type Bus struct {
	mu sync.RWMutex

	pubsub *gochannel.GoChannel

	subscribers map[Type][]subscriberEntry
	global      []subscriberEntry

	nextID uint64
	closed bool
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{
				OutputChannelBuffer: 100,
				Persistent:          false,
			},
			watermill.NopLogger{},
		),
		subscribers: make(map[Type][]subscriberEntry),
	}
}

// Subscribe registers a subscriber for a specific event type and returns
// an unsubscribe function.
func (b *Bus) Subscribe(t Type, fn Subscriber) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return func() {}
	}

	b.nextID++
	id := b.nextID
	b.subscribers[t] = append(b.subscribers[t], subscriberEntry{id: id, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subscribers[t]
		for i, entry := range subs {
			if entry.id == id {
				b.subscribers[t] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
	}
}

// SubscribeAll registers a subscriber for every event and returns an
// unsubscribe function.
func (b *Bus) SubscribeAll(fn Subscriber) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return func() {}
	}

	b.nextID++
	id := b.nextID
	b.global = append(b.global, subscriberEntry{id: id, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, entry := range b.global {
			if entry.id == id {
				b.global = append(b.global[:i], b.global[i+1:]...)
				break
			}
		}
	}
}

func (b *Bus) collect(t Type) []Subscriber {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil
	}

	subs := make([]Subscriber, 0, len(b.subscribers[t])+len(b.global))
	for _, entry := range b.subscribers[t] {
		subs = append(subs, entry.fn)
	}
	for _, entry := range b.global {
		subs = append(subs, entry.fn)
	}
	return subs
}

// Publish delivers the event to every subscriber, each in its own
// goroutine.
func (b *Bus) Publish(ev Event) {
	for _, sub := range b.collect(ev.Type) {
		go sub(ev)
	}
}

// PublishSync delivers the event to every subscriber in the calling
// goroutine. The engine uses this so event ordering follows mutation
// ordering.
func (b *Bus) PublishSync(ev Event) {
	for _, sub := range b.collect(ev.Type) {
		sub(ev)
	}
}

// PubSub returns the underlying watermill GoChannel, for middleware,
// message routing, or swapping in a distributed backend.
func (b *Bus) PubSub() *gochannel.GoChannel {
	return b.pubsub
}

// Close shuts the bus down. Subsequent publishes are dropped.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.subscribers = make(map[Type][]subscriberEntry)
	b.global = nil
	b.mu.Unlock()

	return b.pubsub.Close()
}

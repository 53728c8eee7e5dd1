package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/nicksbar/YAHAML-sub001/internal/core"
)

// Bus fans events out to subscribers over bounded channels.
//
// Delivery contract: at-least-once, in the order the causing operations were
// applied to the owning room; nothing survives a process restart. A publish
// to a subscriber whose buffer is full blocks the publishing operation until
// that subscriber drains or cancels, so subscribers must consume promptly.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]*subscriber
	next   int
	buffer int
	closed bool
}

// subscriber pairs the delivery channel with a done signal that releases a
// publisher blocked on a full buffer. sends and the channel close are
// serialized on mu so the channel is never closed mid-send.
type subscriber struct {
	ch   chan core.Event
	done chan struct{}

	mu     sync.Mutex
	closed bool
}

func (s *subscriber) send(ev core.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- ev:
	case <-s.done:
	}
}

func (s *subscriber) close() {
	close(s.done)
	s.mu.Lock()
	s.closed = true
	close(s.ch)
	s.mu.Unlock()
}

func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 16
	}
	return &Bus{
		subs:   make(map[int]*subscriber),
		buffer: buffer,
	}
}

// Subscribe registers a new subscriber. The cancel func detaches it and
// closes the channel once any in-flight send has drained; buffered events
// may still be read out after cancel, followed by the close.
func (b *Bus) Subscribe() (<-chan core.Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	sub := &subscriber{
		ch:   make(chan core.Event, b.buffer),
		done: make(chan struct{}),
	}
	if b.closed {
		close(sub.ch)
		return sub.ch, func() {}
	}
	b.subs[id] = sub
	log.Debug().Str("module", "app.bus").Int("sub", id).Msg("subscribed")
	return sub.ch, func() {
		b.mu.Lock()
		if _, ok := b.subs[id]; !ok {
			b.mu.Unlock()
			return
		}
		delete(b.subs, id)
		b.mu.Unlock()
		sub.close()
	}
}

// Publish delivers ev to every subscriber. The bus lock only guards the
// snapshot of the subscriber list; the sends themselves happen outside it,
// so a cancel is never stuck behind a publisher blocked on a full buffer.
func (b *Bus) Publish(ev core.Event) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	targets := make([]*subscriber, 0, len(b.subs))
	for _, sub := range b.subs {
		targets = append(targets, sub)
	}
	b.mu.RUnlock()

	for _, sub := range targets {
		sub.send(ev)
	}
}

// Close detaches and closes all subscriber channels. Publish and Subscribe
// after Close are no-ops.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := make([]*subscriber, 0, len(b.subs))
	for id, sub := range b.subs {
		subs = append(subs, sub)
		delete(b.subs, id)
	}
	b.mu.Unlock()

	for _, sub := range subs {
		sub.close()
	}
	log.Info().Str("module", "app.bus").Msg("bus closed")
}

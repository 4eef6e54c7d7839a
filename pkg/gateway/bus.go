package gateway

import (
	"sync"

	"github.com/Cutii/enocean/pkg/esp3"
)

// PacketBus fans decoded packets out to subscribers with per-subscriber
// filter functions.
// This is, by no means, a performant or complete implementation but for the
// scope of this project more than sufficient
type PacketBus struct {
	subscribers map[*BusSubscriber]func(esp3.Packet) bool
	mu          sync.Mutex
}

type BusSubscriber struct {
	mu     sync.Mutex
	ch     chan esp3.Packet
	closed bool
}

func MatchAll(esp3.Packet) bool {
	return true
}

// MatchResponses selects only transceiver responses.
func MatchResponses(p esp3.Packet) bool {
	_, ok := p.(*esp3.Response)
	return ok
}

// MatchTelegrams selects only ERP1 radio telegrams.
func MatchTelegrams(p esp3.Packet) bool {
	_, ok := p.(*esp3.RadioErp1)
	return ok
}

// NewPacketBus returns an initialized PacketBus.
func NewPacketBus() *PacketBus {
	return &PacketBus{
		subscribers: make(map[*BusSubscriber]func(esp3.Packet) bool),
	}
}

// Publish a packet to all matching subscribers (best-effort). Subscribers
// with a full receive queue are dropped.
func (b *PacketBus) Publish(p esp3.Packet) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for sub, filter := range b.subscribers {
		sub.mu.Lock()
		// Clean up closed subscribers
		if sub.closed {
			delete(b.subscribers, sub)
			sub.mu.Unlock()
			continue
		}

		if filter(p) {
			// Try to send, but don't block
			select {
			case sub.ch <- p:
			default:
			}
		}

		sub.mu.Unlock()
	}
}

// Subscribe with a filter function. Returns a subscriber with the given
// buffer size.
func (b *PacketBus) Subscribe(bufSize int, filter func(esp3.Packet) bool) *BusSubscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &BusSubscriber{
		ch: make(chan esp3.Packet, bufSize),
	}
	b.subscribers[sub] = filter

	return sub
}

func (s *BusSubscriber) C() <-chan esp3.Packet {
	return s.ch
}

func (s *BusSubscriber) Unsubscribe() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	close(s.ch)
	s.closed = true
}

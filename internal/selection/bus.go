package selection

import (
	"context"
	"sync"
)

// Event is published on every observable change of a controller.
type Event struct {
	Type     string   `json:"type"`
	Snapshot Snapshot `json:"snapshot"`
}

const (
	EventSelected    = "selected"
	EventSettled     = "settled"
	EventIdle        = "idle"
	EventGeolocation = "geolocation_error"
)

// Bus fans events out to subscribers. Slow subscribers miss events rather
// than stall the controller.
type Bus struct {
	publish     chan Event
	subscribe   chan chan Event
	unsubscribe chan chan Event
	done        chan struct{}
	closeOnce   sync.Once
}

func NewBus(buffer int) *Bus {
	b := &Bus{
		publish:     make(chan Event, buffer),
		subscribe:   make(chan chan Event),
		unsubscribe: make(chan chan Event),
		done:        make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Bus) Publish(e Event) {
	select {
	case b.publish <- e:
	default:
	}
}

// Subscribe returns a channel of events that closes when ctx ends or the bus
// is closed.
func (b *Bus) Subscribe(ctx context.Context, buffer int) <-chan Event {
	ch := make(chan Event, buffer)

	select {
	case b.subscribe <- ch:
	case <-b.done:
		close(ch)
		return ch
	}

	go func() {
		select {
		case <-ctx.Done():
			select {
			case b.unsubscribe <- ch:
				close(ch)
			case <-b.done:
			}
		case <-b.done:
		}
	}()

	return ch
}

// Close stops the bus; every subscription channel is closed.
func (b *Bus) Close() {
	b.closeOnce.Do(func() { close(b.done) })
}

func (b *Bus) run() {
	listeners := make(map[chan Event]struct{})

	for {
		select {
		case ch := <-b.subscribe:
			listeners[ch] = struct{}{}
		case ch := <-b.unsubscribe:
			delete(listeners, ch)
		case e := <-b.publish:
			for ch := range listeners {
				select {
				case ch <- e:
				default:
				}
			}
		case <-b.done:
			// run owns every registered channel until it is unsubscribed.
			for ch := range listeners {
				close(ch)
			}
			return
		}
	}
}

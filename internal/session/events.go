package session

import "sync"

// EventType tells subscribers what changed.
type EventType string

const (
	EventState    EventType = "state"
	EventSnapshot EventType = "snapshot"
	EventResponse EventType = "response"
	EventNotice   EventType = "notice"
)

// Pending events are delivered in this order.
var eventOrder = []EventType{EventState, EventSnapshot, EventResponse, EventNotice}

func eventBit(t EventType) uint8 {
	for i, et := range eventOrder {
		if et == t {
			return 1 << i
		}
	}
	return 0
}

// Event is a change notification. Subscribers re-read the session to get
// the data; events only say what to refresh.
type Event struct {
	Type EventType `json:"type"`
}

// subscriber keeps at most one pending event per type. Repeated events of
// a type merge while the consumer is busy, but no type is ever lost.
type subscriber struct {
	mu      sync.Mutex
	pending uint8

	wake chan struct{}
	done chan struct{}
	out  chan Event
}

func newSubscriber() *subscriber {
	sub := &subscriber{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
		out:  make(chan Event),
	}
	go sub.pump()
	return sub
}

func (sub *subscriber) mark(t EventType) {
	sub.mu.Lock()
	sub.pending |= eventBit(t)
	sub.mu.Unlock()

	select {
	case sub.wake <- struct{}{}:
	default:
	}
}

func (sub *subscriber) take() uint8 {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	pending := sub.pending
	sub.pending = 0
	return pending
}

func (sub *subscriber) pump() {
	defer close(sub.out)

	for {
		select {
		case <-sub.done:
			return
		case <-sub.wake:
		}

		pending := sub.take()
		for _, t := range eventOrder {
			if pending&eventBit(t) == 0 {
				continue
			}
			select {
			case sub.out <- Event{Type: t}:
			case <-sub.done:
				return
			}
		}
	}
}

// Subscribe registers for change notifications. A slow subscriber sees the
// latest event of each type rather than every event, and never blocks
// ingestion. The returned func unsubscribes and closes the channel.
func (s *Session) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	sub := newSubscriber()
	s.subscribers[id] = sub

	return sub.out, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subscribers[id]; ok {
			delete(s.subscribers, id)
			close(sub.done)
		}
	}
}

func (s *Session) publishLocked(t EventType) {
	for _, sub := range s.subscribers {
		sub.mark(t)
	}
}

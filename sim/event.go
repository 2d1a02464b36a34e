package sim

import (
	"fmt"

	"github.com/google/uuid"
)

// EventKind enumerates the notifications raised by the simulation core.
type EventKind int

const (
	EventGuestArrived EventKind = iota
	EventGuestStartedUsing
	EventGuestPaid
	EventGuestAngry
	EventGuestLeft
	EventQueueJoined
	EventQueueAbandoned
	EventConsoleBroken
	EventRepairStarted
	EventRepairCompleted
)

var eventKindNames = [...]string{
	EventGuestArrived:      "guest-arrived",
	EventGuestStartedUsing: "guest-started-using",
	EventGuestPaid:         "guest-paid",
	EventGuestAngry:        "guest-angry",
	EventGuestLeft:         "guest-left",
	EventQueueJoined:       "queue-joined",
	EventQueueAbandoned:    "queue-abandoned",
	EventConsoleBroken:     "console-broken",
	EventRepairStarted:     "repair-started",
	EventRepairCompleted:   "repair-completed",
}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventKindNames) {
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
	return eventKindNames[k]
}

// Event is implemented by every notification type below.
// Timestamp is the simulated clock (ms) at which the event was raised.
type Event interface {
	Kind() EventKind
	Timestamp() int64
}

// GuestArrived is raised when a guest spawns at the entrance.
type GuestArrived struct {
	Time  int64
	Guest uuid.UUID
	Type  GuestType
}

// GuestStartedUsing is raised when a guest occupies a console, either by
// walking up to an idle one or by reaching the head of its queue.
type GuestStartedUsing struct {
	Time      int64
	Guest     uuid.UUID
	Console   string
	FromQueue bool
}

// GuestPaid is raised when a guest finishes using a console. Amount may be zero.
type GuestPaid struct {
	Time         int64
	Guest        uuid.UUID
	Console      string
	Amount       int
	Satisfaction int
}

// GuestAngry is raised once per guest when it turns angry.
type GuestAngry struct {
	Time   int64
	Guest  uuid.UUID
	Reason string
}

// GuestLeft is raised when a leaving or angry guest crosses the exit boundary.
type GuestLeft struct {
	Time  int64
	Guest uuid.UUID
	State GuestState
}

// QueueJoined is raised when a guest is enrolled in a console queue.
type QueueJoined struct {
	Time     int64
	Guest    uuid.UUID
	Console  string
	Position int
}

// QueueAbandoned is raised when a waiting guest gives up on a queue.
// Forced is set when the guest's wait tolerance was exceeded.
type QueueAbandoned struct {
	Time    int64
	Guest   uuid.UUID
	Console string
	Waited  int64
	Forced  bool
}

// ConsoleBroken is raised when a console's durability reaches zero.
type ConsoleBroken struct {
	Time    int64
	Console string
}

// RepairStarted is raised when a broken console goes under repair.
type RepairStarted struct {
	Time     int64
	Console  string
	Duration int64
}

// RepairCompleted is raised when a console returns to service.
type RepairCompleted struct {
	Time    int64
	Console string
}

func (e GuestArrived) Kind() EventKind      { return EventGuestArrived }
func (e GuestStartedUsing) Kind() EventKind { return EventGuestStartedUsing }
func (e GuestPaid) Kind() EventKind         { return EventGuestPaid }
func (e GuestAngry) Kind() EventKind        { return EventGuestAngry }
func (e GuestLeft) Kind() EventKind         { return EventGuestLeft }
func (e QueueJoined) Kind() EventKind       { return EventQueueJoined }
func (e QueueAbandoned) Kind() EventKind    { return EventQueueAbandoned }
func (e ConsoleBroken) Kind() EventKind     { return EventConsoleBroken }
func (e RepairStarted) Kind() EventKind     { return EventRepairStarted }
func (e RepairCompleted) Kind() EventKind   { return EventRepairCompleted }

func (e GuestArrived) Timestamp() int64      { return e.Time }
func (e GuestStartedUsing) Timestamp() int64 { return e.Time }
func (e GuestPaid) Timestamp() int64         { return e.Time }
func (e GuestAngry) Timestamp() int64        { return e.Time }
func (e GuestLeft) Timestamp() int64         { return e.Time }
func (e QueueJoined) Timestamp() int64       { return e.Time }
func (e QueueAbandoned) Timestamp() int64    { return e.Time }
func (e ConsoleBroken) Timestamp() int64     { return e.Time }
func (e RepairStarted) Timestamp() int64     { return e.Time }
func (e RepairCompleted) Timestamp() int64   { return e.Time }

type listener struct {
	id int
	fn func(Event)
}

// EventBus dispatches events synchronously to listeners registered per kind,
// in registration order. The zero value is not usable; use NewEventBus.
// A nil *EventBus silently drops published events.
//
// Thread-safety: NOT thread-safe. Must be called from the simulation goroutine.
type EventBus struct {
	listeners map[EventKind][]listener
	nextID    int
}

// NewEventBus returns an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{listeners: make(map[EventKind][]listener)}
}

// Subscription identifies a registered listener so it can be removed.
type Subscription struct {
	bus  *EventBus
	kind EventKind
	id   int
}

// Subscribe registers fn for events of the given kind.
func (b *EventBus) Subscribe(kind EventKind, fn func(Event)) Subscription {
	if fn == nil {
		panic("Subscribe: fn must not be nil")
	}
	b.nextID++
	b.listeners[kind] = append(b.listeners[kind], listener{id: b.nextID, fn: fn})
	return Subscription{bus: b, kind: kind, id: b.nextID}
}

// On registers a listener typed on a concrete event struct.
//
//	sim.On(bus, func(e sim.GuestPaid) { ledger.AddMoney(e.Amount) })
func On[E Event](b *EventBus, fn func(E)) Subscription {
	var zero E
	return b.Subscribe(zero.Kind(), func(ev Event) {
		if typed, ok := ev.(E); ok {
			fn(typed)
		}
	})
}

// Cancel removes the listener. Cancelling twice is a no-op.
func (s Subscription) Cancel() {
	if s.bus == nil {
		return
	}
	ls := s.bus.listeners[s.kind]
	for i, l := range ls {
		if l.id == s.id {
			s.bus.listeners[s.kind] = append(ls[:i:i], ls[i+1:]...)
			return
		}
	}
}

// Publish delivers ev to every listener of its kind.
func (b *EventBus) Publish(ev Event) {
	if b == nil {
		return
	}
	for _, l := range b.listeners[ev.Kind()] {
		l.fn(ev)
	}
}

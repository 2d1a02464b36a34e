package sim

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestEventBus_On_DeliversTypedEvent(t *testing.T) {
	bus := NewEventBus()
	var got []GuestPaid
	On(bus, func(e GuestPaid) { got = append(got, e) })

	bus.Publish(GuestPaid{Time: 10, Amount: 5})
	bus.Publish(GuestAngry{Time: 11})

	assert.Len(t, got, 1)
	assert.Equal(t, 5, got[0].Amount)
}

func TestEventBus_RegistrationOrder(t *testing.T) {
	bus := NewEventBus()
	var order []string
	bus.Subscribe(EventConsoleBroken, func(Event) { order = append(order, "first") })
	bus.Subscribe(EventConsoleBroken, func(Event) { order = append(order, "second") })

	bus.Publish(ConsoleBroken{Console: "console_0"})

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestSubscription_Cancel_StopsDelivery(t *testing.T) {
	bus := NewEventBus()
	calls := 0
	sub := On(bus, func(RepairCompleted) { calls++ })
	other := On(bus, func(RepairCompleted) { calls += 10 })

	sub.Cancel()
	sub.Cancel()
	bus.Publish(RepairCompleted{Console: "console_1"})

	assert.Equal(t, 10, calls, "only the remaining listener fires")
	other.Cancel()
	bus.Publish(RepairCompleted{Console: "console_1"})
	assert.Equal(t, 10, calls)
}

func TestEventBus_NilBus_DropsEvents(t *testing.T) {
	var bus *EventBus
	assert.NotPanics(t, func() { bus.Publish(GuestLeft{Guest: uuid.Nil}) })
}

func TestEventKind_String(t *testing.T) {
	assert.Equal(t, "repair-completed", EventRepairCompleted.String())
	assert.Equal(t, "EventKind(99)", EventKind(99).String())
}

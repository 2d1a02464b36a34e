package sim

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Attach_AccountsEvents(t *testing.T) {
	// GIVEN metrics attached to a bus
	bus := NewEventBus()
	m := NewMetrics()
	m.Attach(bus)

	// WHEN a short run's worth of events is published
	bus.Publish(GuestArrived{Time: 0, Type: GuestCasual})
	bus.Publish(GuestArrived{Time: 10, Type: GuestFamily})
	bus.Publish(QueueJoined{Time: 20, Console: "retro-1"})
	bus.Publish(GuestPaid{Time: 5_000, Console: "retro-1", Amount: 12, Satisfaction: 8})
	bus.Publish(QueueAbandoned{Time: 31_000, Console: "retro-1", Waited: 31_000, Forced: true})
	bus.Publish(QueueAbandoned{Time: 32_000, Console: "retro-1", Waited: 2_000})
	bus.Publish(GuestAngry{Time: 32_000, Reason: "abandoned-queue"})
	bus.Publish(GuestLeft{Time: 33_000, State: Leaving})
	bus.Publish(ConsoleBroken{Time: 34_000, Console: "retro-1"})
	bus.Publish(RepairCompleted{Time: 37_000, Console: "retro-1"})

	// THEN the ledger and the counters agree
	assert.Equal(t, 12, m.Money())
	assert.Equal(t, 1, m.AngryGuests())
	assert.Equal(t, 1, m.Served())
	assert.Equal(t, 2, m.Spawned())
	assert.Equal(t, 1, m.Left())
	assert.Equal(t, 2.0, testutil.ToFloat64(m.guestsSpawned))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.revenue))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queueJoins))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queueAbandons.WithLabelValues("tolerance")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queueAbandons.WithLabelValues("impatience")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.guestsAngry))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.breakdowns))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.repairs))
}

func TestMetrics_AddMoney_SpendingDoesNotCountAsRevenue(t *testing.T) {
	m := NewMetrics()

	m.AddMoney(100)
	m.AddMoney(-30)

	assert.Equal(t, 70, m.Money())
	assert.Equal(t, 100.0, testutil.ToFloat64(m.revenue))
}

func TestMetrics_SetBalance(t *testing.T) {
	m := NewMetrics()

	m.SetBalance(500)

	assert.Equal(t, 500, m.Money())
	assert.Zero(t, testutil.ToFloat64(m.revenue))
}

func TestMetrics_Gauges(t *testing.T) {
	m := NewMetrics()

	m.SetActiveGuests(7)
	m.SetQueueLength("retro-1", 3)

	assert.Equal(t, 7.0, testutil.ToFloat64(m.activeGuests))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.queueLength.WithLabelValues("retro-1")))
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := NewMetrics()
	m.AddMoney(42)
	path := filepath.Join(t.TempDir(), "venue.prom")

	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "venue_revenue_total 42")
}

func TestMetrics_Print(t *testing.T) {
	m := NewMetrics()
	bus := NewEventBus()
	m.Attach(bus)
	bus.Publish(GuestPaid{Amount: 10})
	bus.Publish(GuestPaid{Amount: 20})

	var buf bytes.Buffer
	m.Print(&buf, 60_000)

	out := buf.String()
	assert.Contains(t, out, "Simulated Time   : 60.0 s")
	assert.Contains(t, out, "Guests Served    : 2")
	assert.Contains(t, out, "Money            : 30")
	assert.Contains(t, out, "Revenue / Guest  : 15.00")
}

func TestMetrics_Print_RevenuePerGuestIgnoresBalance(t *testing.T) {
	// GIVEN starting funds, a purchase and one paid session
	m := NewMetrics()
	bus := NewEventBus()
	m.Attach(bus)
	m.SetBalance(1_000)
	m.AddMoney(-300)
	bus.Publish(GuestPaid{Amount: 10})

	// WHEN the summary is printed
	var buf bytes.Buffer
	m.Print(&buf, 1_000)

	// THEN the balance reflects everything but revenue per guest counts only payments
	out := buf.String()
	assert.Contains(t, out, "Money            : 710")
	assert.Contains(t, out, "Revenue / Guest  : 10.00")
	assert.Equal(t, 10, m.Earned())
}

// recordingLedger is a Ledger that remembers what it was told.
type recordingLedger struct {
	money int
	angry int
}

func (l *recordingLedger) AddMoney(amount int) { l.money += amount }
func (l *recordingLedger) RecordAngryGuest()   { l.angry++ }

func TestMetrics_ImplementsLedger(t *testing.T) {
	var _ Ledger = NewMetrics()
	var _ Ledger = &recordingLedger{}
}

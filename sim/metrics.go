// Tracks venue-wide outcomes: money taken, guests served and lost, queue and
// console activity. Backed by a private Prometheus registry so a run can be
// exported as a textfile.

package sim

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ledger receives payments and angry-guest notices. It is write-only from the
// simulation's point of view.
type Ledger interface {
	AddMoney(amount int)
	RecordAngryGuest()
}

// Metrics aggregates statistics about a venue run and implements Ledger.
type Metrics struct {
	registry *prometheus.Registry

	money       int
	earned      int // sum of positive payments; excludes starting funds and spending
	angryGuests int
	served      int
	spawned     int
	left        int

	guestsSpawned prometheus.Counter
	guestsServed  prometheus.Counter
	guestsAngry   prometheus.Counter
	guestsLeft    prometheus.Counter
	revenue       prometheus.Counter
	queueJoins    prometheus.Counter
	queueAbandons *prometheus.CounterVec
	breakdowns    prometheus.Counter
	repairs       prometheus.Counter
	activeGuests  prometheus.Gauge
	queueLength   *prometheus.GaugeVec
	queueWait     prometheus.Histogram
	payment       prometheus.Histogram
}

// NewMetrics creates a Metrics with its own registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		guestsSpawned: f.NewCounter(prometheus.CounterOpts{
			Name: "venue_guests_spawned_total",
			Help: "Guests that entered the venue",
		}),
		guestsServed: f.NewCounter(prometheus.CounterOpts{
			Name: "venue_guests_served_total",
			Help: "Guests that finished a play session",
		}),
		guestsAngry: f.NewCounter(prometheus.CounterOpts{
			Name: "venue_guests_angry_total",
			Help: "Guests that turned angry",
		}),
		guestsLeft: f.NewCounter(prometheus.CounterOpts{
			Name: "venue_guests_left_total",
			Help: "Guests that crossed the exit",
		}),
		revenue: f.NewCounter(prometheus.CounterOpts{
			Name: "venue_revenue_total",
			Help: "Money paid by guests",
		}),
		queueJoins: f.NewCounter(prometheus.CounterOpts{
			Name: "venue_queue_joins_total",
			Help: "Guests enrolled in a console queue",
		}),
		queueAbandons: f.NewCounterVec(prometheus.CounterOpts{
			Name: "venue_queue_abandons_total",
			Help: "Guests that left a queue unserved",
		}, []string{"reason"}), // Bounded: "tolerance", "impatience"
		breakdowns: f.NewCounter(prometheus.CounterOpts{
			Name: "venue_console_breakdowns_total",
			Help: "Consoles worn down to zero durability",
		}),
		repairs: f.NewCounter(prometheus.CounterOpts{
			Name: "venue_console_repairs_total",
			Help: "Console repairs completed",
		}),
		activeGuests: f.NewGauge(prometheus.GaugeOpts{
			Name: "venue_guests_active",
			Help: "Guests currently inside the venue",
		}),
		queueLength: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "venue_queue_length",
			Help: "Guests waiting per console",
		}, []string{"console"}), // Bounded by the number of consoles placed
		queueWait: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "venue_queue_wait_ms",
			Help:    "Time spent in a queue before leaving it",
			Buckets: []float64{1_000, 5_000, 10_000, 15_000, 25_000, 30_000, 45_000},
		}),
		payment: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "venue_payment",
			Help:    "Amount paid per play session",
			Buckets: []float64{0, 5, 10, 15, 20, 25, 30, 40},
		}),
	}
}

// Registry exposes the Prometheus registry for export.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// AddMoney records a payment. Negative amounts (refunds, purchases) adjust the
// balance but not the revenue counter.
func (m *Metrics) AddMoney(amount int) {
	m.money += amount
	if amount > 0 {
		m.earned += amount
		m.revenue.Add(float64(amount))
	}
}

// RecordAngryGuest counts a guest that turned angry.
func (m *Metrics) RecordAngryGuest() {
	m.angryGuests++
	m.guestsAngry.Inc()
}

// Money returns the current balance.
func (m *Metrics) Money() int { return m.money }

// Earned returns the money taken from guests, ignoring starting funds and spending.
func (m *Metrics) Earned() int { return m.earned }

// AngryGuests returns the number of guests that turned angry.
func (m *Metrics) AngryGuests() int { return m.angryGuests }

// Served returns the number of completed play sessions.
func (m *Metrics) Served() int { return m.served }

// Spawned returns the number of guests that entered.
func (m *Metrics) Spawned() int { return m.spawned }

// Left returns the number of guests that crossed the exit.
func (m *Metrics) Left() int { return m.left }

// SetActiveGuests records the live guest count.
func (m *Metrics) SetActiveGuests(n int) {
	m.activeGuests.Set(float64(n))
}

// SetQueueLength records the queue length of a console.
func (m *Metrics) SetQueueLength(consoleID string, n int) {
	m.queueLength.WithLabelValues(consoleID).Set(float64(n))
}

// Attach subscribes m to the events it accounts for, including the Ledger
// notifications (GuestPaid → AddMoney, GuestAngry → RecordAngryGuest).
func (m *Metrics) Attach(bus *EventBus) []Subscription {
	return []Subscription{
		On(bus, func(e GuestArrived) {
			m.spawned++
			m.guestsSpawned.Inc()
		}),
		On(bus, func(e GuestPaid) {
			m.served++
			m.guestsServed.Inc()
			m.payment.Observe(float64(e.Amount))
			m.AddMoney(e.Amount)
		}),
		On(bus, func(e GuestAngry) { m.RecordAngryGuest() }),
		On(bus, func(e GuestLeft) {
			m.left++
			m.guestsLeft.Inc()
		}),
		On(bus, func(e QueueJoined) { m.queueJoins.Inc() }),
		On(bus, func(e QueueAbandoned) {
			reason := "impatience"
			if e.Forced {
				reason = "tolerance"
			}
			m.queueAbandons.WithLabelValues(reason).Inc()
			m.queueWait.Observe(float64(e.Waited))
		}),
		On(bus, func(e ConsoleBroken) { m.breakdowns.Inc() }),
		On(bus, func(e RepairCompleted) { m.repairs.Inc() }),
	}
}

// WriteTextfile exports every metric in the Prometheus text format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}

// Print writes a human-readable summary of the run.
func (m *Metrics) Print(w io.Writer, clock int64) {
	fmt.Fprintln(w, "=== Venue Metrics ===")
	fmt.Fprintf(w, "Simulated Time   : %.1f s\n", float64(clock)/1000)
	fmt.Fprintf(w, "Guests Spawned   : %d\n", m.spawned)
	fmt.Fprintf(w, "Guests Served    : %d\n", m.served)
	fmt.Fprintf(w, "Guests Angry     : %d\n", m.angryGuests)
	fmt.Fprintf(w, "Guests Left      : %d\n", m.left)
	fmt.Fprintf(w, "Money            : %d\n", m.money)
	if m.served > 0 {
		fmt.Fprintf(w, "Revenue / Guest  : %.2f\n", float64(m.earned)/float64(m.served))
	}
}

// SetBalance overwrites the balance without touching the revenue counter.
// Used for starting funds and by save systems restoring a run.
func (m *Metrics) SetBalance(amount int) {
	m.money = amount
}

package sim

// GuestView is a plain-value copy of a guest for renderers and save systems.
type GuestView struct {
	ID            string     `yaml:"id"`
	Type          GuestType  `yaml:"type"`
	State         GuestState `yaml:"state"`
	X             float64    `yaml:"x"`
	Y             float64    `yaml:"y"`
	Satisfaction  int        `yaml:"satisfaction"`
	Patience      int64      `yaml:"remaining_patience_ms"`
	Console       string     `yaml:"console,omitempty"`   // occupied console
	QueuedAt      string     `yaml:"queued_at,omitempty"` // console whose queue the guest is in
	QueuePosition int        `yaml:"queue_position"`
}

// ConsoleView is a plain-value copy of a console for renderers and save systems.
type ConsoleView struct {
	ID              string       `yaml:"id"`
	Type            ConsoleType  `yaml:"type"`
	Tier            int          `yaml:"tier"`
	State           ConsoleState `yaml:"state"`
	X               float64      `yaml:"x"`
	Y               float64      `yaml:"y"`
	Durability      int          `yaml:"durability"`
	MaxDurability   int          `yaml:"max_durability"`
	TotalUses       int          `yaml:"total_uses"`
	QueueLength     int          `yaml:"queue_length"`
	EffectiveAppeal int          `yaml:"effective_appeal"`
	RepairProgress  float64      `yaml:"repair_progress"`
}

// Snapshot is the state of a venue at one instant.
type Snapshot struct {
	Clock       int64         `yaml:"clock_ms"`
	Money       int           `yaml:"money"`
	AngryGuests int           `yaml:"angry_guests"`
	Guests      []GuestView   `yaml:"guests"`
	Consoles    []ConsoleView `yaml:"consoles"`
}

// Snapshot copies the live state of the venue.
func (v *Venue) Snapshot() Snapshot {
	s := Snapshot{
		Clock:       v.Clock,
		Money:       v.metrics.Money(),
		AngryGuests: v.metrics.AngryGuests(),
		Guests:      make([]GuestView, 0, len(v.guests)),
		Consoles:    make([]ConsoleView, 0, len(v.consoles)),
	}
	for _, g := range v.guests {
		if g.removed {
			continue
		}
		gv := GuestView{
			ID:            g.ID.String(),
			Type:          g.Type,
			State:         g.State,
			X:             g.Position.X,
			Y:             g.Position.Y,
			Satisfaction:  g.Satisfaction,
			Patience:      g.RemainingPatience(v.Clock),
			QueuePosition: g.queuePosition,
		}
		if g.currentConsole != nil {
			gv.Console = g.currentConsole.ID
		}
		if g.queuedAt != nil {
			gv.QueuedAt = g.queuedAt.ID
		}
		s.Guests = append(s.Guests, gv)
	}
	for _, c := range v.consoles {
		s.Consoles = append(s.Consoles, ConsoleView{
			ID:              c.ID,
			Type:            c.Type,
			Tier:            c.Tier,
			State:           c.State,
			X:               c.Position.X,
			Y:               c.Position.Y,
			Durability:      c.Durability,
			MaxDurability:   c.MaxDurability,
			TotalUses:       c.TotalUses,
			QueueLength:     c.QueueLength(),
			EffectiveAppeal: v.placement.EffectiveAppeal(c),
			RepairProgress:  c.RepairProgress(v.Clock),
		})
	}
	return s
}

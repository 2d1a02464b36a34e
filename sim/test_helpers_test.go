package sim

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/arcade-sim/arcade-sim/sim/geom"
	"github.com/arcade-sim/arcade-sim/sim/workload"
)

// staticRoster is a fixed Roster for placement and queue tests.
type staticRoster struct {
	guests   []*Guest
	consoles []*Console
}

func (r *staticRoster) Guests() []*Guest     { return r.guests }
func (r *staticRoster) Consoles() []*Console { return r.consoles }

func mustGuest(t *testing.T, gt GuestType, x, y float64) *Guest {
	t.Helper()
	g, err := NewGuest(uuid.New(), gt, geom.V(x, y), 0)
	require.NoError(t, err)
	return g
}

func mustConsole(t *testing.T, id string, ct ConsoleType, x, y float64) *Console {
	t.Helper()
	c, err := NewConsole(id, ct, geom.V(x, y))
	require.NoError(t, err)
	return c
}

// occupy seats a fresh casual guest on c so that c is in use.
func occupy(t *testing.T, c *Console) *Guest {
	t.Helper()
	o := mustGuest(t, GuestCasual, c.Position.X, c.Position.Y)
	_, err := o.StartUsingConsole(c, 0)
	require.NoError(t, err)
	return o
}

// quietVenueConfig is the default layout with a single retro console and
// arrivals spaced a minute apart, so short tests control every guest.
func quietVenueConfig() VenueConfig {
	cfg := DefaultVenueConfig()
	cfg.Consoles = []ConsoleSpec{{ID: "retro-1", Type: string(ConsoleRetroArcade), X: 140, Y: 260}}
	cfg.Arrivals = workload.ArrivalSpec{Process: "constant", RatePerMinute: 1}
	return cfg
}

func mustVenue(t *testing.T, cfg VenueConfig, seed int64) *Venue {
	t.Helper()
	v, err := NewVenue(cfg, seed, nil)
	require.NoError(t, err)
	return v
}

package sim

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcade-sim/arcade-sim/sim/geom"
)

func TestNewGuest_UnknownType_InvalidType(t *testing.T) {
	_, err := NewGuest(uuid.New(), GuestType("vip"), geom.V(0, 0), 0)
	assert.ErrorIs(t, err, ErrInvalidType)
}

func TestNewGuest_StartsSeekingWithKindStats(t *testing.T) {
	g := mustGuest(t, GuestFamily, 10, 20)

	assert.Equal(t, Seeking, g.State)
	assert.Equal(t, InitialSatisfaction, g.Satisfaction)
	assert.Equal(t, int64(40_000), g.Patience)
	assert.Equal(t, -1, g.QueuePosition())
	assert.Nil(t, g.CurrentConsole())
	assert.Nil(t, g.QueuedAt())
}

func TestGuest_UpdatePatience_StepwiseCaps(t *testing.T) {
	tests := []struct {
		name string
		now  int64
		want int
	}{
		{name: "above 60% keeps satisfaction", now: 11_000, want: InitialSatisfaction},
		{name: "below 60% caps at 3", now: 13_000, want: 3},
		{name: "below 30% caps at 1", now: 22_000, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// GIVEN a casual guest (patience 30s) that arrived at t=0
			g := mustGuest(t, GuestCasual, 0, 0)

			// WHEN patience is evaluated at tt.now
			angry := g.UpdatePatience(tt.now)

			// THEN satisfaction is capped, not decayed continuously
			assert.False(t, angry)
			assert.Equal(t, Seeking, g.State)
			assert.Equal(t, tt.want, g.Satisfaction)
		})
	}
}

func TestGuest_UpdatePatience_Exhausted_BecomesAngry(t *testing.T) {
	// GIVEN a seeking casual guest whose elapsed time reaches its patience
	g := mustGuest(t, GuestCasual, 0, 0)
	g.Satisfaction = MaxSatisfaction

	// WHEN patience is evaluated
	angry := g.UpdatePatience(30_000)

	// THEN it turns angry with satisfaction fixed at -5
	assert.True(t, angry)
	assert.Equal(t, Angry, g.State)
	assert.Equal(t, AngrySatisfaction, g.Satisfaction)
	assert.Equal(t, int64(0), g.RemainingPatience(45_000))

	// AND further updates are no-ops
	assert.False(t, g.UpdatePatience(40_000))
}

func TestGuest_UpdatePatience_OnlyWhileSeeking(t *testing.T) {
	g := mustGuest(t, GuestCasual, 0, 0)
	c := mustConsole(t, "retro-1", ConsoleRetroArcade, 0, 0)
	occupy(t, c)
	require.NoError(t, g.JoinQueue(c, 0))

	assert.False(t, g.UpdatePatience(60_000))
	assert.Equal(t, Waiting, g.State)
	assert.Equal(t, InitialSatisfaction, g.Satisfaction)
}

func TestGuest_CalculatePayment_Policy(t *testing.T) {
	retro := mustConsole(t, "retro-1", ConsoleRetroArcade, 0, 0) // appeals to casual, revenue 2
	racing := mustConsole(t, "racing-1", ConsoleRacingSim, 0, 0) // does not appeal to casual
	tests := []struct {
		name         string
		satisfaction int
		console      *Console
		want         int
	}{
		{name: "negative pays nothing", satisfaction: -1, console: retro, want: 0},
		{name: "zero pays half", satisfaction: 0, console: retro, want: 5},
		{name: "below full pays half", satisfaction: 4, console: retro, want: 5},
		{name: "full plus appeal bonus", satisfaction: 5, console: retro, want: 12},
		{name: "full without bonus", satisfaction: 8, console: racing, want: 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := mustGuest(t, GuestCasual, 0, 0)
			g.Satisfaction = tt.satisfaction
			assert.Equal(t, tt.want, g.CalculatePayment(tt.console))
		})
	}
}

func TestGuest_CalculatePayment_HalfIsFloored(t *testing.T) {
	// GIVEN a family guest (money 25) below full satisfaction
	g := mustGuest(t, GuestFamily, 0, 0)
	g.Satisfaction = 2

	// THEN half of 25 is floored to 12
	assert.Equal(t, 12, g.CalculatePayment(nil))
}

func TestGuest_StartUsingConsole_Direct(t *testing.T) {
	// GIVEN a seeking guest next to an idle console with nobody waiting
	g := mustGuest(t, GuestCasual, 0, 0)
	c := mustConsole(t, "retro-1", ConsoleRetroArcade, 0, 0)

	// WHEN it starts using the console
	broke, err := g.StartUsingConsole(c, 100)

	// THEN guest and console both reflect the session
	require.NoError(t, err)
	assert.False(t, broke)
	assert.Equal(t, Using, g.State)
	assert.Same(t, c, g.CurrentConsole())
	assert.Equal(t, InUse, c.State)
	assert.True(t, c.HasUser(g))
}

func TestGuest_StartUsingConsole_IllegalState(t *testing.T) {
	t.Run("guest not seeking", func(t *testing.T) {
		g := mustGuest(t, GuestCasual, 0, 0)
		g.State = Leaving
		c := mustConsole(t, "retro-1", ConsoleRetroArcade, 0, 0)

		_, err := g.StartUsingConsole(c, 0)

		assert.ErrorIs(t, err, ErrIllegalState)
		assert.Equal(t, Operational, c.State)
	})
	t.Run("console busy", func(t *testing.T) {
		c := mustConsole(t, "retro-1", ConsoleRetroArcade, 0, 0)
		occupy(t, c)
		g := mustGuest(t, GuestCasual, 0, 0)

		_, err := g.StartUsingConsole(c, 0)

		assert.ErrorIs(t, err, ErrIllegalState)
		assert.Equal(t, Seeking, g.State)
	})
	t.Run("guests already waiting", func(t *testing.T) {
		c := mustConsole(t, "retro-1", ConsoleRetroArcade, 0, 0)
		c.AddToQueue(mustGuest(t, GuestCasual, 0, 0))
		g := mustGuest(t, GuestCasual, 0, 0)

		_, err := g.StartUsingConsole(c, 0)

		assert.ErrorIs(t, err, ErrIllegalState)
	})
	t.Run("console broken", func(t *testing.T) {
		c := mustConsole(t, "retro-1", ConsoleRetroArcade, 0, 0)
		c.State = Broken
		g := mustGuest(t, GuestCasual, 0, 0)

		_, err := g.StartUsingConsole(c, 0)

		assert.ErrorIs(t, err, ErrIllegalState)
	})
}

func TestGuest_UpdateUse_FinishesAfterUseTime(t *testing.T) {
	// GIVEN a casual guest (use time 5s) that started an appealing console at t=1000
	g := mustGuest(t, GuestCasual, 0, 0)
	c := mustConsole(t, "retro-1", ConsoleRetroArcade, 0, 0)
	_, err := g.StartUsingConsole(c, 1_000)
	require.NoError(t, err)

	// WHEN the use time has not fully elapsed
	pay, done := g.UpdateUse(5_999)
	assert.False(t, done)
	assert.Zero(t, pay)

	// THEN at exactly the use time the session ends and payment is due
	pay, done = g.UpdateUse(6_000)
	assert.True(t, done)
	assert.Equal(t, 12, pay)
	assert.Equal(t, Leaving, g.State)
	assert.Equal(t, InitialSatisfaction+3, g.Satisfaction)
	assert.Nil(t, g.CurrentConsole())
	assert.Same(t, c, g.LastConsole())
	assert.Equal(t, Operational, c.State)
	assert.False(t, c.HasUser(g))
}

func TestGuest_UpdateUse_NonAppealingConsole_SmallBump(t *testing.T) {
	g := mustGuest(t, GuestCasual, 0, 0)
	c := mustConsole(t, "racing-1", ConsoleRacingSim, 0, 0)
	_, err := g.StartUsingConsole(c, 0)
	require.NoError(t, err)

	pay, done := g.UpdateUse(5_000)

	assert.True(t, done)
	assert.Equal(t, InitialSatisfaction+1, g.Satisfaction)
	assert.Equal(t, 10, pay)
}

func TestGuest_UpdateUse_SatisfactionCapped(t *testing.T) {
	g := mustGuest(t, GuestCasual, 0, 0)
	g.Satisfaction = 7
	c := mustConsole(t, "retro-1", ConsoleRetroArcade, 0, 0)
	_, err := g.StartUsingConsole(c, 0)
	require.NoError(t, err)

	g.UpdateUse(5_000)

	assert.Equal(t, MaxSatisfaction, g.Satisfaction)
}

func TestGuest_JoinQueue(t *testing.T) {
	c := mustConsole(t, "retro-1", ConsoleRetroArcade, 0, 0)
	occupy(t, c)
	g := mustGuest(t, GuestTourist, 0, 0)

	require.NoError(t, g.JoinQueue(c, 500))

	assert.Equal(t, Waiting, g.State)
	assert.Same(t, c, g.QueuedAt())
	assert.Equal(t, 0, g.QueuePosition())
	assert.Equal(t, int64(1_500), g.WaitingTime(2_000))

	// Joining again from the waiting state is refused.
	assert.ErrorIs(t, g.JoinQueue(c, 600), ErrIllegalState)
	assert.Equal(t, 1, c.QueueLength())
}

func TestGuest_JoinQueue_Full_IllegalState(t *testing.T) {
	c := mustConsole(t, "retro-1", ConsoleRetroArcade, 0, 0)
	for i := 0; i < MaxQueueLength; i++ {
		require.NoError(t, mustGuest(t, GuestCasual, 0, 0).JoinQueue(c, 0))
	}
	g := mustGuest(t, GuestCasual, 0, 0)

	err := g.JoinQueue(c, 0)

	assert.ErrorIs(t, err, ErrIllegalState)
	assert.Equal(t, Seeking, g.State)
	assert.Nil(t, g.QueuedAt())
}

func TestGuest_AbandonQueue(t *testing.T) {
	tests := []struct {
		name         string
		satisfaction int
		wantAngry    bool
		wantState    GuestState
	}{
		{name: "returns to seeking", satisfaction: 5, wantAngry: false, wantState: Seeking},
		{name: "penalty to zero turns angry", satisfaction: 2, wantAngry: true, wantState: Angry},
		{name: "already unhappy turns angry", satisfaction: 0, wantAngry: true, wantState: Angry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// GIVEN a waiting guest with the given satisfaction
			c := mustConsole(t, "retro-1", ConsoleRetroArcade, 0, 0)
			occupy(t, c)
			g := mustGuest(t, GuestCasual, 0, 0)
			require.NoError(t, g.JoinQueue(c, 0))
			g.Satisfaction = tt.satisfaction

			// WHEN it abandons the queue
			angry := g.AbandonQueue(10_000)

			// THEN satisfaction drops by the penalty and it leaves the line
			assert.Equal(t, tt.wantAngry, angry)
			assert.Equal(t, tt.wantState, g.State)
			assert.Equal(t, tt.satisfaction-AbandonPenalty, g.Satisfaction)
			assert.Equal(t, 0, c.QueueLength())
			assert.Nil(t, g.QueuedAt())
			assert.Equal(t, -1, g.QueuePosition())
		})
	}
}

func TestGuest_AbandonQueue_NotWaiting_NoOp(t *testing.T) {
	g := mustGuest(t, GuestCasual, 0, 0)

	assert.False(t, g.AbandonQueue(0))
	assert.Equal(t, InitialSatisfaction, g.Satisfaction)
}

func TestGuest_FindNearestOrOptimalConsole(t *testing.T) {
	t.Run("no placement picks nearest working", func(t *testing.T) {
		g := mustGuest(t, GuestCasual, 0, 0)
		near := mustConsole(t, "near", ConsoleRacingSim, 50, 0)
		far := mustConsole(t, "far", ConsoleRetroArcade, 300, 0)
		near.State = Broken

		got := g.FindNearestOrOptimalConsole([]*Console{near, far}, nil)

		assert.Same(t, far, got)
	})
	t.Run("appealing console beats nearer dull one", func(t *testing.T) {
		// GIVEN an enthusiast (threshold 4), a nearby retro (appeal 3) and a
		// farther vr-pod (appeal 8)
		g := mustGuest(t, GuestEnthusiast, 0, 300)
		retro := mustConsole(t, "retro", ConsoleRetroArcade, 200, 300)
		vr := mustConsole(t, "vr", ConsoleVRPod, 500, 300)
		roster := &staticRoster{consoles: []*Console{retro, vr}}
		sp := NewStrategicPlacement(DefaultPlacementConfig(), nil, roster)

		// WHEN it picks a console
		got := g.FindNearestOrOptimalConsole(roster.consoles, sp)

		// THEN only the vr-pod meets the threshold
		assert.Same(t, vr, got)
	})
	t.Run("nothing working", func(t *testing.T) {
		g := mustGuest(t, GuestCasual, 0, 0)
		c := mustConsole(t, "c", ConsoleRetroArcade, 50, 0)
		c.State = UnderRepair

		assert.Nil(t, g.FindNearestOrOptimalConsole([]*Console{c}, nil))
	})
}

func TestGuest_Advance_FollowsWaypoints(t *testing.T) {
	// GIVEN a casual guest (60 px/s) with an L-shaped path
	g := mustGuest(t, GuestCasual, 0, 0)
	g.SetPath([]geom.Vec2{geom.V(30, 0), geom.V(30, 100)}, 0)

	// WHEN it walks for one second
	g.Advance(1_000)

	// THEN it spends 30 px on the first leg and 30 px on the second
	assert.InDelta(t, 30.0, g.Position.X, 1e-9)
	assert.InDelta(t, 30.0, g.Position.Y, 1e-9)
	assert.Len(t, g.Path(), 1)
}

func TestGuest_HasExited(t *testing.T) {
	g := mustGuest(t, GuestCasual, 0, 100)
	assert.False(t, g.HasExited(), "seeking guests never exit")

	g.State = Leaving
	assert.True(t, g.HasExited())

	g.Position = geom.V(1, 100)
	assert.False(t, g.HasExited())
}

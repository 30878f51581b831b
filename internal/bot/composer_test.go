package bot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linhozo/UnimelbS2-Pacman/internal/repository/memory"
	"github.com/linhozo/UnimelbS2-Pacman/pkg/capture"
)

func TestOffenseLedRole(t *testing.T) {
	tests := []struct {
		scared int
		want   Role
	}{
		{0, RoleOffense},
		{2, RoleOffense},
		{3, RoleDefense},
		{40, RoleDefense},
	}
	for _, tt := range tests {
		got := OffenseLedRole(capture.AgentState{ScaredTimer: tt.scared})
		if got != tt.want {
			t.Errorf("OffenseLedRole(scared=%d) = %s, want %s", tt.scared, got, tt.want)
		}
	}
}

// invadedState returns a four-agent game where both blue agents are
// pacmen on the red side and red's agent 2 is scared.
func invadedState(t *testing.T, timeLeft int) *capture.GameState {
	t.Helper()
	gs := newDefaultState(t, timeLeft)
	gs.Agents[1].IsPacman = true
	gs.Agents[3].IsPacman = true
	gs.Agents[2].ScaredTimer = 10
	return gs
}

func TestDefenseLedRole(t *testing.T) {
	// 40 moves left for everyone is 10 for this agent.
	tests := []struct {
		name        string
		mutate      func(gs, prev *capture.GameState)
		noPrev      bool
		guardTravel int
		want        Role
	}{
		{name: "all conditions hold", guardTravel: 20, want: RoleDefense},
		{name: "time left exactly covers travel", guardTravel: 7, want: RoleDefense},
		{name: "plenty of time", guardTravel: 6, want: RoleOffense},
		{name: "first turn", noPrev: true, guardTravel: 7, want: RoleOffense},
		{name: "no guard point", guardTravel: -1, want: RoleOffense},
		{
			name:        "teammate not scared",
			mutate:      func(gs, _ *capture.GameState) { gs.Agents[2].ScaredTimer = 0 },
			guardTravel: 7,
			want:        RoleOffense,
		},
		{
			name:        "one invader now",
			mutate:      func(gs, _ *capture.GameState) { gs.Agents[3].IsPacman = false },
			guardTravel: 7,
			want:        RoleOffense,
		},
		{
			name:        "one invader last turn",
			mutate:      func(_, prev *capture.GameState) { prev.Agents[1].IsPacman = false },
			guardTravel: 7,
			want:        RoleOffense,
		},
		{
			name:        "own scare does not count",
			mutate:      func(gs, _ *capture.GameState) { gs.Agents[2].ScaredTimer = 0; gs.Agents[0].ScaredTimer = 10 },
			guardTravel: 7,
			want:        RoleOffense,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gs, prev := invadedState(t, 40), invadedState(t, 44)
			if tt.mutate != nil {
				tt.mutate(gs, prev)
			}
			if tt.noPrev {
				prev = nil
			}
			assert.Equal(t, tt.want, DefenseLedRole(gs, prev, 0, tt.guardTravel))
		})
	}
}

func TestCountInvaders(t *testing.T) {
	gs := invadedState(t, 40)
	assert.Equal(t, 2, countInvaders(gs, 0))
	assert.Equal(t, 0, countInvaders(gs, 1))
}

func TestCompositeInitialize(t *testing.T) {
	gs := newDefaultState(t, 1200)
	c := NewComposite(DefenseLed, 0, DefaultTraining(0), 3)
	require.NoError(t, c.Initialize(gs.Observation(0)))

	assert.Equal(t, "defense-led-0", c.Name())
	assert.True(t, c.hasGuard)
	assert.True(t, gs.Layout.InHome(capture.Red, c.guard))
	assert.Greater(t, c.avgGuardToDoor, 0.0)
	assert.GreaterOrEqual(t, c.guardTravel(gs), int(c.avgGuardToDoor))
}

func TestCompositeDelegates(t *testing.T) {
	gs := newDefaultState(t, 1200)
	gs.Agents[0].ScaredTimer = 10
	c := NewComposite(OffenseLed, 0, DefaultTraining(0), 3)
	require.NoError(t, c.Initialize(gs))

	a := c.ChooseAction(gs)
	assert.True(t, gs.IsLegal(0, a))
	assert.Equal(t, 1, c.Defense().pairs, "scared offense-led agent defends")
	assert.Zero(t, c.Offense().pairs)

	gs = gs.Clone()
	gs.Agents[0].ScaredTimer = 0
	c.ChooseAction(gs)
	assert.Equal(t, 1, c.Offense().pairs)
}

func TestCompositeSharesStore(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	gs := newDefaultState(t, 1200)

	c := NewComposite(OffenseLed, 2, DefaultTraining(1), 3)
	c.AttachStore(store)
	c.AttachSink(store)
	c.SetEpisode("ep-1")
	require.NoError(t, c.LoadWeights(ctx))
	require.NoError(t, c.Initialize(gs))
	require.NoError(t, c.Final(ctx, gs))

	for _, role := range []string{"offense", "defense"} {
		saved, err := store.LoadWeights(ctx, "agent-2", role)
		require.NoError(t, err)
		require.NotNil(t, saved, role)
		assert.Equal(t, 1, saved.Episodes)
	}
}

package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/linhozo/UnimelbS2-Pacman/internal/repository"
	"github.com/linhozo/UnimelbS2-Pacman/pkg/capture"
)

const (
	// scaredSwitch: an offense-led agent scared for longer than this defends.
	scaredSwitch = 2
	// guardSlack is added to the guard travel estimate before a defense-led
	// agent decides it is too late to keep attacking.
	guardSlack = 3
)

// Lead selects which sub-policy a Composite prefers.
type Lead int

const (
	OffenseLed Lead = iota
	DefenseLed
)

func (l Lead) String() string {
	if l == DefenseLed {
		return "defense-led"
	}
	return "offense-led"
}

// Composite owns an offense and a defense learner for one agent and
// delegates each turn to one of them.
type Composite struct {
	lead    Lead
	index   int
	offense *Learner
	defense *Learner

	prev           *capture.GameState
	guard          capture.Cell
	hasGuard       bool
	avgGuardToDoor float64
	dist           Distancer
}

// NewComposite returns a composite for agent index with fresh sub-learners.
func NewComposite(lead Lead, index int, params TrainingParams, seed int64) *Composite {
	var defSeed int64
	if seed != 0 {
		defSeed = seed + 1
	}
	return &Composite{
		lead:    lead,
		index:   index,
		offense: NewOffenseLearner(index, params, seed),
		defense: NewDefenseLearner(index, params, defSeed),
	}
}

func (c *Composite) Name() string { return fmt.Sprintf("%s-%d", c.lead, c.index) }

// Offense returns the offense sub-learner.
func (c *Composite) Offense() *Learner { return c.offense }

// Defense returns the defense sub-learner.
func (c *Composite) Defense() *Learner { return c.defense }

// SetEpisode tags both sub-learners' transition records.
func (c *Composite) SetEpisode(id string) {
	c.offense.SetEpisode(id)
	c.defense.SetEpisode(id)
}

// AttachStore gives both sub-learners the same weight store.
func (c *Composite) AttachStore(s repository.WeightStore) {
	c.offense.AttachStore(s)
	c.defense.AttachStore(s)
}

// AttachSink gives both sub-learners the same transition sink.
func (c *Composite) AttachSink(s repository.TransitionSink) {
	c.offense.AttachSink(s)
	c.defense.AttachSink(s)
}

// LoadWeights loads both sub-learners' tables from the attached store.
func (c *Composite) LoadWeights(ctx context.Context) error {
	return errors.Join(c.offense.LoadWeights(ctx), c.defense.LoadWeights(ctx))
}

// Initialize prepares both sub-learners on a shared distance oracle and
// plans the guard point used by the defense-led switch.
func (c *Composite) Initialize(gs *capture.GameState) error {
	dist := capture.NewDistancer(gs.Layout)
	if err := c.offense.initializeWith(gs, dist); err != nil {
		return err
	}
	if err := c.defense.initializeWith(gs, dist); err != nil {
		return err
	}
	c.dist = dist
	c.prev = nil

	team := capture.TeamOf(c.index)
	doors := FindDoors(gs.Layout.Walls, gs.Layout.BorderX(team))
	c.guard, c.hasGuard = SelectGuardPosition(HomeCells(gs.Layout, team), doors, nil, dist)
	c.avgGuardToDoor = 0
	if c.hasGuard {
		c.avgGuardToDoor = meanDistance(c.guard, doors, dist)
	}
	return nil
}

// ChooseAction picks the sub-policy for this turn and returns its action.
func (c *Composite) ChooseAction(gs *capture.GameState) capture.Direction {
	var role Role
	switch c.lead {
	case DefenseLed:
		role = DefenseLedRole(gs, c.prev, c.index, c.guardTravel(gs))
	default:
		role = OffenseLedRole(gs.Agents[c.index])
	}
	c.prev = gs
	log.Debug().Str("policy", c.Name()).Str("role", role.String()).Int("time_left", gs.TimeLeft).Msg("Role chosen")

	if role == RoleDefense {
		return c.defense.ChooseAction(gs)
	}
	return c.offense.ChooseAction(gs)
}

// Final closes the episode on both sub-learners.
func (c *Composite) Final(ctx context.Context, gs *capture.GameState) error {
	return errors.Join(c.offense.Final(ctx, gs), c.defense.Final(ctx, gs))
}

// guardTravel estimates the moves needed to reach the guard point and then
// cover an average door from it. It is negative when no guard point exists.
func (c *Composite) guardTravel(gs *capture.GameState) int {
	if !c.hasGuard {
		return -1
	}
	d := c.dist.Distance(c.guard, gs.Agents[c.index].Position)
	return int(float64(d) + c.avgGuardToDoor)
}

// OffenseLedRole attacks unless the agent is scared for more than
// scaredSwitch moves, in which case it defends until the timer runs down.
func OffenseLedRole(me capture.AgentState) Role {
	if me.ScaredTimer > scaredSwitch {
		return RoleDefense
	}
	return RoleOffense
}

// DefenseLedRole defends when the teammate is scared, at least two invaders
// were seen on both this turn and the last, and the remaining moves barely
// cover guardTravel. Otherwise, and always on the first turn, it attacks.
func DefenseLedRole(gs, prev *capture.GameState, index, guardTravel int) Role {
	if prev == nil || guardTravel < 0 {
		return RoleOffense
	}
	mate := gs.Teammate(index)
	compromised := mate >= 0 && gs.Agents[mate].ScaredTimer > 0
	movesLeft := gs.TimeLeft / 4
	if compromised &&
		countInvaders(gs, index) >= 2 &&
		countInvaders(prev, index) >= 2 &&
		movesLeft <= guardTravel+guardSlack {
		return RoleDefense
	}
	return RoleOffense
}

// countInvaders counts opponents currently on our side of the board.
func countInvaders(gs *capture.GameState, index int) int {
	n := 0
	for _, o := range gs.Opponents(index) {
		if gs.Agents[o].IsPacman {
			n++
		}
	}
	return n
}

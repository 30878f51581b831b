package bot

import (
	"math"

	"github.com/linhozo/UnimelbS2-Pacman/pkg/capture"
)

const (
	// ghostSenseRange is the maze distance within which a ghost counts as a threat.
	ghostSenseRange = 5
	// cautionDistance is assumed for unseen ghosts.
	cautionDistance = 6
	// threatScared: ghosts scared for at most this many moves are still dangerous.
	threatScared = 5
	// beliefScared bounds the scare timer of ghosts remembered as last-known threats.
	beliefScared = 1
	// longScared: an opponent scared longer than this makes every pellet fair game.
	longScared = 5
	// homeMargin is the slack kept over the distance home before chasing targets.
	homeMargin = 10
	// featureScale divides every offense feature.
	featureScale = 10
	// carrySlack: stop collecting once carrying more than the target minus this.
	carrySlack = 2
)

// OffenseExtractor computes invader features for one agent.
type OffenseExtractor struct {
	index   int
	team    capture.Team
	dist    Distancer
	spatial *Spatial
	start   capture.Cell
	maxDist float64
	target  int // half the food there was to eat at the start

	prev   *capture.GameState
	belief *capture.Cell // last sensed ghost with scare timer <= beliefScared
}

// NewOffenseExtractor returns an extractor for agent index.
func NewOffenseExtractor(index int) *OffenseExtractor {
	return &OffenseExtractor{index: index, team: capture.TeamOf(index)}
}

func (e *OffenseExtractor) Role() Role { return RoleOffense }

// Initialize runs the spatial precomputation for a new game.
func (e *OffenseExtractor) Initialize(gs *capture.GameState, dist Distancer) error {
	sp, err := Analyze(gs.Layout, e.team)
	if err != nil {
		return err
	}
	e.spatial = sp
	e.dist = dist
	e.start = gs.Agents[e.index].Start
	e.maxDist = float64(gs.Layout.Width * gs.Layout.Height)
	e.target = gs.FoodFor(e.team).Count() / 2
	e.prev = nil
	e.belief = nil
	return nil
}

// Spatial returns the precomputed map analysis.
func (e *OffenseExtractor) Spatial() *Spatial { return e.spatial }

// BeginTurn refreshes the last-known threat position. A ghost is remembered
// when it is within sensing range of the agent or of any cell it can step to.
func (e *OffenseExtractor) BeginTurn(gs, prev *capture.GameState) {
	e.prev = prev
	pos := gs.Agents[e.index].Position
	bestDist := math.MaxInt
	for _, a := range gs.LegalActions(e.index) {
		if g, d, ok := e.nearestGhost(pos.Add(a), gs, beliefScared); ok && d < bestDist {
			ghost := g
			e.belief, bestDist = &ghost, d
		}
	}
}

// Features evaluates action against the successor it produces.
func (e *OffenseExtractor) Features(gs *capture.GameState, action capture.Direction) Features {
	me := gs.Agents[e.index]
	next := successor(gs, e.index, action).Agents[e.index]
	food := gs.FoodFor(e.team)
	pellets := food.Cells()
	capsules := gs.CapsulesFor(e.team)

	f := Features{}
	if action == capture.Stop {
		f[FeatStopsMoving] = 1
	}

	if !next.IsPacman {
		e.homeFeatures(f, me, next, pellets)
		f.Scale(featureScale)
		return f
	}

	ghost, ghostDist, threatened := e.nearestGhost(next.Position, gs, threatScared)
	var activeGhost *capture.Cell
	if g, _, ok := e.nearestGhost(next.Position, gs, beliefScared); ok {
		activeGhost = &g
	}
	door := e.bestDoor(activeGhost, pellets)
	if !me.IsPacman && e.dist.Distance(me.Position, door) <= 1 {
		f[FeatAttackMode] = 1
	}
	minHome := e.distanceHome(next.Position)
	timeForDetour := float64(gs.TimeLeft)/4 >= float64(minHome+homeMargin)

	if threatened {
		f[FeatDistGhost] = float64(ghostDist) / e.maxDist
		if ghostDist <= 1 {
			f[FeatEatenByGhost] = 1
		}
		// Heading into a dead end to flee: invert the ghost incentive so the
		// agent backs out toward the ghost instead.
		if e.spatial.IsDeadEnd(next.Position) {
			f[FeatDeadEndAhead] = 1
			f[FeatDistGhost] = -f[FeatDistGhost]
		}
		if timeForDetour && len(capsules) > 0 {
			e.capsuleFeatures(f, next.Position, ghost, capsules)
		} else {
			f[FeatDistEntryHome] = float64(e.dist.Distance(next.Position, e.start)) / e.maxDist
		}
	} else {
		if timeForDetour && len(pellets) > 2 {
			e.pelletFeatures(f, gs, me, next, food, pellets, minHome)
		} else {
			f[FeatDistEntryHome] = float64(e.dist.Distance(next.Position, e.start)) / e.maxDist
		}
		if f[FeatDistGhost] == 0 {
			f[FeatDistGhost] = cautionDistance / e.maxDist
		}
	}

	f.Scale(featureScale)
	return f
}

// homeFeatures covers successors on the home side.
func (e *OffenseExtractor) homeFeatures(f Features, me, next capture.AgentState, pellets []capture.Cell) {
	door := e.bestDoor(e.belief, pellets)
	f[FeatDistExitHome] = float64(e.dist.Distance(next.Position, door)) / e.maxDist
	if !me.IsPacman {
		return
	}
	if next.Position == e.start {
		f[FeatEatenByGhost] = 1
	} else if me.NumCarrying > 0 {
		f[FeatReturnsPallet] = 1
	}
	// Retreating empty-handed with no ghost close behind.
	if next.Position != e.start && me.NumCarrying == 0 &&
		(e.belief == nil || e.dist.Distance(next.Position, *e.belief) > 2) {
		f[FeatDefenseMode] = 1
	}
}

// capsuleFeatures pulls a threatened agent toward the nearest capsule.
func (e *OffenseExtractor) capsuleFeatures(f Features, pos, ghost capture.Cell, capsules []capture.Cell) {
	for _, c := range capsules {
		if c == pos {
			f[FeatEatsCapsule] = 1
		}
	}
	nearest, capDist := capsules[0], math.MaxInt
	for _, c := range capsules {
		if d := e.dist.Distance(pos, c); d < capDist {
			nearest, capDist = c, d
		}
	}
	f[FeatDistCapsule] = float64(capDist) / e.maxDist

	if e.prev == nil {
		return
	}
	// Closing in on a dead-end capsule the ghost cannot reach first: cancel
	// the dead-end inversion so the agent commits to the capsule.
	lastCapDist := e.dist.Distance(e.prev.Agents[e.index].Position, nearest)
	ghostCapDist := e.dist.Distance(ghost, nearest)
	if lastCapDist > capDist && e.spatial.IsDeadEnd(nearest) && ghostCapDist > capDist {
		f[FeatDeadEndAhead] = 0
		f[FeatDistGhost] = -f[FeatDistGhost]
	}
}

// pelletFeatures steers toward the nearest safe pellet, or home once the
// agent carries enough.
func (e *OffenseExtractor) pelletFeatures(f Features, gs *capture.GameState, me, next capture.AgentState,
	food capture.Grid, pellets []capture.Cell, minHome int) {
	if food.Get(next.Position) {
		f[FeatEatsPallet] = 1
	}

	invaders, scared := 0, false
	for _, o := range gs.Opponents(e.index) {
		opp := gs.Agents[o]
		if opp.IsPacman {
			invaders++
		}
		if opp.ScaredTimer > longScared {
			scared = true
		}
	}
	targets := pellets
	if invaders < 2 && !scared {
		targets = nil
		for _, p := range pellets {
			if e.spatial.SafePellet(p) {
				targets = append(targets, p)
			}
		}
		if len(targets) == 0 {
			targets = pellets
		}
	}

	pelletDist := math.MaxInt
	for _, p := range targets {
		if d := e.dist.Distance(next.Position, p); d < pelletDist {
			pelletDist = d
		}
	}

	if me.NumCarrying <= e.target-carrySlack && (next.NumCarrying == 0 || pelletDist < minHome) {
		f[FeatDistPallet] = float64(pelletDist) / e.maxDist
	} else {
		f[FeatDistEntryHome] = float64(minHome) / e.maxDist
	}
}

// Reward scores the transition prev -> cur for this agent.
func (e *OffenseExtractor) Reward(prev, cur *capture.GameState) float64 {
	was, now := prev.Agents[e.index], cur.Agents[e.index]
	var r float64
	if now.Position == e.start && was.IsPacman && !now.IsPacman {
		r -= 100
	}
	if now.Position != e.start && now.NumCarrying == 0 && was.NumCarrying > 0 {
		r += 50 * float64(was.NumCarrying)
	}
	if prev.FoodFor(e.team).Get(now.Position) {
		r += 5
	}
	for _, c := range prev.CapsulesFor(e.team) {
		if c == now.Position {
			r += 30
		}
	}
	if now.Position == was.Position {
		r -= 5
	}
	return r
}

// nearestGhost returns the closest observed ghost within ghostSenseRange
// whose scare timer is at most maxScared.
func (e *OffenseExtractor) nearestGhost(from capture.Cell, gs *capture.GameState, maxScared int) (capture.Cell, int, bool) {
	var best capture.Cell
	bestDist := math.MaxInt
	for _, o := range gs.Opponents(e.index) {
		g := gs.Agents[o]
		if g.IsPacman || !g.Observed || g.ScaredTimer > maxScared {
			continue
		}
		if d := e.dist.Distance(from, g.Position); d >= 0 && d <= ghostSenseRange && d < bestDist {
			best, bestDist = g.Position, d
		}
	}
	return best, bestDist, bestDist != math.MaxInt
}

// bestDoor picks the door that is far from the threat and close to food.
func (e *OffenseExtractor) bestDoor(threat *capture.Cell, pellets []capture.Cell) capture.Cell {
	best := e.spatial.Doors[0]
	bestDiff := math.MinInt
	for _, door := range e.spatial.Doors {
		toThreat := 0
		if threat != nil {
			toThreat = e.dist.Distance(door, *threat)
		}
		toPellet := 0
		if len(pellets) > 0 {
			toPellet = math.MaxInt
			for _, p := range pellets {
				if d := e.dist.Distance(door, p); d < toPellet {
					toPellet = d
				}
			}
		}
		if diff := toThreat - toPellet; diff > bestDiff {
			best, bestDiff = door, diff
		}
	}
	return best
}

func (e *OffenseExtractor) distanceHome(from capture.Cell) int {
	minHome := math.MaxInt
	for _, door := range e.spatial.Doors {
		if d := e.dist.Distance(from, door); d < minHome {
			minHome = d
		}
	}
	return minHome
}

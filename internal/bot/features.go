package bot

import "github.com/linhozo/UnimelbS2-Pacman/pkg/capture"

// Role selects a feature vocabulary and weight table.
type Role int

const (
	RoleOffense Role = iota
	RoleDefense
)

func (r Role) String() string {
	if r == RoleDefense {
		return "defense"
	}
	return "offense"
}

// ParseRole maps "offense"/"defense" to a Role.
func ParseRole(s string) (Role, bool) {
	switch s {
	case "offense":
		return RoleOffense, true
	case "defense":
		return RoleDefense, true
	}
	return RoleOffense, false
}

// Feature names. Offense and defense share the mode and stall markers.
const (
	FeatStopsMoving    = "stops-moving"
	FeatEatenByGhost   = "eaten-by-ghost"
	FeatDeadEndAhead   = "dead-end-ahead"
	FeatDistGhost      = "dist-to-nearest-ghost"
	FeatDistPallet     = "dist-to-nearest-pallet"
	FeatEatsPallet     = "eats-pallet"
	FeatDistCapsule    = "dist-to-nearest-capsule"
	FeatEatsCapsule    = "eats-capsule"
	FeatDistEntryHome  = "dist-to-best-entry-home"
	FeatDistExitHome   = "dist-to-best-exit-home"
	FeatReturnsPallet  = "returns-pallet"
	FeatAttackMode     = "attack-mode"
	FeatDefenseMode    = "defense-mode"
	FeatNumInvaders    = "number-of-invaders"
	FeatDistInvader    = "dist-to-nearest-invader"
	FeatDistNextPallet = "dist-to-next-pallet"
	FeatDistGuard      = "dist-to-guard-position"
	FeatReverse        = "reverse"
)

// Features is a sparse feature vector. Absent names read as zero.
type Features map[string]float64

// Dot returns the sum of feature*weight over names present in f.
func (f Features) Dot(w Weights) float64 {
	var sum float64
	for name, v := range f {
		sum += v * w[name]
	}
	return sum
}

// Scale divides every value by div.
func (f Features) Scale(div float64) {
	for name, v := range f {
		f[name] = v / div
	}
}

// Weights maps feature names to learned coefficients.
type Weights map[string]float64

// Clone returns an independent copy.
func (w Weights) Clone() Weights {
	out := make(Weights, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// DefaultOffenseWeights returns the hand-tuned offense prior.
func DefaultOffenseWeights() Weights {
	return Weights{
		FeatEatenByGhost: -9982.008997143268,
		FeatDeadEndAhead: -970.2881242681565,
		FeatStopsMoving:  -50.02661041131593,

		FeatDistGhost: 8.049509252106429,

		FeatDistPallet:    -2.5753564250044234,
		FeatDistCapsule:   -5.0,
		FeatDistExitHome:  -3.01,
		FeatDistEntryHome: -1.7071951995339094,

		FeatEatsPallet:    176.90001376709728,
		FeatEatsCapsule:   299.99998535233027,
		FeatReturnsPallet: 469.7209898878529,

		FeatAttackMode:  0.9733899880879124,
		FeatDefenseMode: -1.9919053941378122,
	}
}

// DefaultDefenseWeights returns the hand-tuned defense prior.
func DefaultDefenseWeights() Weights {
	return Weights{
		FeatDefenseMode:    100,
		FeatStopsMoving:    -100,
		FeatDistGuard:      -20,
		FeatNumInvaders:    -1000,
		FeatDistInvader:    -10,
		FeatDistNextPallet: -10,
		FeatReverse:        -3,
	}
}

// DefaultWeights returns the prior for a role.
func DefaultWeights(r Role) Weights {
	if r == RoleDefense {
		return DefaultDefenseWeights()
	}
	return DefaultOffenseWeights()
}

// Distancer is the maze-distance oracle. capture.Distancer satisfies it.
type Distancer interface {
	Distance(a, b capture.Cell) int
}

// Extractor turns a snapshot and a candidate action into features for one
// role. Initialize is called once per game. BeginTurn is called once per
// turn, before any Features call, with the snapshot the agent last acted in
// (nil on the first turn).
type Extractor interface {
	Role() Role
	Initialize(gs *capture.GameState, dist Distancer) error
	BeginTurn(gs, prev *capture.GameState)
	Features(gs *capture.GameState, action capture.Direction) Features
	Reward(prev, cur *capture.GameState) float64
}

// successor applies action for agent i. Callers only pass legal actions, so
// an error here is a bug.
func successor(gs *capture.GameState, i int, action capture.Direction) *capture.GameState {
	next, err := gs.Successor(i, action)
	if err != nil {
		panic(err)
	}
	return next
}

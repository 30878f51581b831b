package bot

import "math/rand"

// rng is a policy's random source. A nil source delegates to the global
// math/rand default; a seeded one makes a policy reproducible.
type rng struct {
	r *rand.Rand
}

// newRng returns a deterministic source for seed, or the global source when
// seed is 0.
func newRng(seed int64) rng {
	if seed == 0 {
		return rng{}
	}
	return rng{r: rand.New(rand.NewSource(seed))}
}

func (g rng) Float64() float64 {
	if g.r != nil {
		return g.r.Float64()
	}
	return rand.Float64()
}

func (g rng) Intn(n int) int {
	if g.r != nil {
		return g.r.Intn(n)
	}
	return rand.Intn(n)
}

package sim

import (
	"math"
	"math/rand"
)

// SpawnQuota returns how many particles to spawn for an interval of dt
// seconds at rate particles per second. The integer part of rate*dt is always
// spawned and one more with probability equal to the fractional part, so the
// long-run average matches rate exactly.
func SpawnQuota(rate, dt float64, rng *rand.Rand) int {
	if rate <= 0 || dt <= 0 {
		return 0
	}
	want := rate * dt
	whole, frac := math.Modf(want)
	n := int(whole)
	if frac > 0 && rng.Float64() < frac {
		n++
	}
	return n
}

package compute

import "github.com/chewxy/math32"

// Counter is the 64-bit Philox counter split into two words.
type Counter struct {
	X, Y uint32
}

func mulHiLo(a, b uint32) (lo, hi uint32) {
	prod := uint64(a) * uint64(b)
	return uint32(prod), uint32(prod >> 32)
}

// Philox2x32 is the stateless counter-based generator: the same counter and
// key always produce the same output, so every invocation can draw numbers
// without shared state.
func Philox2x32(ctr Counter, key uint32) Counter {
	for round := 0; round < 10; round++ {
		lo, hi := mulHiLo(0xD256D193, ctr.X)
		ctr = Counter{X: hi ^ key ^ ctr.Y, Y: lo}
		key += 0x9E3779B9
	}
	return ctr
}

// Rand draws a sequence of numbers for one kernel invocation. Key it with the
// element index and the frame seed.
type Rand struct {
	ctr Counter
	key uint32
}

// NewRand returns the stream for element under seed.
func NewRand(seed uint32, element int) Rand {
	return Rand{ctr: Counter{Y: seed}, key: uint32(element)}
}

// Uint32 returns the next uniformly distributed word.
func (r *Rand) Uint32() uint32 {
	out := Philox2x32(r.ctr, r.key)
	r.ctr.X++
	if r.ctr.X == 0 {
		r.ctr.Y++
	}
	return out.X
}

// Float32 returns a value in [0, 1).
func (r *Rand) Float32() float32 {
	return float32(r.Uint32()>>8) * (1.0 / (1 << 24))
}

// Float11 returns a value in [-1, 1).
func (r *Rand) Float11() float32 {
	return 2*r.Float32() - 1
}

// Norm returns a standard normal sample (Box-Muller).
func (r *Rand) Norm() float32 {
	u1 := 1 - r.Float32() // (0, 1]
	u2 := r.Float32()
	return math32.Sqrt(-2*math32.Log(u1)) * math32.Cos(2*math32.Pi*u2)
}

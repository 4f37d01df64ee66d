package buffers

import "fmt"

// NoNeighbor is the serialized value of an absent neighbor. Kernels compare
// connection slots against this exact constant.
const NoNeighbor uint32 = 95683

// MaxMasses is the largest mass count whose indices all stay below
// NoNeighbor.
const MaxMasses = int(NoNeighbor)

// Neighbor is an optional mass index. The zero value is None.
type Neighbor struct {
	index uint32
	ok    bool
}

// None is the absent neighbor.
var None = Neighbor{}

// Some returns a neighbor referring to mass i.
func Some(i int) Neighbor {
	if i < 0 || uint32(i) == NoNeighbor {
		panic(fmt.Sprintf("buffers: neighbor index %d is not representable", i))
	}
	return Neighbor{index: uint32(i), ok: true}
}

// Get returns the index and whether the neighbor is present.
func (n Neighbor) Get() (int, bool) {
	return int(n.index), n.ok
}

// Encode returns the wire value.
func (n Neighbor) Encode() uint32 {
	if !n.ok {
		return NoNeighbor
	}
	return n.index
}

// DecodeNeighbor converts a wire value back to a Neighbor.
func DecodeNeighbor(v uint32) Neighbor {
	if v == NoNeighbor {
		return None
	}
	return Neighbor{index: v, ok: true}
}

func (n Neighbor) String() string {
	if !n.ok {
		return "none"
	}
	return fmt.Sprintf("%d", n.index)
}

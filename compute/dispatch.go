package compute

import (
	"errors"
	"fmt"
	"math"
)

// ErrWorkGroupMismatch is returned when an element count does not divide
// into whole work groups.
var ErrWorkGroupMismatch = errors.New("element count is not a multiple of the work group size")

// WorkGroups returns count/size. A remainder is a fatal configuration error:
// the trailing elements would never be simulated.
func WorkGroups(count, size int) (int, error) {
	if size <= 0 {
		return 0, fmt.Errorf("work group size must be positive, got %d", size)
	}
	if count%size != 0 {
		return 0, fmt.Errorf("%d elements in groups of %d: %w", count, size, ErrWorkGroupMismatch)
	}
	return count / size, nil
}

// ComputationsPerFrame returns how many fixed sub-steps fit in one frame at
// the target frame rate, at least one.
func ComputationsPerFrame(targetFPS int, timestep float64) int {
	if targetFPS <= 0 || timestep <= 0 {
		return 1
	}
	n := int(math.Round((1 / float64(targetFPS)) / timestep))
	return max(n, 1)
}

package components

// Position represents an entity's world position. Z is up.
type Position struct {
	X, Y, Z float32
}

// Package components defines ECS components for the render scene.
package components

// Tint is the RGBA color of a drawn element, each channel in [0, 1].
type Tint struct {
	R, G, B, A float32
}

// Slot ties a scene entity to its buffer index.
type Slot struct {
	Index int32
	Alive bool // lifetime >= 0 and alpha > 0 at the last sync
}

// Link is a spring or cloth edge between two buffer slots.
type Link struct {
	A, B int32
}

package buffers

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Encoder writes one element into a stride-sized slice.
type Encoder[T any] func(v T, buf []byte)

// Storage is a fixed-length typed storage buffer. Kernels index Data directly;
// the CPU side goes through Map, Upload and Download.
type Storage[T any] struct {
	name   string
	data   []T
	stride int
	encode Encoder[T]
}

// NewStorage allocates a zeroed buffer of n elements.
func NewStorage[T any](name string, n, stride int, encode Encoder[T]) *Storage[T] {
	return &Storage[T]{
		name:   name,
		data:   make([]T, n),
		stride: stride,
		encode: encode,
	}
}

// Name returns the buffer label.
func (s *Storage[T]) Name() string { return s.name }

// Len returns the element count.
func (s *Storage[T]) Len() int { return len(s.data) }

// Stride returns the wire size of one element.
func (s *Storage[T]) Stride() int { return s.stride }

// ByteSize returns the wire size of the whole buffer.
func (s *Storage[T]) ByteSize() int { return len(s.data) * s.stride }

// Data exposes the element slice to kernels. The slice must not be retained
// past the dispatch that received it.
func (s *Storage[T]) Data() []T { return s.data }

// Map hands the whole buffer to fn for in-place initialization.
func (s *Storage[T]) Map(fn func(data []T)) {
	fn(s.data)
}

// Upload replaces the buffer contents with src.
func (s *Storage[T]) Upload(src []T) error {
	if len(src) != len(s.data) {
		return fmt.Errorf("upload %s: got %d elements, buffer holds %d", s.name, len(src), len(s.data))
	}
	copy(s.data, src)
	return nil
}

// Download copies the buffer contents into dst.
func (s *Storage[T]) Download(dst []T) error {
	if len(dst) != len(s.data) {
		return fmt.Errorf("download %s: got %d elements, buffer holds %d", s.name, len(dst), len(s.data))
	}
	copy(dst, s.data)
	return nil
}

// Bytes returns the wire encoding of the whole buffer.
func (s *Storage[T]) Bytes() []byte {
	buf := make([]byte, s.ByteSize())
	for i, v := range s.data {
		off := i * s.stride
		s.encode(v, buf[off:off+s.stride])
	}
	return buf
}

// Constructors for the element types used by the layout.

func newVec4Storage(name string, n int) *Storage[mgl32.Vec4] {
	return NewStorage[mgl32.Vec4](name, n, Vec4Size, PutVec4)
}

func newFloat32Storage(name string, n int) *Storage[float32] {
	return NewStorage[float32](name, n, Float32Size, PutFloat32)
}

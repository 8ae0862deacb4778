// Package math provides the small vector types used by the mesh model.
package math

import "math"

// Vec2 is a 2D vector, used for texture coordinates.
type Vec2 struct {
	X, Y float32
}

// Bits returns the IEEE-754 bit patterns of the components.
// Two vectors have equal Bits only if every component is bit-identical,
// so 0 and -0 differ and NaNs with equal payloads compare equal.
func (v Vec2) Bits() [2]uint32 {
	return [2]uint32{math.Float32bits(v.X), math.Float32bits(v.Y)}
}

// Vec2FromBits is the inverse of Vec2.Bits.
func Vec2FromBits(b [2]uint32) Vec2 {
	return Vec2{math.Float32frombits(b[0]), math.Float32frombits(b[1])}
}

// FlipV returns (u, 1-v).
func (v Vec2) FlipV() Vec2 {
	return Vec2{v.X, 1 - v.Y}
}

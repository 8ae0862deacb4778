package math

// Vec4 is a 4D vector. The vertex-stream codec produces every attribute
// as a Vec4; narrower attributes take the leading components.
type Vec4 struct {
	X, Y, Z, W float32
}

// XY returns the first two components.
func (v Vec4) XY() Vec2 {
	return Vec2{v.X, v.Y}
}

// XYZ returns the first three components.
func (v Vec4) XYZ() Vec3 {
	return Vec3{v.X, v.Y, v.Z}
}

// Array returns the components in order.
func (v Vec4) Array() [4]float32 {
	return [4]float32{v.X, v.Y, v.Z, v.W}
}

// Vec4FromArray builds a Vec4 from an array.
func Vec4FromArray(a [4]float32) Vec4 {
	return Vec4{a[0], a[1], a[2], a[3]}
}

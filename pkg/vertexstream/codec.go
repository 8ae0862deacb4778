package vertexstream

import (
	"encoding/binary"
	gomath "math"

	"github.com/x448/float16"

	"github.com/Faultbox/meshconvert/pkg/math"
)

// Components missing from narrow formats expand the way D3D9 expands them:
// 0 for x/y/z and 1 for w.
//
// Decoding is lossy for a few codes, and encoding writes the canonical form:
// the most negative signed-normalized code (-32768, DEC3N -512) reads as
// -1 and is written back as -32767 (-511); the two high bits of UDEC3 and
// DEC3N are dropped and written back as zero; half-float NaN payloads are
// not preserved.

func decodeElement(t DeclType, b []byte) math.Vec4 {
	le := binary.LittleEndian
	f32 := func(i int) float32 { return gomath.Float32frombits(le.Uint32(b[i*4:])) }
	s16 := func(i int) float32 { return float32(int16(le.Uint16(b[i*2:]))) }
	u16 := func(i int) float32 { return float32(le.Uint16(b[i*2:])) }
	snorm16 := func(i int) float32 { return max(s16(i)/32767, -1) }
	f16 := func(i int) float32 { return float16.Frombits(le.Uint16(b[i*2:])).Float32() }

	switch t {
	case TypeFloat1:
		return math.Vec4{X: f32(0), W: 1}
	case TypeFloat2:
		return math.Vec4{X: f32(0), Y: f32(1), W: 1}
	case TypeFloat3:
		return math.Vec4{X: f32(0), Y: f32(1), Z: f32(2), W: 1}
	case TypeFloat4:
		return math.Vec4{X: f32(0), Y: f32(1), Z: f32(2), W: f32(3)}
	case TypeD3DColor:
		return math.Vec4{
			X: float32(b[2]) / 255,
			Y: float32(b[1]) / 255,
			Z: float32(b[0]) / 255,
			W: float32(b[3]) / 255,
		}
	case TypeUByte4:
		return math.Vec4{X: float32(b[0]), Y: float32(b[1]), Z: float32(b[2]), W: float32(b[3])}
	case TypeUByte4N:
		return math.Vec4{
			X: float32(b[0]) / 255,
			Y: float32(b[1]) / 255,
			Z: float32(b[2]) / 255,
			W: float32(b[3]) / 255,
		}
	case TypeShort2:
		return math.Vec4{X: s16(0), Y: s16(1), W: 1}
	case TypeShort4:
		return math.Vec4{X: s16(0), Y: s16(1), Z: s16(2), W: s16(3)}
	case TypeShort2N:
		return math.Vec4{X: snorm16(0), Y: snorm16(1), W: 1}
	case TypeShort4N:
		return math.Vec4{X: snorm16(0), Y: snorm16(1), Z: snorm16(2), W: snorm16(3)}
	case TypeUShort2N:
		return math.Vec4{X: u16(0) / 65535, Y: u16(1) / 65535, W: 1}
	case TypeUShort4N:
		return math.Vec4{X: u16(0) / 65535, Y: u16(1) / 65535, Z: u16(2) / 65535, W: u16(3) / 65535}
	case TypeUDec3:
		v := le.Uint32(b)
		return math.Vec4{
			X: float32(v & 0x3FF),
			Y: float32((v >> 10) & 0x3FF),
			Z: float32((v >> 20) & 0x3FF),
			W: 1,
		}
	case TypeDec3N:
		v := le.Uint32(b)
		return math.Vec4{
			X: snorm10(v & 0x3FF),
			Y: snorm10((v >> 10) & 0x3FF),
			Z: snorm10((v >> 20) & 0x3FF),
			W: 1,
		}
	case TypeFloat16x2:
		return math.Vec4{X: f16(0), Y: f16(1), W: 1}
	case TypeFloat16x4:
		return math.Vec4{X: f16(0), Y: f16(1), Z: f16(2), W: f16(3)}
	}
	return math.Vec4{}
}

func encodeElement(t DeclType, b []byte, v math.Vec4) {
	le := binary.LittleEndian
	c := v.Array()
	putF32 := func(i int) { le.PutUint32(b[i*4:], gomath.Float32bits(c[i])) }
	putS16 := func(i int) { le.PutUint16(b[i*2:], uint16(int16(clampRound(c[i], -32768, 32767)))) }
	putSNorm16 := func(i int) {
		le.PutUint16(b[i*2:], uint16(int16(clampRound(clamp(c[i], -1, 1)*32767, -32767, 32767))))
	}
	putUNorm16 := func(i int) { le.PutUint16(b[i*2:], uint16(clampRound(clamp(c[i], 0, 1)*65535, 0, 65535))) }
	putF16 := func(i int) { le.PutUint16(b[i*2:], float16.Fromfloat32(c[i]).Bits()) }
	unorm8 := func(f float32) byte { return byte(clampRound(clamp(f, 0, 1)*255, 0, 255)) }

	switch t {
	case TypeFloat1:
		putF32(0)
	case TypeFloat2:
		putF32(0)
		putF32(1)
	case TypeFloat3:
		putF32(0)
		putF32(1)
		putF32(2)
	case TypeFloat4:
		for i := 0; i < 4; i++ {
			putF32(i)
		}
	case TypeD3DColor:
		b[0], b[1], b[2], b[3] = unorm8(v.Z), unorm8(v.Y), unorm8(v.X), unorm8(v.W)
	case TypeUByte4:
		for i := 0; i < 4; i++ {
			b[i] = byte(clampRound(c[i], 0, 255))
		}
	case TypeUByte4N:
		for i := 0; i < 4; i++ {
			b[i] = unorm8(c[i])
		}
	case TypeShort2:
		putS16(0)
		putS16(1)
	case TypeShort4:
		for i := 0; i < 4; i++ {
			putS16(i)
		}
	case TypeShort2N:
		putSNorm16(0)
		putSNorm16(1)
	case TypeShort4N:
		for i := 0; i < 4; i++ {
			putSNorm16(i)
		}
	case TypeUShort2N:
		putUNorm16(0)
		putUNorm16(1)
	case TypeUShort4N:
		for i := 0; i < 4; i++ {
			putUNorm16(i)
		}
	case TypeUDec3:
		x := uint32(clampRound(v.X, 0, 1023))
		y := uint32(clampRound(v.Y, 0, 1023))
		z := uint32(clampRound(v.Z, 0, 1023))
		le.PutUint32(b, x|y<<10|z<<20)
	case TypeDec3N:
		le.PutUint32(b, packSNorm10(v.X)|packSNorm10(v.Y)<<10|packSNorm10(v.Z)<<20)
	case TypeFloat16x2:
		putF16(0)
		putF16(1)
	case TypeFloat16x4:
		for i := 0; i < 4; i++ {
			putF16(i)
		}
	}
}

func snorm10(bits uint32) float32 {
	s := int32(bits<<22) >> 22
	return max(float32(s)/511, -1)
}

func packSNorm10(f float32) uint32 {
	s := int32(clampRound(clamp(f, -1, 1)*511, -511, 511))
	return uint32(s) & 0x3FF
}

func clamp(f, lo, hi float32) float32 {
	if gomath.IsNaN(float64(f)) {
		return 0
	}
	return min(max(f, lo), hi)
}

func clampRound(f, lo, hi float32) float32 {
	return clamp(float32(gomath.Round(float64(f))), lo, hi)
}

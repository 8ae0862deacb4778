// Package vertexstream reads and writes interleaved vertex buffers described
// by D3D9-style vertex declarations. Every attribute is exchanged as a
// math.Vec4 regardless of its storage format.
package vertexstream

import "fmt"

// DeclType is the storage format of one vertex element (D3DDECLTYPE).
type DeclType uint8

const (
	TypeFloat1    DeclType = 0
	TypeFloat2    DeclType = 1
	TypeFloat3    DeclType = 2
	TypeFloat4    DeclType = 3
	TypeD3DColor  DeclType = 4 // BGRA bytes, normalized
	TypeUByte4    DeclType = 5
	TypeShort2    DeclType = 6
	TypeShort4    DeclType = 7
	TypeUByte4N   DeclType = 8
	TypeShort2N   DeclType = 9
	TypeShort4N   DeclType = 10
	TypeUShort2N  DeclType = 11
	TypeUShort4N  DeclType = 12
	TypeUDec3     DeclType = 13 // 10:10:10 unsigned
	TypeDec3N     DeclType = 14 // 10:10:10 signed, normalized
	TypeFloat16x2 DeclType = 15
	TypeFloat16x4 DeclType = 16
	TypeUnused    DeclType = 17
)

var typeNames = map[DeclType]string{
	TypeFloat1:    "FLOAT1",
	TypeFloat2:    "FLOAT2",
	TypeFloat3:    "FLOAT3",
	TypeFloat4:    "FLOAT4",
	TypeD3DColor:  "D3DCOLOR",
	TypeUByte4:    "UBYTE4",
	TypeShort2:    "SHORT2",
	TypeShort4:    "SHORT4",
	TypeUByte4N:   "UBYTE4N",
	TypeShort2N:   "SHORT2N",
	TypeShort4N:   "SHORT4N",
	TypeUShort2N:  "USHORT2N",
	TypeUShort4N:  "USHORT4N",
	TypeUDec3:     "UDEC3",
	TypeDec3N:     "DEC3N",
	TypeFloat16x2: "FLOAT16_2",
	TypeFloat16x4: "FLOAT16_4",
	TypeUnused:    "UNUSED",
}

// String returns the D3DDECLTYPE name without its prefix.
func (t DeclType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", uint8(t))
}

// Size returns the number of bytes one element of this type occupies, or 0
// for TypeUnused and unknown types.
func (t DeclType) Size() int {
	switch t {
	case TypeFloat1, TypeD3DColor, TypeUByte4, TypeShort2, TypeUByte4N,
		TypeShort2N, TypeUShort2N, TypeUDec3, TypeDec3N, TypeFloat16x2:
		return 4
	case TypeFloat2, TypeShort4, TypeShort4N, TypeUShort4N, TypeFloat16x4:
		return 8
	case TypeFloat3:
		return 12
	case TypeFloat4:
		return 16
	default:
		return 0
	}
}

// Usage is the semantic of a vertex element (D3DDECLUSAGE).
type Usage uint8

const (
	UsagePosition     Usage = 0
	UsageBlendWeight  Usage = 1
	UsageBlendIndices Usage = 2
	UsageNormal       Usage = 3
	UsagePSize        Usage = 4
	UsageTexCoord     Usage = 5
	UsageTangent      Usage = 6
	UsageBinormal     Usage = 7
	UsageTessFactor   Usage = 8
	UsagePositionT    Usage = 9
	UsageColor        Usage = 10
	UsageFog          Usage = 11
	UsageDepth        Usage = 12
	UsageSample       Usage = 13
)

var usageNames = [...]string{
	"POSITION", "BLENDWEIGHT", "BLENDINDICES", "NORMAL", "PSIZE", "TEXCOORD",
	"TANGENT", "BINORMAL", "TESSFACTOR", "POSITIONT", "COLOR", "FOG", "DEPTH",
	"SAMPLE",
}

// String returns the D3DDECLUSAGE name without its prefix.
func (u Usage) String() string {
	if int(u) < len(usageNames) {
		return usageNames[u]
	}
	return fmt.Sprintf("Unknown(%d)", uint8(u))
}

// Element is one vertex declaration entry. Its layout matches
// D3DVERTEXELEMENT9 (8 bytes) so it can be read straight from a container.
type Element struct {
	Stream     uint16
	Offset     uint16
	Type       DeclType
	Method     uint8
	Usage      Usage
	UsageIndex uint8
}

// EndElement terminates a declaration (D3DDECL_END).
var EndElement = Element{Stream: 0xFF, Type: TypeUnused}

// IsEnd reports whether e terminates a declaration.
func (e Element) IsEnd() bool {
	return e.Stream == 0xFF || e.Type == TypeUnused
}

// String formats the element as USAGE<index>:TYPE@offset.
func (e Element) String() string {
	return fmt.Sprintf("%s%d:%s@%d", e.Usage, e.UsageIndex, e.Type, e.Offset)
}

// Trim returns the declaration entries before the end marker.
func Trim(decl []Element) []Element {
	for i, e := range decl {
		if e.IsEnd() {
			return decl[:i]
		}
	}
	return decl
}

// Stride returns the smallest vertex stride that holds every element.
func Stride(decl []Element) int {
	stride := 0
	for _, e := range Trim(decl) {
		if end := int(e.Offset) + e.Type.Size(); end > stride {
			stride = end
		}
	}
	return stride
}

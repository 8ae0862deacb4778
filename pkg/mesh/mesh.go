// Package mesh holds the in-memory mesh model, its loader for SDKMESH
// containers and the OBJ exporter.
package mesh

import (
	"errors"
	"fmt"

	"github.com/Faultbox/meshconvert/pkg/encoding"
	"github.com/Faultbox/meshconvert/pkg/formats"
	"github.com/Faultbox/meshconvert/pkg/math"
)

// Mesh errors.
var (
	ErrIO              = errors.New("mesh: write failed")
	ErrAttributeDecode = errors.New("vertex attribute decode failed")
	ErrIndexOverflow   = errors.New("index count overflows 32 bits")
	ErrInvalidIndex    = errors.New("index references a missing vertex")
	ErrEmptyMesh       = errors.New("mesh has no faces")
)

// LoadOptions controls container loading.
type LoadOptions struct {
	// CodePage decodes material and mesh names. The zero value is
	// encoding.DefaultCodePage.
	CodePage encoding.CodePage
}

// Mesh is a triangle mesh with optional per-vertex streams. Every present
// stream has one entry per vertex.
type Mesh struct {
	Name string

	Positions    []math.Vec3
	Normals      []math.Vec3
	Tangents     []math.Vec4
	BiTangents   []math.Vec3
	TexCoords    []math.Vec2
	Colors       []math.Vec4
	BlendIndices []math.Vec4
	BlendWeights []math.Vec4

	// Indices holds three corners per face; UnusedIndex marks unused faces.
	Indices []uint32
	// Attributes holds the material id of each face.
	Attributes []uint32
	Materials  []Material
}

// Reset empties the mesh.
func (m *Mesh) Reset() {
	*m = Mesh{}
}

// FaceCount returns the number of triangles.
func (m *Mesh) FaceCount() int {
	return len(m.Indices) / 3
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

// Bounds returns the axis-aligned box around the positions.
func (m *Mesh) Bounds() math.Bounds {
	return math.BoundsOf(m.Positions)
}

// HasAttribute reports whether the stream for a is present.
func (m *Mesh) HasAttribute(a Attribute) bool {
	switch a {
	case AttrPosition:
		return m.Positions != nil
	case AttrBlendWeight:
		return m.BlendWeights != nil
	case AttrBlendIndices:
		return m.BlendIndices != nil
	case AttrNormal:
		return m.Normals != nil
	case AttrColor:
		return m.Colors != nil
	case AttrTangent:
		return m.Tangents != nil
	case AttrBiTangent:
		return m.BiTangents != nil
	case AttrTexCoord:
		return m.TexCoords != nil
	}
	return false
}

// LoadSDKMesh replaces the contents of m with the container in data. On
// failure m is left empty.
func (m *Mesh) LoadSDKMesh(data []byte, opts LoadOptions) error {
	m.Reset()
	c, err := formats.ParseSDKMeshBytes(data)
	if err != nil {
		return err
	}
	return m.load(c, opts)
}

// LoadSDKMeshFile replaces the contents of m with the container at path.
func (m *Mesh) LoadSDKMeshFile(path string, opts LoadOptions) error {
	m.Reset()
	c, err := formats.ParseSDKMeshFile(path)
	if err != nil {
		return err
	}
	return m.load(c, opts)
}

// FromSDKMesh builds a mesh from a parsed container.
func FromSDKMesh(c *formats.SDKMesh, opts LoadOptions) (*Mesh, error) {
	m := &Mesh{}
	if err := m.load(c, opts); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Mesh) load(c *formats.SDKMesh, opts LoadOptions) error {
	m.Reset()
	if err := m.fill(c, opts); err != nil {
		m.Reset()
		return err
	}
	return nil
}

func (m *Mesh) fill(c *formats.SDKMesh, opts LoadOptions) error {
	cp := opts.CodePage
	if name, ok := cp.FixedString(c.Mesh.Name[:], formats.MaxMeshName); ok {
		m.Name = name
	}

	vb := &c.VertexBuffer
	vertexCount := int(vb.NumVertices)
	if err := DecodeAttributes(m, c.VertexElements(), int(vb.StrideBytes), vertexCount, c.VertexData); err != nil {
		return err
	}

	indices, err := CanonicalizeIndices(c.IndexData, c.IndexWidth(), c.FaceCount(), vertexCount)
	if err != nil {
		return err
	}
	m.Indices = indices

	m.Attributes = make([]uint32, len(indices)/3)
	for _, si := range c.SubsetIndices {
		if int(si) >= len(c.Subsets) {
			return fmt.Errorf("%w: subset %d of %d", formats.ErrMalformedSDKMesh, si, len(c.Subsets))
		}
		s := c.Subsets[si]
		first := s.IndexStart / 3
		last := first + s.IndexCount/3
		if last < first || last > uint64(len(m.Attributes)) {
			return fmt.Errorf("%w: subset %d covers faces [%d,%d)", formats.ErrMalformedSDKMesh, si, first, last)
		}
		for face := first; face < last; face++ {
			m.Attributes[face] = s.MaterialID
		}
	}

	materials, err := ConvertMaterials(c.Materials, c.Header.Version, cp)
	if err != nil {
		return fmt.Errorf("materials: %w", err)
	}
	m.Materials = materials
	return nil
}

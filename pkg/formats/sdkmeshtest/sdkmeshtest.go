// Package sdkmeshtest builds synthetic SDKMESH containers for tests.
//
// Container fills in every derived offset and size so the result parses;
// tests corrupt individual fields of the returned *formats.SDKMesh and
// serialize it with Encode.
package sdkmeshtest

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/Faultbox/meshconvert/pkg/formats"
	"github.com/Faultbox/meshconvert/pkg/math"
	"github.com/Faultbox/meshconvert/pkg/vertexstream"
)

// Subset describes one subset of a synthetic mesh.
type Subset struct {
	Name       string
	MaterialID uint32
	IndexStart uint64
	IndexCount uint64
}

// Mesh describes the content of a synthetic container.
type Mesh struct {
	Version uint32
	Name    string

	// Decl lists the vertex elements in order, without the end marker.
	Decl []vertexstream.Element
	// Values holds one value per vertex for each declared usage (usage
	// index 0). Positions determine the vertex count.
	Values map[vertexstream.Usage][]math.Vec4

	IndexType formats.IndexType
	Indices   []uint32

	// Subsets defaults to one subset over all indices using material 0.
	Subsets []Subset
	// Materials defaults to one unnamed material of the container version.
	Materials []formats.MaterialRecord
}

// PositionDecl is a FLOAT3 position at offset 0.
var PositionDecl = vertexstream.Element{Offset: 0, Type: vertexstream.TypeFloat3, Usage: vertexstream.UsagePosition}

// PackedDecl lays out the given usages back to back after a FLOAT3 position.
func PackedDecl(elems ...vertexstream.Element) []vertexstream.Element {
	decl := []vertexstream.Element{PositionDecl}
	offset := PositionDecl.Type.Size()
	for _, e := range elems {
		e.Offset = uint16(offset)
		decl = append(decl, e)
		offset += e.Type.Size()
	}
	return decl
}

// Positions converts points to codec values.
func Positions(points ...math.Vec3) []math.Vec4 {
	values := make([]math.Vec4, len(points))
	for i, p := range points {
		values[i] = p.Vec4(1)
	}
	return values
}

// Container returns a fully consistent container for d.
func (d *Mesh) Container() (*formats.SDKMesh, error) {
	version := d.Version
	if version == 0 {
		version = formats.SDKMeshVersion1
	}
	decl := d.Decl
	if len(decl) == 0 {
		decl = []vertexstream.Element{PositionDecl}
	}
	if len(decl) > formats.MaxVertexElements-1 {
		return nil, fmt.Errorf("sdkmeshtest: %d elements", len(decl))
	}

	vertexCount := len(d.Values[vertexstream.UsagePosition])
	stride := vertexstream.Stride(decl)
	w, err := vertexstream.NewWriter(decl, stride, vertexCount)
	if err != nil {
		return nil, err
	}
	for _, e := range decl {
		values, ok := d.Values[e.Usage]
		if !ok {
			values = make([]math.Vec4, vertexCount)
		}
		if err := w.Write(e.Usage, e.UsageIndex, values); err != nil {
			return nil, fmt.Errorf("sdkmeshtest: %s: %w", e, err)
		}
	}

	m := &formats.SDKMesh{}
	m.VertexData = w.Bytes()
	m.VertexBuffer.NumVertices = uint64(vertexCount)
	m.VertexBuffer.StrideBytes = uint64(stride)
	m.VertexBuffer.SizeBytes = uint64(len(m.VertexData))
	for i := range m.VertexBuffer.Decl {
		m.VertexBuffer.Decl[i] = vertexstream.EndElement
	}
	copy(m.VertexBuffer.Decl[:], decl)

	m.IndexBuffer.IndexType = d.IndexType
	m.IndexData = encodeIndices(d.Indices, d.IndexType)
	m.IndexBuffer.NumIndices = uint64(len(d.Indices))
	m.IndexBuffer.SizeBytes = uint64(len(m.IndexData))

	subsets := d.Subsets
	if len(subsets) == 0 {
		subsets = []Subset{{Name: "subset", IndexCount: uint64(len(d.Indices))}}
	}
	for i, s := range subsets {
		var rec formats.Subset
		copy(rec.Name[:], s.Name)
		rec.MaterialID = s.MaterialID
		rec.PrimitiveType = formats.PrimitiveTriangleList
		rec.IndexStart = s.IndexStart
		rec.IndexCount = s.IndexCount
		rec.VertexCount = uint64(vertexCount)
		m.Subsets = append(m.Subsets, rec)
		m.SubsetIndices = append(m.SubsetIndices, uint32(i))
	}

	m.Materials = d.Materials
	if len(m.Materials) == 0 {
		if version == formats.SDKMeshVersion2 {
			m.Materials = []formats.MaterialRecord{&formats.MaterialV2{Alpha: 1}}
		} else {
			m.Materials = []formats.MaterialRecord{&formats.MaterialV1{}}
		}
	}

	copy(m.Mesh.Name[:], d.Name)
	copy(m.Frame.Name[:], "root")
	m.Frame.ParentFrame, m.Frame.ChildFrame, m.Frame.SiblingFrame = -1, -1, -1
	m.Frame.AnimationDataIndex = -1
	m.Frame.Matrix = [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

	m.Header.Version = version
	Fixup(m)
	return m, nil
}

// Bytes returns the serialized container for d.
func (d *Mesh) Bytes() ([]byte, error) {
	m, err := d.Container()
	if err != nil {
		return nil, err
	}
	return Encode(m), nil
}

// Fixup recomputes every count, offset and size field of m from its
// records and payloads.
func Fixup(m *formats.SDKMesh) {
	FixupCounts(m, uint64(len(m.Subsets)), uint64(len(m.Materials)))
}

// FixupCounts is Fixup for declared record counts that need not match the
// records present in m.
func FixupCounts(m *formats.SDKMesh, numSubsets, numMaterials uint64) {
	const (
		headerSize = 104 + 288 + 32
		meshSize   = 224
		subsetSize = 144
		frameSize  = 184
		matSize    = 1256
	)

	h := &m.Header
	h.HeaderSize = headerSize
	h.NumVertexBuffers, h.NumIndexBuffers, h.NumMeshes, h.NumFrames = 1, 1, 1, 1
	h.NumTotalSubsets = uint32(numSubsets)
	h.NumMaterials = uint32(numMaterials)

	staticSize := meshSize + numSubsets*subsetSize + frameSize + numMaterials*matSize
	h.NonBufferDataSize = staticSize + numSubsets*4 + 4
	h.VertexStreamHeadersOffset = 104
	h.IndexStreamHeadersOffset = 104 + 288
	h.MeshDataOffset = headerSize
	h.SubsetDataOffset = h.MeshDataOffset + meshSize
	h.FrameDataOffset = h.SubsetDataOffset + numSubsets*subsetSize
	h.MaterialDataOffset = h.FrameDataOffset + frameSize
	h.BufferDataSize = formats.RoundUp4K(m.VertexBuffer.SizeBytes) + formats.RoundUp4K(m.IndexBuffer.SizeBytes)

	m.Mesh.NumVertexBuffers = 1
	m.Mesh.NumSubsets = uint32(numSubsets)
	m.Mesh.NumFrameInfluences = 1
	m.Mesh.SubsetOffset = headerSize + staticSize
	m.Mesh.FrameInfluenceOffset = m.Mesh.SubsetOffset + numSubsets*4

	m.VertexBuffer.DataOffset = headerSize + h.NonBufferDataSize
	m.IndexBuffer.DataOffset = m.VertexBuffer.DataOffset + formats.RoundUp4K(m.VertexBuffer.SizeBytes)
}

// Encode serializes m without validating it.
func Encode(m *formats.SDKMesh) []byte {
	buf := new(bytes.Buffer)
	write := func(v any) {
		// bytes.Buffer writes cannot fail.
		_ = binary.Write(buf, binary.LittleEndian, v)
	}

	write(&m.Header)
	write(&m.VertexBuffer)
	write(&m.IndexBuffer)
	write(&m.Mesh)
	for i := range m.Subsets {
		write(&m.Subsets[i])
	}
	write(&m.Frame)
	for _, mat := range m.Materials {
		write(mat)
	}
	write(m.SubsetIndices)
	write(m.FrameIndex)

	buf.Write(m.VertexData)
	buf.Write(make([]byte, formats.RoundUp4K(uint64(len(m.VertexData)))-uint64(len(m.VertexData))))
	buf.Write(m.IndexData)
	buf.Write(make([]byte, formats.RoundUp4K(uint64(len(m.IndexData)))-uint64(len(m.IndexData))))
	return buf.Bytes()
}

func encodeIndices(indices []uint32, t formats.IndexType) []byte {
	if t == formats.IndexType16 {
		out := make([]byte, 2*len(indices))
		for i, v := range indices {
			binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
		}
		return out
	}
	out := make([]byte, 4*len(indices))
	for i, v := range indices {
		binary.LittleEndian.PutUint32(out[i*4:], v)
	}
	return out
}

// MaterialV1 returns a legacy material record.
func MaterialV1(name, diffuseTexture string, diffuse [4]float32) *formats.MaterialV1 {
	m := &formats.MaterialV1{Diffuse: diffuse, Power: 16}
	copy(m.Name[:], name)
	copy(m.DiffuseTexture[:], diffuseTexture)
	return m
}

// MaterialV2 returns a PBR material record.
func MaterialV2(name, albedoTexture string, alpha float32) *formats.MaterialV2 {
	m := &formats.MaterialV2{Alpha: alpha}
	copy(m.Name[:], name)
	copy(m.AlbedoTexture[:], albedoTexture)
	return m
}

// Package formats parses the SDKMESH mesh container.
//
// An SDKMESH file is a run of fixed-size little-endian records followed by
// the vertex and index payloads:
//
//	header | vertex buffer header | index buffer header | mesh header |
//	subsets | frame | materials | subset indices | frame index |
//	vertex data (padded to 4096) | index data (padded to 4096)
//
// Only single-mesh, single-frame containers with one vertex buffer and one
// index buffer are accepted.
package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Faultbox/meshconvert/pkg/vertexstream"
)

// SDKMESH format errors.
var (
	ErrSDKMeshIO                 = errors.New("sdkmesh: read failed")
	ErrMalformedSDKMesh          = errors.New("malformed SDKMESH container")
	ErrUnsupportedSDKMeshVersion = errors.New("unsupported SDKMESH version")
)

// Version tags.
const (
	SDKMeshVersion1 uint32 = 101
	SDKMeshVersion2 uint32 = 200
)

// Field and record sizes.
const (
	MaxVertexElements = 32
	MaxVertexStreams  = 16
	MaxFrameName      = 100
	MaxMeshName       = 100
	MaxSubsetName     = 100
	MaxMaterialName   = 100
	MaxTextureName    = 260
	MaxMaterialPath   = 260

	sdkmeshHeaderSize      = 104
	vertexBufferHeaderSize = 288
	indexBufferHeaderSize  = 32
	meshHeaderSize         = 224
	subsetSize             = 144
	frameSize              = 184
	materialSize           = 1256

	// BufferAlignment is the granularity payload sections are padded to.
	BufferAlignment = 4096
	maxPadding      = BufferAlignment - 1

	// MaxPayloadSize bounds the declared size of each payload section.
	MaxPayloadSize = 1 << 40
)

// IndexType is the width of the index payload.
type IndexType uint32

const (
	IndexType16 IndexType = 0
	IndexType32 IndexType = 1
)

// Size returns the width of one index in bytes, or 0 for unknown types.
func (t IndexType) Size() int {
	switch t {
	case IndexType16:
		return 2
	case IndexType32:
		return 4
	default:
		return 0
	}
}

// String returns a human-readable index type name.
func (t IndexType) String() string {
	switch t {
	case IndexType16:
		return "16-bit"
	case IndexType32:
		return "32-bit"
	default:
		return fmt.Sprintf("Unknown(%d)", uint32(t))
	}
}

// PrimitiveType is the topology of a subset.
type PrimitiveType uint32

const (
	PrimitiveTriangleList PrimitiveType = iota
	PrimitiveTriangleStrip
	PrimitiveLineList
	PrimitiveLineStrip
	PrimitivePointList
	PrimitiveTriangleListAdj
	PrimitiveTriangleStripAdj
	PrimitiveLineListAdj
	PrimitiveLineStripAdj
	PrimitiveQuadPatchList
	PrimitiveTrianglePatchList
)

// String returns a human-readable primitive type name.
func (p PrimitiveType) String() string {
	switch p {
	case PrimitiveTriangleList:
		return "TriangleList"
	case PrimitiveTriangleStrip:
		return "TriangleStrip"
	case PrimitiveLineList:
		return "LineList"
	case PrimitiveLineStrip:
		return "LineStrip"
	case PrimitivePointList:
		return "PointList"
	default:
		return fmt.Sprintf("Unknown(%d)", uint32(p))
	}
}

// SDKMeshHeader is the file header.
type SDKMeshHeader struct {
	Version           uint32
	IsBigEndian       uint8
	_                 [3]byte
	HeaderSize        uint64 // file header plus buffer headers
	NonBufferDataSize uint64 // static records after the buffer headers
	BufferDataSize    uint64 // padded payload sections

	NumVertexBuffers uint32
	NumIndexBuffers  uint32
	NumMeshes        uint32
	NumTotalSubsets  uint32
	NumFrames        uint32
	NumMaterials     uint32

	VertexStreamHeadersOffset uint64
	IndexStreamHeadersOffset  uint64
	MeshDataOffset            uint64
	SubsetDataOffset          uint64
	FrameDataOffset           uint64
	MaterialDataOffset        uint64
}

// VertexBufferHeader describes the vertex payload.
type VertexBufferHeader struct {
	NumVertices uint64
	SizeBytes   uint64
	StrideBytes uint64
	Decl        [MaxVertexElements]vertexstream.Element
	DataOffset  uint64
}

// Elements returns the declaration up to its end marker.
func (h *VertexBufferHeader) Elements() []vertexstream.Element {
	return vertexstream.Trim(h.Decl[:])
}

// IndexBufferHeader describes the index payload.
type IndexBufferHeader struct {
	NumIndices uint64
	SizeBytes  uint64
	IndexType  IndexType
	_          [4]byte
	DataOffset uint64
}

// MeshHeader describes the single mesh of the container.
type MeshHeader struct {
	Name                 [MaxMeshName]byte
	NumVertexBuffers     uint8
	_                    [3]byte
	VertexBuffers        [MaxVertexStreams]uint32
	IndexBuffer          uint32
	NumSubsets           uint32
	NumFrameInfluences   uint32 // bones
	BoundingBoxCenter    [3]float32
	BoundingBoxExtents   [3]float32
	_                    [4]byte
	SubsetOffset         uint64 // file offset of the subset index array
	FrameInfluenceOffset uint64
}

// Subset is a contiguous index range drawn with one material.
type Subset struct {
	Name          [MaxSubsetName]byte
	MaterialID    uint32
	PrimitiveType PrimitiveType
	_             [4]byte
	IndexStart    uint64
	IndexCount    uint64
	VertexStart   uint64
	VertexCount   uint64
}

// Frame is a node of the transform hierarchy.
type Frame struct {
	Name               [MaxFrameName]byte
	Mesh               uint32
	ParentFrame        int32
	ChildFrame         int32
	SiblingFrame       int32
	Matrix             [16]float32
	AnimationDataIndex int32
}

// SDKMesh is a parsed container. Payloads are kept raw; decoding them is
// the mesh package's job.
type SDKMesh struct {
	Header        SDKMeshHeader
	VertexBuffer  VertexBufferHeader
	IndexBuffer   IndexBufferHeader
	Mesh          MeshHeader
	Subsets       []Subset
	Frame         Frame
	Materials     []MaterialRecord
	SubsetIndices []uint32
	FrameIndex    uint32
	VertexData    []byte
	IndexData     []byte
}

// Name returns the mesh name.
func (m *SDKMesh) Name() string {
	return readFixedString(m.Mesh.Name[:])
}

// SubsetName returns the name of subset i.
func (m *SDKMesh) SubsetName(i int) string {
	return readFixedString(m.Subsets[i].Name[:])
}

// FaceCount returns the number of triangles in the index buffer.
func (m *SDKMesh) FaceCount() int {
	return int(m.IndexBuffer.NumIndices / 3)
}

// IndexWidth returns the width of the index payload.
func (m *SDKMesh) IndexWidth() IndexType {
	return m.IndexBuffer.IndexType
}

// VertexElements returns the vertex declaration up to its end marker.
func (m *SDKMesh) VertexElements() []vertexstream.Element {
	return m.VertexBuffer.Elements()
}

// layout is the static section layout implied by the record counts.
type layout struct {
	headerSize       uint64
	nonBufferSize    uint64
	vertexHeaders    uint64
	indexHeaders     uint64
	meshData         uint64
	subsetData       uint64
	frameData        uint64
	materialData     uint64
	subsetIndexTable uint64
	frameInfluences  uint64
}

func computeLayout(numSubsets, numMaterials uint64) layout {
	var l layout
	l.headerSize = sdkmeshHeaderSize + vertexBufferHeaderSize + indexBufferHeaderSize
	l.vertexHeaders = sdkmeshHeaderSize
	l.indexHeaders = l.vertexHeaders + vertexBufferHeaderSize
	l.meshData = l.indexHeaders + indexBufferHeaderSize
	l.subsetData = l.meshData + meshHeaderSize
	l.frameData = l.subsetData + numSubsets*subsetSize
	l.materialData = l.frameData + frameSize

	staticDataSize := meshHeaderSize + numSubsets*subsetSize + frameSize + numMaterials*materialSize
	l.nonBufferSize = staticDataSize + numSubsets*4 + 4
	l.subsetIndexTable = l.headerSize + staticDataSize
	l.frameInfluences = l.subsetIndexTable + numSubsets*4
	return l
}

// RoundUp4K rounds n up to the next multiple of BufferAlignment.
func RoundUp4K(n uint64) uint64 {
	return (n + BufferAlignment - 1) / BufferAlignment * BufferAlignment
}

// ParseSDKMeshFile parses an SDKMESH file from disk.
func ParseSDKMeshFile(path string) (*SDKMesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSDKMeshIO, err)
	}
	defer f.Close()
	return ParseSDKMesh(f)
}

// ParseSDKMeshBytes parses SDKMESH data from a byte slice.
func ParseSDKMeshBytes(data []byte) (*SDKMesh, error) {
	return ParseSDKMesh(bytes.NewReader(data))
}

// ParseSDKMesh reads and validates a complete container from r. It never
// returns a partially parsed container.
func ParseSDKMesh(r io.Reader) (*SDKMesh, error) {
	cr := &countingReader{r: r}
	m := &SDKMesh{}

	if err := readRecord(cr, &m.Header, "header"); err != nil {
		return nil, err
	}
	if v := m.Header.Version; v != SDKMeshVersion1 && v != SDKMeshVersion2 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedSDKMeshVersion, v)
	}

	if err := readRecord(cr, &m.VertexBuffer, "vertex buffer header"); err != nil {
		return nil, err
	}
	if err := readRecord(cr, &m.IndexBuffer, "index buffer header"); err != nil {
		return nil, err
	}
	if err := readRecord(cr, &m.Mesh, "mesh header"); err != nil {
		return nil, err
	}

	if err := m.validateHeaders(); err != nil {
		return nil, err
	}

	// Record counts are not bounded by the input yet; slices grow per record.
	for i := uint32(0); i < m.Mesh.NumSubsets; i++ {
		var s Subset
		if err := readRecord(cr, &s, fmt.Sprintf("subset %d", i)); err != nil {
			return nil, err
		}
		m.Subsets = append(m.Subsets, s)
	}

	if err := readRecord(cr, &m.Frame, "frame"); err != nil {
		return nil, err
	}

	for i := uint32(0); i < m.Header.NumMaterials; i++ {
		mat, err := readMaterial(cr, m.Header.Version)
		if err != nil {
			return nil, fmt.Errorf("material %d: %w", i, err)
		}
		m.Materials = append(m.Materials, mat)
	}

	for i := uint32(0); i < m.Mesh.NumSubsets; i++ {
		var idx uint32
		if err := readRecord(cr, &idx, "subset index"); err != nil {
			return nil, err
		}
		m.SubsetIndices = append(m.SubsetIndices, idx)
	}

	if err := readRecord(cr, &m.FrameIndex, "frame index"); err != nil {
		return nil, err
	}

	if want := m.Header.HeaderSize + m.Header.NonBufferDataSize; cr.n != want {
		return nil, fmt.Errorf("%w: static section ends at %d, header declares %d",
			ErrMalformedSDKMesh, cr.n, want)
	}
	if err := m.validateRecords(); err != nil {
		return nil, err
	}

	var err error
	if m.VertexData, err = readPayload(cr, m.VertexBuffer.SizeBytes, "vertex"); err != nil {
		return nil, err
	}
	if m.IndexData, err = readPayload(cr, m.IndexBuffer.SizeBytes, "index"); err != nil {
		return nil, err
	}

	return m, nil
}

// validateHeaders recomputes every offset and size implied by the record
// counts and compares it with the stored value.
func (m *SDKMesh) validateHeaders() error {
	h := &m.Header
	vb := &m.VertexBuffer
	ib := &m.IndexBuffer
	mesh := &m.Mesh

	malformed := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrMalformedSDKMesh, fmt.Sprintf(format, args...))
	}
	check := func(field string, got, want uint64) error {
		if got != want {
			return malformed("%s is %d, expected %d", field, got, want)
		}
		return nil
	}

	if h.IsBigEndian != 0 {
		return malformed("big-endian containers are not supported")
	}
	if h.NumVertexBuffers != 1 || h.NumIndexBuffers != 1 || h.NumMeshes != 1 || h.NumFrames != 1 {
		return malformed("expected 1 vertex buffer, index buffer, mesh and frame; got %d, %d, %d, %d",
			h.NumVertexBuffers, h.NumIndexBuffers, h.NumMeshes, h.NumFrames)
	}
	if mesh.NumFrameInfluences != 1 {
		return malformed("frame influence count is %d, expected 1", mesh.NumFrameInfluences)
	}
	if mesh.NumVertexBuffers != 1 || mesh.VertexBuffers[0] != 0 || mesh.IndexBuffer != 0 {
		return malformed("mesh must reference vertex buffer 0 and index buffer 0")
	}
	if h.NumTotalSubsets != mesh.NumSubsets {
		return malformed("header declares %d subsets, mesh declares %d", h.NumTotalSubsets, mesh.NumSubsets)
	}

	l := computeLayout(uint64(mesh.NumSubsets), uint64(h.NumMaterials))
	checks := []struct {
		field     string
		got, want uint64
	}{
		{"header size", h.HeaderSize, l.headerSize},
		{"non-buffer data size", h.NonBufferDataSize, l.nonBufferSize},
		{"vertex stream headers offset", h.VertexStreamHeadersOffset, l.vertexHeaders},
		{"index stream headers offset", h.IndexStreamHeadersOffset, l.indexHeaders},
		{"mesh data offset", h.MeshDataOffset, l.meshData},
		{"subset data offset", h.SubsetDataOffset, l.subsetData},
		{"frame data offset", h.FrameDataOffset, l.frameData},
		{"material data offset", h.MaterialDataOffset, l.materialData},
		{"mesh subset offset", mesh.SubsetOffset, l.subsetIndexTable},
		{"mesh frame influence offset", mesh.FrameInfluenceOffset, l.frameInfluences},
		{"vertex data offset", vb.DataOffset, l.headerSize + l.nonBufferSize},
		{"index data offset", ib.DataOffset, l.headerSize + l.nonBufferSize + RoundUp4K(vb.SizeBytes)},
		{"buffer data size", h.BufferDataSize, RoundUp4K(vb.SizeBytes) + RoundUp4K(ib.SizeBytes)},
	}
	for _, c := range checks {
		if err := check(c.field, c.got, c.want); err != nil {
			return err
		}
	}

	if vb.SizeBytes > MaxPayloadSize || ib.SizeBytes > MaxPayloadSize {
		return malformed("payload sizes %d and %d exceed %d", vb.SizeBytes, ib.SizeBytes, uint64(MaxPayloadSize))
	}
	if vb.StrideBytes == 0 {
		return malformed("vertex stride is 0")
	}
	if vb.NumVertices > vb.SizeBytes/vb.StrideBytes {
		return malformed("vertex size is %d bytes, expected %d vertices of %d bytes",
			vb.SizeBytes, vb.NumVertices, vb.StrideBytes)
	}
	if err := check("vertex buffer size", vb.SizeBytes, vb.NumVertices*vb.StrideBytes); err != nil {
		return err
	}

	width := ib.IndexType.Size()
	if width == 0 {
		return malformed("index type %d", uint32(ib.IndexType))
	}
	if ib.NumIndices > ib.SizeBytes/uint64(width) {
		return malformed("index size is %d bytes, expected %d %s indices", ib.SizeBytes, ib.NumIndices, ib.IndexType)
	}
	if err := check("index buffer size", ib.SizeBytes, ib.NumIndices*uint64(width)); err != nil {
		return err
	}
	if ib.NumIndices%3 != 0 {
		return malformed("index count %d is not a multiple of 3", ib.NumIndices)
	}
	return nil
}

// validateRecords checks the cross references inside the static section.
func (m *SDKMesh) validateRecords() error {
	numMaterials := max(m.Header.NumMaterials, 1)

	for i, s := range m.Subsets {
		if s.PrimitiveType != PrimitiveTriangleList {
			return fmt.Errorf("%w: subset %d has primitive type %s", ErrMalformedSDKMesh, i, s.PrimitiveType)
		}
		if s.MaterialID >= numMaterials {
			return fmt.Errorf("%w: subset %d references material %d of %d",
				ErrMalformedSDKMesh, i, s.MaterialID, numMaterials)
		}
		if s.IndexStart%3 != 0 || s.IndexCount%3 != 0 ||
			s.IndexStart > m.IndexBuffer.NumIndices ||
			s.IndexCount > m.IndexBuffer.NumIndices-s.IndexStart {
			return fmt.Errorf("%w: subset %d index range [%d,+%d) outside %d indices",
				ErrMalformedSDKMesh, i, s.IndexStart, s.IndexCount, m.IndexBuffer.NumIndices)
		}
	}
	for i, idx := range m.SubsetIndices {
		if idx >= m.Mesh.NumSubsets {
			return fmt.Errorf("%w: subset index %d is %d, only %d subsets",
				ErrMalformedSDKMesh, i, idx, m.Mesh.NumSubsets)
		}
	}
	if m.FrameIndex != 0 || m.Frame.Mesh != 0 {
		return fmt.Errorf("%w: frame must reference mesh 0", ErrMalformedSDKMesh)
	}
	return nil
}

// readRecord reads one fixed-size little-endian record.
func readRecord(r io.Reader, v any, what string) error {
	if err := binary.Read(r, binary.LittleEndian, v); err != nil {
		return fmt.Errorf("%w: reading %s: %w", ErrSDKMeshIO, what, err)
	}
	return nil
}

// readPayload reads a payload section and the padding that follows it.
// The payload is copied incrementally so a lying size field fails with a
// short read instead of a huge allocation.
func readPayload(r io.Reader, size uint64, what string) ([]byte, error) {
	var buf bytes.Buffer
	n, err := io.CopyN(&buf, r, int64(size))
	if err != nil {
		return nil, fmt.Errorf("%w: %s data: read %d of %d bytes: %w", ErrSDKMeshIO, what, n, size, err)
	}
	if err := skipPadding(r, RoundUp4K(size)-size); err != nil {
		return nil, fmt.Errorf("%s data padding: %w", what, err)
	}
	return buf.Bytes(), nil
}

// skipPadding consumes exactly n alignment bytes through a scratch buffer
// that lives for this call only.
func skipPadding(r io.Reader, n uint64) error {
	if n == 0 {
		return nil
	}
	if n > maxPadding {
		return fmt.Errorf("%w: padding of %d bytes exceeds %d", ErrMalformedSDKMesh, n, maxPadding)
	}
	var scratch [maxPadding]byte
	if _, err := io.ReadFull(r, scratch[:n]); err != nil {
		return fmt.Errorf("%w: %w", ErrSDKMeshIO, err)
	}
	return nil
}

// readFixedString reads a NUL-terminated string from a fixed-size field.
func readFixedString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}

// countingReader tracks the file offset of the static section.
type countingReader struct {
	r io.Reader
	n uint64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += uint64(n)
	return n, err
}

package mesh

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/Faultbox/meshconvert/pkg/math"
)

// FaceGroup is one reconstructed polygon.
type FaceGroup struct {
	// Corners are vertex indices in winding order, at least three.
	Corners []uint32
	// FirstTriangle is the index of the triangle that opened the group.
	FirstTriangle int
}

// ReconstructFaces merges triangle fans back into polygons. Triangle
// (j0, j1, j2) extends the current group only when j0 is the group's
// first corner and j1 its last; otherwise it opens a new group.
// Triangles that reference UnusedIndex are skipped and close the
// current group.
func ReconstructFaces(indices []uint32) []FaceGroup {
	var groups []FaceGroup
	var cur *FaceGroup
	for t := 0; t+2 < len(indices); t += 3 {
		j0, j1, j2 := indices[t], indices[t+1], indices[t+2]
		if j0 == UnusedIndex || j1 == UnusedIndex || j2 == UnusedIndex {
			cur = nil
			continue
		}
		if cur != nil && j0 == cur.Corners[0] && j1 == cur.Corners[len(cur.Corners)-1] {
			cur.Corners = append(cur.Corners, j2)
			continue
		}
		groups = append(groups, FaceGroup{Corners: []uint32{j0, j1, j2}, FirstTriangle: t / 3})
		cur = &groups[len(groups)-1]
	}
	return groups
}

// OBJOptions controls OBJ output.
type OBJOptions struct {
	// FlipV writes texture coordinates as (u, 1-v).
	FlipV bool
	// MaterialLibrary, when set, adds an mtllib line and usemtl switches.
	MaterialLibrary string
}

// OBJCorner holds 0-based pool positions of one face corner.
type OBJCorner struct {
	Position uint32
	TexCoord uint32
	Normal   uint32
}

// OBJFace is one polygon of an OBJ document.
type OBJFace struct {
	Corners  []OBJCorner
	Material uint32
}

// OBJDocument is the pooled form of a mesh, ready to be written.
type OBJDocument struct {
	Positions []math.Vec3
	TexCoords []math.Vec2
	Normals   []math.Vec3
	Faces     []OBJFace

	HasTexCoords bool
	HasNormals   bool

	Options       OBJOptions
	MaterialNames []string
}

// BuildOBJ reconstructs polygons and deduplicates positions, texture
// coordinates and normals independently by exact bit pattern.
func BuildOBJ(m *Mesh, opts OBJOptions) (*OBJDocument, error) {
	if len(m.Indices) < 3 || len(m.Positions) == 0 {
		return nil, ErrEmptyMesh
	}
	groups := ReconstructFaces(m.Indices)
	if len(groups) == 0 {
		return nil, ErrEmptyMesh
	}

	doc := &OBJDocument{
		HasTexCoords: m.TexCoords != nil,
		HasNormals:   m.Normals != nil,
		Options:      opts,
	}
	positions := NewPool[[3]uint32]()
	texCoords := NewPool[[2]uint32]()
	normals := NewPool[[3]uint32]()

	for _, g := range groups {
		face := OBJFace{Corners: make([]OBJCorner, len(g.Corners))}
		if g.FirstTriangle < len(m.Attributes) {
			face.Material = m.Attributes[g.FirstTriangle]
		}
		for i, v := range g.Corners {
			if uint64(v) >= uint64(len(m.Positions)) {
				return nil, fmt.Errorf("%w: corner %d of %d positions", ErrInvalidIndex, v, len(m.Positions))
			}
			c := &face.Corners[i]
			c.Position = positions.Insert(m.Positions[v].Bits())
			if doc.HasTexCoords {
				if uint64(v) >= uint64(len(m.TexCoords)) {
					return nil, fmt.Errorf("%w: corner %d of %d texture coordinates", ErrInvalidIndex, v, len(m.TexCoords))
				}
				c.TexCoord = texCoords.Insert(m.TexCoords[v].Bits())
			}
			if doc.HasNormals {
				if uint64(v) >= uint64(len(m.Normals)) {
					return nil, fmt.Errorf("%w: corner %d of %d normals", ErrInvalidIndex, v, len(m.Normals))
				}
				c.Normal = normals.Insert(m.Normals[v].Bits())
			}
		}
		doc.Faces = append(doc.Faces, face)
	}

	for _, k := range positions.Keys() {
		doc.Positions = append(doc.Positions, math.Vec3FromBits(k))
	}
	for _, k := range texCoords.Keys() {
		doc.TexCoords = append(doc.TexCoords, math.Vec2FromBits(k))
	}
	for _, k := range normals.Keys() {
		doc.Normals = append(doc.Normals, math.Vec3FromBits(k))
	}

	if opts.MaterialLibrary != "" {
		doc.MaterialNames = make([]string, 0, len(m.Materials))
		for i := range m.Materials {
			doc.MaterialNames = append(doc.MaterialNames, MaterialName(m.Materials, uint32(i)))
		}
	}
	return doc, nil
}

// WriteTo writes the document as Wavefront OBJ text.
func (d *OBJDocument) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	bw := bufio.NewWriter(cw)
	var line []byte

	emit := func() {
		line = append(line, '\n')
		bw.Write(line) // error surfaces from Flush
		line = line[:0]
	}

	if d.Options.MaterialLibrary != "" {
		line = append(line, "mtllib "...)
		line = append(line, d.Options.MaterialLibrary...)
		emit()
	}
	for _, p := range d.Positions {
		line = appendFloats(append(line, 'v'), p.X, p.Y, p.Z)
		emit()
	}
	for _, t := range d.TexCoords {
		if d.Options.FlipV {
			t = t.FlipV()
		}
		line = appendFloats(append(line, "vt"...), t.X, t.Y)
		emit()
	}
	for _, n := range d.Normals {
		line = appendFloats(append(line, "vn"...), n.X, n.Y, n.Z)
		emit()
	}

	current := int64(-1)
	for _, f := range d.Faces {
		if d.Options.MaterialLibrary != "" && int64(f.Material) != current {
			current = int64(f.Material)
			line = append(line, "usemtl "...)
			line = append(line, d.materialName(f.Material)...)
			emit()
		}
		line = append(line, 'f')
		for _, c := range f.Corners {
			line = d.appendCorner(append(line, ' '), c)
		}
		emit()
	}

	if err := bw.Flush(); err != nil {
		return cw.n, fmt.Errorf("%w: %w", ErrIO, err)
	}
	return cw.n, nil
}

func (d *OBJDocument) materialName(id uint32) string {
	if uint64(id) < uint64(len(d.MaterialNames)) {
		return d.MaterialNames[id]
	}
	return MaterialName(nil, id)
}

// appendCorner writes p, p/t, p//n or p/t/n with 1-based indices.
func (d *OBJDocument) appendCorner(b []byte, c OBJCorner) []byte {
	b = strconv.AppendUint(b, uint64(c.Position)+1, 10)
	switch {
	case d.HasTexCoords && d.HasNormals:
		b = append(b, '/')
		b = strconv.AppendUint(b, uint64(c.TexCoord)+1, 10)
		b = append(b, '/')
		b = strconv.AppendUint(b, uint64(c.Normal)+1, 10)
	case d.HasTexCoords:
		b = append(b, '/')
		b = strconv.AppendUint(b, uint64(c.TexCoord)+1, 10)
	case d.HasNormals:
		b = append(b, "//"...)
		b = strconv.AppendUint(b, uint64(c.Normal)+1, 10)
	}
	return b
}

func appendFloats(b []byte, values ...float32) []byte {
	for _, v := range values {
		b = append(b, ' ')
		b = strconv.AppendFloat(b, float64(v), 'f', -1, 32)
	}
	return b
}

// ExportOBJ writes m to w as OBJ text.
func (m *Mesh) ExportOBJ(w io.Writer, opts OBJOptions) error {
	doc, err := BuildOBJ(m, opts)
	if err != nil {
		return err
	}
	_, err = doc.WriteTo(w)
	return err
}

// ExportOBJFile writes m to path. An empty mesh fails before the file is
// created.
func (m *Mesh) ExportOBJFile(path string, opts OBJOptions) error {
	doc, err := BuildOBJ(m, opts)
	if err != nil {
		return err
	}
	return writeFile(path, doc.WriteTo)
}

func writeFile(path string, write func(io.Writer) (int64, error)) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	if _, err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

package mesh

import (
	"fmt"

	"github.com/Faultbox/meshconvert/pkg/math"
	"github.com/Faultbox/meshconvert/pkg/vertexstream"
)

// Attribute is a per-vertex stream of the mesh model.
type Attribute int

const (
	AttrPosition Attribute = iota
	AttrBlendWeight
	AttrBlendIndices
	AttrNormal
	AttrColor
	AttrTangent
	AttrBiTangent
	AttrTexCoord

	numAttributes
)

var attributeNames = [numAttributes]string{
	"position", "blendweight", "blendindices", "normal",
	"color", "tangent", "bitangent", "texcoord",
}

func (a Attribute) String() string {
	if a < 0 || a >= numAttributes {
		return fmt.Sprintf("Attribute(%d)", int(a))
	}
	return attributeNames[a]
}

// matchOrder lists the states after POSITION. Each state consumes the next
// declaration slot only when its usage matches, then hands over to the
// following state either way.
var matchOrder = [...]struct {
	attr  Attribute
	usage vertexstream.Usage
}{
	{AttrBlendWeight, vertexstream.UsageBlendWeight},
	{AttrBlendIndices, vertexstream.UsageBlendIndices},
	{AttrNormal, vertexstream.UsageNormal},
	{AttrColor, vertexstream.UsageColor},
	{AttrTangent, vertexstream.UsageTangent},
	{AttrBiTangent, vertexstream.UsageBinormal},
	{AttrTexCoord, vertexstream.UsageTexCoord},
}

// AttributeLayout records which declaration element feeds each attribute.
type AttributeLayout struct {
	elements [numAttributes]vertexstream.Element
	found    [numAttributes]bool
}

// Has reports whether the declaration provides a.
func (l AttributeLayout) Has(a Attribute) bool {
	return a >= 0 && a < numAttributes && l.found[a]
}

// Element returns the declaration element matched to a.
func (l AttributeLayout) Element(a Attribute) (vertexstream.Element, bool) {
	if !l.Has(a) {
		return vertexstream.Element{}, false
	}
	return l.elements[a], true
}

// Found returns the matched attributes in match order.
func (l AttributeLayout) Found() []Attribute {
	var out []Attribute
	for a := AttrPosition; a < numAttributes; a++ {
		if l.found[a] {
			out = append(out, a)
		}
	}
	return out
}

func (l *AttributeLayout) set(a Attribute, e vertexstream.Element) {
	l.elements[a] = e
	l.found[a] = true
}

// MatchAttributes walks decl in order. Slot 0 must be POSITION; the rest
// must follow the order blend weight, blend indices, normal, color,
// tangent, binormal, texcoord, each optional. Elements that break the
// order are ignored.
func MatchAttributes(decl []vertexstream.Element) (AttributeLayout, error) {
	var l AttributeLayout
	decl = vertexstream.Trim(decl)
	if len(decl) == 0 || decl[0].Usage != vertexstream.UsagePosition {
		return l, fmt.Errorf("%w: first vertex element must be POSITION", ErrAttributeDecode)
	}
	l.set(AttrPosition, decl[0])

	next := 1
	for _, state := range matchOrder {
		if next < len(decl) && decl[next].Usage == state.usage {
			l.set(state.attr, decl[next])
			next++
		}
	}
	return l, nil
}

// DecodeAttributes fills the vertex streams of m from an interleaved
// buffer of vertexCount vertices.
func DecodeAttributes(m *Mesh, decl []vertexstream.Element, stride, vertexCount int, data []byte) error {
	l, err := MatchAttributes(decl)
	if err != nil {
		return err
	}
	r, err := vertexstream.NewReader(decl, stride, vertexCount, data)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAttributeDecode, err)
	}

	for _, a := range l.Found() {
		e := l.elements[a]
		values, err := r.Read(e.Usage, e.UsageIndex)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrAttributeDecode, a, err)
		}
		m.setAttribute(a, values)
	}
	return nil
}

func (m *Mesh) setAttribute(a Attribute, values []math.Vec4) {
	switch a {
	case AttrPosition:
		m.Positions = xyz(values)
	case AttrBlendWeight:
		m.BlendWeights = values
	case AttrBlendIndices:
		m.BlendIndices = values
	case AttrNormal:
		m.Normals = xyz(values)
	case AttrColor:
		m.Colors = values
	case AttrTangent:
		m.Tangents = values
	case AttrBiTangent:
		m.BiTangents = xyz(values)
	case AttrTexCoord:
		m.TexCoords = make([]math.Vec2, len(values))
		for i, v := range values {
			m.TexCoords[i] = v.XY()
		}
	}
}

func xyz(values []math.Vec4) []math.Vec3 {
	out := make([]math.Vec3, len(values))
	for i, v := range values {
		out[i] = v.XYZ()
	}
	return out
}

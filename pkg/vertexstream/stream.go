package vertexstream

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/Faultbox/meshconvert/pkg/math"
)

// Codec errors.
var (
	ErrUnsupportedType = errors.New("unsupported vertex element type")
	ErrNoSuchElement   = errors.New("vertex element not declared")
	ErrElementBounds   = errors.New("vertex element exceeds stride")
	ErrBufferSize      = errors.New("vertex buffer size mismatch")
	ErrValueCount      = errors.New("value count does not match vertex count")
)

type semantic struct {
	usage Usage
	index uint8
}

// layout is the validated form of a declaration shared by Reader and Writer.
type layout struct {
	elements map[semantic]Element
	stride   int
	count    int
}

func newLayout(decl []Element, stride, count int) (layout, error) {
	if stride <= 0 {
		return layout{}, fmt.Errorf("%w: stride %d", ErrBufferSize, stride)
	}
	if count < 0 {
		return layout{}, fmt.Errorf("%w: vertex count %d", ErrBufferSize, count)
	}

	l := layout{
		elements: make(map[semantic]Element),
		stride:   stride,
		count:    count,
	}
	for _, e := range Trim(decl) {
		size := e.Type.Size()
		if size == 0 {
			return layout{}, fmt.Errorf("%w: %s", ErrUnsupportedType, e)
		}
		if int(e.Offset)+size > stride {
			return layout{}, fmt.Errorf("%w: %s with stride %d", ErrElementBounds, e, stride)
		}
		key := semantic{e.Usage, e.UsageIndex}
		if _, dup := l.elements[key]; !dup {
			l.elements[key] = e
		}
	}
	return l, nil
}

func (l layout) lookup(usage Usage, index uint8) (Element, error) {
	e, ok := l.elements[semantic{usage, index}]
	if !ok {
		return Element{}, fmt.Errorf("%w: %s%d", ErrNoSuchElement, usage, index)
	}
	return e, nil
}

// Reader extracts attribute arrays from an interleaved vertex buffer.
type Reader struct {
	layout
	data []byte
}

// NewReader validates decl against stride and wraps data, which must hold
// at least count vertices.
func NewReader(decl []Element, stride, count int, data []byte) (*Reader, error) {
	l, err := newLayout(decl, stride, count)
	if err != nil {
		return nil, err
	}
	if need := stride * count; len(data) < need {
		return nil, fmt.Errorf("%w: have %d bytes, need %d", ErrBufferSize, len(data), need)
	}
	return &Reader{layout: l, data: data}, nil
}

// Has reports whether the declaration contains the semantic.
func (r *Reader) Has(usage Usage, index uint8) bool {
	_, ok := r.elements[semantic{usage, index}]
	return ok
}

// Read returns one value per vertex for the given semantic.
func (r *Reader) Read(usage Usage, index uint8) ([]math.Vec4, error) {
	e, err := r.lookup(usage, index)
	if err != nil {
		return nil, err
	}

	size := e.Type.Size()
	values := make([]math.Vec4, r.count)
	for i := range values {
		start := i*r.stride + int(e.Offset)
		values[i] = decodeElement(e.Type, r.data[start:start+size])
	}
	return values, nil
}

// Writer fills an interleaved vertex buffer one attribute at a time. Bytes
// not covered by any written element keep their initial value.
type Writer struct {
	layout
	data []byte
}

// NewWriter allocates a zeroed buffer for count vertices of stride bytes.
func NewWriter(decl []Element, stride, count int) (*Writer, error) {
	l, err := newLayout(decl, stride, count)
	if err != nil {
		return nil, err
	}
	return &Writer{layout: l, data: make([]byte, stride*count)}, nil
}

// NewWriterFrom starts from a copy of the first stride*count bytes of base,
// so gaps between elements and the tail of each stride are preserved.
func NewWriterFrom(decl []Element, stride, count int, base []byte) (*Writer, error) {
	l, err := newLayout(decl, stride, count)
	if err != nil {
		return nil, err
	}
	need := stride * count
	if len(base) < need {
		return nil, fmt.Errorf("%w: have %d bytes, need %d", ErrBufferSize, len(base), need)
	}
	return &Writer{layout: l, data: bytes.Clone(base[:need])}, nil
}

// Write stores values, one per vertex, for the given semantic.
func (w *Writer) Write(usage Usage, index uint8, values []math.Vec4) error {
	e, err := w.lookup(usage, index)
	if err != nil {
		return err
	}
	if len(values) != w.count {
		return fmt.Errorf("%w: got %d, want %d", ErrValueCount, len(values), w.count)
	}

	size := e.Type.Size()
	for i, v := range values {
		start := i*w.stride + int(e.Offset)
		encodeElement(e.Type, w.data[start:start+size], v)
	}
	return nil
}

// Bytes returns the buffer. It aliases the Writer's storage.
func (w *Writer) Bytes() []byte {
	return w.data
}

package mesh

import (
	"encoding/binary"
	"fmt"
	gomath "math"

	"github.com/Faultbox/meshconvert/pkg/formats"
)

// UnusedIndex marks a corner that references no vertex. 16-bit buffers
// spell it 0xFFFF.
const UnusedIndex uint32 = 0xFFFFFFFF

// WidenIndex16 converts a 16-bit index to 32 bits, mapping 0xFFFF to
// UnusedIndex.
func WidenIndex16(v uint16) uint32 {
	if v == 0xFFFF {
		return UnusedIndex
	}
	return uint32(v)
}

// CanonicalizeIndices decodes faceCount*3 indices of the given width into a
// flat 32-bit list. Every index other than UnusedIndex must be below
// vertexCount.
func CanonicalizeIndices(data []byte, width formats.IndexType, faceCount, vertexCount int) ([]uint32, error) {
	if faceCount < 0 || uint64(faceCount)*3 >= gomath.MaxUint32 {
		return nil, fmt.Errorf("%w: %d faces", ErrIndexOverflow, faceCount)
	}
	size := width.Size()
	if size == 0 {
		return nil, fmt.Errorf("%w: index type %s", formats.ErrMalformedSDKMesh, width)
	}
	n := faceCount * 3
	if len(data) < n*size {
		return nil, fmt.Errorf("%w: index data is %d bytes, need %d", formats.ErrMalformedSDKMesh, len(data), n*size)
	}

	indices := make([]uint32, n)
	for i := range indices {
		var v uint32
		if width == formats.IndexType16 {
			v = WidenIndex16(binary.LittleEndian.Uint16(data[i*2:]))
		} else {
			v = binary.LittleEndian.Uint32(data[i*4:])
		}
		if v != UnusedIndex && uint64(v) >= uint64(vertexCount) {
			return nil, fmt.Errorf("%w: index %d is %d, only %d vertices", ErrInvalidIndex, i, v, vertexCount)
		}
		indices[i] = v
	}
	return indices, nil
}

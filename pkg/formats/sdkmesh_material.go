package formats

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MaterialRecord is one on-disk material. The container version selects
// the concrete type once at parse time: *MaterialV1 for version 101 and
// *MaterialV2 for version 200. Both occupy the same 1256 bytes.
type MaterialRecord interface {
	// Version returns the container version this layout belongs to.
	Version() uint32
	// MaterialName returns the raw name field.
	MaterialName() []byte
}

// MaterialV1 is the legacy fixed-function material.
type MaterialV1 struct {
	Name                 [MaxMaterialName]byte
	MaterialInstancePath [MaxMaterialPath]byte
	DiffuseTexture       [MaxTextureName]byte
	NormalTexture        [MaxTextureName]byte
	SpecularTexture      [MaxTextureName]byte
	Diffuse              [4]float32
	Ambient              [4]float32
	Specular             [4]float32
	Emissive             [4]float32
	Power                float32
	_                    [48]byte // runtime texture and view handles
}

// Version returns SDKMeshVersion1.
func (*MaterialV1) Version() uint32 { return SDKMeshVersion1 }

// MaterialName returns the raw name field.
func (m *MaterialV1) MaterialName() []byte { return m.Name[:] }

// MaterialV2 is the PBR material.
type MaterialV2 struct {
	Name            [MaxMaterialName]byte
	RMATexture      [MaxTextureName]byte // roughness, metalness, occlusion
	AlbedoTexture   [MaxTextureName]byte
	NormalTexture   [MaxTextureName]byte
	EmissiveTexture [MaxTextureName]byte
	Alpha           float32
	Reserved        [60]byte
	_               [4]byte
	_               [48]byte
}

// Version returns SDKMeshVersion2.
func (*MaterialV2) Version() uint32 { return SDKMeshVersion2 }

// MaterialName returns the raw name field.
func (m *MaterialV2) MaterialName() []byte { return m.Name[:] }

// readMaterial reads one material record in the layout of version.
func readMaterial(r io.Reader, version uint32) (MaterialRecord, error) {
	var rec MaterialRecord
	switch version {
	case SDKMeshVersion1:
		rec = &MaterialV1{}
	case SDKMeshVersion2:
		rec = &MaterialV2{}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedSDKMeshVersion, version)
	}
	if err := binary.Read(r, binary.LittleEndian, rec); err != nil {
		return nil, fmt.Errorf("%w: reading material: %w", ErrSDKMeshIO, err)
	}
	return rec, nil
}

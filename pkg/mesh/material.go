package mesh

import (
	"fmt"

	"github.com/Faultbox/meshconvert/pkg/encoding"
	"github.com/Faultbox/meshconvert/pkg/formats"
	"github.com/Faultbox/meshconvert/pkg/math"
)

// Bounds of the converted string fields in UTF-16 units, terminator
// included.
const (
	MaxMaterialName = formats.MaxMaterialName
	MaxTextureName  = formats.MaxTextureName
)

// Material is a version-independent material description. Empty strings
// mean the field was absent or did not fit.
type Material struct {
	Name          string
	SpecularPower float32
	Alpha         float32

	AmbientColor  math.Vec3
	DiffuseColor  math.Vec3
	SpecularColor math.Vec3
	EmissiveColor math.Vec3

	Texture         string // diffuse or albedo
	NormalTexture   string
	SpecularTexture string
	EmissiveTexture string
	RMATexture      string
}

// ConvertMaterials decodes container material records. version is the
// container's version tag and must agree with every record.
func ConvertMaterials(records []formats.MaterialRecord, version uint32, cp encoding.CodePage) ([]Material, error) {
	if version != formats.SDKMeshVersion1 && version != formats.SDKMeshVersion2 {
		return nil, fmt.Errorf("%w: %d", formats.ErrUnsupportedSDKMeshVersion, version)
	}

	materials := make([]Material, 0, len(records))
	for i, rec := range records {
		var mat Material
		switch r := rec.(type) {
		case *formats.MaterialV1:
			if version != formats.SDKMeshVersion1 {
				return nil, mismatch(i, rec, version)
			}
			mat = convertV1(r, cp)
		case *formats.MaterialV2:
			if version != formats.SDKMeshVersion2 {
				return nil, mismatch(i, rec, version)
			}
			mat = convertV2(r, cp)
		default:
			return nil, fmt.Errorf("%w: material %d has unknown record type %T", formats.ErrMalformedSDKMesh, i, rec)
		}
		materials = append(materials, mat)
	}
	return materials, nil
}

func mismatch(i int, rec formats.MaterialRecord, version uint32) error {
	return fmt.Errorf("%w: material %d is a version %d record in a version %d container",
		formats.ErrMalformedSDKMesh, i, rec.Version(), version)
}

func convertV1(r *formats.MaterialV1, cp encoding.CodePage) Material {
	return Material{
		Name:            field(cp, r.Name[:], MaxMaterialName),
		SpecularPower:   r.Power,
		Alpha:           r.Diffuse[3],
		AmbientColor:    rgb(r.Ambient),
		DiffuseColor:    rgb(r.Diffuse),
		SpecularColor:   rgb(r.Specular),
		EmissiveColor:   rgb(r.Emissive),
		Texture:         field(cp, r.DiffuseTexture[:], MaxTextureName),
		NormalTexture:   field(cp, r.NormalTexture[:], MaxTextureName),
		SpecularTexture: field(cp, r.SpecularTexture[:], MaxTextureName),
	}
}

// V2 records carry no colors.
func convertV2(r *formats.MaterialV2, cp encoding.CodePage) Material {
	return Material{
		Name:            field(cp, r.Name[:], MaxMaterialName),
		Alpha:           r.Alpha,
		Texture:         field(cp, r.AlbedoTexture[:], MaxTextureName),
		NormalTexture:   field(cp, r.NormalTexture[:], MaxTextureName),
		EmissiveTexture: field(cp, r.EmissiveTexture[:], MaxTextureName),
		RMATexture:      field(cp, r.RMATexture[:], MaxTextureName),
	}
}

func field(cp encoding.CodePage, raw []byte, limit int) string {
	if encoding.IsEmptyField(raw) {
		return ""
	}
	s, ok := cp.FixedString(raw, limit)
	if !ok {
		return ""
	}
	return s
}

func rgb(c [4]float32) math.Vec3 {
	return math.Vec3{X: c[0], Y: c[1], Z: c[2]}
}

// MaterialName returns the name OBJ and MTL output use for material id.
func MaterialName(materials []Material, id uint32) string {
	if uint64(id) < uint64(len(materials)) && materials[id].Name != "" {
		return materials[id].Name
	}
	return fmt.Sprintf("material%d", id)
}

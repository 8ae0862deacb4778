package mesh

import (
	"bufio"
	"fmt"
	"io"

	"github.com/Faultbox/meshconvert/pkg/encoding"
	"github.com/Faultbox/meshconvert/pkg/math"
)

// WriteMTL writes materials as a Wavefront material library. Names match
// the usemtl lines of BuildOBJ.
func WriteMTL(w io.Writer, materials []Material) error {
	bw := bufio.NewWriter(w)
	for i, mat := range materials {
		if i > 0 {
			fmt.Fprintln(bw)
		}
		fmt.Fprintf(bw, "newmtl %s\n", MaterialName(materials, uint32(i)))
		writeColor(bw, "Ka", mat.AmbientColor)
		writeColor(bw, "Kd", mat.DiffuseColor)
		writeColor(bw, "Ks", mat.SpecularColor)
		writeColor(bw, "Ke", mat.EmissiveColor)
		fmt.Fprintf(bw, "Ns %s\n", formatFloat(mat.SpecularPower))
		fmt.Fprintf(bw, "d %s\n", formatFloat(mat.Alpha))

		maps := []struct{ key, path string }{
			{"map_Kd", mat.Texture},
			{"norm", mat.NormalTexture},
			{"map_Ks", mat.SpecularTexture},
			{"map_Ke", mat.EmissiveTexture},
		}
		for _, m := range maps {
			if m.path != "" {
				fmt.Fprintf(bw, "%s %s\n", m.key, encoding.NormalizePath(m.path))
			}
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}

// ExportMTLFile writes the materials of m to path.
func (m *Mesh) ExportMTLFile(path string) error {
	return writeFile(path, func(w io.Writer) (int64, error) {
		return 0, WriteMTL(w, m.Materials)
	})
}

func writeColor(w io.Writer, key string, c math.Vec3) {
	fmt.Fprintf(w, "%s %s %s %s\n", key, formatFloat(c.X), formatFloat(c.Y), formatFloat(c.Z))
}

func formatFloat(v float32) string {
	return string(appendFloats(nil, v)[1:])
}

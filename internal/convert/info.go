package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/Faultbox/meshconvert/internal/source"
	"github.com/Faultbox/meshconvert/pkg/formats"
	"github.com/Faultbox/meshconvert/pkg/mesh"
)

// Describe prints a summary of each container matched by patterns to w
// instead of converting it.
func (c *Converter) Describe(ctx context.Context, w io.Writer, patterns []string) error {
	inputs, err := source.Expand(patterns, c.cfg.Input.Recursive)
	if err != nil {
		return err
	}

	var errs []error
	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		if err := c.describeOne(w, in); err != nil {
			c.log.Error("describe failed", zap.String("path", in.Path), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", in.Path, err))
		}
	}
	return errors.Join(errs...)
}

func (c *Converter) describeOne(w io.Writer, in source.Input) error {
	data, comp, err := source.ReadFile(in.Path, c.cfg.MaxInputBytes())
	if err != nil {
		return err
	}
	container, err := formats.ParseSDKMeshBytes(data)
	if err != nil {
		return err
	}
	m, err := mesh.FromSDKMesh(container, mesh.LoadOptions{CodePage: c.cp})
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "File:\t%s\n", in.Path)
	if comp != source.CompressionNone {
		fmt.Fprintf(tw, "Compression:\t%s\n", comp)
	}
	fmt.Fprintf(tw, "Version:\t%d\n", container.Header.Version)
	fmt.Fprintf(tw, "Mesh:\t%s\n", m.Name)
	fmt.Fprintf(tw, "Vertices:\t%d (stride %d)\n", m.VertexCount(), container.VertexBuffer.StrideBytes)
	fmt.Fprintf(tw, "Faces:\t%d (%s indices)\n", m.FaceCount(), container.IndexWidth())
	fmt.Fprintf(tw, "Declaration:\t")
	for i, e := range container.VertexElements() {
		if i > 0 {
			fmt.Fprint(tw, " ")
		}
		fmt.Fprint(tw, e)
	}
	fmt.Fprintln(tw)

	b := m.Bounds()
	fmt.Fprintf(tw, "Bounds:\tmin %v max %v\n", b.Min(), b.Max())
	for i, s := range container.Subsets {
		name, _ := c.cp.FixedString(s.Name[:], formats.MaxSubsetName)
		fmt.Fprintf(tw, "Subset %d:\t%s, material %d, %d faces\n", i, name, s.MaterialID, s.IndexCount/3)
	}
	for i, mat := range m.Materials {
		fmt.Fprintf(tw, "Material %d:\t%s", i, mesh.MaterialName(m.Materials, uint32(i)))
		if mat.Texture != "" {
			fmt.Fprintf(tw, " (%s)", mat.Texture)
		}
		fmt.Fprintln(tw)
	}
	fmt.Fprintln(tw)
	return tw.Flush()
}

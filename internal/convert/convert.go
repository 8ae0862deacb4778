// Package convert runs the load and export pipeline over a set of inputs.
package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/meshconvert/internal/config"
	"github.com/Faultbox/meshconvert/internal/report"
	"github.com/Faultbox/meshconvert/internal/source"
	"github.com/Faultbox/meshconvert/pkg/encoding"
	"github.com/Faultbox/meshconvert/pkg/formats"
	"github.com/Faultbox/meshconvert/pkg/mesh"
)

// Pipeline errors.
var (
	ErrUnsupportedOutput = errors.New("unsupported output format")
	ErrUnsupportedInput  = errors.New("unsupported input format")
	ErrOutputExists      = errors.New("output already exists")
	ErrSingleOutput      = errors.New("an explicit output path needs exactly one input")
)

// Stdout is the output path that selects standard output.
const Stdout = "-"

// Options configures a Converter.
type Options struct {
	Config *config.Config
	// Output overrides the derived output path; Stdout writes to Stdout.
	Output string
	Stdout io.Writer
	Logger *zap.Logger
}

// Converter converts inputs one at a time.
type Converter struct {
	cfg    *config.Config
	cp     encoding.CodePage
	output string
	stdout io.Writer
	log    *zap.Logger
	report *report.Report
}

// New validates opts and returns a Converter.
func New(opts Options) (*Converter, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cp, err := cfg.CodePage()
	if err != nil {
		return nil, err
	}

	c := &Converter{
		cfg:    cfg,
		cp:     cp,
		output: opts.Output,
		stdout: opts.Stdout,
		log:    opts.Logger,
		report: report.New(cfg.Convert.Format),
	}
	if c.stdout == nil {
		c.stdout = os.Stdout
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	return c, nil
}

// Report returns the record of the conversions run so far.
func (c *Converter) Report() *report.Report {
	return c.report
}

// Run converts every input matched by patterns. A failing input is logged
// and recorded and the run moves on; the returned error joins all
// failures. The report, if configured, is written even when inputs fail.
func (c *Converter) Run(ctx context.Context, patterns []string) error {
	if c.cfg.Convert.Format != config.FormatOBJ {
		return fmt.Errorf("%w: %s", ErrUnsupportedOutput, c.cfg.Convert.Format)
	}

	inputs, err := source.Expand(patterns, c.cfg.Input.Recursive)
	if err != nil {
		return err
	}
	if c.output != "" && len(inputs) != 1 {
		return fmt.Errorf("%w: got %d", ErrSingleOutput, len(inputs))
	}
	c.log.Debug("resolved inputs", zap.Int("count", len(inputs)), zap.Strings("patterns", patterns))

	var errs []error
	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		start := time.Now()
		log := c.log.With(zap.String("path", in.Path))
		log.Debug("converting")

		entry, err := c.convertOne(in)
		entry.Duration = time.Since(start)
		if err != nil {
			entry.Error = err.Error()
			log.Error("conversion failed", zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", in.Path, err))
		} else {
			log.Info("converted",
				zap.String("output", entry.Output),
				zap.Int("vertices", entry.Vertices),
				zap.Int("faces", entry.Faces),
				zap.Int("polygons", entry.Polygons),
				zap.Duration("duration", entry.Duration))
		}
		c.report.Add(entry)
	}

	if path := c.cfg.Report.Path; path != "" {
		if err := c.report.WriteFile(path); err != nil {
			errs = append(errs, fmt.Errorf("writing report: %w", err))
		} else {
			c.log.Info("report written", zap.String("path", path), zap.Int("failed", c.report.Failed()))
		}
	}
	return errors.Join(errs...)
}

func (c *Converter) convertOne(in source.Input) (report.Entry, error) {
	entry := report.Entry{Input: in.Path}
	if strings.EqualFold(filepath.Ext(in.Path), ".obj") {
		return entry, fmt.Errorf("%w: obj", ErrUnsupportedInput)
	}

	data, comp, err := source.ReadFile(in.Path, c.cfg.MaxInputBytes())
	if err != nil {
		return entry, err
	}
	entry.InputDigest = report.Digest(data)
	entry.Compression = comp.String()

	container, err := formats.ParseSDKMeshBytes(data)
	if err != nil {
		return entry, err
	}
	entry.Version = container.Header.Version

	m, err := mesh.FromSDKMesh(container, mesh.LoadOptions{CodePage: c.cp})
	if err != nil {
		return entry, err
	}
	entry.Vertices = m.VertexCount()
	entry.Faces = m.FaceCount()
	entry.Materials = len(m.Materials)

	outPath := c.outputPath(in)
	toStdout := outPath == Stdout
	writeMTL := c.cfg.OBJ.Materials && len(m.Materials) > 0 && !toStdout

	opts := mesh.OBJOptions{FlipV: c.cfg.OBJ.FlipV}
	if writeMTL {
		opts.MaterialLibrary = filepath.Base(mtlPath(outPath))
	}
	doc, err := mesh.BuildOBJ(m, opts)
	if err != nil {
		return entry, err
	}
	entry.Polygons = len(doc.Faces)

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return entry, err
	}
	entry.OutputDigest = report.Digest(buf.Bytes())

	if toStdout {
		entry.Output = Stdout
		if _, err := c.stdout.Write(buf.Bytes()); err != nil {
			return entry, fmt.Errorf("%w: %w", mesh.ErrIO, err)
		}
		return entry, nil
	}

	if err := c.writeOutput(outPath, buf.Bytes()); err != nil {
		return entry, err
	}
	entry.Output = outPath

	if writeMTL {
		var mtl bytes.Buffer
		if err := mesh.WriteMTL(&mtl, m.Materials); err != nil {
			return entry, err
		}
		if err := c.writeOutput(mtlPath(outPath), mtl.Bytes()); err != nil {
			return entry, err
		}
	}
	return entry, nil
}

// outputPath derives <out-dir or input dir>/<stem>.obj unless an explicit
// output was given.
func (c *Converter) outputPath(in source.Input) string {
	if c.output != "" {
		return c.output
	}
	dir := c.cfg.Convert.OutDir
	if dir == "" {
		dir = filepath.Dir(in.Path)
	}
	return filepath.Join(dir, in.Stem()+".obj")
}

func mtlPath(objPath string) string {
	return strings.TrimSuffix(objPath, filepath.Ext(objPath)) + ".mtl"
}

func (c *Converter) writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("%w: %w", mesh.ErrIO, err)
		}
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !c.cfg.Convert.Overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s (use --overwrite)", ErrOutputExists, path)
		}
		return fmt.Errorf("%w: %w", mesh.ErrIO, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("%w: %w", mesh.ErrIO, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %w", mesh.ErrIO, err)
	}
	return nil
}

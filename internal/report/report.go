// Package report records the outcome of each conversion and writes the
// record as YAML or CBOR.
package report

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"
)

// Format is a report encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatCBOR Format = "cbor"
)

// FormatFor picks the encoding from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".cbor":
		return FormatCBOR, nil
	default:
		return "", fmt.Errorf("report %q: unknown extension", path)
	}
}

// Entry describes one input.
type Entry struct {
	Input        string        `yaml:"input" cbor:"input"`
	InputDigest  string        `yaml:"input_blake3,omitempty" cbor:"input_blake3,omitempty"`
	Compression  string        `yaml:"compression,omitempty" cbor:"compression,omitempty"`
	Version      uint32        `yaml:"version,omitempty" cbor:"version,omitempty"`
	Vertices     int           `yaml:"vertices" cbor:"vertices"`
	Faces        int           `yaml:"faces" cbor:"faces"`
	Polygons     int           `yaml:"polygons" cbor:"polygons"`
	Materials    int           `yaml:"materials" cbor:"materials"`
	Output       string        `yaml:"output,omitempty" cbor:"output,omitempty"`
	OutputDigest string        `yaml:"output_blake3,omitempty" cbor:"output_blake3,omitempty"`
	Duration     time.Duration `yaml:"duration" cbor:"duration"`
	Error        string        `yaml:"error,omitempty" cbor:"error,omitempty"`
}

// Failed reports whether the conversion failed.
func (e Entry) Failed() bool {
	return e.Error != ""
}

// Report is the record of one run.
type Report struct {
	Started time.Time `yaml:"started" cbor:"started"`
	Format  string    `yaml:"format" cbor:"format"`
	Entries []Entry   `yaml:"entries" cbor:"entries"`
}

// New returns an empty report for a run writing format.
func New(format string) *Report {
	return &Report{Started: time.Now().UTC().Truncate(time.Millisecond), Format: format}
}

// Add appends an entry.
func (r *Report) Add(e Entry) {
	r.Entries = append(r.Entries, e)
}

// Failed returns the number of failed entries.
func (r *Report) Failed() int {
	n := 0
	for _, e := range r.Entries {
		if e.Failed() {
			n++
		}
	}
	return n
}

// Digest returns the hex BLAKE3-256 digest of data.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// DigestFile returns the hex BLAKE3-256 digest of the file at path.
func DigestFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

var (
	cborEnc cbor.EncMode
	cborDec cbor.DecMode
)

func init() {
	opts := cbor.CoreDetEncOptions()
	opts.Time = cbor.TimeRFC3339Nano
	var err error
	if cborEnc, err = opts.EncMode(); err != nil {
		panic("report: CBOR encoder initialization failed: " + err.Error())
	}
	if cborDec, err = (cbor.DecOptions{}).DecMode(); err != nil {
		panic("report: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes r.
func (r *Report) Marshal(f Format) ([]byte, error) {
	switch f {
	case FormatYAML:
		return yaml.Marshal(r)
	case FormatCBOR:
		return cborEnc.Marshal(r)
	default:
		return nil, fmt.Errorf("unknown report format %q", f)
	}
}

// Unmarshal decodes a report.
func Unmarshal(data []byte, f Format) (*Report, error) {
	r := &Report{}
	var err error
	switch f {
	case FormatYAML:
		err = yaml.Unmarshal(data, r)
	case FormatCBOR:
		err = cborDec.Unmarshal(data, r)
	default:
		err = fmt.Errorf("unknown report format %q", f)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// WriteFile writes r in the encoding named by the extension of path.
func (r *Report) WriteFile(path string) error {
	f, err := FormatFor(path)
	if err != nil {
		return err
	}
	data, err := r.Marshal(f)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

// ReadFile reads a report written by WriteFile.
func ReadFile(path string) (*Report, error) {
	f, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Unmarshal(data, f)
}

// Package source resolves input patterns to files and reads them,
// transparently decompressing zstd, lz4 and gzip wrapped inputs.
package source

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Source errors.
var (
	ErrNoMatch  = errors.New("no input matches")
	ErrTooLarge = errors.New("input exceeds size limit")
)

// MeshExtension is the extension of container files.
const MeshExtension = ".sdkmesh"

// Input is one resolved input file.
type Input struct {
	Path        string
	Compression Compression // implied by the file name; content sniffing may override it
}

// Stem returns the base name without compression suffix and mesh
// extension: "models/box.sdkmesh.zst" gives "box".
func (in Input) Stem() string {
	name, _ := trimCompressionSuffix(filepath.Base(in.Path))
	if ext := filepath.Ext(name); strings.EqualFold(ext, MeshExtension) {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}

// NewInput returns the Input for path, with the compression implied by its
// suffix.
func NewInput(path string) Input {
	_, c := trimCompressionSuffix(filepath.Base(path))
	return Input{Path: path, Compression: c}
}

func trimCompressionSuffix(name string) (string, Compression) {
	lower := strings.ToLower(name)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, s.ext) {
			return name[:len(name)-len(s.ext)], s.c
		}
	}
	return name, CompressionNone
}

// IsMeshFile reports whether name looks like a container, optionally
// compressed.
func IsMeshFile(name string) bool {
	base, _ := trimCompressionSuffix(name)
	return strings.EqualFold(filepath.Ext(base), MeshExtension)
}

// Expand resolves each pattern to files. A pattern is a file, a directory
// (its mesh files are taken) or a glob. With recursive set, directories
// and the directory part of a glob are searched at every depth. Results
// keep pattern order without duplicates. A pattern that matches nothing
// is an error.
func Expand(patterns []string, recursive bool) ([]Input, error) {
	var out []Input
	seen := make(map[string]bool)
	add := func(path string) {
		clean := filepath.Clean(path)
		if !seen[clean] {
			seen[clean] = true
			out = append(out, NewInput(clean))
		}
	}

	for _, pattern := range patterns {
		matches, err := expandOne(pattern, recursive)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrNoMatch, pattern)
		}
		for _, m := range matches {
			add(m)
		}
	}
	return out, nil
}

func expandOne(pattern string, recursive bool) ([]string, error) {
	if !hasMeta(pattern) {
		info, err := os.Stat(pattern)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			return []string{pattern}, nil
		}
		return walk(pattern, recursive, IsMeshFile)
	}

	if !recursive {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", pattern, err)
		}
		return regularFiles(matches), nil
	}

	dir, base := filepath.Split(pattern)
	if dir == "" {
		dir = "."
	}
	if hasMeta(dir) {
		return nil, fmt.Errorf("pattern %q: recursive search needs a literal directory", pattern)
	}
	if _, err := filepath.Match(base, ""); err != nil {
		return nil, fmt.Errorf("pattern %q: %w", pattern, err)
	}
	return walk(dir, true, func(name string) bool {
		ok, _ := filepath.Match(base, name)
		return ok
	})
}

func hasMeta(path string) bool {
	return strings.ContainsAny(path, `*?[`)
}

// walk lists files under root whose names satisfy match, in lexical order.
func walk(root string, recursive bool, match func(string) bool) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && match(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func regularFiles(paths []string) []string {
	var out []string
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			out = append(out, p)
		}
	}
	return out
}

// ReadFile reads an input completely, decompressing it if its content
// starts with a known frame magic. At most limit decompressed bytes are
// accepted; limit <= 0 disables the check.
func ReadFile(path string, limit int64) ([]byte, Compression, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, CompressionNone, err
	}
	defer f.Close()
	return Read(f, limit)
}

// Read is ReadFile for an open stream.
func Read(r io.Reader, limit int64) ([]byte, Compression, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(4)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, CompressionNone, err
	}
	c := Detect(head)

	dr, release, err := decompressor(br, c)
	if err != nil {
		return nil, c, err
	}
	defer release()

	if limit > 0 {
		dr = io.LimitReader(dr, limit+1)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, dr); err != nil {
		return nil, c, fmt.Errorf("reading %s input: %w", c, err)
	}
	if limit > 0 && int64(buf.Len()) > limit {
		return nil, c, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
	}
	return buf.Bytes(), c, nil
}

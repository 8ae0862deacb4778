package mesh

import (
	"bytes"
	"errors"
	gomath "math"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/Faultbox/meshconvert/pkg/math"
)

func unitQuad() *Mesh {
	return &Mesh{
		Positions: []math.Vec3{
			{X: 0, Y: 0, Z: 0},
			{X: 1, Y: 0, Z: 0},
			{X: 1, Y: 1, Z: 0},
			{X: 0, Y: 1, Z: 0},
		},
		Indices:    []uint32{0, 1, 2, 0, 2, 3},
		Attributes: []uint32{0, 0},
	}
}

func TestReconstructFaces(t *testing.T) {
	tests := []struct {
		name    string
		indices []uint32
		want    [][]uint32
	}{
		{"single triangle", []uint32{0, 1, 2}, [][]uint32{{0, 1, 2}}},
		{"fan", []uint32{0, 1, 2, 0, 2, 3, 0, 3, 4}, [][]uint32{{0, 1, 2, 3, 4}}},
		{"disjoint", []uint32{0, 1, 2, 5, 6, 7}, [][]uint32{{0, 1, 2}, {5, 6, 7}}},
		{"shared origin, wrong trailing", []uint32{0, 1, 2, 0, 3, 4}, [][]uint32{{0, 1, 2}, {0, 3, 4}}},
		{"strip order", []uint32{0, 1, 2, 1, 2, 3}, [][]uint32{{0, 1, 2}, {1, 2, 3}}},
		{"unused face skipped", []uint32{0, 1, 2, UnusedIndex, UnusedIndex, UnusedIndex, 3, 4, 5}, [][]uint32{{0, 1, 2}, {3, 4, 5}}},
		{"partial sentinel skipped", []uint32{0, 1, UnusedIndex, 0, 1, 2}, [][]uint32{{0, 1, 2}}},
		{"unused face ends fan", []uint32{0, 1, 2, UnusedIndex, UnusedIndex, UnusedIndex, 0, 2, 3}, [][]uint32{{0, 1, 2}, {0, 2, 3}}},
		{"partial sentinel ends fan", []uint32{0, 1, 2, 0, UnusedIndex, 3, 0, 2, 3}, [][]uint32{{0, 1, 2}, {0, 2, 3}}},
		{"empty", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ReconstructFaces(tt.indices)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d groups, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if !slices.Equal(got[i].Corners, tt.want[i]) {
					t.Errorf("group %d = %v, want %v", i, got[i].Corners, tt.want[i])
				}
			}
		})
	}
}

func TestReconstructFaces_FirstTriangle(t *testing.T) {
	got := ReconstructFaces([]uint32{0, 1, 2, 0, 2, 3, 4, 5, 6})
	if got[0].FirstTriangle != 0 || got[1].FirstTriangle != 2 {
		t.Errorf("FirstTriangle = %d, %d; want 0, 2", got[0].FirstTriangle, got[1].FirstTriangle)
	}
}

func TestPool(t *testing.T) {
	p := NewPool[[3]uint32]()
	a := math.Vec3{X: 1, Y: 2, Z: 3}
	negZero := math.Vec3{X: float32(gomath.Copysign(0, -1))}
	nan := math.Vec3{X: float32(gomath.NaN())}

	if i := p.Insert(a.Bits()); i != 0 {
		t.Errorf("first insert = %d", i)
	}
	if i := p.Insert(math.Vec3{}.Bits()); i != 1 {
		t.Errorf("+0 insert = %d", i)
	}
	if i := p.Insert(negZero.Bits()); i != 2 {
		t.Errorf("-0 should be distinct from +0, got %d", i)
	}
	if i := p.Insert(a.Bits()); i != 0 {
		t.Errorf("repeat insert = %d, want 0", i)
	}
	first := p.Insert(nan.Bits())
	if again := p.Insert(nan.Bits()); again != first {
		t.Errorf("NaN with equal bits pooled twice: %d, %d", first, again)
	}
	if p.Len() != 4 {
		t.Errorf("Len = %d, want 4", p.Len())
	}
	if p.Keys()[0] != a.Bits() {
		t.Errorf("Keys not in insertion order")
	}
}

func exportString(t *testing.T, m *Mesh, opts OBJOptions) string {
	t.Helper()
	var buf bytes.Buffer
	if err := m.ExportOBJ(&buf, opts); err != nil {
		t.Fatalf("ExportOBJ failed: %v", err)
	}
	return buf.String()
}

func TestExportOBJ_PositionsOnly(t *testing.T) {
	want := "v 0 0 0\nv 1 0 0\nv 1 1 0\nv 0 1 0\nf 1 2 3 4\n"
	if got := exportString(t, unitQuad(), OBJOptions{}); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestExportOBJ_AllStreams(t *testing.T) {
	m := unitQuad()
	m.TexCoords = []math.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	m.Normals = []math.Vec3{{Z: 1}, {Z: 1}, {Z: 1}, {Z: 1}}

	want := "v 0 0 0\nv 1 0 0\nv 1 1 0\nv 0 1 0\n" +
		"vt 0 0\nvt 1 0\nvt 1 1\nvt 0 1\n" +
		"vn 0 0 1\n" +
		"f 1/1/1 2/2/1 3/3/1 4/4/1\n"
	if got := exportString(t, m, OBJOptions{}); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestExportOBJ_TokenForms(t *testing.T) {
	tri := func() *Mesh {
		return &Mesh{
			Positions: []math.Vec3{{}, {X: 1}, {Y: 1}},
			Indices:   []uint32{0, 1, 2},
		}
	}

	texOnly := tri()
	texOnly.TexCoords = []math.Vec2{{}, {X: 1}, {Y: 1}}
	normOnly := tri()
	normOnly.Normals = []math.Vec3{{Z: 1}, {Z: 1}, {Z: -1}}

	tests := []struct {
		name     string
		mesh     *Mesh
		wantFace string
	}{
		{"p", tri(), "f 1 2 3\n"},
		{"p/t", texOnly, "f 1/1 2/2 3/3\n"},
		{"p//n", normOnly, "f 1//1 2//1 3//2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := exportString(t, tt.mesh, OBJOptions{})
			if !bytes.HasSuffix([]byte(got), []byte(tt.wantFace)) {
				t.Errorf("output %q does not end with %q", got, tt.wantFace)
			}
		})
	}
}

func TestExportOBJ_DeduplicatesPositions(t *testing.T) {
	m := &Mesh{
		Positions: []math.Vec3{{}, {X: 1}, {Y: 1}, {}, {Y: 1}, {X: -1}},
		Indices:   []uint32{0, 1, 2, 3, 4, 5},
	}
	want := "v 0 0 0\nv 1 0 0\nv 0 1 0\nv -1 0 0\nf 1 2 3\nf 1 3 4\n"
	if got := exportString(t, m, OBJOptions{}); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestExportOBJ_FlipV(t *testing.T) {
	m := unitQuad()
	m.TexCoords = []math.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 0.25}}

	got := exportString(t, m, OBJOptions{FlipV: true})
	want := "vt 0 1\nvt 1 1\nvt 1 0\nvt 0 0.75\n"
	if !bytes.Contains([]byte(got), []byte(want)) {
		t.Errorf("output %q does not contain %q", got, want)
	}
}

func TestExportOBJ_Materials(t *testing.T) {
	m := unitQuad()
	m.Indices = []uint32{0, 1, 2, 2, 3, 0}
	m.Attributes = []uint32{0, 1}
	m.Materials = []Material{{Name: "red"}, {}}

	want := "mtllib quad.mtl\n" +
		"v 0 0 0\nv 1 0 0\nv 1 1 0\nv 0 1 0\n" +
		"usemtl red\nf 1 2 3\n" +
		"usemtl material1\nf 3 4 1\n"
	if got := exportString(t, m, OBJOptions{MaterialLibrary: "quad.mtl"}); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestBuildOBJ_Errors(t *testing.T) {
	outOfRange := unitQuad()
	outOfRange.Indices = []uint32{0, 1, 7}

	shortNormals := unitQuad()
	shortNormals.Normals = []math.Vec3{{Z: 1}}

	tests := []struct {
		name    string
		mesh    *Mesh
		wantErr error
	}{
		{"no data", &Mesh{}, ErrEmptyMesh},
		{"no positions", &Mesh{Indices: []uint32{0, 1, 2}}, ErrEmptyMesh},
		{"only unused faces", &Mesh{Positions: []math.Vec3{{}}, Indices: []uint32{UnusedIndex, UnusedIndex, UnusedIndex}}, ErrEmptyMesh},
		{"index out of range", outOfRange, ErrInvalidIndex},
		{"short normal stream", shortNormals, ErrInvalidIndex},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := BuildOBJ(tt.mesh, OBJOptions{}); !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestExportOBJFile(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "quad.obj")
	if err := unitQuad().ExportOBJFile(path, OBJOptions{}); err != nil {
		t.Fatalf("ExportOBJFile failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasSuffix(data, []byte("f 1 2 3 4\n")) {
		t.Errorf("unexpected file contents %q", data)
	}

	empty := filepath.Join(dir, "empty.obj")
	if err := (&Mesh{}).ExportOBJFile(empty, OBJOptions{}); !errors.Is(err, ErrEmptyMesh) {
		t.Fatalf("got %v, want ErrEmptyMesh", err)
	}
	if _, err := os.Stat(empty); !os.IsNotExist(err) {
		t.Errorf("empty mesh created a file: %v", err)
	}

	err = unitQuad().ExportOBJFile(filepath.Join(dir, "missing", "quad.obj"), OBJOptions{})
	if !errors.Is(err, ErrIO) {
		t.Errorf("got %v, want ErrIO", err)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestExportOBJ_WriteError(t *testing.T) {
	if err := unitQuad().ExportOBJ(failingWriter{}, OBJOptions{}); !errors.Is(err, ErrIO) {
		t.Errorf("got %v, want ErrIO", err)
	}
	if err := WriteMTL(failingWriter{}, []Material{{Name: "a"}}); !errors.Is(err, ErrIO) {
		t.Errorf("WriteMTL: got %v, want ErrIO", err)
	}
}

func TestOBJDocument_WriteToCount(t *testing.T) {
	doc, err := BuildOBJ(unitQuad(), OBJOptions{})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	n, err := doc.WriteTo(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if n != int64(buf.Len()) {
		t.Errorf("WriteTo returned %d, wrote %d", n, buf.Len())
	}
}

func TestWriteMTL(t *testing.T) {
	materials := []Material{
		{
			Name:          "red",
			DiffuseColor:  math.Vec3{X: 1},
			Alpha:         0.5,
			SpecularPower: 16,
			Texture:       `tex\red.dds`,
		},
		{NormalTexture: "n.dds", Alpha: 1},
	}

	var buf bytes.Buffer
	if err := WriteMTL(&buf, materials); err != nil {
		t.Fatalf("WriteMTL failed: %v", err)
	}
	want := "newmtl red\nKa 0 0 0\nKd 1 0 0\nKs 0 0 0\nKe 0 0 0\nNs 16\nd 0.5\nmap_Kd tex/red.dds\n" +
		"\nnewmtl material1\nKa 0 0 0\nKd 0 0 0\nKs 0 0 0\nKe 0 0 0\nNs 0\nd 1\nnorm n.dds\n"
	if buf.String() != want {
		t.Errorf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestExportMTLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quad.mtl")
	m := unitQuad()
	m.Materials = []Material{{Name: "stone", Alpha: 1, Texture: "stone.dds"}}
	if err := m.ExportMTLFile(path); err != nil {
		t.Fatalf("ExportMTLFile failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("newmtl stone\n")) || !bytes.HasSuffix(data, []byte("map_Kd stone.dds\n")) {
		t.Errorf("unexpected file contents %q", data)
	}
}

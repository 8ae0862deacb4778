package report

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func sample() *Report {
	r := &Report{
		Started: time.Date(2026, 3, 14, 9, 26, 53, 589_000_000, time.UTC),
		Format:  "obj",
	}
	r.Add(Entry{
		Input:        "models/box.sdkmesh.zst",
		InputDigest:  Digest([]byte("box")),
		Compression:  "zstd",
		Version:      101,
		Vertices:     24,
		Faces:        12,
		Polygons:     6,
		Materials:    1,
		Output:       "out/box.obj",
		OutputDigest: Digest([]byte("obj")),
		Duration:     1500 * time.Microsecond,
	})
	r.Add(Entry{Input: "bad.sdkmesh", Error: "malformed SDKMESH container: header size is 400, expected 424"})
	return r
}

func TestRoundTrip(t *testing.T) {
	for _, ext := range []string{".yaml", ".yml", ".cbor"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", "report"+ext)
			want := sample()
			if err := want.WriteFile(path); err != nil {
				t.Fatalf("WriteFile failed: %v", err)
			}

			got, err := ReadFile(path)
			if err != nil {
				t.Fatalf("ReadFile failed: %v", err)
			}
			if !got.Started.Equal(want.Started) {
				t.Errorf("Started = %v, want %v", got.Started, want.Started)
			}
			if got.Format != want.Format {
				t.Errorf("Format = %q", got.Format)
			}
			if !reflect.DeepEqual(got.Entries, want.Entries) {
				t.Errorf("Entries mismatch:\n got %+v\nwant %+v", got.Entries, want.Entries)
			}
		})
	}
}

func TestFormatFor(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"r.yaml", FormatYAML, false},
		{"R.YML", FormatYAML, false},
		{"out/r.cbor", FormatCBOR, false},
		{"r.json", "", true},
		{"report", "", true},
	}
	for _, tt := range tests {
		got, err := FormatFor(tt.path)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("FormatFor(%q) = %q, %v", tt.path, got, err)
		}
	}
}

func TestFailed(t *testing.T) {
	if n := sample().Failed(); n != 1 {
		t.Errorf("Failed = %d, want 1", n)
	}
}

func TestDigest(t *testing.T) {
	// BLAKE3 of the empty input.
	const empty = "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262"
	if got := Digest(nil); got != empty {
		t.Errorf("Digest(nil) = %s", got)
	}

	data := []byte("mesh payload")
	path := filepath.Join(t.TempDir(), "f.bin")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := DigestFile(path)
	if err != nil {
		t.Fatalf("DigestFile failed: %v", err)
	}
	if got != Digest(data) {
		t.Errorf("DigestFile = %s, Digest = %s", got, Digest(data))
	}
	if Digest(data) == Digest([]byte("other")) {
		t.Error("different inputs share a digest")
	}
}

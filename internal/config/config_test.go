package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Convert.Format != FormatOBJ {
		t.Errorf("expected format obj, got %s", cfg.Convert.Format)
	}
	if cfg.Convert.Overwrite {
		t.Error("expected overwrite to be false by default")
	}
	if cfg.Input.MaxSizeMB != 1024 {
		t.Errorf("expected max size 1024, got %d", cfg.Input.MaxSizeMB)
	}
	if cfg.Text.CodePage != "windows-1252" {
		t.Errorf("expected code page windows-1252, got %s", cfg.Text.CodePage)
	}
	if cfg.OBJ.FlipV || cfg.OBJ.Materials {
		t.Error("expected OBJ options to be off by default")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config is invalid: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "meshconvert.yaml")

	yamlContent := `
convert:
  format: obj
  out_dir: "out"
  overwrite: true

input:
  recursive: true
  max_size_mb: 64

text:
  code_page: "shift_jis"

obj:
  flip_v: true
  materials: true

report:
  path: "report.cbor"

logging:
  level: "debug"
  log_file: "convert.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Convert.OutDir != "out" || !cfg.Convert.Overwrite {
		t.Errorf("unexpected convert section %+v", cfg.Convert)
	}
	if !cfg.Input.Recursive || cfg.Input.MaxSizeMB != 64 {
		t.Errorf("unexpected input section %+v", cfg.Input)
	}
	if cfg.Text.CodePage != "shift_jis" {
		t.Errorf("expected code page shift_jis, got %s", cfg.Text.CodePage)
	}
	if !cfg.OBJ.FlipV || !cfg.OBJ.Materials {
		t.Errorf("unexpected obj section %+v", cfg.OBJ)
	}
	if cfg.Report.Path != "report.cbor" {
		t.Errorf("expected report path report.cbor, got %s", cfg.Report.Path)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.LogFile != "convert.log" {
		t.Errorf("unexpected logging section %+v", cfg.Logging)
	}
	if cfg.MaxInputBytes() != 64<<20 {
		t.Errorf("MaxInputBytes = %d", cfg.MaxInputBytes())
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tests := map[string]string{
		"bad syntax":  "convert:\n  format: obj\n  invalid syntax here\n",
		"wrong type":  "input:\n  max_size_mb: not a number\n",
		"unknown key": "convert:\n  fromat: obj\n",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "invalid.yaml")
			if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
				t.Fatalf("failed to write test config: %v", err)
			}

			if err := loadFromFile(Default(), configPath); err == nil {
				t.Error("expected error loading invalid YAML, got nil")
			}
		})
	}
}

func TestLoadFromFileEmpty(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(configPath, nil, 0644); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("empty file: %v", err)
	}
	if cfg.Convert.Format != FormatOBJ {
		t.Error("empty file changed defaults")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	err := loadFromFile(cfg, "/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"sdkmesh format", func(c *Config) { c.Convert.Format = FormatSDKMesh }, false},
		{"unknown format", func(c *Config) { c.Convert.Format = "fbx" }, true},
		{"unknown code page", func(c *Config) { c.Text.CodePage = "klingon" }, true},
		{"zero size limit", func(c *Config) { c.Input.MaxSizeMB = 0 }, true},
		{"yaml report", func(c *Config) { c.Report.Path = "out/report.YML" }, false},
		{"json report", func(c *Config) { c.Report.Path = "report.json" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, FileName)
	if err := os.WriteFile(configPath, []byte("obj:\n  flip_v: true\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Error("expected to find meshconvert.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "sdkmesh flag",
			setup: func() { *flagSDKMesh = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Convert.Format != FormatSDKMesh {
					t.Errorf("expected format sdkmesh, got %s", cfg.Convert.Format)
				}
			},
			teardown: func() { *flagSDKMesh = false },
		},
		{
			name: "obj options",
			setup: func() {
				*flagFlipV = true
				*flagMaterials = true
			},
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.OBJ.FlipV || !cfg.OBJ.Materials {
					t.Errorf("unexpected obj section %+v", cfg.OBJ)
				}
			},
			teardown: func() {
				*flagFlipV = false
				*flagMaterials = false
			},
		},
		{
			name: "paths",
			setup: func() {
				*flagOutDir = "converted"
				*flagReport = "run.yaml"
				*flagLogFile = "run.log"
				*flagCodePage = "euc-kr"
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Convert.OutDir != "converted" {
					t.Errorf("expected out dir converted, got %s", cfg.Convert.OutDir)
				}
				if cfg.Report.Path != "run.yaml" {
					t.Errorf("expected report run.yaml, got %s", cfg.Report.Path)
				}
				if cfg.Logging.LogFile != "run.log" {
					t.Errorf("expected log file run.log, got %s", cfg.Logging.LogFile)
				}
				if cfg.Text.CodePage != "euc-kr" {
					t.Errorf("expected code page euc-kr, got %s", cfg.Text.CodePage)
				}
			},
			teardown: func() {
				*flagOutDir = ""
				*flagReport = ""
				*flagLogFile = ""
				*flagCodePage = ""
			},
		},
		{
			name: "recursive and overwrite",
			setup: func() {
				*flagRecursive = true
				*flagOverwrite = true
			},
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Input.Recursive || !cfg.Convert.Overwrite {
					t.Error("expected recursive and overwrite to be set")
				}
			},
			teardown: func() {
				*flagRecursive = false
				*flagOverwrite = false
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)

			tt.verify(t, cfg)
		})
	}
}

func TestParseFlagsInputs(t *testing.T) {
	defer func() { *flagInputs = nil }()

	args := []string{"-i", "a.sdkmesh", "--input", "models/*.sdkmesh", "-r", "b.sdkmesh", "c.sdkmesh"}
	if err := ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}
	defer func() { *flagRecursive = false }()

	want := []string{"a.sdkmesh", "models/*.sdkmesh", "b.sdkmesh", "c.sdkmesh"}
	if got := Inputs(); !slices.Equal(got, want) {
		t.Errorf("Inputs() = %v, want %v", got, want)
	}
	if !*flagRecursive {
		t.Error("expected -r to set recursive")
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
text:
  code_page: "shift_jis"
logging:
  level: "warn"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagCodePage = "euc-kr"
	defer func() {
		*flagConfig = ""
		*flagCodePage = ""
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Code page from flag, not file.
	if cfg.Text.CodePage != "euc-kr" {
		t.Errorf("expected code page euc-kr from flag, got %s", cfg.Text.CodePage)
	}
	// Level from file since no flag override.
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected level warn from file, got %s", cfg.Logging.Level)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	*flagCodePage = "klingon"
	defer func() { *flagCodePage = "" }()

	if _, err := Load(); err == nil {
		t.Error("expected invalid code page to fail Load")
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.OBJ.FlipV = true
	cfg.Report.Path = "r.yaml"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reloading saved config: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, cfg)
	}
}

func TestSave(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("APPDATA", t.TempDir())

	path, err := Default().Save()
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("saved config missing: %v", err)
	}
}

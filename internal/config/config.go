// Package config handles converter configuration loading and management.
package config

import (
	"fmt"
	"strings"

	"github.com/Faultbox/meshconvert/pkg/encoding"
)

// Output formats.
const (
	FormatOBJ     = "obj"
	FormatSDKMesh = "sdkmesh"
)

// Config holds all converter settings.
type Config struct {
	Convert ConvertConfig `yaml:"convert"`
	Input   InputConfig   `yaml:"input"`
	Text    TextConfig    `yaml:"text"`
	OBJ     OBJConfig     `yaml:"obj"`
	Report  ReportConfig  `yaml:"report"`
	Logging LoggingConfig `yaml:"logging"`
}

// ConvertConfig holds output settings.
type ConvertConfig struct {
	Format    string `yaml:"format"`  // obj or sdkmesh
	OutDir    string `yaml:"out_dir"` // empty writes next to each input
	Overwrite bool   `yaml:"overwrite"`
}

// InputConfig holds input discovery settings.
type InputConfig struct {
	Recursive bool `yaml:"recursive"`
	MaxSizeMB int  `yaml:"max_size_mb"` // per decompressed input
}

// TextConfig holds string decoding settings.
type TextConfig struct {
	CodePage string `yaml:"code_page"`
}

// OBJConfig holds OBJ writer settings.
type OBJConfig struct {
	FlipV     bool `yaml:"flip_v"`
	Materials bool `yaml:"materials"` // write a .mtl library next to each .obj
}

// ReportConfig holds conversion report settings.
type ReportConfig struct {
	Path string `yaml:"path"` // .yaml, .yml or .cbor; empty disables
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Convert: ConvertConfig{
			Format: FormatOBJ,
		},
		Input: InputConfig{
			Recursive: false,
			MaxSizeMB: 1024,
		},
		Text: TextConfig{
			CodePage: encoding.DefaultCodePage,
		},
		OBJ: OBJConfig{
			FlipV:     false,
			Materials: false,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks values that cannot be checked by the yaml decoder.
func (c *Config) Validate() error {
	switch c.Convert.Format {
	case FormatOBJ, FormatSDKMesh:
	default:
		return fmt.Errorf("unknown output format %q", c.Convert.Format)
	}
	if _, err := encoding.LookupCodePage(c.Text.CodePage); err != nil {
		return err
	}
	if c.Input.MaxSizeMB <= 0 {
		return fmt.Errorf("input.max_size_mb must be positive, got %d", c.Input.MaxSizeMB)
	}
	if p := c.Report.Path; p != "" {
		lower := strings.ToLower(p)
		if !strings.HasSuffix(lower, ".yaml") && !strings.HasSuffix(lower, ".yml") && !strings.HasSuffix(lower, ".cbor") {
			return fmt.Errorf("report %q: extension must be .yaml, .yml or .cbor", p)
		}
	}
	return nil
}

// CodePage returns the configured code page.
func (c *Config) CodePage() (encoding.CodePage, error) {
	return encoding.LookupCodePage(c.Text.CodePage)
}

// MaxInputBytes returns the input size limit in bytes.
func (c *Config) MaxInputBytes() int64 {
	return int64(c.Input.MaxSizeMB) << 20
}

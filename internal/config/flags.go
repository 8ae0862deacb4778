package config

import "github.com/spf13/pflag"

var flagSet = pflag.NewFlagSet("meshconvert", pflag.ContinueOnError)

func init() {
	flagSet.SortFlags = false
	// main prints its own usage.
	flagSet.Usage = func() {}
}

var (
	flagConfig     = flagSet.String("config", "", "Path to config file")
	flagSaveConfig = flagSet.Bool("save-config", false, "Write the effective config to the user config directory")
	flagDebug      = flagSet.Bool("debug", false, "Enable debug logging")
	flagLogFile    = flagSet.String("log-file", "", "Also log to a rotated file")
	flagHelp       = flagSet.BoolP("help", "h", false, "Show help")

	flagInputs    = flagSet.StringArrayP("input", "i", nil, "Input file or glob pattern (repeatable)")
	flagOutput    = flagSet.StringP("output", "o", "", `Output file, "-" for stdout (single input only)`)
	flagOBJ       = flagSet.Bool("obj", false, "Write Wavefront OBJ (default)")
	flagSDKMesh   = flagSet.Bool("sdkmesh", false, "Write SDKMESH")
	flagRecursive = flagSet.BoolP("recursive", "r", false, "Search subdirectories for glob patterns")
	flagOutDir    = flagSet.String("out-dir", "", "Directory for outputs")
	flagOverwrite = flagSet.Bool("overwrite", false, "Replace existing outputs")
	flagCodePage  = flagSet.String("code-page", "", "Code page of material strings (e.g. windows-1252, shift_jis)")
	flagFlipV     = flagSet.Bool("flip-v", false, "Write texture coordinates as (u, 1-v)")
	flagMaterials = flagSet.Bool("materials", false, "Write a .mtl material library next to each .obj")
	flagReport    = flagSet.String("report", "", "Write a conversion report (.yaml, .yml or .cbor)")
	flagInfo      = flagSet.Bool("info", false, "Print a container summary instead of converting")
)

// ParseFlags parses command-line arguments (without the program name).
// Call this early in main().
func ParseFlags(args []string) error {
	return flagSet.Parse(args)
}

// FlagUsages returns the formatted flag help.
func FlagUsages() string {
	return flagSet.FlagUsages()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// HelpRequested reports whether -h or --help was given.
func HelpRequested() bool {
	return *flagHelp
}

// SaveRequested reports whether --save-config was given.
func SaveRequested() bool {
	return *flagSaveConfig
}

// InfoOnly reports whether --info was given.
func InfoOnly() bool {
	return *flagInfo
}

// OutputPath returns the explicit output path, if any.
func OutputPath() string {
	return *flagOutput
}

// Inputs returns --input values followed by positional arguments.
func Inputs() []string {
	inputs := append([]string(nil), *flagInputs...)
	return append(inputs, flagSet.Args()...)
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
	if *flagOBJ {
		cfg.Convert.Format = FormatOBJ
	}
	if *flagSDKMesh {
		cfg.Convert.Format = FormatSDKMesh
	}
	if *flagRecursive {
		cfg.Input.Recursive = true
	}
	if *flagOutDir != "" {
		cfg.Convert.OutDir = *flagOutDir
	}
	if *flagOverwrite {
		cfg.Convert.Overwrite = true
	}
	if *flagCodePage != "" {
		cfg.Text.CodePage = *flagCodePage
	}
	if *flagFlipV {
		cfg.OBJ.FlipV = true
	}
	if *flagMaterials {
		cfg.OBJ.Materials = true
	}
	if *flagReport != "" {
		cfg.Report.Path = *flagReport
	}
}

package config

import "flag"

var (
	flagConfig          = flag.String("config", "", "Path to config file")
	flagMesh            = flag.String("mesh", "", "Mesh source file path or URL")
	flagDebug           = flag.Bool("debug", false, "Enable debug logging")
	flagFallbackAdapter = flag.Bool("fallback-adapter", false, "Force the software fallback GPU adapter")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
// A positional argument is accepted as the mesh path when -mesh is not given.
func applyFlags(cfg *Config) {
	if *flagMesh != "" {
		cfg.Mesh.Path = *flagMesh
	} else if flag.NArg() > 0 {
		cfg.Mesh.Path = flag.Arg(0)
	}
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagFallbackAdapter {
		cfg.GPU.ForceFallbackAdapter = true
	}
}

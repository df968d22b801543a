package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/ekisa-team/yoloexport/internal/envvar"
	"github.com/ekisa-team/yoloexport/internal/xfs"
)

const (
	// DefaultModelSource is the artifact exported when nothing else is configured.
	DefaultModelSource = "best.pt"

	// DefaultFormat is the export target used when nothing else is configured.
	DefaultFormat = "coreml"

	// DefaultToolkitBinary is the toolkit CLI name looked up on PATH.
	DefaultToolkitBinary = "yolo"

	// DefaultHuggingFaceBinary is the Hugging Face CLI name looked up on PATH.
	DefaultHuggingFaceBinary = "hf"

	DefaultToolkitTimeout     = 30 * time.Minute
	DefaultHuggingFaceTimeout = 10 * time.Minute
	DefaultWatchDebounce      = 500 * time.Millisecond
)

// Default returns the configuration that reproduces a plain `best.pt` to CoreML export.
func Default() *Config {
	return &Config{
		Version: "1",
		Model:   ModelConfig{Source: DefaultModelSource},
		Export:  ExportConfig{Format: DefaultFormat},
		Toolkit: ToolkitConfig{
			Binary:  DefaultToolkitBinary,
			Timeout: DefaultToolkitTimeout,
		},
		HuggingFace: HuggingFaceConfig{
			Binary:  DefaultHuggingFaceBinary,
			Timeout: DefaultHuggingFaceTimeout,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  filepath.Join("logs", "yoloexport.log"),
		},
		Watch: WatchConfig{Debounce: DefaultWatchDebounce},
	}
}

// DefaultConfigPath returns the default path for the yoloexport config directory.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "yoloexport", "config")
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "AppData", "Roaming", "yoloexport")
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "yoloexport")
	default: // Linux, BSD, etc.
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "yoloexport")
		}
		return filepath.Join(home, ".config", "yoloexport")
	}
}

// DefaultModelsPath returns the default path for the remote models cache.
func DefaultModelsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "yoloexport", "models")
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "AppData", "Local", "yoloexport", "models")
	case "darwin":
		return filepath.Join(home, "Library", "Caches", "yoloexport", "models")
	default: // Linux, BSD, etc.
		if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
			return filepath.Join(xdg, "yoloexport", "models")
		}
		return filepath.Join(home, ".cache", "yoloexport", "models")
	}
}

// ResolveConfigFile returns the config file to read and whether it was asked for explicitly.
// Precedence:
// 1. The explicit path (from a flag).
// 2. YOLOEXPORT_CONFIG environment variable.
// 3. config.yaml in the default config directory, only if it exists.
func ResolveConfigFile(explicit string) (string, bool) {
	if explicit != "" {
		return xfs.ExpandTilde(explicit), true
	}
	if p := os.Getenv(envvar.YoloExportConfig); p != "" {
		return xfs.ExpandTilde(p), true
	}
	p := filepath.Join(DefaultConfigPath(), "config.yaml")
	if xfs.Exists(p) {
		return p, false
	}
	return "", false
}

// ResolveModelsPath returns the path to the models directory.
// Precedence:
// 1. YOLOEXPORT_MODELS_PATH environment variable.
// 2. ModelsDir field in the config.
// 3. Default models path.
func ResolveModelsPath(cfg *Config) string {
	if p := os.Getenv(envvar.YoloExportModelsPath); p != "" {
		return xfs.ExpandTilde(p)
	}
	if cfg.Storage.ModelsDir != "" {
		return xfs.ExpandTilde(cfg.Storage.ModelsDir)
	}
	return xfs.ExpandTilde(DefaultModelsPath())
}

// ApplyEnv overrides cfg with values from the environment.
func ApplyEnv(cfg *Config) {
	if bin := os.Getenv(envvar.YoloExportToolkitBin); bin != "" {
		cfg.Toolkit.Binary = bin
	}
}

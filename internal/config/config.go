package config

import (
	"time"
)

// Config holds the main configuration for the application.
type Config struct {
	Version     string            `json:"version"                yaml:"version"`
	Model       ModelConfig       `json:"model"                  yaml:"model"`
	Export      ExportConfig      `json:"export"                 yaml:"export"`
	Toolkit     ToolkitConfig     `json:"toolkit"                yaml:"toolkit"`
	HuggingFace HuggingFaceConfig `json:"huggingface,omitempty"  yaml:"huggingface,omitempty"`
	Storage     StorageConfig     `json:"storage,omitempty"      yaml:"storage,omitempty"`
	S3          S3Config          `json:"s3,omitempty"           yaml:"s3,omitempty"`
	Logging     LoggingConfig     `json:"logging,omitempty"      yaml:"logging,omitempty"`
	Metrics     MetricsConfig     `json:"metrics,omitempty"      yaml:"metrics,omitempty"`
	Watch       WatchConfig       `json:"watch,omitempty"        yaml:"watch,omitempty"`
}

// ModelConfig selects the model artifact to export.
type ModelConfig struct {
	// Source is a local path, hf://owner/repo/file[@rev] or s3://bucket/key.
	Source string `json:"source" yaml:"source"`
}

// ExportConfig selects the target format and its toolkit arguments.
type ExportConfig struct {
	Format     string         `json:"format"               yaml:"format"`
	Parameters map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// ToolkitConfig locates and bounds the export toolkit.
type ToolkitConfig struct {
	Binary  string            `json:"binary"        yaml:"binary"`
	Timeout time.Duration     `json:"timeout"       yaml:"timeout"`
	Env     map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
}

// HuggingFaceConfig locates the hf CLI used for hf:// sources.
type HuggingFaceConfig struct {
	Binary  string        `json:"binary"  yaml:"binary"`
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// StorageConfig holds where remote models are cached.
type StorageConfig struct {
	ModelsDir string `json:"models_dir,omitempty" yaml:"models_dir,omitempty"`
}

// S3Config configures the client used for s3:// sources.
type S3Config struct {
	Region       string `json:"region,omitempty"         yaml:"region,omitempty"`
	EndpointURL  string `json:"endpoint_url,omitempty"   yaml:"endpoint_url,omitempty"`
	Profile      string `json:"profile,omitempty"        yaml:"profile,omitempty"`
	UsePathStyle bool   `json:"use_path_style,omitempty" yaml:"use_path_style,omitempty"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string `json:"level,omitempty"   yaml:"level,omitempty"`
	File   string `json:"file,omitempty"    yaml:"file,omitempty"`
	ToFile bool   `json:"to_file,omitempty" yaml:"to_file,omitempty"`
}

// MetricsConfig configures the Prometheus textfile output.
type MetricsConfig struct {
	Textfile string `json:"textfile,omitempty" yaml:"textfile,omitempty"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	Debounce time.Duration `json:"debounce,omitempty" yaml:"debounce,omitempty"`
}

package env

import (
	"os"
	"strings"

	"github.com/ekisa-team/yoloexport/internal/envvar"
)

// Environment is the runtime environment the binary runs in.
type Environment string

const (
	// Development enables human friendly console output.
	Development Environment = "development"

	// Production enables machine readable output.
	Production Environment = "production"
)

// FromEnv reads the environment from YOLOEXPORT_ENV, defaulting to Development.
func FromEnv() Environment {
	return Parse(os.Getenv(envvar.YoloExportEnv))
}

// Parse converts a raw value into an Environment.
func Parse(s string) Environment {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "prod", "production":
		return Production
	default:
		return Development
	}
}

// IsProduction reports whether e is the production environment.
func (e Environment) IsProduction() bool {
	return e == Production
}

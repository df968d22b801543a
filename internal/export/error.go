package export

import (
	"errors"
	"fmt"
)

// Error definitions for the export package.
var (
	ErrUnsupportedFormat     = errors.New("unsupported export format")
	ErrAlreadyRegistered     = errors.New("format is already registered")
	ErrUnsupportedParameter  = errors.New("parameter not supported for format")
	ErrInvalidParameter      = errors.New("invalid parameter value")
	ErrUnwritableDestination = errors.New("destination is not writable")
	ErrToolkitFailed         = errors.New("toolkit export failed")
	ErrArtifactMissing       = errors.New("toolkit reported success but no artifact was found")
)

// ExportError reports a failed export of Model into Format.
type ExportError struct {
	Format string
	Model  string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export %s to %s: %v", e.Model, e.Format, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

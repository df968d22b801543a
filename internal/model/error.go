package model

import (
	"errors"
	"fmt"
)

// Error definitions for the model package.
var (
	ErrNotFound            = errors.New("model artifact not found")
	ErrUnreadable          = errors.New("model artifact is not readable")
	ErrUnsupportedArtifact = errors.New("unsupported model artifact")
	ErrMalformedArtifact   = errors.New("malformed model artifact")
)

// LoadError reports a failure to turn a path into a Handle.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func loadErr(path string, sentinel error, format string, args ...any) *LoadError {
	if format == "" {
		return &LoadError{Path: path, Err: sentinel}
	}
	return &LoadError{Path: path, Err: fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))}
}

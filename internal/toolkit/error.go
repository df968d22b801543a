package toolkit

import "errors"

// Error definitions for the toolkit package.
var (
	ErrBinaryNotFound = errors.New("toolkit binary not found")
	ErrTimeout        = errors.New("toolkit invocation timed out")
)

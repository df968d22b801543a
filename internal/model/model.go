package model

import (
	"path/filepath"
	"strings"
	"time"
)

// Kind is the kind of artifact a handle was loaded from.
type Kind string

const (
	// KindCheckpoint is a serialized weights checkpoint (zip container).
	KindCheckpoint Kind = "checkpoint"

	// KindLegacyCheckpoint is a pre-zip pickle checkpoint.
	KindLegacyCheckpoint Kind = "legacy-checkpoint"

	// KindDefinition is a YAML architecture definition without weights.
	KindDefinition Kind = "definition"
)

// Handle is a validated model artifact that can be passed to an exporter.
// Handles are never mutated after Load returns them.
type Handle struct {
	name    string
	path    string
	kind    Kind
	size    int64
	modTime time.Time
	digest  string
}

// Name returns the model name, the artifact file name without extension.
func (h *Handle) Name() string { return h.name }

// Path returns the absolute artifact path.
func (h *Handle) Path() string { return h.path }

// Dir returns the directory holding the artifact.
func (h *Handle) Dir() string { return filepath.Dir(h.path) }

// Kind returns the artifact kind.
func (h *Handle) Kind() Kind { return h.kind }

// Size returns the artifact size in bytes.
func (h *Handle) Size() int64 { return h.size }

// ModTime returns the artifact modification time at load.
func (h *Handle) ModTime() time.Time { return h.modTime }

// Digest returns the hex encoded SHA-256 of the artifact contents.
func (h *Handle) Digest() string { return h.digest }

// String returns a short summary for logs.
func (h *Handle) String() string {
	return h.name + " (" + string(h.kind) + ", " + shortDigest(h.digest) + ")"
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

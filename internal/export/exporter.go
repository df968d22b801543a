package export

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ekisa-team/yoloexport/internal/model"
	"github.com/ekisa-team/yoloexport/internal/toolkit"
	"github.com/ekisa-team/yoloexport/internal/xfs"
)

// Executor runs the toolkit binary.
type Executor interface {
	Execute(ctx context.Context, args []string) (stdout, stderr []byte, err error)
}

// Observer receives the outcome of every export attempt that reached the toolkit.
type Observer interface {
	ObserveExport(format string, elapsed time.Duration, artifactBytes int64, err error)
}

// Result describes a written artifact.
type Result struct {
	Format   Format
	Model    string
	Path     string
	Bytes    int64
	Duration time.Duration
	Args     []string
}

// Exporter converts loaded models through the toolkit.
type Exporter struct {
	executor Executor
	registry *Registry
	observer Observer
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithObserver attaches an export observer, e.g. a metrics collector.
func WithObserver(o Observer) Option {
	return func(e *Exporter) { e.observer = o }
}

// NewExporter creates an exporter that drives the toolkit through executor.
func NewExporter(executor Executor, opts ...Option) *Exporter {
	e := &Exporter{
		executor: executor,
		registry: DefaultRegistry(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export converts h into format and returns the written artifact.
// Format, parameters and destination are validated before the toolkit runs, so a
// rejected request never touches the filesystem. When the toolkit fails, an artifact
// that did not exist before the call is removed.
func (e *Exporter) Export(ctx context.Context, h *model.Handle, format string, params map[string]any) (*Result, error) {
	fail := func(f string, err error) error {
		return &ExportError{Format: f, Model: h.Path(), Err: err}
	}

	spec, ok := e.registry.Get(format)
	if !ok {
		return nil, fail(format, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format))
	}
	name := string(spec.Format)

	normalized, err := normalizeParams(spec, params)
	if err != nil {
		return nil, fail(name, err)
	}

	if err := xfs.CheckWritableDir(h.Dir()); err != nil {
		return nil, fail(name, fmt.Errorf("%w: %w", ErrUnwritableDestination, err))
	}

	predicted := spec.ArtifactPath(h.Dir(), h.Name(), normalized)
	root := spec.ArtifactRoot(h.Dir(), h.Name(), normalized)
	rootExisted := xfs.Exists(root)

	args := buildArgs(h.Path(), spec.Format, normalized)
	slog.Info("Exporting model", "model", h.Path(), "format", name, "artifact", predicted)

	start := time.Now()
	stdout, stderr, err := e.executor.Execute(ctx, args)
	elapsed := time.Since(start)

	if err != nil {
		if !rootExisted {
			removePartial(root)
		}
		err = fmt.Errorf("%w: %w", ErrToolkitFailed, err)
		if tail := toolkit.Tail(stderr, 5); tail != "" {
			err = fmt.Errorf("%w\n%s", err, tail)
		} else if tail := toolkit.Tail(stdout, 5); tail != "" {
			err = fmt.Errorf("%w\n%s", err, tail)
		}
		e.observe(name, elapsed, 0, err)
		return nil, fail(name, err)
	}

	artifact := predicted
	if reported, ok := parseArtifactPath(string(stdout) + "\n" + string(stderr)); ok {
		if reported != predicted {
			slog.Debug("Toolkit reported a different artifact path", "predicted", predicted, "reported", reported)
		}
		artifact = reported
	}

	size, err := artifactSize(artifact)
	if err != nil {
		err = fmt.Errorf("%w: %s: %w", ErrArtifactMissing, artifact, err)
		e.observe(name, elapsed, 0, err)
		return nil, fail(name, err)
	}

	e.observe(name, elapsed, size, nil)
	slog.Info("Model exported", "format", name, "artifact", artifact, "bytes", size, "elapsed", elapsed.Round(time.Millisecond))

	return &Result{
		Format:   spec.Format,
		Model:    h.Path(),
		Path:     artifact,
		Bytes:    size,
		Duration: elapsed,
		Args:     args,
	}, nil
}

func (e *Exporter) observe(format string, elapsed time.Duration, size int64, err error) {
	if e.observer != nil {
		e.observer.ObserveExport(format, elapsed, size, err)
	}
}

func removePartial(path string) {
	if !xfs.Exists(path) {
		return
	}
	if err := os.RemoveAll(path); err != nil {
		slog.Warn("Failed to remove partial artifact", "path", path, "error", err)
		return
	}
	slog.Info("Removed partial artifact", "path", path)
}

// artifactSize returns the size of a file, or the total size of a directory package.
func artifactSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		return info.Size(), nil
	}

	var total int64
	err = filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		total += fi.Size()
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return 0, err
	}
	return total, nil
}

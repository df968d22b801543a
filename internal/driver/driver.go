package driver

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ekisa-team/yoloexport/internal/export"
	"github.com/ekisa-team/yoloexport/internal/model"
	"github.com/ekisa-team/yoloexport/internal/watch"
)

// Resolver turns a model reference into a local path.
type Resolver interface {
	Resolve(ctx context.Context, raw string) (string, error)
}

// LoadFunc loads a local artifact. model.Load is the production implementation.
type LoadFunc func(ctx context.Context, path string) (*model.Handle, error)

// Exporter converts a loaded model.
type Exporter interface {
	Export(ctx context.Context, h *model.Handle, format string, params map[string]any) (*export.Result, error)
}

// TextfileWriter persists metrics after each export.
type TextfileWriter interface {
	WriteTextfile(path string) error
}

// Request is one load and export.
type Request struct {
	Source     string
	Format     string
	Parameters map[string]any
}

// Result is the outcome of a successful Run.
type Result struct {
	Handle *model.Handle
	Export *export.Result
}

// Driver sequences source resolution, load and export.
type Driver struct {
	resolver Resolver
	load     LoadFunc
	exporter Exporter

	metrics  TextfileWriter
	textfile string

	mu         sync.Mutex
	lastDigest string
}

// Option configures a Driver.
type Option func(*Driver)

// WithLoader replaces model.Load.
func WithLoader(load LoadFunc) Option {
	return func(d *Driver) { d.load = load }
}

// WithMetricsTextfile writes metrics to path after every export attempt.
func WithMetricsTextfile(w TextfileWriter, path string) Option {
	return func(d *Driver) {
		d.metrics = w
		d.textfile = path
	}
}

// New creates a driver.
func New(resolver Resolver, exporter Exporter, opts ...Option) *Driver {
	d := &Driver{
		resolver: resolver,
		load:     model.Load,
		exporter: exporter,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run resolves and loads req.Source, then exports it to req.Format.
// Export is never attempted when resolution or loading fails, and errors are
// returned unchanged.
func (d *Driver) Run(ctx context.Context, req Request) (*Result, error) {
	p, err := d.resolver.Resolve(ctx, req.Source)
	if err != nil {
		return nil, err
	}

	h, err := d.load(ctx, p)
	if err != nil {
		return nil, err
	}
	slog.Info("Model loaded",
		"path", h.Path(),
		"kind", h.Kind(),
		"bytes", h.Size(),
		"modified", h.ModTime().Format(time.RFC3339),
		"digest", h.Digest(),
	)

	res, err := d.exporter.Export(ctx, h, req.Format, req.Parameters)
	d.flushMetrics()
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.lastDigest = h.Digest()
	d.mu.Unlock()

	return &Result{Handle: h, Export: res}, nil
}

// Watch runs req once and then again every time the local artifact changes.
// Changes that leave the contents identical to the last successful export are
// skipped. Failures are logged and watching continues; Watch returns when ctx is done.
func (d *Driver) Watch(ctx context.Context, req Request, debounce time.Duration) error {
	p, err := d.resolver.Resolve(ctx, req.Source)
	if err != nil {
		return err
	}
	req.Source = p

	if _, err := d.Run(ctx, req); err != nil {
		slog.Error("Initial export failed, waiting for the artifact to change", "error", err)
	}

	w, err := watch.NewWatcher(p, debounce, func(ctx context.Context) {
		d.rerun(ctx, req)
	})
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

func (d *Driver) rerun(ctx context.Context, req Request) {
	h, err := d.load(ctx, req.Source)
	if err != nil {
		slog.Warn("Changed artifact is not loadable yet", "error", err)
		return
	}

	d.mu.Lock()
	unchanged := h.Digest() == d.lastDigest
	d.mu.Unlock()
	if unchanged {
		slog.Info("Artifact contents unchanged, skipping export", "path", h.Path())
		return
	}

	res, err := d.exporter.Export(ctx, h, req.Format, req.Parameters)
	d.flushMetrics()
	if err != nil {
		slog.Error("Re-export failed", "error", err)
		return
	}

	d.mu.Lock()
	d.lastDigest = h.Digest()
	d.mu.Unlock()

	slog.Info("Re-exported model", "artifact", res.Path, "digest", h.Digest())
}

func (d *Driver) flushMetrics() {
	if d.metrics == nil || d.textfile == "" {
		return
	}
	if err := d.metrics.WriteTextfile(d.textfile); err != nil {
		slog.Warn("Failed to write metrics textfile", "path", d.textfile, "error", err)
	}
}

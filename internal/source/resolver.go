package source

import (
	"context"
	"fmt"
	"sync"

	"github.com/ekisa-team/yoloexport/internal/model"
	"github.com/ekisa-team/yoloexport/internal/xfs"
)

// HuggingFaceFetcher is satisfied by HuggingFaceDownloader.
type HuggingFaceFetcher interface {
	Download(ctx context.Context, ref Ref, targetDir string) (string, bool, error)
}

// S3Fetcher is satisfied by S3Downloader.
type S3Fetcher interface {
	Download(ctx context.Context, ref Ref, targetDir string) (string, error)
}

// Resolver turns model references into local artifact paths.
type Resolver struct {
	modelsDir string

	hf HuggingFaceFetcher

	newS3 func(ctx context.Context) (S3Fetcher, error)
	s3    S3Fetcher
	s3Err error
	s3Mu  sync.Mutex
}

// NewResolver creates a resolver caching remote models under modelsDir.
// hf may be nil when the hf CLI is unavailable. newS3 is called at most once,
// the first time an s3:// reference is resolved.
func NewResolver(modelsDir string, hf HuggingFaceFetcher, newS3 func(ctx context.Context) (S3Fetcher, error)) *Resolver {
	return &Resolver{
		modelsDir: modelsDir,
		hf:        hf,
		newS3:     newS3,
	}
}

// Resolve returns a local path for raw. Failures are reported as *model.LoadError.
func (r *Resolver) Resolve(ctx context.Context, raw string) (string, error) {
	ref, err := ParseRef(raw)
	if err != nil {
		return "", &model.LoadError{Path: raw, Err: fmt.Errorf("%w: %w", model.ErrUnsupportedArtifact, err)}
	}

	switch ref.Scheme {
	case SchemeHuggingFace:
		if r.hf == nil {
			return "", &model.LoadError{Path: raw, Err: fmt.Errorf("%w: hf CLI is not available", model.ErrUnreadable)}
		}
		p, _, err := r.hf.Download(ctx, ref, r.modelsDir)
		if err != nil {
			return "", &model.LoadError{Path: raw, Err: classifyHFError(err)}
		}
		return p, nil

	case SchemeS3:
		fetcher, err := r.s3Fetcher(ctx)
		if err != nil {
			return "", &model.LoadError{Path: raw, Err: fmt.Errorf("%w: s3 client: %w", model.ErrUnreadable, err)}
		}
		p, err := fetcher.Download(ctx, ref, r.modelsDir)
		if err != nil {
			return "", &model.LoadError{Path: raw, Err: err}
		}
		return p, nil
	}

	return xfs.ExpandTilde(ref.Path), nil
}

func (r *Resolver) s3Fetcher(ctx context.Context) (S3Fetcher, error) {
	r.s3Mu.Lock()
	defer r.s3Mu.Unlock()

	if r.s3 == nil && r.s3Err == nil {
		if r.newS3 == nil {
			r.s3Err = fmt.Errorf("s3 is not configured")
		} else {
			r.s3, r.s3Err = r.newS3(ctx)
		}
	}
	return r.s3, r.s3Err
}

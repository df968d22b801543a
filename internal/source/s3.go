package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aws/smithy-go"

	"github.com/ekisa-team/yoloexport/internal/model"
)

// ObjectDownloader fetches one object into w.
type ObjectDownloader interface {
	Download(ctx context.Context, w io.WriterAt, bucket, key string) (int64, error)
}

// S3Downloader downloads model objects into the models directory.
type S3Downloader struct {
	client ObjectDownloader
}

// NewS3Downloader creates a downloader that fetches through client.
func NewS3Downloader(client ObjectDownloader) *S3Downloader {
	return &S3Downloader{client: client}
}

// Download writes ref into targetDir/s3/<bucket>/<key> and returns the local path.
// The object is written to a temporary file first and renamed into place, so a
// failed transfer never leaves a truncated artifact behind.
func (d *S3Downloader) Download(ctx context.Context, ref Ref, targetDir string) (string, error) {
	dest := filepath.Join(targetDir, "s3", ref.Bucket, filepath.FromSlash(ref.Key))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	slog.Info("Downloading model", "bucket", ref.Bucket, "key", ref.Key, "path", dest)

	n, err := d.client.Download(ctx, tmp, ref.Bucket, ref.Key)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", classifyS3Error(err)
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", fmt.Errorf("failed to move download into place: %w", err)
	}

	slog.Info("Model downloaded successfully", "bucket", ref.Bucket, "key", ref.Key, "path", dest, "bytes", n)
	return dest, nil
}

// classifyS3Error maps S3 API errors onto the model load taxonomy.
func classifyS3Error(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "NoSuchBucket":
			return fmt.Errorf("%w: %w", model.ErrNotFound, err)
		case "AccessDenied", "Forbidden", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return fmt.Errorf("%w: %w", model.ErrUnreadable, err)
		}
	}
	return fmt.Errorf("%w: %w", model.ErrUnreadable, err)
}

package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ekisa-team/yoloexport/internal/model"
	"github.com/ekisa-team/yoloexport/internal/toolkit"
)

const (
	defaultRetryDelay = 2 * time.Second
	defaultMaxRetries = 3
	markerPrefix      = ".yoloexport-downloaded-"
)

// HuggingFaceDownloader downloads single model files with the `hf` CLI.
type HuggingFaceDownloader struct {
	executor   *toolkit.Executor
	retryDelay time.Duration
	maxRetries int
}

// NewHuggingFaceDownloader creates a downloader that runs through executor.
func NewHuggingFaceDownloader(executor *toolkit.Executor) *HuggingFaceDownloader {
	return &HuggingFaceDownloader{
		executor:   executor,
		retryDelay: defaultRetryDelay,
		maxRetries: defaultMaxRetries,
	}
}

// Download downloads ref into targetDir and returns the local file path.
// The bool result reports whether a previous download was reused.
func (d *HuggingFaceDownloader) Download(ctx context.Context, ref Ref, targetDir string) (string, bool, error) {
	repo := strings.TrimSpace(ref.Repo)
	if repo == "" {
		return "", false, fmt.Errorf("invalid repo name: %q", repo)
	}

	fullPath := filepath.Join(targetDir, filepath.FromSlash(repo))
	filePath := filepath.Join(fullPath, filepath.FromSlash(ref.File))
	markerPath := filepath.Join(fullPath, markerPrefix+strings.ReplaceAll(ref.File, "/", "_"))
	markerContent := d.markerContent(repo, ref.File, ref.Revision)

	if _, err := os.Stat(filePath); err == nil {
		if !d.shouldRedownload(markerPath, markerContent) {
			slog.Info("Model already downloaded and up-to-date (marker match), skipping", "repo", repo, "file", ref.File, "path", filePath)
			return filePath, true, nil
		}
	}

	if err := os.MkdirAll(fullPath, 0o755); err != nil {
		return "", false, fmt.Errorf("failed to create directory: %w", err)
	}

	args := []string{
		"download",
		repo,
		ref.File,
		"--local-dir", fullPath,
	}
	if ref.Revision != "" {
		args = append(args, "--revision", ref.Revision)
	}

	var lastErr error
	for attempt := range d.maxRetries {
		if attempt > 0 {
			slog.Info("Retrying download", "repo", repo, "attempt", attempt+1, "last_error", lastErr)
			select {
			case <-ctx.Done():
				return "", false, fmt.Errorf("download canceled: %w", ctx.Err())
			case <-time.After(d.retryDelay):
			}
		} else {
			slog.Info("Downloading model", "repo", repo, "file", ref.File, "path", fullPath)
		}

		stdout, stderr, err := d.executor.Execute(ctx, args)
		if err == nil {
			if _, statErr := os.Stat(filePath); statErr != nil {
				return "", false, fmt.Errorf("hf download finished but %s is missing: %w", filePath, statErr)
			}

			if err := os.WriteFile(markerPath, []byte(markerContent), 0o644); err != nil {
				slog.Warn("Failed to write download marker", "path", markerPath, "error", err)
			} else {
				slog.Debug("Download marker updated", "path", markerPath)
			}

			slog.Info("Model downloaded successfully", "repo", repo, "path", filePath, "attempt", attempt+1)
			return filePath, false, nil
		}

		lastErr = fmt.Errorf("%w: %s", err, toolkit.Tail(append(stdout, stderr...), 3))
		slog.Error("Failed to download model", "repo", repo, "path", fullPath, "attempt", attempt+1, "error", lastErr)

		if errors.Is(ctx.Err(), context.Canceled) {
			return "", false, fmt.Errorf("download canceled: %w", err)
		}
		if errors.Is(err, toolkit.ErrTimeout) {
			slog.Warn("Download timed out", "repo", repo, "path", fullPath, "attempt", attempt+1)
		}
	}

	return "", false, lastErr
}

// hfNotFoundMarkers are substrings of hf CLI errors that mean the file does not exist.
var hfNotFoundMarkers = []string{
	"404",
	"entrynotfounderror",
	"repositorynotfounderror",
	"revisionnotfounderror",
	"is missing",
}

// classifyHFError maps hf download failures onto the model load taxonomy.
// Only a reported missing repo, revision or file is ErrNotFound.
func classifyHFError(err error) error {
	if errors.Is(err, toolkit.ErrTimeout) || errors.Is(err, toolkit.ErrBinaryNotFound) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", model.ErrUnreadable, err)
	}
	msg := strings.ToLower(err.Error())
	for _, m := range hfNotFoundMarkers {
		if strings.Contains(msg, m) {
			return fmt.Errorf("%w: %w", model.ErrNotFound, err)
		}
	}
	return fmt.Errorf("%w: %w", model.ErrUnreadable, err)
}

// markerContent generates the expected content of the marker file.
// Used to detect if we need to redownload due to config change.
func (d *HuggingFaceDownloader) markerContent(repo, file, revision string) string {
	return fmt.Sprintf("repo: %s\nfile: %s\nrevision: %s\n", repo, file, revision)
}

// shouldRedownload checks if the model should be redownloaded by comparing marker content.
func (d *HuggingFaceDownloader) shouldRedownload(markerPath, expectedContent string) bool {
	content, err := os.ReadFile(markerPath)
	if err != nil {
		slog.Debug("Marker file missing or unreadable", "path", markerPath, "error", err)
		return true
	}

	if string(content) != expectedContent {
		slog.Info("Model reference changed (marker mismatch), will redownload",
			"marker_path", markerPath,
			"expected_snippet", expectedContent,
			"actual_snippet", string(content))
		return true
	}

	return false
}

package model

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"
)

var zipMagic = []byte("PK\x03\x04")

const (
	pickleProto    = 0x80
	maxPickleProto = 5
)

// Load validates the artifact at path and returns a handle for it.
// Only the checks needed to reject missing, unreadable, empty or foreign files are done
// here; the toolkit owns the full deserialization.
func Load(ctx context.Context, p string) (*Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, &LoadError{Path: p, Err: err}
	}

	if strings.TrimSpace(p) == "" {
		return nil, loadErr(p, ErrNotFound, "empty path")
	}

	abs, err := filepath.Abs(p)
	if err != nil {
		return nil, loadErr(p, ErrUnreadable, "%v", err)
	}

	info, err := os.Stat(abs)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, loadErr(p, ErrNotFound, "")
	case err != nil:
		return nil, loadErr(p, ErrUnreadable, "%v", err)
	case !info.Mode().IsRegular():
		return nil, loadErr(p, ErrUnsupportedArtifact, "not a regular file")
	case info.Size() == 0:
		return nil, loadErr(p, ErrMalformedArtifact, "empty file")
	}

	f, err := os.Open(abs)
	if err != nil {
		return nil, loadErr(p, ErrUnreadable, "%v", err)
	}
	defer f.Close()

	var kind Kind
	switch ext := strings.ToLower(filepath.Ext(abs)); ext {
	case ".pt", ".pth":
		kind, err = sniffCheckpoint(f, info.Size())
	case ".yaml", ".yml":
		kind, err = sniffDefinition(f)
	default:
		return nil, loadErr(p, ErrUnsupportedArtifact, "extension %q", ext)
	}
	if err != nil {
		return nil, &LoadError{Path: p, Err: err}
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, loadErr(p, ErrUnreadable, "%v", err)
	}
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, loadErr(p, ErrUnreadable, "%v", err)
	}

	handle := &Handle{
		name:    stem(abs),
		path:    abs,
		kind:    kind,
		size:    info.Size(),
		modTime: info.ModTime(),
		digest:  hex.EncodeToString(h.Sum(nil)),
	}

	slog.Debug("Model artifact loaded", "path", abs, "kind", kind, "bytes", handle.size, "digest", shortDigest(handle.digest))
	return handle, nil
}

// sniffCheckpoint accepts zip checkpoints holding a data.pkl record and legacy
// pickle streams.
func sniffCheckpoint(f *os.File, size int64) (Kind, error) {
	header := make([]byte, 4)
	if _, err := io.ReadFull(f, header); err != nil {
		return "", wrap(ErrMalformedArtifact, "short header")
	}

	switch {
	case bytes.Equal(header, zipMagic):
		zr, err := zip.NewReader(f, size)
		if err != nil {
			return "", wrap(ErrMalformedArtifact, "zip container: "+err.Error())
		}
		for _, entry := range zr.File {
			if path.Base(entry.Name) == "data.pkl" {
				return KindCheckpoint, nil
			}
		}
		return "", wrap(ErrMalformedArtifact, "zip container has no data.pkl record")

	case header[0] == pickleProto && header[1] >= 2 && header[1] <= maxPickleProto:
		return KindLegacyCheckpoint, nil
	}

	return "", wrap(ErrMalformedArtifact, "unrecognized checkpoint header")
}

// sniffDefinition accepts any non-empty YAML mapping. The toolkit reports
// architecture errors itself.
func sniffDefinition(r io.Reader) (Kind, error) {
	var doc map[string]any
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return "", wrap(ErrMalformedArtifact, "yaml: "+err.Error())
	}
	if len(doc) == 0 {
		return "", wrap(ErrMalformedArtifact, "empty definition")
	}
	return KindDefinition, nil
}

func wrap(sentinel error, msg string) error {
	return fmt.Errorf("%w: %s", sentinel, msg)
}

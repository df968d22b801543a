// Package modeltest writes small artifacts that pass model.Load, for tests.
package modeltest

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteCheckpoint writes a minimal zip checkpoint named name into dir and returns its path.
func WriteCheckpoint(t testing.TB, dir, name string) string {
	t.Helper()
	return WriteCheckpointWithPayload(t, dir, name, "weights")
}

// WriteCheckpointWithPayload is WriteCheckpoint with caller-controlled contents,
// so tests can produce distinct digests.
func WriteCheckpointWithPayload(t testing.TB, dir, name, payload string) string {
	t.Helper()

	p := filepath.Join(dir, name)
	f, err := os.Create(p)
	require.NoError(t, err)
	defer f.Close()

	archive := strings.TrimSuffix(name, filepath.Ext(name))
	zw := zip.NewWriter(f)
	w, err := zw.Create(archive + "/data.pkl")
	require.NoError(t, err)
	_, err = w.Write([]byte("\x80\x02" + payload + "."))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	return p
}

// WriteDefinition writes a minimal YAML model definition into dir and returns its path.
func WriteDefinition(t testing.TB, dir, name string) string {
	t.Helper()

	p := filepath.Join(dir, name)
	doc := "nc: 80\nbackbone:\n  - [-1, 1, Conv, [64, 3, 2]]\nhead:\n  - [-1, 1, Detect, [nc]]\n"
	require.NoError(t, os.WriteFile(p, []byte(doc), 0o644))
	return p
}

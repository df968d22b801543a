package model

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekisa-team/yoloexport/internal/model/modeltest"
)

func TestLoad_Checkpoint(t *testing.T) {
	dir := t.TempDir()
	p := modeltest.WriteCheckpoint(t, dir, "best.pt")

	h, err := Load(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, "best", h.Name())
	assert.Equal(t, p, h.Path())
	assert.Equal(t, dir, h.Dir())
	assert.Equal(t, KindCheckpoint, h.Kind())
	assert.Len(t, h.Digest(), 64)
	assert.Positive(t, h.Size())

	again, err := Load(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, h.Digest(), again.Digest())
}

func TestLoad_RelativePath(t *testing.T) {
	dir := t.TempDir()
	modeltest.WriteCheckpoint(t, dir, "best.pt")
	t.Chdir(dir)

	h, err := Load(context.Background(), "best.pt")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(h.Path()))
	assert.Equal(t, "best", h.Name())
}

func TestLoad_LegacyCheckpoint(t *testing.T) {
	p := filepath.Join(t.TempDir(), "old.pth")
	require.NoError(t, os.WriteFile(p, []byte{0x80, 0x02, 0x8a, 0x0a, 0x6c}, 0o644))

	h, err := Load(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, KindLegacyCheckpoint, h.Kind())
	assert.Equal(t, "old", h.Name())
}

func TestLoad_Definition(t *testing.T) {
	p := modeltest.WriteDefinition(t, t.TempDir(), "yolo11n.yaml")

	h, err := Load(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, KindDefinition, h.Kind())
	assert.Equal(t, "yolo11n", h.Name())
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	write := func(name string, data []byte) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, data, 0o644))
		return p
	}

	zipWithout := func(name string) string {
		p := filepath.Join(dir, name)
		f, err := os.Create(p)
		require.NoError(t, err)
		zw := zip.NewWriter(f)
		w, err := zw.Create("best/other.bin")
		require.NoError(t, err)
		_, _ = w.Write([]byte("x"))
		require.NoError(t, zw.Close())
		require.NoError(t, f.Close())
		return p
	}

	tcs := []struct {
		name string
		path string
		want error
	}{
		{name: "missing", path: filepath.Join(dir, "best.pt"), want: ErrNotFound},
		{name: "empty path", path: "", want: ErrNotFound},
		{name: "directory", path: dir, want: ErrUnsupportedArtifact},
		{name: "empty file", path: write("empty.pt", nil), want: ErrMalformedArtifact},
		{name: "corrupt", path: write("corrupt.pt", []byte("not a model at all")), want: ErrMalformedArtifact},
		{name: "short", path: write("short.pt", []byte{0x80}), want: ErrMalformedArtifact},
		{name: "truncated zip", path: write("trunc.pt", []byte("PK\x03\x04garbage")), want: ErrMalformedArtifact},
		{name: "zip without record", path: zipWithout("norecord.pt"), want: ErrMalformedArtifact},
		{name: "unknown extension", path: write("model.bin", []byte("PK\x03\x04")), want: ErrUnsupportedArtifact},
		{name: "yaml list", path: write("list.yaml", []byte("- a\n- b\n")), want: ErrMalformedArtifact},
		{name: "empty yaml mapping", path: write("empty.yaml", []byte("{}\n")), want: ErrMalformedArtifact},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			h, err := Load(context.Background(), tc.path)
			assert.Nil(t, h)
			require.Error(t, err)

			var loadErr *LoadError
			require.ErrorAs(t, err, &loadErr)
			assert.Equal(t, tc.path, loadErr.Path)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestLoad_Unreadable(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}

	p := modeltest.WriteCheckpoint(t, t.TempDir(), "best.pt")
	require.NoError(t, os.Chmod(p, 0o000))

	_, err := Load(context.Background(), p)
	assert.ErrorIs(t, err, ErrUnreadable)
}

func TestLoad_CanceledContext(t *testing.T) {
	p := modeltest.WriteCheckpoint(t, t.TempDir(), "best.pt")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Load(ctx, p)
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoad_DefinitionNeedsOnlyAMapping(t *testing.T) {
	p := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(p, []byte("nc: 3\nbackbone: []\n"), 0o644))

	h, err := Load(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, KindDefinition, h.Kind())
	assert.Equal(t, "custom", h.Name())
}

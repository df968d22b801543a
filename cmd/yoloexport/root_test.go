package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekisa-team/yoloexport/internal/envvar"
	"github.com/ekisa-team/yoloexport/internal/export"
	"github.com/ekisa-team/yoloexport/internal/model"
	"github.com/ekisa-team/yoloexport/internal/model/modeltest"
)

// fakeToolkit mimics `yolo export` for CoreML: it creates the package directory
// beside the model and reports it the way the real toolkit does.
const fakeToolkit = `#!/bin/sh
for a in "$@"; do
	case "$a" in
	model=*) m="${a#model=}" ;;
	format=*) f="${a#format=}" ;;
	esac
done
if [ "$f" != "coreml" ]; then
	echo "fake toolkit only exports coreml" >&2
	exit 1
fi
out="${m%.*}.mlpackage"
mkdir -p "$out/Data/com.apple.CoreML"
printf 'weights' > "$out/Data/com.apple.CoreML/weight.bin"
echo "CoreML: export success, saved as '$out' (0.0 MB)"
`

func isolate(t *testing.T) string {
	t.Helper()

	t.Setenv(envvar.YoloExportConfig, "")
	t.Setenv(envvar.YoloExportToolkitBin, "")
	t.Setenv(envvar.YoloExportModelsPath, "")
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func writeFakeToolkit(t *testing.T) string {
	t.Helper()
	return writeToolkitScript(t, fakeToolkit)
}

func writeToolkitScript(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake toolkit is a shell script")
	}
	p := filepath.Join(t.TempDir(), "yolo")
	require.NoError(t, os.WriteFile(p, []byte(script), 0o755))
	return p
}

func TestParseSets(t *testing.T) {
	got, err := parseSets([]string{"imgsz=640", "half = true", "name="})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"imgsz": "640", "half": "true", "name": ""}, got)

	got, err = parseSets(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	for _, bad := range []string{"imgsz", "=640", " =x"} {
		_, err := parseSets([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestRoot_ExportsBestPtToCoreMLByDefault(t *testing.T) {
	dir := isolate(t)
	toolkit := writeFakeToolkit(t)
	t.Setenv(envvar.YoloExportToolkitBin, toolkit)
	modeltest.WriteCheckpoint(t, dir, "best.pt")

	out, err := execute(t)
	require.NoError(t, err)

	artifact := strings.TrimSpace(out)
	assert.Equal(t, "best.mlpackage", filepath.Base(artifact))
	assert.DirExists(t, filepath.Join(dir, "best.mlpackage"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "only the model and one artifact")

	// Running again overwrites the same artifact.
	out, err = execute(t)
	require.NoError(t, err)
	assert.Equal(t, artifact, strings.TrimSpace(out))
}

func TestRoot_NoisyToolkitOutputKeepsArtifact(t *testing.T) {
	dir := isolate(t)
	// A progress bar redrawn in place: over a megabyte on stderr without a newline.
	noisy := strings.Replace(fakeToolkit, `echo "CoreML: export success`,
		"head -c 1200000 /dev/zero | tr '\\000' x 1>&2\necho \"CoreML: export success", 1)
	toolkit := writeToolkitScript(t, noisy)
	modeltest.WriteCheckpoint(t, dir, "best.pt")

	out, err := execute(t, "--toolkit", toolkit)
	require.NoError(t, err)
	assert.Equal(t, "best.mlpackage", filepath.Base(strings.TrimSpace(out)))
	assert.DirExists(t, filepath.Join(dir, "best.mlpackage"))
}

func TestRoot_MissingModelIsLoadError(t *testing.T) {
	isolate(t)
	toolkit := writeFakeToolkit(t)

	_, err := execute(t, "--toolkit", toolkit)

	var loadErr *model.LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestRoot_UnsupportedFormatWritesNothing(t *testing.T) {
	dir := isolate(t)
	toolkit := writeFakeToolkit(t)
	modeltest.WriteCheckpoint(t, dir, "best.pt")

	_, err := execute(t, "--toolkit", toolkit, "--format", "gguf")

	var exportErr *export.ExportError
	require.ErrorAs(t, err, &exportErr)
	assert.ErrorIs(t, err, export.ErrUnsupportedFormat)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRoot_SetFlagReachesValidation(t *testing.T) {
	dir := isolate(t)
	toolkit := writeFakeToolkit(t)
	modeltest.WriteCheckpoint(t, dir, "best.pt")

	_, err := execute(t, "--toolkit", toolkit, "--set", "opset=12")
	assert.ErrorIs(t, err, export.ErrUnsupportedParameter)

	_, err = execute(t, "--toolkit", toolkit, "--set", "imgsz=large")
	assert.ErrorIs(t, err, export.ErrInvalidParameter)

	_, err = execute(t, "--toolkit", toolkit, "--set", "imgsz")
	assert.ErrorContains(t, err, "expected key=value")
}

func TestRoot_ConfigFileAndFlagPrecedence(t *testing.T) {
	dir := isolate(t)
	toolkit := writeFakeToolkit(t)
	modeltest.WriteCheckpoint(t, dir, "last.pt")

	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("model:\n  source: last.pt\nexport:\n  format: onnx\n"), 0o644))

	// The file asks for onnx, which the fake toolkit refuses.
	_, err := execute(t, "--config", cfgPath, "--toolkit", toolkit)
	assert.ErrorIs(t, err, export.ErrToolkitFailed)
	assert.NoFileExists(t, filepath.Join(dir, "last.onnx"))

	out, err := execute(t, "--config", cfgPath, "--toolkit", toolkit, "--format", "coreml")
	require.NoError(t, err)
	assert.Equal(t, "last.mlpackage", filepath.Base(strings.TrimSpace(out)))
}

func TestRoot_InvalidConfigFails(t *testing.T) {
	dir := isolate(t)

	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("export:\n  format: gguf\n"), 0o644))

	_, err := execute(t, "--config", cfgPath)
	assert.ErrorContains(t, err, "validation failed")
}

func TestFormats(t *testing.T) {
	isolate(t)

	out, err := execute(t, "formats")
	require.NoError(t, err)
	assert.Contains(t, out, "FORMAT")
	assert.Regexp(t, `(?m)^coreml\s+CoreML\s+best\.mlpackage/\s+mlpackage,mlmodel`, out)
	assert.Regexp(t, `(?m)^onnx\s+ONNX\s+best\.onnx\s`, out)
}

func TestFormats_IgnoresBrokenConfig(t *testing.T) {
	dir := isolate(t)

	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("export: [not, a, mapping\n"), 0o644))
	t.Setenv(envvar.YoloExportConfig, cfgPath)

	out, err := execute(t, "formats")
	require.NoError(t, err)
	assert.Contains(t, out, "coreml")

	_, err = execute(t)
	assert.Error(t, err)
}

func TestWatch_RejectsRemoteSources(t *testing.T) {
	isolate(t)

	_, err := execute(t, "watch", "--model", "s3://bucket/best.pt")
	assert.ErrorContains(t, err, "local model artifact")
}

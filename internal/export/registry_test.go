package export

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	spec := &Spec{Format: "custom", Aliases: []string{"cst"}, artifact: suffix(".cst")}

	require.NoError(t, reg.Register(spec))

	got, ok := reg.Get("custom")
	assert.True(t, ok)
	assert.Same(t, spec, got)

	got, ok = reg.Get(" CST ")
	assert.True(t, ok)
	assert.Same(t, spec, got)

	_, ok = reg.Get("missing")
	assert.False(t, ok)
}

func TestRegistry_RegisterDuplicate(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(&Spec{Format: "a", Aliases: []string{"x"}}))

	assert.ErrorIs(t, reg.Register(&Spec{Format: "a"}), ErrAlreadyRegistered)
	assert.ErrorIs(t, reg.Register(&Spec{Format: "b", Aliases: []string{"x"}}), ErrAlreadyRegistered)

	_, ok := reg.Get("b")
	assert.False(t, ok)
}

func TestDefaultRegistry_List(t *testing.T) {
	var got []Format
	for _, s := range DefaultRegistry().List() {
		got = append(got, s.Format)
	}

	want := []Format{
		FormatCoreML, FormatEdgeTPU, FormatEngine, FormatIMX, FormatMNN, FormatNCNN,
		FormatONNX, FormatOpenVINO, FormatPaddle, FormatPB, FormatRKNN, FormatSavedModel,
		FormatTFJS, FormatTFLite, FormatTorchScript,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}
}

func TestSpec_ArtifactPath(t *testing.T) {
	reg := DefaultRegistry()
	dir := filepath.Join("work", "runs")

	tcs := []struct {
		format   string
		params   map[string]any
		wantPath string
		wantRoot string
	}{
		{format: "coreml", wantPath: "best.mlpackage", wantRoot: "best.mlpackage"},
		{format: "mlpackage", wantPath: "best.mlpackage", wantRoot: "best.mlpackage"},
		{format: "onnx", wantPath: "best.onnx", wantRoot: "best.onnx"},
		{format: "torchscript", wantPath: "best.torchscript", wantRoot: "best.torchscript"},
		{format: "engine", wantPath: "best.engine", wantRoot: "best.engine"},
		{format: "openvino", wantPath: "best_openvino_model", wantRoot: "best_openvino_model"},
		{format: "openvino", params: map[string]any{"int8": true}, wantPath: "best_int8_openvino_model", wantRoot: "best_int8_openvino_model"},
		{format: "saved_model", wantPath: "best_saved_model", wantRoot: "best_saved_model"},
		{format: "tflite", wantPath: "best_saved_model/best_float32.tflite", wantRoot: "best_saved_model"},
		{format: "tflite", params: map[string]any{"half": true}, wantPath: "best_saved_model/best_float16.tflite", wantRoot: "best_saved_model"},
		{format: "tflite", params: map[string]any{"int8": true, "half": true}, wantPath: "best_saved_model/best_int8.tflite", wantRoot: "best_saved_model"},
		{format: "edgetpu", wantPath: "best_saved_model/best_full_integer_quant_edgetpu.tflite", wantRoot: "best_saved_model"},
		{format: "tfjs", wantPath: "best_web_model", wantRoot: "best_web_model"},
		{format: "ncnn", wantPath: "best_ncnn_model", wantRoot: "best_ncnn_model"},
		{format: "rknn", wantPath: "best_rknn_model", wantRoot: "best_rknn_model"},
	}

	for _, tc := range tcs {
		t.Run(tc.format, func(t *testing.T) {
			spec, ok := reg.Get(tc.format)
			require.True(t, ok)

			assert.Equal(t, filepath.Join(dir, filepath.FromSlash(tc.wantPath)), spec.ArtifactPath(dir, "best", tc.params))
			assert.Equal(t, filepath.Join(dir, tc.wantRoot), spec.ArtifactRoot(dir, "best", tc.params))
		})
	}
}

package export

import (
	"path/filepath"

	"github.com/ekisa-team/yoloexport/internal/mapsafe"
)

// Format is a toolkit export target identifier.
type Format string

const (
	FormatTorchScript Format = "torchscript"
	FormatONNX        Format = "onnx"
	FormatOpenVINO    Format = "openvino"
	FormatEngine      Format = "engine"
	FormatCoreML      Format = "coreml"
	FormatSavedModel  Format = "saved_model"
	FormatPB          Format = "pb"
	FormatTFLite      Format = "tflite"
	FormatEdgeTPU     Format = "edgetpu"
	FormatTFJS        Format = "tfjs"
	FormatPaddle      Format = "paddle"
	FormatMNN         Format = "mnn"
	FormatNCNN        Format = "ncnn"
	FormatIMX         Format = "imx"
	FormatRKNN        Format = "rknn"
)

// DefaultFormat is used when no format is requested.
const DefaultFormat = FormatCoreML

// Spec describes one export target.
type Spec struct {
	Format      Format
	Description string
	Aliases     []string

	// Params lists the export arguments the target accepts.
	Params []string

	// IsDir is true when the artifact is a directory package.
	IsDir bool

	// artifact returns the artifact path relative to the model directory.
	artifact func(name string, params map[string]any) string
}

// ArtifactPath returns where the toolkit writes the artifact for a model named name
// that lives in dir.
func (s *Spec) ArtifactPath(dir, name string, params map[string]any) string {
	return filepath.Join(dir, s.artifact(name, params))
}

// ArtifactRoot returns the top-level entry the export creates in dir.
// It differs from ArtifactPath for targets that nest the artifact in a package directory.
func (s *Spec) ArtifactRoot(dir, name string, params map[string]any) string {
	rel := s.artifact(name, params)
	for {
		parent := filepath.Dir(rel)
		if parent == "." || parent == string(filepath.Separator) {
			return filepath.Join(dir, rel)
		}
		rel = parent
	}
}

// Accepts reports whether the target takes parameter key.
func (s *Spec) Accepts(key string) bool {
	for _, p := range s.Params {
		if p == key {
			return true
		}
	}
	return false
}

func suffix(ext string) func(string, map[string]any) string {
	return func(name string, _ map[string]any) string { return name + ext }
}

func dirSuffix(tag string) func(string, map[string]any) string {
	return func(name string, _ map[string]any) string { return name + "_" + tag }
}

// builtinSpecs mirrors the toolkit's export table.
func builtinSpecs() []*Spec {
	return []*Spec{
		{
			Format:      FormatTorchScript,
			Description: "TorchScript",
			Params:      []string{"imgsz", "optimize", "dynamic", "nms", "batch", "device"},
			artifact:    suffix(".torchscript"),
		},
		{
			Format:      FormatONNX,
			Description: "ONNX",
			Params:      []string{"imgsz", "half", "dynamic", "simplify", "opset", "nms", "batch", "device"},
			artifact:    suffix(".onnx"),
		},
		{
			Format:      FormatOpenVINO,
			Description: "OpenVINO",
			Params:      []string{"imgsz", "half", "dynamic", "int8", "nms", "batch", "data", "fraction", "device"},
			IsDir:       true,
			artifact: func(name string, p map[string]any) string {
				if mapsafe.Get(p, "int8", false) {
					return name + "_int8_openvino_model"
				}
				return name + "_openvino_model"
			},
		},
		{
			Format:      FormatEngine,
			Description: "TensorRT",
			Aliases:     []string{"tensorrt", "trt"},
			Params:      []string{"imgsz", "half", "dynamic", "simplify", "workspace", "int8", "nms", "batch", "data", "fraction", "device"},
			artifact:    suffix(".engine"),
		},
		{
			Format:      FormatCoreML,
			Description: "CoreML",
			Aliases:     []string{"mlpackage", "mlmodel"},
			Params:      []string{"imgsz", "half", "int8", "nms", "batch", "device"},
			IsDir:       true,
			artifact:    suffix(".mlpackage"),
		},
		{
			Format:      FormatSavedModel,
			Description: "TensorFlow SavedModel",
			Params:      []string{"imgsz", "keras", "int8", "nms", "batch", "device"},
			IsDir:       true,
			artifact:    dirSuffix("saved_model"),
		},
		{
			Format:      FormatPB,
			Description: "TensorFlow GraphDef",
			Params:      []string{"imgsz", "batch", "device"},
			artifact:    suffix(".pb"),
		},
		{
			Format:      FormatTFLite,
			Description: "TensorFlow Lite",
			Params:      []string{"imgsz", "half", "int8", "nms", "batch", "data", "fraction", "device"},
			artifact: func(name string, p map[string]any) string {
				quant := "float32"
				switch {
				case mapsafe.Get(p, "int8", false):
					quant = "int8"
				case mapsafe.Get(p, "half", false):
					quant = "float16"
				}
				return filepath.Join(name+"_saved_model", name+"_"+quant+".tflite")
			},
		},
		{
			Format:      FormatEdgeTPU,
			Description: "TensorFlow Edge TPU",
			Params:      []string{"imgsz", "device"},
			artifact: func(name string, _ map[string]any) string {
				return filepath.Join(name+"_saved_model", name+"_full_integer_quant_edgetpu.tflite")
			},
		},
		{
			Format:      FormatTFJS,
			Description: "TensorFlow.js",
			Params:      []string{"imgsz", "half", "int8", "nms", "batch", "device"},
			IsDir:       true,
			artifact:    dirSuffix("web_model"),
		},
		{
			Format:      FormatPaddle,
			Description: "PaddlePaddle",
			Params:      []string{"imgsz", "batch", "device"},
			IsDir:       true,
			artifact:    dirSuffix("paddle_model"),
		},
		{
			Format:      FormatMNN,
			Description: "MNN",
			Params:      []string{"imgsz", "batch", "int8", "half", "device"},
			artifact:    suffix(".mnn"),
		},
		{
			Format:      FormatNCNN,
			Description: "NCNN",
			Params:      []string{"imgsz", "half", "batch", "device"},
			IsDir:       true,
			artifact:    dirSuffix("ncnn_model"),
		},
		{
			Format:      FormatIMX,
			Description: "Sony IMX500",
			Params:      []string{"imgsz", "int8", "data", "fraction", "device"},
			IsDir:       true,
			artifact:    dirSuffix("imx_model"),
		},
		{
			Format:      FormatRKNN,
			Description: "Rockchip RKNN",
			Params:      []string{"imgsz", "batch", "name", "device"},
			IsDir:       true,
			artifact:    dirSuffix("rknn_model"),
		},
	}
}

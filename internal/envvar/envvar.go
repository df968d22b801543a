package envvar

const (
	// YoloExportEnv is the environment variable used to determine the environment
	YoloExportEnv = "YOLOEXPORT_ENV"

	// YoloExportConfig is the environment variable used to locate the config file
	YoloExportConfig = "YOLOEXPORT_CONFIG"

	// YoloExportToolkitBin is the environment variable used to override the toolkit binary
	YoloExportToolkitBin = "YOLOEXPORT_TOOLKIT_BIN"

	// YoloExportModelsPath is the environment variable used to determine where remote models are cached
	YoloExportModelsPath = "YOLOEXPORT_MODELS_PATH"
)

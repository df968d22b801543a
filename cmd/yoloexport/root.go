package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ekisa-team/yoloexport/internal/config"
	"github.com/ekisa-team/yoloexport/internal/driver"
	"github.com/ekisa-team/yoloexport/internal/env"
	"github.com/ekisa-team/yoloexport/internal/logger"
)

type options struct {
	configPath      string
	schemaPath      string
	model           string
	format          string
	sets            []string
	toolkit         string
	timeout         time.Duration
	metricsTextfile string
	logLevel        string

	cfg *config.Config
}

// newRootCmd returns the root of the command-line application.
// Run without arguments it exports best.pt in the working directory to CoreML.
func newRootCmd() *cobra.Command {
	o := &options{}
	cmd := &cobra.Command{
		Use:   "yoloexport",
		Short: "Export a trained YOLO model to an on-device format",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.complete(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			d := newDriver(o.cfg)
			res, err := d.Run(cmd.Context(), o.request())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Export.Path)
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&o.configPath, "config", "", "Path to config file (default: $YOLOEXPORT_CONFIG or config.yaml in the user config dir)")
	flags.StringVar(&o.schemaPath, "schema", "", "Path to a JSON schema overriding the built-in one")
	flags.StringVar(&o.model, "model", config.DefaultModelSource, "Model artifact: a path, hf://owner/repo/file[@rev] or s3://bucket/key")
	flags.StringVar(&o.format, "format", config.DefaultFormat, "Export format")
	flags.StringArrayVar(&o.sets, "set", nil, "Export parameter as key=value (repeatable)")
	flags.StringVar(&o.toolkit, "toolkit", config.DefaultToolkitBinary, "Toolkit binary name or path")
	flags.DurationVar(&o.timeout, "timeout", config.DefaultToolkitTimeout, "Toolkit timeout per export")
	flags.StringVar(&o.metricsTextfile, "metrics-textfile", "", "Write Prometheus metrics to this file after each export")
	flags.StringVar(&o.logLevel, "log-level", "", "Log level: debug, info, warn or error")

	cmd.AddCommand(newFormatsCmd())
	cmd.AddCommand(newWatchCmd(o))
	cmd.SilenceUsage = true

	return cmd
}

// complete loads the config file, then applies environment and flag overrides
// and installs the process logger.
func (o *options) complete(cmd *cobra.Command) error {
	cfg := config.Default()
	if path, _ := config.ResolveConfigFile(o.configPath); path != "" {
		c, err := config.LoadAndValidate(path, o.schemaPath)
		if err != nil {
			return err
		}
		cfg = c
	}
	config.ApplyEnv(cfg)

	flags := cmd.Flags()
	if flags.Changed("model") {
		cfg.Model.Source = o.model
	}
	if flags.Changed("format") {
		cfg.Export.Format = o.format
	}
	if flags.Changed("toolkit") {
		cfg.Toolkit.Binary = o.toolkit
	}
	if flags.Changed("timeout") {
		cfg.Toolkit.Timeout = o.timeout
	}
	if flags.Changed("metrics-textfile") {
		cfg.Metrics.Textfile = o.metricsTextfile
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = o.logLevel
	}

	params, err := parseSets(o.sets)
	if err != nil {
		return err
	}
	if len(params) > 0 {
		if cfg.Export.Parameters == nil {
			cfg.Export.Parameters = make(map[string]any, len(params))
		}
		for k, v := range params {
			cfg.Export.Parameters[k] = v
		}
	}

	level, err := logger.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	slog.SetDefault(
		logger.New(env.FromEnv(),
			logger.WithLevel(level),
			logger.WithLogToFile(cfg.Logging.ToFile),
			logger.WithLogFile(cfg.Logging.File),
			logger.WithOutput(cmd.ErrOrStderr()),
		),
	)

	o.cfg = cfg
	return nil
}

func (o *options) request() driver.Request {
	return driver.Request{
		Source:     o.cfg.Model.Source,
		Format:     o.cfg.Export.Format,
		Parameters: o.cfg.Export.Parameters,
	}
}

// parseSets converts repeated key=value flags into export parameters.
// Values stay strings; the exporter coerces them per parameter.
func parseSets(sets []string) (map[string]any, error) {
	if len(sets) == 0 {
		return nil, nil
	}
	params := make(map[string]any, len(sets))
	for _, s := range sets {
		k, v, ok := strings.Cut(s, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --set %q: expected key=value", s)
		}
		params[k] = strings.TrimSpace(v)
	}
	return params, nil
}

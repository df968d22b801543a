package main

import (
	"context"

	"github.com/ekisa-team/yoloexport/internal/config"
	"github.com/ekisa-team/yoloexport/internal/driver"
	"github.com/ekisa-team/yoloexport/internal/export"
	"github.com/ekisa-team/yoloexport/internal/metrics"
	"github.com/ekisa-team/yoloexport/internal/s3"
	"github.com/ekisa-team/yoloexport/internal/source"
	"github.com/ekisa-team/yoloexport/internal/toolkit"
)

func newDriver(cfg *config.Config) *driver.Driver {
	monitor := metrics.NewExportMonitor()

	exporter := export.NewExporter(
		toolkit.NewExecutor(cfg.Toolkit.Binary, cfg.Toolkit.Timeout, cfg.Toolkit.Env),
		export.WithObserver(monitor),
	)

	hf := source.NewHuggingFaceDownloader(
		toolkit.NewExecutor(cfg.HuggingFace.Binary, cfg.HuggingFace.Timeout, nil),
	)
	resolver := source.NewResolver(config.ResolveModelsPath(cfg), hf, func(ctx context.Context) (source.S3Fetcher, error) {
		c, err := s3.NewClient(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		return source.NewS3Downloader(c), nil
	})

	var opts []driver.Option
	if cfg.Metrics.Textfile != "" {
		opts = append(opts, driver.WithMetricsTextfile(monitor, cfg.Metrics.Textfile))
	}
	return driver.New(resolver, exporter, opts...)
}

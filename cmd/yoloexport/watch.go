package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ekisa-team/yoloexport/internal/source"
)

func newWatchCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Export the model, then re-export every time the artifact changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := o.request()
			ref, err := source.ParseRef(req.Source)
			if err != nil {
				return err
			}
			if ref.Scheme != source.SchemeLocal {
				return fmt.Errorf("watch needs a local model artifact, got %s", ref)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			err = newDriver(o.cfg).Watch(ctx, req, o.cfg.Watch.Debounce)
			if errors.Is(err, context.Canceled) {
				err = nil
			}
			if err == nil {
				slog.Info("Stopped watching", "model", req.Source)
			}
			return err
		},
	}
}

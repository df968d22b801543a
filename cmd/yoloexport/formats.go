package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ekisa-team/yoloexport/internal/export"
)

func newFormatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List export formats and the artifact each one writes",
		Args:  cobra.NoArgs,
		// The registry is static; the config file is not read.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "FORMAT\tDESCRIPTION\tARTIFACT\tALIASES\tPARAMETERS")
			for _, s := range export.DefaultRegistry().List() {
				artifact := s.ArtifactPath("", "best", nil)
				if s.IsDir {
					artifact += string(filepath.Separator)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					s.Format,
					s.Description,
					artifact,
					orDash(strings.Join(s.Aliases, ",")),
					orDash(strings.Join(s.Params, ",")),
				)
			}
			return w.Flush()
		},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

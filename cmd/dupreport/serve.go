package main

import (
	"github.com/spf13/cobra"

	"github.com/dcurrey/dupReport/internal/app"
)

func newServeCmd(opts *app.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run collect and report cycles on [main]schedule and serve the status API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Flags = cmd.Flags()
			return app.Serve(cmd.Context(), *opts)
		},
	}
}

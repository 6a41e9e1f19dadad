package main

import (
	"github.com/spf13/cobra"

	"github.com/dcurrey/dupReport/internal/app"
)

func newRootCmd() *cobra.Command {
	var (
		opts    app.Options
		version bool
	)

	root := &cobra.Command{
		Use:   "dupreport",
		Short: "Summary email report generator for Duplicati",
		Long: `dupreport reads Duplicati backup notification emails from a mailbox,
stores their statistics and mails one summary report covering every
source/destination pair since the previous report.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Flags = cmd.Flags()
			if version {
				return app.PrintVersion(cmd.OutOrStdout(), opts)
			}
			return app.Run(cmd.Context(), opts)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.RCPath, "rcpath", "r", "", "directory holding dupReport.rc (default: program directory)")
	pf.StringP("dbpath", "d", "", "directory holding dupReport.db, same as [main]dbpath")
	pf.StringP("logpath", "l", "", "directory holding dupReport.log, same as [main]logpath")
	pf.IntP("verbose", "v", 1, "log verbosity 0-3, same as [main]verbose")
	pf.BoolP("append", "a", false, "append to the log file, same as [main]logappend")
	pf.StringP("mega", "m", "none", "size units: none, mega or giga, same as [main]sizereduce")
	pf.BoolVarP(&opts.InitDB, "initdb", "i", false, "initialize the database and exit")
	pf.BoolVarP(&opts.InitDBRun, "initdbrun", "I", false, "initialize the database and continue processing")
	root.MarkFlagsMutuallyExclusive("initdb", "initdbrun")

	f := root.Flags()
	f.BoolVarP(&version, "version", "V", false, "print version information and exit")
	f.BoolVarP(&opts.Collect, "collect", "c", false, "collect new emails only, don't send the report")
	f.BoolVarP(&opts.Report, "report", "t", false, "send the summary report only, don't collect emails")
	root.MarkFlagsMutuallyExclusive("collect", "report")

	root.AddCommand(newServeCmd(&opts), newGmailTokenCmd())
	return root
}

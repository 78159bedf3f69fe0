package main

import (
	"github.com/spf13/cobra"

	"github.com/sagarc03/slotbox/cliout"
)

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("json", false, "output as JSON")
	cmd.Flags().BoolP("quiet", "q", false, "suppress summaries")
}

func getFormatter(cmd *cobra.Command) cliout.Formatter {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	quiet, _ := cmd.Flags().GetBool("quiet")
	return cliout.NewFormatter(jsonOutput, quiet)
}

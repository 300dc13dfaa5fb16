package main

import (
	"github.com/spf13/cobra"
)

// newRootCmd creates the leapp-task root command
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leapp-task",
		Short: "Run leapp pre-upgrade and upgrade tasks for Red Hat Insights",
		Long: `Run leapp pre-upgrade and upgrade tasks for Red Hat Insights.

The run command is started by rhc-worker-script. It installs leapp when
needed, runs the operation selected by RHC_WORKER_LEAPP_SCRIPT_TYPE, classifies
the leapp report and prints the result between "### JSON START ###" and
"### JSON END ###" for the worker to relay.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newClassifyCmd())
	cmd.AddCommand(newPlaybookCmd())

	return cmd
}

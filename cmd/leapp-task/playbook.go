package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oamg/leapp-insights-tasks/pkg/config"
	"github.com/oamg/leapp-insights-tasks/pkg/playbook"
)

type playbookOptions struct {
	mode   string
	script string
	binary string
	out    string
}

// newPlaybookCmd creates the playbook subcommand
func newPlaybookCmd() *cobra.Command {
	opts := &playbookOptions{}

	cmd := &cobra.Command{
		Use:   "playbook",
		Short: "Generate the rhc-worker-script playbook for a mode",
		Long: `Generate the rhc-worker-script playbook for a mode.

Without --script the playbook carries a shell launcher that executes the
installed binary. The signature is left as a placeholder for signing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := config.Mode(strings.ToUpper(opts.mode))

			var (
				p   *playbook.Playbook
				err error
			)
			if opts.script != "" {
				p, err = playbook.EnvelopeFromFile(mode, opts.script)
			} else {
				p, err = playbook.Envelope(mode, playbook.DefaultScript(opts.binary))
			}
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if opts.out != "" {
				f, err := os.Create(opts.out)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", opts.out, err)
				}
				defer f.Close()
				w = f
			}
			if err := playbook.Write(w, p); err != nil {
				return err
			}
			if opts.out != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Playbook written to %s\n", opts.out)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.mode, "mode", string(config.ModePreupgrade), "Operation mode (PREUPGRADE, UPGRADE)")
	cmd.Flags().StringVar(&opts.script, "script", "", "Script to embed instead of the default launcher")
	cmd.Flags().StringVar(&opts.binary, "binary", playbook.DefaultBinary, "Binary path used by the default launcher")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Output file path (default: stdout)")

	return cmd
}

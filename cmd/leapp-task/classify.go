package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oamg/leapp-insights-tasks/pkg/outcome"
	"github.com/oamg/leapp-insights-tasks/pkg/report"
)

type classifyOptions struct {
	jsonPath       string
	textPath       string
	rebootRequired bool
	format         string
	noColor        bool
}

// newClassifyCmd creates the classify subcommand
func newClassifyCmd() *cobra.Command {
	opts := &classifyOptions{}

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify existing leapp reports without running leapp",
		Example: `  leapp-task classify --json /var/log/leapp/leapp-report.json
  leapp-task classify --format text --no-color
  leapp-task classify --format markdown > report.md`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch strings.ToLower(opts.format) {
			case "json":
				out := outcome.New()
				// An unreadable report is part of the payload
				if err := report.Classify(opts.jsonPath, opts.textPath, opts.rebootRequired, out); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Failed to read leapp report: %v\n", err)
				}
				return outcome.Print(cmd.OutOrStdout(), out)
			case "text", "markdown":
				r, err := report.Load(opts.jsonPath)
				if err != nil {
					return fmt.Errorf("failed to load report: %w", err)
				}
				report.Normalize(r)
				s := report.Summarize(r, opts.rebootRequired)
				if strings.ToLower(opts.format) == "markdown" {
					return report.RenderMarkdown(cmd.OutOrStdout(), r, s)
				}
				return report.RenderText(cmd.OutOrStdout(), r, s, !opts.noColor)
			default:
				return fmt.Errorf("unsupported format %q, use json, text or markdown", opts.format)
			}
		},
	}

	cmd.Flags().StringVar(&opts.jsonPath, "json", report.DefaultJSONPath, "Path to the leapp JSON report")
	cmd.Flags().StringVar(&opts.textPath, "txt", report.DefaultTextPath, "Path to the leapp text report")
	cmd.Flags().BoolVar(&opts.rebootRequired, "reboot-required", false, "Treat the run as one that asked for a reboot")
	cmd.Flags().StringVar(&opts.format, "format", "json", "Output format (json, text, markdown)")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colors in text output")

	return cmd
}

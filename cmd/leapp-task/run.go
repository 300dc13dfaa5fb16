package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/oamg/leapp-insights-tasks/pkg/config"
	"github.com/oamg/leapp-insights-tasks/pkg/logging"
	"github.com/oamg/leapp-insights-tasks/pkg/outcome"
	"github.com/oamg/leapp-insights-tasks/pkg/runner"
	"github.com/oamg/leapp-insights-tasks/pkg/task"
	"github.com/oamg/leapp-insights-tasks/pkg/taskerr"
)

type runOptions struct {
	configFile string
	timeout    time.Duration
}

// newRunCmd creates the run subcommand
func newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the leapp operation selected by the worker environment",
		Long: `Run the leapp operation selected by RHC_WORKER_LEAPP_SCRIPT_TYPE.

The command always exits 0 once the result payload is printed; failures are
reported through the payload status.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.configFile == "" {
				opts.configFile = os.Getenv(config.EnvConfigFile)
			}
			return runTask(cmd.Context(), cmd.OutOrStdout(), os.Environ(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.configFile, "config", "", "Path to a TOML file overriding report, log and sos paths (default: $"+config.EnvConfigFile+")")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Abort the run after this duration (0 disables the limit)")

	return cmd
}

func runTask(ctx context.Context, stdout io.Writer, environ []string, opts *runOptions) error {
	cfg, err := config.Load(environ, opts.configFile)
	if err != nil {
		log := logging.NewLogger(stdout, "INFO")
		log.Error(err, "Failed to load configuration")
		return outcome.Print(stdout, outcome.NewFromError(
			taskerr.Configuration("Failed to load configuration file.", err.Error()),
		))
	}

	log, closer := setupLogging(stdout, cfg)
	if closer != nil {
		defer closer.Close()
	}

	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	return task.New(cfg, runner.NewExecRunner(log), log).Execute(ctx, stdout)
}

// setupLogging archives the previous log, registers the new one with sos
// report and opens it. When the log file cannot be used, logging falls back
// to stdout only.
func setupLogging(stdout io.Writer, cfg *config.Config) (logr.Logger, io.Closer) {
	filename := cfg.LogFilename()
	archived, archiveErr := logging.ArchiveOld(cfg.Paths.LogDir, filename)

	log, closer, err := logging.Setup(stdout, cfg.Paths.LogDir, filename, cfg.LogLevel)
	if err != nil {
		log = logging.NewLogger(stdout, cfg.LogLevel)
		log.Error(err, "Failed to set up the log file, logging to stdout only")
	}

	if archiveErr != nil {
		log.Error(archiveErr, "Failed to archive previous log")
	} else if archived != "" {
		log.V(1).Info("Archived previous log", "path", archived)
	}

	logPath := filepath.Join(cfg.Paths.LogDir, filename)
	if err := logging.SetupSOSReport(cfg.Paths.SOSDir, cfg.Mode.Slug(), logPath); err != nil {
		log.Error(err, "Failed to register log with sos report")
	}
	return log, closer
}

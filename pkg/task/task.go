// Package task runs a leapp pre-upgrade or upgrade end to end and produces
// the outcome relayed to Red Hat Insights.
package task

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/oamg/leapp-insights-tasks/pkg/config"
	"github.com/oamg/leapp-insights-tasks/pkg/inventory"
	"github.com/oamg/leapp-insights-tasks/pkg/outcome"
	"github.com/oamg/leapp-insights-tasks/pkg/prereq"
	"github.com/oamg/leapp-insights-tasks/pkg/release"
	"github.com/oamg/leapp-insights-tasks/pkg/report"
	"github.com/oamg/leapp-insights-tasks/pkg/runner"
	"github.com/oamg/leapp-insights-tasks/pkg/taskerr"
)

const (
	leappPath    = "/usr/bin/leapp"
	reportSchema = "--report-schema=1.2.0"
)

// LeappCommand returns the leapp invocation for mode
func LeappCommand(mode config.Mode) []string {
	if mode == config.ModeUpgrade {
		return []string{leappPath, "upgrade", reportSchema}
	}
	return []string{leappPath, "preupgrade", reportSchema}
}

// Task runs one leapp operation
type Task struct {
	cfg       *config.Config
	runner    runner.Runner
	log       logr.Logger
	installer *prereq.Installer
	inventory *inventory.Client
}

// New creates a Task. Every log line of the run carries a generated run id.
func New(cfg *config.Config, r runner.Runner, log logr.Logger) *Task {
	log = log.WithValues("run_id", uuid.NewString())
	return &Task{
		cfg:       cfg,
		runner:    r,
		log:       log,
		installer: prereq.NewInstaller(r, log),
		inventory: inventory.NewClient(r, log),
	}
}

// Execute runs the task and prints the outcome between the sentinel lines
func (t *Task) Execute(ctx context.Context, w io.Writer) error {
	return outcome.Print(w, t.Run(ctx))
}

// Run performs the operation and always returns an outcome. Failures,
// including panics, are converted into an ERROR outcome.
func (t *Task) Run(ctx context.Context) (out *outcome.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			err := taskerr.FromPanic(r)
			t.log.Error(err, "Unexpected failure")
			out = outcome.NewFromError(err)
		}
	}()

	o, err := t.run(ctx)
	if err != nil {
		te := taskerr.Wrap(err)
		if te.Kind == taskerr.Unexpected {
			t.log.Error(err, "Unexpected failure")
		} else {
			t.log.Error(nil, te.Detail)
		}
		return outcome.NewFromError(te)
	}
	return o
}

func (t *Task) run(ctx context.Context) (*outcome.Outcome, error) {
	if err := t.cfg.Validate(); err != nil {
		return nil, err
	}
	title := t.cfg.Mode.Title()

	t.log.Info("Checking OS distribution and version ID ...")
	rel, err := release.Detect(t.cfg.Paths.OSRelease)
	if err != nil {
		t.log.Info("Couldn't read os-release", "error", err.Error())
	}
	if err := release.Check(rel); err != nil {
		return nil, err
	}

	out := outcome.New()
	command := LeappCommand(t.cfg.Mode)

	rhuiPkgs, err := t.installer.Setup(ctx, rel.VersionID)
	if err != nil {
		return nil, err
	}
	useNoRHSM, err := t.installer.ShouldUseNoRHSM(ctx, len(rhuiPkgs) > 1, &command)
	if err != nil {
		return nil, err
	}
	if useNoRHSM {
		if err := t.installer.InstallVendorPackages(ctx, rhuiPkgs); err != nil {
			return nil, err
		}
	}

	if err := t.removePreviousReports(); err != nil {
		return nil, err
	}

	t.log.Info(fmt.Sprintf("Executing %s ...", title))
	res, err := t.runner.Run(ctx, command, runner.Options{Env: t.cfg.Environ})
	if err != nil {
		return nil, err
	}
	// leapp exits non-zero on actor errors and inhibitors; the report carries the details
	t.log.V(1).Info("leapp finished", "exit_code", res.Code())
	rebootRequired := strings.Contains(res.Output, report.RebootGuidance)

	t.log.Info(fmt.Sprintf("Processing %s results ...", title))
	if err := report.Classify(t.cfg.Paths.JSONReport, t.cfg.Paths.TextReport, rebootRequired, out); err != nil {
		t.log.Error(err, "Failed to read leapp report")
	}

	t.inventory.Update(ctx, out)
	t.log.Info(fmt.Sprintf("Operation %s finished successfully.", title))

	if rebootRequired && t.cfg.Reboot && t.cfg.Mode == config.ModeUpgrade {
		if err := t.inventory.Reboot(ctx); err != nil {
			t.log.Error(err, "Failed to schedule reboot")
		}
	}
	return out, nil
}

func (t *Task) removePreviousReports() error {
	t.log.Info("Removing previous leapp reports ...")
	for _, path := range []string{t.cfg.Paths.JSONReport, t.cfg.Paths.TextReport} {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove previous report: %w", err)
		}
	}
	return nil
}

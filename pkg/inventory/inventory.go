// Package inventory notifies Red Hat Insights about the system state and
// triggers the reboot that continues an upgrade.
package inventory

import (
	"context"

	"github.com/go-logr/logr"

	"github.com/oamg/leapp-insights-tasks/pkg/outcome"
	"github.com/oamg/leapp-insights-tasks/pkg/runner"
)

// FailureSuffix is appended to the outcome message when the inventory update fails
const FailureSuffix = " Failed to update Insights Inventory."

var (
	insightsClientCommand = []string{"/usr/bin/insights-client"}
	rebootCommand         = []string{"/usr/sbin/shutdown", "-r", "1"}
)

// Client talks to the local insights-client
type Client struct {
	runner runner.Runner
	log    logr.Logger
}

// NewClient creates a new Client
func NewClient(r runner.Runner, log logr.Logger) *Client {
	return &Client{runner: r, log: log.WithName("inventory")}
}

// Update uploads the system profile. It is best effort: a failure marks out
// for attention and extends its message, but is never returned.
func (c *Client) Update(ctx context.Context, out *outcome.Outcome) {
	c.log.Info("Updating system status in Red Hat Insights.")
	res, err := c.runner.Run(ctx, insightsClientCommand, runner.Options{})
	switch {
	case err != nil:
		c.log.Error(err, "System registration failed.")
	case res.Failed():
		c.log.Info("System registration failed.", "exit_code", res.Code())
	default:
		c.log.Info("System registered with insights-client successfully.")
		return
	}
	out.Message += FailureSuffix
	out.Alert = true
}

// Reboot schedules a reboot in one minute and returns without waiting
func (c *Client) Reboot(ctx context.Context) error {
	c.log.Info("Rebooting system in 1 minute.")
	_, err := c.runner.Run(ctx, rebootCommand, runner.Options{Detach: true})
	return err
}

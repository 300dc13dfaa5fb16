// Copyright 2024 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

// Package runner executes external commands and captures their merged output.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/go-logr/logr"
)

// WaitDelay bounds how long Run keeps collecting output once a cancelled
// command has been killed
const WaitDelay = 2 * time.Second

// Options controls a single command invocation
type Options struct {
	// Env is the process environment in KEY=VALUE form. Nil inherits the parent environment.
	Env []string
	// Detach starts the process and returns immediately without waiting or collecting output
	Detach bool
	// Quiet suppresses logging of the command line
	Quiet bool
}

// Result is the outcome of a command invocation
type Result struct {
	// Output is stdout and stderr merged in arrival order
	Output string
	// ExitCode is nil when the process was detached
	ExitCode *int
}

// Failed reports whether the process exited with a non-zero code
func (r Result) Failed() bool {
	return r.ExitCode != nil && *r.ExitCode != 0
}

// Code returns the exit code, or -1 when unknown
func (r Result) Code() int {
	if r.ExitCode == nil {
		return -1
	}
	return *r.ExitCode
}

// Runner runs external commands
type Runner interface {
	Run(ctx context.Context, cmd []string, opts Options) (Result, error)
}

// ExecRunner runs commands on the local host through os/exec
type ExecRunner struct {
	log logr.Logger
}

// NewExecRunner creates a new ExecRunner
func NewExecRunner(log logr.Logger) *ExecRunner {
	return &ExecRunner{log: log.WithName("runner")}
}

// Run executes cmd. A non-zero exit is reported through Result.ExitCode, not as an error;
// an error is returned when the process could not be started or was cancelled through ctx.
func (r *ExecRunner) Run(ctx context.Context, cmd []string, opts Options) (Result, error) {
	if len(cmd) == 0 {
		return Result{}, errors.New("empty command")
	}
	if !opts.Quiet {
		r.log.Info(fmt.Sprintf("Calling command '%s'", strings.Join(cmd, " ")))
	}

	if opts.Detach {
		c := exec.Command(cmd[0], cmd[1:]...)
		c.Env = opts.Env
		if err := c.Start(); err != nil {
			return Result{}, fmt.Errorf("failed to start %s: %w", cmd[0], err)
		}
		if err := c.Process.Release(); err != nil {
			r.log.V(1).Info("failed to release detached process", "error", err.Error())
		}
		return Result{}, nil
	}

	c := exec.CommandContext(ctx, cmd[0], cmd[1:]...)
	c.Env = opts.Env
	var buf bytes.Buffer
	c.Stdout = &buf
	c.Stderr = &buf
	// leapp forks actors that inherit the output pipe; cancellation has to
	// reach all of them or Wait blocks until the last one exits
	killProcessGroup(c)
	c.WaitDelay = WaitDelay

	err := c.Run()
	return interpret(cmd[0], buf.String(), err, ctx.Err())
}

// interpret turns the outcome of a finished command into a Result. The
// context is only blamed when the command itself failed.
func interpret(name, output string, err, ctxErr error) (Result, error) {
	code := 0
	if err != nil {
		if ctxErr != nil {
			return Result{Output: output}, fmt.Errorf("%s interrupted: %w", name, ctxErr)
		}
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return Result{Output: output}, fmt.Errorf("failed to run %s: %w", name, err)
		}
		code = exitErr.ExitCode()
	}
	return Result{Output: output, ExitCode: &code}, nil
}

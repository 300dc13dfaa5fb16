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

package runner

import (
	"context"
	"strings"
	"sync"
)

// Response is a canned reply returned by Fake
type Response struct {
	Output string
	Code   int
	Err    error
	// Do runs before the response is returned, e.g. to write files the command would produce
	Do func()
}

// Call records one invocation made through Fake
type Call struct {
	Cmd  []string
	Opts Options
}

// Line returns the command line joined by spaces
func (c Call) Line() string {
	return strings.Join(c.Cmd, " ")
}

// Fake is an in-memory Runner for tests. Responses are keyed by the joined
// command line; unknown commands succeed with empty output.
type Fake struct {
	mu        sync.Mutex
	responses map[string]Response
	calls     []Call
}

// NewFake creates an empty Fake
func NewFake() *Fake {
	return &Fake{responses: make(map[string]Response)}
}

// On registers the response for a command line
func (f *Fake) On(line string, resp Response) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[line] = resp
	return f
}

// Run implements Runner
func (f *Fake) Run(_ context.Context, cmd []string, opts Options) (Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Cmd: append([]string(nil), cmd...), Opts: opts})
	if opts.Detach {
		return Result{}, nil
	}
	resp := f.responses[strings.Join(cmd, " ")]
	if resp.Do != nil {
		resp.Do()
	}
	if resp.Err != nil {
		return Result{}, resp.Err
	}
	code := resp.Code
	return Result{Output: resp.Output, ExitCode: &code}, nil
}

// Calls returns a copy of the recorded invocations
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Count returns how many times line was invoked
func (f *Fake) Count(line string) int {
	n := 0
	for _, c := range f.Calls() {
		if c.Line() == line {
			n++
		}
	}
	return n
}

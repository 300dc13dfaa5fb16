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

// Package prereq installs the leapp tooling and decides how leapp reaches
// package repositories.
package prereq

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-logr/logr"

	"github.com/oamg/leapp-insights-tasks/pkg/runner"
	"github.com/oamg/leapp-insights-tasks/pkg/taskerr"
)

const (
	rpmPath                 = "/usr/bin/rpm"
	yumPath                 = "/usr/bin/yum"
	subscriptionManagerPath = "/usr/sbin/subscription-manager"
)

// Output fragments of "subscription-manager repos --list-enabled" meaning
// the subscription channel cannot serve packages.
var rhsmUnusableMarkers = []string{
	"This system has no repositories available through subscriptions.",
	"Repositories disabled by configuration.",
}

// Installer prepares the host for a leapp run
type Installer struct {
	runner runner.Runner
	log    logr.Logger
}

// NewInstaller creates a new Installer
func NewInstaller(r runner.Runner, log logr.Logger) *Installer {
	return &Installer{runner: r, log: log.WithName("prereq")}
}

// IsInstalled queries the package database for pkg
func (i *Installer) IsInstalled(ctx context.Context, pkg string) (bool, error) {
	res, err := i.runner.Run(ctx, []string{rpmPath, "-q", pkg}, runner.Options{})
	if err != nil {
		return false, fmt.Errorf("failed to query package %s: %w", pkg, err)
	}
	return res.Code() == 0, nil
}

// Setup installs leapp-upgrade when missing and returns the RHUI vendor
// clients installed on the host.
func (i *Installer) Setup(ctx context.Context, version string) ([]RHUIPackage, error) {
	catalog, ok := CatalogFor(version)
	if !ok {
		return nil, fmt.Errorf("no package catalog for version %q", version)
	}

	installed, err := i.IsInstalled(ctx, LeappPackage)
	if err != nil {
		return nil, err
	}
	if installed {
		i.log.Info(fmt.Sprintf("'%s' already installed, skipping ...", LeappPackage))
	} else {
		i.log.Info("Installing leapp ...")
		res, err := i.runner.Run(ctx, catalog.InstallCommand, runner.Options{})
		if err != nil {
			return nil, err
		}
		if res.Failed() {
			return nil, taskerr.Installation(
				"Installation of leapp failed",
				fmt.Sprintf("Installation of leapp failed with code '%d' and output: %s.",
					res.Code(), strings.TrimRight(res.Output, "\n")),
			)
		}
	}

	i.log.Info("Check installed rhui packages ...")
	var found []RHUIPackage
	for _, pkg := range catalog.RHUIPackages {
		ok, err := i.IsInstalled(ctx, pkg.SourcePackage)
		if err != nil {
			return nil, err
		}
		if ok {
			found = append(found, pkg)
		}
	}
	return found, nil
}

// ShouldUseNoRHSM decides whether leapp must bypass the subscription channel.
//
// The subscription channel is unusable when subscription-manager is not
// installed or when its enabled repository listing reports no usable
// repositories. When rhuiInstalled is true and the channel is unusable,
// NoRHSMFlag is appended to *command and true is returned. Otherwise
// *command is left untouched.
func (i *Installer) ShouldUseNoRHSM(ctx context.Context, rhuiInstalled bool, command *[]string) (bool, error) {
	i.log.Info("Checking if subscription manager and repositories are available ...")

	unusable := true
	installed, err := i.IsInstalled(ctx, SubscriptionManagerPackage)
	if err != nil {
		return false, err
	}
	if installed {
		res, err := i.runner.Run(ctx, []string{subscriptionManagerPath, "repos", "--list-enabled"}, runner.Options{})
		if err != nil {
			return false, fmt.Errorf("failed to list enabled repositories: %w", err)
		}
		unusable = false
		for _, marker := range rhsmUnusableMarkers {
			if strings.Contains(res.Output, marker) {
				unusable = true
				break
			}
		}
	}

	if rhuiInstalled && unusable {
		i.log.Info(fmt.Sprintf("RHUI packages detected, adding %s flag to leapp command", NoRHSMFlag))
		*command = append(*command, NoRHSMFlag)
		return true, nil
	}
	return false, nil
}

// InstallVendorPackages installs the leapp package paired with every detected
// RHUI client. The first failure aborts.
func (i *Installer) InstallVendorPackages(ctx context.Context, pkgs []RHUIPackage) error {
	i.log.Info("Installing leapp package corresponding to installed rhui packages")
	for _, pkg := range pkgs {
		res, err := i.runner.Run(ctx, []string{yumPath, "install", "-y", pkg.LeappPackage}, runner.Options{})
		if err != nil {
			return err
		}
		if res.Failed() {
			return taskerr.Installation(
				fmt.Sprintf("Installation of %s (corresponding pkg to '%s') failed", pkg.LeappPackage, pkg.SourcePackage),
				fmt.Sprintf("Installation of %s (corresponding pkg to '%s') failed with exit code %d and output: %s.",
					pkg.LeappPackage, pkg.SourcePackage, res.Code(), strings.TrimRight(res.Output, "\n")),
			)
		}
	}
	return nil
}

// Package release detects the running OS release and decides whether it is
// eligible for an in-place upgrade.
package release

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/oamg/leapp-insights-tasks/pkg/taskerr"
)

// DefaultOSReleasePath is the os-release file read by Detect
const DefaultOSReleasePath = "/etc/os-release"

// SupportedDistribution is the only distribution id accepted
const SupportedDistribution = "rhel"

// AllowedMajors lists the major versions an upgrade can start from
var AllowedMajors = []string{"7", "8"}

// Release identifies the running OS
type Release struct {
	ID        string
	VersionID string
}

// Major returns the major component of VersionID, or "" when it cannot be parsed
func (r Release) Major() string {
	return major(r.VersionID)
}

// Detect parses the ID and VERSION_ID keys of an os-release file.
// Missing keys are returned as empty strings.
func Detect(path string) (Release, error) {
	f, err := os.Open(path)
	if err != nil {
		return Release{}, fmt.Errorf("couldn't read %s: %w", path, err)
	}
	defer f.Close()

	var rel Release
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "ID="):
			rel.ID = unquote(strings.TrimPrefix(line, "ID="))
		case strings.HasPrefix(line, "VERSION_ID="):
			rel.VersionID = unquote(strings.TrimPrefix(line, "VERSION_ID="))
		}
	}
	if err := scanner.Err(); err != nil {
		return rel, fmt.Errorf("couldn't read %s: %w", path, err)
	}
	return rel, nil
}

func unquote(v string) string {
	return strings.Trim(strings.TrimSpace(v), `"'`)
}

// major extracts the major version from a "major.minor[.patch]" string.
// Strings without a "." separator are rejected.
func major(version string) string {
	if !strings.Contains(version, ".") {
		return ""
	}
	v := "v" + strings.TrimPrefix(version, "v")
	if !semver.IsValid(v) {
		return ""
	}
	return strings.TrimPrefix(semver.Major(v), "v")
}

// IsNonEligible reports whether version is outside the allowed major versions.
// Empty or unparsable versions are ineligible.
func IsNonEligible(version string) bool {
	m := major(version)
	if m == "" {
		return true
	}
	for _, allowed := range AllowedMajors {
		if m == allowed {
			return false
		}
	}
	return true
}

// Check returns an IneligibleSystem error unless rel is a supported RHEL release
func Check(rel Release) error {
	if rel.ID == SupportedDistribution && !IsNonEligible(rel.VersionID) {
		return nil
	}
	return taskerr.Ineligible(
		fmt.Sprintf("In-place upgrades are supported only on RHEL %s.", strings.Join(AllowedMajors, ",")),
		fmt.Sprintf("Exiting because distribution=%q and version=%q", rel.ID, rel.VersionID),
	)
}

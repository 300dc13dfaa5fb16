package prereq

import "strings"

// LeappPackage is the package providing the leapp upgrade tooling
const LeappPackage = "leapp-upgrade"

// SubscriptionManagerPackage provides the primary subscription channel
const SubscriptionManagerPackage = "subscription-manager"

// NoRHSMFlag disables the subscription channel for a leapp run
const NoRHSMFlag = "--no-rhsm"

// RHUIPackage pairs a cloud vendor repository client with the leapp package
// that teaches leapp about that vendor's repositories.
type RHUIPackage struct {
	SourcePackage string `json:"src_pkg"`
	LeappPackage  string `json:"leapp_pkg"`
}

// Catalog holds the per-major-version install command and RHUI client table
type Catalog struct {
	InstallCommand []string
	RHUIPackages   []RHUIPackage
}

var rhel7Catalog = Catalog{
	InstallCommand: []string{
		"/usr/bin/yum", "install", LeappPackage, "-y",
		"--enablerepo=rhel-7-server-extras-rpms",
	},
	RHUIPackages: []RHUIPackage{
		{SourcePackage: "rh-amazon-rhui-client", LeappPackage: "leapp-rhui-aws"},
		{SourcePackage: "rh-amazon-rhui-client-sap-bundle", LeappPackage: "leapp-rhui-aws-sap-e4s"},
		{SourcePackage: "rhui-azure-rhel7", LeappPackage: "leapp-rhui-azure"},
		{SourcePackage: "rhui-azure-rhel7-base-sap-apps", LeappPackage: "leapp-rhui-azure-sap"},
		{SourcePackage: "rhui-azure-rhel7-base-sap-ha", LeappPackage: "leapp-rhui-azure-sap"},
		{SourcePackage: "google-rhui-client-rhel7", LeappPackage: "leapp-rhui-google"},
		{SourcePackage: "google-rhui-client-rhel79-sap", LeappPackage: "leapp-rhui-google-sap"},
	},
}

var rhel8Catalog = Catalog{
	InstallCommand: []string{"/usr/bin/dnf", "install", LeappPackage, "-y"},
	RHUIPackages: []RHUIPackage{
		{SourcePackage: "rh-amazon-rhui-client", LeappPackage: "leapp-rhui-aws"},
		{SourcePackage: "rh-amazon-rhui-client-sap-bundle-e4s", LeappPackage: "leapp-rhui-aws-sap-e4s"},
		{SourcePackage: "rhui-azure-rhel8", LeappPackage: "leapp-rhui-azure"},
		{SourcePackage: "rhui-azure-rhel8-eus", LeappPackage: "leapp-rhui-azure-eus"},
		{SourcePackage: "rhui-azure-rhel8-sap-ha", LeappPackage: "leapp-rhui-azure-sap"},
		{SourcePackage: "rhui-azure-rhel8-sapapps", LeappPackage: "leapp-rhui-azure-sap"},
		{SourcePackage: "google-rhui-client-rhel8", LeappPackage: "leapp-rhui-google"},
		{SourcePackage: "google-rhui-client-rhel8-sap", LeappPackage: "leapp-rhui-google-sap"},
	},
}

// CatalogFor returns a copy of the catalog matching the major version of version
func CatalogFor(version string) (Catalog, bool) {
	var c Catalog
	switch {
	case strings.HasPrefix(version, "7"):
		c = rhel7Catalog
	case strings.HasPrefix(version, "8"):
		c = rhel8Catalog
	default:
		return Catalog{}, false
	}
	return Catalog{
		InstallCommand: append([]string(nil), c.InstallCommand...),
		RHUIPackages:   append([]RHUIPackage(nil), c.RHUIPackages...),
	}, true
}

// Package config builds the run configuration from the worker environment
// and an optional TOML file.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/oamg/leapp-insights-tasks/pkg/taskerr"
)

// Environment variables set by rhc-worker-script
const (
	EnvPrefix     = "RHC_WORKER_"
	EnvScriptType = EnvPrefix + "LEAPP_SCRIPT_TYPE"
	EnvLogLevel   = EnvPrefix + "LOG_LEVEL"
	// EnvConfigFile points to a TOML file overriding the default paths
	EnvConfigFile = "LEAPP_INSIGHTS_TASKS_CONFIG"
)

// Mode selects the leapp operation
type Mode string

const (
	ModePreupgrade Mode = "PREUPGRADE"
	ModeUpgrade    Mode = "UPGRADE"
)

// Valid reports whether m is a known mode
func (m Mode) Valid() bool {
	return m == ModePreupgrade || m == ModeUpgrade
}

// Title returns the mode name for log messages, e.g. "Preupgrade"
func (m Mode) Title() string {
	s := strings.ToLower(string(m))
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Slug returns the lowercase mode used in file names. Anything that is not
// an upgrade is named after the pre-upgrade.
func (m Mode) Slug() string {
	if m == ModeUpgrade {
		return "upgrade"
	}
	return "preupgrade"
}

// Paths groups the file system locations used by a run
type Paths struct {
	JSONReport string `toml:"json_report"`
	TextReport string `toml:"text_report"`
	LogDir     string `toml:"log_dir"`
	SOSDir     string `toml:"sos_dir"`
	OSRelease  string `toml:"os_release"`
}

// DefaultPaths returns the locations used on a RHEL host
func DefaultPaths() Paths {
	return Paths{
		JSONReport: "/var/log/leapp/leapp-report.json",
		TextReport: "/var/log/leapp/leapp-report.txt",
		LogDir:     "/var/log/leapp-insights-tasks",
		SOSDir:     "/etc/sos.extras.d",
		OSRelease:  "/etc/os-release",
	}
}

// Config is built once at process entry and passed to every component
type Config struct {
	Mode     Mode   `toml:"-"`
	LogLevel string `toml:"-"`
	// Environ is the environment handed to leapp, with the worker prefix stripped
	Environ []string `toml:"-"`

	Paths Paths `toml:"paths"`
	// Reboot triggers a delayed reboot when leapp asks for one after an upgrade
	Reboot bool `toml:"reboot"`
}

// Load builds a Config from environ (KEY=VALUE pairs) and, when file is not
// empty, a TOML file. The file may only override paths and the reboot toggle.
func Load(environ []string, file string) (*Config, error) {
	cfg := &Config{Paths: DefaultPaths()}

	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", file, err)
		}
	}

	env := toMap(environ)
	cfg.Mode = Mode(env[EnvScriptType])
	if _, ok := env[EnvScriptType]; !ok {
		cfg.Mode = "None"
	}
	cfg.LogLevel = strings.ToUpper(env[EnvLogLevel])
	if cfg.LogLevel == "" {
		cfg.LogLevel = "INFO"
	}
	cfg.Environ = StripPrefix(environ)
	return cfg, nil
}

// Validate returns a ConfigurationError when the mode selector is invalid
func (c *Config) Validate() error {
	if c.Mode.Valid() {
		return nil
	}
	return taskerr.Configuration(
		fmt.Sprintf("Allowed values for %s are '%s' and '%s'.", EnvScriptType, ModePreupgrade, ModeUpgrade),
		fmt.Sprintf("Exiting because %s='%s'", EnvScriptType, c.Mode),
	)
}

// LogFilename returns the log file name for the configured mode
func (c *Config) LogFilename() string {
	return fmt.Sprintf("leapp-insights-tasks-%s.log", c.Mode.Slug())
}

// StripPrefix removes every occurrence of EnvPrefix from variable names.
// When two variables collide after stripping, the later one wins.
func StripPrefix(environ []string) []string {
	index := make(map[string]int, len(environ))
	out := make([]string, 0, len(environ))
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		if strings.HasPrefix(key, EnvPrefix) {
			key = strings.ReplaceAll(key, EnvPrefix, "")
		}
		entry := key + "=" + value
		if i, seen := index[key]; seen {
			out[i] = entry
			continue
		}
		index[key] = len(out)
		out = append(out, entry)
	}
	return out
}

func toMap(environ []string) map[string]string {
	m := make(map[string]string, len(environ))
	for _, kv := range environ {
		if key, value, ok := strings.Cut(kv, "="); ok {
			m[key] = value
		}
	}
	return m
}

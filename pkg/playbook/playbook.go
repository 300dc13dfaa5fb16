// Package playbook wraps a launcher script into the YAML envelope consumed by
// rhc-worker-script.
package playbook

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/oamg/leapp-insights-tasks/pkg/config"
)

const (
	// SignaturePlaceholder is replaced by the signing service
	SignaturePlaceholder = "needs signature"
	// SignatureExclude is the path excluded from the signed content
	SignatureExclude = "/vars/insights_signature"
	// DefaultInterpreter runs the launcher script
	DefaultInterpreter = "/bin/sh"
	// DefaultBinary is where the leapp-task binary is installed
	DefaultBinary = "/usr/bin/leapp-task"
	// ScriptTypeVar is exported to the script with the worker prefix
	ScriptTypeVar = "LEAPP_SCRIPT_TYPE"
)

// Vars is the vars section of a playbook
type Vars struct {
	InsightsSignature        yaml.Node         `yaml:"insights_signature"`
	InsightsSignatureExclude string            `yaml:"insights_signature_exclude"`
	Interpreter              string            `yaml:"interpreter"`
	Content                  string            `yaml:"content"`
	ContentVars              map[string]string `yaml:"content_vars"`
}

// Playbook is one play of the envelope
type Playbook struct {
	Name string `yaml:"name"`
	Vars Vars   `yaml:"vars"`
}

// Name returns the play name for mode
func Name(mode config.Mode) string {
	if mode == config.ModeUpgrade {
		return "Leapp upgrade for rhc-worker-script"
	}
	return "Leapp pre-upgrade for rhc-worker-script"
}

// DefaultScript returns a launcher running the binary at path
func DefaultScript(path string) string {
	return fmt.Sprintf("#!/bin/sh\nexec %s run\n", path)
}

// Envelope builds the play running script in mode
func Envelope(mode config.Mode, script string) (*Playbook, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("invalid mode %q", mode)
	}
	return &Playbook{
		Name: Name(mode),
		Vars: Vars{
			InsightsSignature: yaml.Node{
				Kind:  yaml.ScalarNode,
				Tag:   "!!binary",
				Style: yaml.LiteralStyle,
				Value: SignaturePlaceholder + "\n",
			},
			InsightsSignatureExclude: SignatureExclude,
			Interpreter:              DefaultInterpreter,
			Content:                  script,
			ContentVars:              map[string]string{ScriptTypeVar: string(mode)},
		},
	}, nil
}

// EnvelopeFromFile builds the play running the script stored at path
func EnvelopeFromFile(mode config.Mode, path string) (*Playbook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return Envelope(mode, string(data))
}

// Write encodes the envelope as a single element YAML list
func Write(w io.Writer, p *Playbook) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode([]*Playbook{p}); err != nil {
		return fmt.Errorf("failed to encode playbook: %w", err)
	}
	return enc.Close()
}

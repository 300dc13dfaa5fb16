package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/oamg/leapp-insights-tasks/pkg/outcome"
)

// Default locations of the reports written by leapp
const (
	DefaultJSONPath = "/var/log/leapp/leapp-report.json"
	DefaultTextPath = "/var/log/leapp/leapp-report.txt"
)

// RebootGuidance is printed by leapp when the upgrade continues after a reboot
const RebootGuidance = "A reboot is required to continue. Please reboot your system."

// Summary messages
const (
	MessageReady   = "No problems found. The system is ready for upgrade."
	MessageWarning = "The upgrade can proceed. However, there is one or more warnings about issues that might occur after the upgrade."
	MessageReboot  = "No problems found. Please reboot the system at your earliest convenience " +
		"to continue with the upgrade process. " +
		"After reboot check inventory to verify the system is registered with new RHEL major version."
)

// severityRank orders severities, based on leapp report-schema-v110.json
var severityRank = map[Severity]int{
	SeverityInhibitor: 4,
	SeverityHigh:      3,
	SeverityMedium:    2,
	SeverityLow:       1,
	SeverityInfo:      0,
}

var severityStatus = map[Severity]outcome.Status{
	SeverityInhibitor: outcome.StatusError,
	SeverityHigh:      outcome.StatusError,
	SeverityMedium:    outcome.StatusWarning,
	SeverityLow:       outcome.StatusWarning,
	SeverityInfo:      outcome.StatusInfo,
}

// Summary aggregates the findings of a report
type Summary struct {
	Total      int
	Inhibitors int
	Errors     int
	BySeverity map[Severity]int
	Status     outcome.Status
	Message    string
}

// Blocking returns the number of findings preventing the upgrade
func (s Summary) Blocking() int {
	return s.Inhibitors + s.Errors
}

// Load reads and parses a leapp JSON report
func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if r.raw == nil {
		return nil, fmt.Errorf("failed to parse %s: report is not a JSON object", path)
	}
	return &r, nil
}

// Normalize rewrites the severity of findings tagged with the error or
// inhibitor group to inhibitor.
func Normalize(r *Report) {
	for i := range r.Entries {
		r.Entries[i].Severity = r.Entries[i].EffectiveSeverity()
	}
}

// HighestStatus maps the most severe known severity of findings to a status.
// Unknown severities are ignored; when none is known WARNING is returned.
func HighestStatus(findings []Finding) outcome.Status {
	best := -1
	var bestSeverity Severity
	for _, f := range findings {
		sev := f.EffectiveSeverity()
		rank, ok := severityRank[sev]
		if !ok {
			continue
		}
		if rank > best {
			best = rank
			bestSeverity = sev
		}
	}
	if best < 0 {
		return outcome.StatusWarning
	}
	return severityStatus[bestSeverity]
}

// Summarize counts the findings of r and derives status and message.
// Error-group findings and inhibitors are counted separately and a finding
// is counted at most once.
func Summarize(r *Report, rebootRequired bool) Summary {
	s := Summary{BySeverity: make(map[Severity]int)}
	if r != nil {
		s.Total = len(r.Entries)
		for _, f := range r.Entries {
			s.BySeverity[f.EffectiveSeverity()]++
			switch {
			case f.IsError():
				s.Errors++
			case f.IsInhibitor():
				s.Inhibitors++
			}
		}
	}

	switch {
	case s.Total == 0:
		s.Status = outcome.StatusSuccess
	case s.Blocking() == 0:
		s.Status = HighestStatus(r.Entries)
	default:
		s.Status = outcome.StatusError
	}

	blocking := s.Blocking()
	switch {
	case rebootRequired && blocking == 0:
		s.Message = MessageReboot
	case blocking == 0 && s.Total == 0:
		s.Message = MessageReady
	case blocking == 0:
		s.Message = MessageWarning
	default:
		s.Message = fmt.Sprintf(
			"The upgrade cannot proceed. Your system has %d inhibitor%s out of %d potential problem%s.",
			blocking, plural(blocking), s.Total, plural(s.Total),
		)
	}
	return s
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// Classify reads the leapp reports and records the classification in out.
//
// A missing JSON report is not an error: out is set to an ERROR status with
// the report marked as not found. A JSON report that cannot be read or parsed
// yields the same ERROR outcome and the cause is returned.
func Classify(jsonPath, textPath string, rebootRequired bool, out *outcome.Outcome) error {
	var classifyErr error

	r, err := Load(jsonPath)
	switch {
	case err == nil:
		Normalize(r)
		s := Summarize(r, rebootRequired)
		out.Status = s.Status
		out.Alert = s.Blocking() > 0
		out.Message = s.Message
		out.ReportJSON = r
	case errors.Is(err, fs.ErrNotExist):
		markUnreadable(out, "Can't open json report at "+jsonPath)
	case errors.As(err, new(*fs.PathError)):
		markUnreadable(out, "Can't open json report at "+jsonPath)
		classifyErr = err
	default:
		markUnreadable(out, "Can't parse json report at "+jsonPath)
		classifyErr = err
	}

	text, err := os.ReadFile(textPath)
	switch {
	case err == nil:
		out.Report = string(text)
	case errors.Is(err, fs.ErrNotExist):
		out.Report = outcome.NotFound
	default:
		out.Report = outcome.NotFound
		classifyErr = errors.Join(classifyErr, err)
	}
	return classifyErr
}

func markUnreadable(out *outcome.Outcome, message string) {
	out.ReportJSON = outcome.NotFound
	out.Message = message
	out.Alert = true
	out.Status = outcome.StatusError
}

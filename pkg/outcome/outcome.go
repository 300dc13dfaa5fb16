// Package outcome defines the result record relayed to the management platform
// and the way it is printed for the invoking worker.
package outcome

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/oamg/leapp-insights-tasks/pkg/taskerr"
)

// Status is the overall result of a run
type Status string

const (
	StatusUnset   Status = ""
	StatusSuccess Status = "SUCCESS"
	StatusInfo    Status = "INFO"
	StatusWarning Status = "WARNING"
	StatusError   Status = "ERROR"
)

const (
	// TasksFormatVersion identifies the payload schema version
	TasksFormatVersion = "1.0"
	// TasksFormatID identifies the payload schema family
	TasksFormatID = "oamg-format"
	// NotFound is the placeholder used when a report file is missing
	NotFound = "Not found"
)

// Sentinel lines bounding the JSON payload on stdout
const (
	JSONStartMarker = "### JSON START ###"
	JSONEndMarker   = "### JSON END ###"
)

// Outcome is the result record of a run. It is created at the start of a run
// and mutated in place until it is printed.
type Outcome struct {
	Status Status
	// Alert is true when user attention is warranted
	Alert bool
	// Error is reserved and currently always false
	Error   bool
	Message string
	// Report is the plain text leapp report or NotFound
	Report string
	// ReportJSON is the parsed leapp report, NotFound, or nil
	ReportJSON any
	// Entries, when non-empty, replaces ReportJSON by a versioned wrapper
	Entries []any

	TasksFormatVersion string
	TasksFormatID      string
}

// New creates an Outcome with unset status
func New() *Outcome {
	return &Outcome{
		TasksFormatVersion: TasksFormatVersion,
		TasksFormatID:      TasksFormatID,
	}
}

// NewFromError creates a terminal ERROR outcome describing err
func NewFromError(err error) *Outcome {
	te := taskerr.Wrap(err)
	if te == nil {
		te = taskerr.Wrap(errors.New("unknown failure"))
	}
	o := New()
	o.Status = StatusError
	o.Alert = true
	o.Message = te.UserMessage
	o.Report = te.Detail
	return o
}

// EntriesWrapper is the report_json shape used when entries are populated
type EntriesWrapper struct {
	TasksFormatVersion string `json:"tasks_format_version"`
	TasksFormatID      string `json:"tasks_format_id"`
	Entries            []any  `json:"entries"`
}

type payload struct {
	Status     Status `json:"status"`
	Alert      bool   `json:"alert"`
	Error      bool   `json:"error"`
	Message    string `json:"message"`
	Report     string `json:"report"`
	ReportJSON any    `json:"report_json"`
}

// MarshalJSON renders the fixed payload field set
func (o *Outcome) MarshalJSON() ([]byte, error) {
	p := payload{
		Status:     o.Status,
		Alert:      o.Alert,
		Error:      o.Error,
		Message:    o.Message,
		Report:     o.Report,
		ReportJSON: o.ReportJSON,
	}
	if len(o.Entries) > 0 {
		version, id := o.TasksFormatVersion, o.TasksFormatID
		if version == "" {
			version = TasksFormatVersion
		}
		if id == "" {
			id = TasksFormatID
		}
		p.ReportJSON = EntriesWrapper{
			TasksFormatVersion: version,
			TasksFormatID:      id,
			Entries:            o.Entries,
		}
	}
	return json.Marshal(p)
}

// Print writes the payload between the sentinel lines
func Print(w io.Writer, o *Outcome) error {
	data, err := json.MarshalIndent(o, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal outcome: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n%s\n%s\n", JSONStartMarker, data, JSONEndMarker)
	return err
}

// Extract returns the JSON block found between the sentinel lines of a log stream
func Extract(stream string) (string, bool) {
	start := indexLine(stream, JSONStartMarker, 0)
	if start < 0 {
		return "", false
	}
	body := start + len(JSONStartMarker) + 1
	end := indexLine(stream, JSONEndMarker, body)
	if end < 0 {
		return "", false
	}
	return stream[body:end], true
}

func indexLine(s, line string, from int) int {
	for i := from; i+len(line) <= len(s); i++ {
		if s[i:i+len(line)] != line {
			continue
		}
		if (i == 0 || s[i-1] == '\n') && (i+len(line) == len(s) || s[i+len(line)] == '\n') {
			return i
		}
	}
	return -1
}

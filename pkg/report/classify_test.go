package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oamg/leapp-insights-tasks/pkg/outcome"
)

func writeReports(t *testing.T, jsonContent, textContent string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "leapp-report.json")
	textPath := filepath.Join(dir, "leapp-report.txt")
	if jsonContent != "" {
		require.NoError(t, os.WriteFile(jsonPath, []byte(jsonContent), 0o644))
	}
	if textContent != "" {
		require.NoError(t, os.WriteFile(textPath, []byte(textContent), 0o644))
	}
	return jsonPath, textPath
}

func findings(t *testing.T, entries string) []Finding {
	t.Helper()
	var r Report
	require.NoError(t, json.Unmarshal([]byte(`{"entries": `+entries+`}`), &r))
	return r.Entries
}

func TestClassify_MissingReport(t *testing.T) {
	jsonPath, textPath := writeReports(t, "", "")
	out := outcome.New()

	require.NoError(t, Classify(jsonPath, textPath, false, out))
	assert.Equal(t, outcome.StatusError, out.Status)
	assert.True(t, out.Alert)
	assert.Equal(t, outcome.NotFound, out.ReportJSON)
	assert.Equal(t, "Can't open json report at "+jsonPath, out.Message)
	assert.Equal(t, outcome.NotFound, out.Report)
}

func TestClassify_NoFindings(t *testing.T) {
	jsonPath, textPath := writeReports(t, `{"entries": []}`, "Risk Factor: none\n")
	out := outcome.New()

	require.NoError(t, Classify(jsonPath, textPath, false, out))
	assert.Equal(t, outcome.StatusSuccess, out.Status)
	assert.False(t, out.Alert)
	assert.Equal(t, MessageReady, out.Message)
	assert.Equal(t, "Risk Factor: none\n", out.Report)
	assert.IsType(t, &Report{}, out.ReportJSON)
}

func TestClassify_ErrorGroupReclassified(t *testing.T) {
	jsonPath, textPath := writeReports(t, `{"entries": [{"groups": ["error"], "severity": "high"}]}`, "")
	out := outcome.New()

	require.NoError(t, Classify(jsonPath, textPath, false, out))
	assert.Equal(t, outcome.StatusError, out.Status)
	assert.True(t, out.Alert)
	assert.Equal(t, "The upgrade cannot proceed. Your system has 1 inhibitor out of 1 potential problem.", out.Message)
	assert.Equal(t, outcome.NotFound, out.Report)

	data, err := json.Marshal(out)
	require.NoError(t, err)
	var payload struct {
		ReportJSON struct {
			Entries []map[string]any `json:"entries"`
		} `json:"report_json"`
	}
	require.NoError(t, json.Unmarshal(data, &payload))
	require.Len(t, payload.ReportJSON.Entries, 1)
	assert.Equal(t, "inhibitor", payload.ReportJSON.Entries[0]["severity"])
}

func TestClassify_RebootRequired(t *testing.T) {
	jsonPath, textPath := writeReports(t, `{"entries": []}`, "")
	out := outcome.New()

	require.NoError(t, Classify(jsonPath, textPath, true, out))
	assert.Equal(t, outcome.StatusSuccess, out.Status)
	assert.False(t, out.Alert)
	assert.Equal(t, MessageReboot, out.Message)
}

func TestClassify_RebootIgnoredWhenBlocked(t *testing.T) {
	jsonPath, textPath := writeReports(t, `{"entries": [{"groups": ["inhibitor"], "severity": "info"}]}`, "")
	out := outcome.New()

	require.NoError(t, Classify(jsonPath, textPath, true, out))
	assert.Equal(t, outcome.StatusError, out.Status)
	assert.Contains(t, out.Message, "The upgrade cannot proceed.")
}

func TestClassify_MalformedJSON(t *testing.T) {
	for _, content := range []string{`{"entries": [`, `[1, 2]`, `null`, `{"entries": [{"groups": "error"}]}`, `{"entries": [null]}`, `{"entries": [{"title": "t"}, null]}`} {
		t.Run(content, func(t *testing.T) {
			jsonPath, textPath := writeReports(t, content, "")
			out := outcome.New()

			err := Classify(jsonPath, textPath, false, out)
			assert.Error(t, err)
			assert.Equal(t, outcome.StatusError, out.Status)
			assert.True(t, out.Alert)
			assert.Equal(t, outcome.NotFound, out.ReportJSON)
			assert.Equal(t, "Can't parse json report at "+jsonPath, out.Message)
		})
	}
}

func TestClassify_PreservesUnknownKeys(t *testing.T) {
	jsonPath, textPath := writeReports(t, `{
		"leapp_run_id": "abc",
		"entries": [{"key": "k1", "title": "t", "severity": "low", "groups": ["network"], "detail": {"remediations": []}}]
	}`, "")
	out := outcome.New()
	require.NoError(t, Classify(jsonPath, textPath, false, out))

	data, err := json.Marshal(out.ReportJSON)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"leapp_run_id": "abc",
		"entries": [{"key": "k1", "title": "t", "severity": "low", "groups": ["network"], "detail": {"remediations": []}}]
	}`, string(data))
	assert.Equal(t, outcome.StatusWarning, out.Status)
	assert.False(t, out.Alert)
	assert.Equal(t, MessageWarning, out.Message)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		entries  string
		expected []Severity
	}{
		{"error group", `[{"groups": ["error"], "severity": "low"}]`, []Severity{SeverityInhibitor}},
		{"inhibitor group", `[{"groups": ["inhibitor", "kernel"], "severity": "info"}]`, []Severity{SeverityInhibitor}},
		{"no severity", `[{"groups": ["error"]}]`, []Severity{SeverityInhibitor}},
		{"untouched", `[{"groups": ["kernel"], "severity": "medium"}, {"severity": "high"}]`, []Severity{SeverityMedium, SeverityHigh}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Report{Entries: findings(t, tt.entries)}
			Normalize(r)
			var got []Severity
			for _, f := range r.Entries {
				got = append(got, f.Severity)
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestHighestStatus(t *testing.T) {
	tests := []struct {
		name     string
		entries  string
		expected outcome.Status
	}{
		{"high and info", `[{"severity": "high"}, {"severity": "info"}]`, outcome.StatusError},
		{"info only", `[{"severity": "info"}]`, outcome.StatusInfo},
		{"medium and info", `[{"severity": "medium"}, {"severity": "info"}]`, outcome.StatusWarning},
		{"low only", `[{"severity": "low"}]`, outcome.StatusWarning},
		{"unknown ignored", `[{"severity": "medium"}, {"severity": "foo"}]`, outcome.StatusWarning},
		{"unknown ignored with info", `[{"severity": "foo"}, {"severity": "info"}]`, outcome.StatusInfo},
		{"only unknown", `[{"severity": "foo"}, {}]`, outcome.StatusWarning},
		{"reclassified", `[{"severity": "info", "groups": ["inhibitor"]}]`, outcome.StatusError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HighestStatus(findings(t, tt.entries)))
		})
	}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name       string
		entries    string
		inhibitors int
		errors     int
		status     outcome.Status
		message    string
	}{
		{
			name:    "no findings",
			entries: `[]`,
			status:  outcome.StatusSuccess,
			message: MessageReady,
		},
		{
			name:    "advisory only",
			entries: `[{"severity": "info"}, {"severity": "low"}]`,
			status:  outcome.StatusWarning,
			message: MessageWarning,
		},
		{
			name:    "high severity without groups",
			entries: `[{"severity": "high"}]`,
			status:  outcome.StatusError,
			message: MessageWarning,
		},
		{
			name:       "one inhibitor",
			entries:    `[{"groups": ["inhibitor"], "severity": "high"}, {"severity": "info"}]`,
			inhibitors: 1,
			status:     outcome.StatusError,
			message:    "The upgrade cannot proceed. Your system has 1 inhibitor out of 2 potential problems.",
		},
		{
			name:       "inhibitor and error counted together",
			entries:    `[{"groups": ["inhibitor"]}, {"groups": ["error"]}, {"severity": "low"}]`,
			inhibitors: 1,
			errors:     1,
			status:     outcome.StatusError,
			message:    "The upgrade cannot proceed. Your system has 2 inhibitors out of 3 potential problems.",
		},
		{
			name:    "finding in both groups counted once",
			entries: `[{"groups": ["inhibitor", "error"]}]`,
			errors:  1,
			status:  outcome.StatusError,
			message: "The upgrade cannot proceed. Your system has 1 inhibitor out of 1 potential problem.",
		},
		{
			name:       "raw inhibitor severity",
			entries:    `[{"severity": "inhibitor"}]`,
			inhibitors: 1,
			status:     outcome.StatusError,
			message:    "The upgrade cannot proceed. Your system has 1 inhibitor out of 1 potential problem.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Report{Entries: findings(t, tt.entries)}
			Normalize(r)
			s := Summarize(r, false)
			assert.Equal(t, tt.inhibitors, s.Inhibitors)
			assert.Equal(t, tt.errors, s.Errors)
			assert.Equal(t, tt.status, s.Status)
			assert.Equal(t, tt.message, s.Message)
		})
	}
}

func TestSummarize_Pluralization(t *testing.T) {
	for blocking, noun := range map[int]string{1: "inhibitor ", 2: "inhibitors ", 5: "inhibitors "} {
		entries := make([]Finding, blocking)
		for i := range entries {
			entries[i] = Finding{Groups: []string{GroupInhibitor}}
		}
		s := Summarize(&Report{Entries: entries}, false)
		assert.Contains(t, s.Message, noun)
		assert.True(t, s.Blocking() == blocking)
	}

	s := Summarize(&Report{}, false)
	assert.Zero(t, s.Blocking())
	assert.Equal(t, MessageReady, s.Message)
	assert.Equal(t, outcome.StatusSuccess, Summarize(nil, false).Status)
}

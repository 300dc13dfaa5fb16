package outcome

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oamg/leapp-insights-tasks/pkg/taskerr"
)

func decode(t *testing.T, o *Outcome) map[string]any {
	t.Helper()
	data, err := json.Marshal(o)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestOutcome_FieldSet(t *testing.T) {
	for _, status := range []Status{StatusSuccess, StatusInfo, StatusWarning, StatusError} {
		t.Run(string(status), func(t *testing.T) {
			o := New()
			o.Status = status
			m := decode(t, o)

			keys := make([]string, 0, len(m))
			for k := range m {
				keys = append(keys, k)
			}
			assert.ElementsMatch(t, []string{"status", "alert", "error", "message", "report", "report_json"}, keys)
			assert.Equal(t, string(status), m["status"])
			assert.Equal(t, false, m["alert"])
			assert.Equal(t, false, m["error"])
			assert.Nil(t, m["report_json"])
		})
	}
}

func TestOutcome_ReportJSONPassThrough(t *testing.T) {
	o := New()
	o.ReportJSON = NotFound
	assert.Equal(t, NotFound, decode(t, o)["report_json"])

	o.ReportJSON = map[string]any{"entries": []any{}}
	assert.Equal(t, map[string]any{"entries": []any{}}, decode(t, o)["report_json"])
}

func TestOutcome_EntriesWrapper(t *testing.T) {
	o := New()
	o.Status = StatusWarning
	o.ReportJSON = NotFound
	o.Entries = []any{map[string]any{"hi": "world"}}

	m := decode(t, o)
	wrapper, ok := m["report_json"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "1.0", wrapper["tasks_format_version"])
	assert.Equal(t, "oamg-format", wrapper["tasks_format_id"])
	assert.Equal(t, []any{map[string]any{"hi": "world"}}, wrapper["entries"])
}

func TestNewFromError(t *testing.T) {
	o := NewFromError(taskerr.Installation("Installation of leapp failed", "exit code 1"))
	assert.Equal(t, StatusError, o.Status)
	assert.True(t, o.Alert)
	assert.False(t, o.Error)
	assert.Equal(t, "Installation of leapp failed", o.Message)
	assert.Equal(t, "exit code 1", o.Report)

	o = NewFromError(errors.New("disk full"))
	assert.Equal(t, taskerr.UnexpectedMessage, o.Message)
	assert.Equal(t, "disk full", o.Report)

	o = NewFromError(nil)
	assert.Equal(t, StatusError, o.Status)
}

func TestPrintAndExtract(t *testing.T) {
	o := New()
	o.Status = StatusSuccess
	o.Message = "No problems found. The system is ready for upgrade."

	var buf bytes.Buffer
	buf.WriteString("2024-01-01 - INFO - leading log line\n")
	require.NoError(t, Print(&buf, o))
	buf.WriteString("trailing noise\n")

	out := buf.String()
	assert.Contains(t, out, JSONStartMarker+"\n{\n    \"status\": \"SUCCESS\"")
	assert.True(t, strings.Contains(out, "}\n"+JSONEndMarker+"\n"))

	block, ok := Extract(out)
	require.True(t, ok)
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(block), &m))
	assert.Equal(t, o.Message, m["message"])
}

func TestExtract_Missing(t *testing.T) {
	_, ok := Extract("no markers here")
	assert.False(t, ok)

	_, ok = Extract(JSONStartMarker + "\n{}\n")
	assert.False(t, ok)
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oamg/leapp-insights-tasks/pkg/outcome"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func payload(t *testing.T, stream string) map[string]any {
	t.Helper()
	block, ok := outcome.Extract(stream)
	require.True(t, ok, "no payload in %q", stream)
	var p map[string]any
	require.NoError(t, json.Unmarshal([]byte(block), &p))
	return p
}

func TestClassifyCmd_JSON(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "leapp-report.json")
	textPath := filepath.Join(dir, "leapp-report.txt")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"entries": [{"groups": ["error"], "severity": "high", "title": "Actor failed"}]}`), 0o644))
	require.NoError(t, os.WriteFile(textPath, []byte("Risk Factor: high"), 0o644))

	out, err := execute(t, "classify", "--json", jsonPath, "--txt", textPath)
	require.NoError(t, err)

	p := payload(t, out)
	assert.Equal(t, "ERROR", p["status"])
	assert.Equal(t, true, p["alert"])
	assert.Equal(t, "The upgrade cannot proceed. Your system has 1 inhibitor out of 1 potential problem.", p["message"])
	assert.Equal(t, "Risk Factor: high", p["report"])
}

func TestClassifyCmd_MissingReport(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "leapp-report.json")

	out, err := execute(t, "classify", "--json", jsonPath, "--txt", filepath.Join(dir, "leapp-report.txt"))
	require.NoError(t, err)

	p := payload(t, out)
	assert.Equal(t, "ERROR", p["status"])
	assert.Equal(t, "Can't open json report at "+jsonPath, p["message"])
	assert.Equal(t, "Not found", p["report_json"])
}

func TestClassifyCmd_UnreadableReportCause(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
		wantMsg string
	}{
		{
			name:    "truncated",
			content: `{"entries": [`,
			wantErr: "Failed to read leapp report: ",
			wantMsg: "Can't parse json report at ",
		},
		{
			name:    "null entry",
			content: `{"entries": [null]}`,
			wantErr: "invalid report entry",
			wantMsg: "Can't parse json report at ",
		},
		{
			name:    "missing is not a failure",
			wantMsg: "Can't open json report at ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			jsonPath := filepath.Join(dir, "leapp-report.json")
			if tt.content != "" {
				require.NoError(t, os.WriteFile(jsonPath, []byte(tt.content), 0o644))
			}

			cmd := newRootCmd()
			var stdout, stderr bytes.Buffer
			cmd.SetOut(&stdout)
			cmd.SetErr(&stderr)
			cmd.SetArgs([]string{"classify", "--json", jsonPath, "--txt", filepath.Join(dir, "leapp-report.txt")})
			require.NoError(t, cmd.Execute())

			if tt.wantErr == "" {
				assert.Empty(t, stderr.String())
			} else {
				assert.Contains(t, stderr.String(), tt.wantErr)
			}
			assert.NotContains(t, stdout.String(), "Failed to read leapp report")
			p := payload(t, stdout.String())
			assert.Equal(t, "ERROR", p["status"])
			assert.Equal(t, tt.wantMsg+jsonPath, p["message"])
		})
	}
}

func TestClassifyCmd_Text(t *testing.T) {
	jsonPath := filepath.Join(t.TempDir(), "leapp-report.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"entries": [{"severity": "medium", "title": "Deprecated driver"}]}`), 0o644))

	out, err := execute(t, "classify", "--json", jsonPath, "--format", "text", "--no-color")
	require.NoError(t, err)
	assert.Contains(t, out, "=== LEAPP REPORT SUMMARY ===")
	assert.Contains(t, out, "Status: WARNING")
	assert.Contains(t, out, "[medium] Deprecated driver")
}

func TestClassifyCmd_Markdown(t *testing.T) {
	jsonPath := filepath.Join(t.TempDir(), "leapp-report.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"entries": []}`), 0o644))

	out, err := execute(t, "classify", "--json", jsonPath, "--format", "markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "**Status:** SUCCESS")
	assert.Contains(t, out, "No findings reported.")
}

func TestClassifyCmd_UnsupportedFormat(t *testing.T) {
	_, err := execute(t, "classify", "--format", "html")
	assert.ErrorContains(t, err, `unsupported format "html"`)
}

func TestPlaybookCmd(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "leapp_upgrade.yaml")

	_, err := execute(t, "playbook", "--mode", "upgrade", "--out", outPath)
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "- name: Leapp upgrade for rhc-worker-script")
	assert.Contains(t, string(data), "LEAPP_SCRIPT_TYPE: UPGRADE")
	assert.Contains(t, string(data), "exec /usr/bin/leapp-task run")
}

func TestPlaybookCmd_InvalidMode(t *testing.T) {
	_, err := execute(t, "playbook", "--mode", "downgrade")
	assert.Error(t, err)
}

func TestRunTask_InvalidMode(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	logDir := filepath.Join(dir, "log")
	sosDir := filepath.Join(dir, "sos")
	content := fmt.Sprintf("[paths]\nlog_dir = %q\nsos_dir = %q\n", logDir, sosDir)
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

	var buf bytes.Buffer
	err := runTask(context.Background(), &buf, []string{"RHC_WORKER_LEAPP_SCRIPT_TYPE=DOWNGRADE"}, &runOptions{configFile: configPath})
	require.NoError(t, err)

	p := payload(t, buf.String())
	assert.Equal(t, "ERROR", p["status"])
	assert.Equal(t, "Allowed values for RHC_WORKER_LEAPP_SCRIPT_TYPE are 'PREUPGRADE' and 'UPGRADE'.", p["message"])
	assert.Equal(t, "Exiting because RHC_WORKER_LEAPP_SCRIPT_TYPE='DOWNGRADE'", p["report"])

	assert.FileExists(t, filepath.Join(logDir, "leapp-insights-tasks-preupgrade.log"))
	sos, err := os.ReadFile(filepath.Join(sosDir, "leapp-insights-tasks-preupgrade-logs"))
	require.NoError(t, err)
	assert.Equal(t, ":"+filepath.Join(logDir, "leapp-insights-tasks-preupgrade.log")+"\n", string(sos))
}

func TestRunTask_BadConfigFile(t *testing.T) {
	var buf bytes.Buffer
	err := runTask(context.Background(), &buf, nil, &runOptions{configFile: filepath.Join(t.TempDir(), "missing.toml")})
	require.NoError(t, err)

	p := payload(t, buf.String())
	assert.Equal(t, "ERROR", p["status"])
	assert.Equal(t, "Failed to load configuration file.", p["message"])
}

package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
)

// renderOrder lists severities from the most to the least severe
var renderOrder = []Severity{SeverityInhibitor, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo}

func severityColor(sev Severity, colorize bool) *color.Color {
	var c *color.Color
	switch sev {
	case SeverityInhibitor, SeverityHigh:
		c = color.New(color.FgRed, color.Bold)
	case SeverityMedium, SeverityLow:
		c = color.New(color.FgYellow)
	case SeverityInfo:
		c = color.New(color.FgCyan)
	default:
		c = color.New(color.Reset)
	}
	if colorize {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

// RenderText writes a human readable summary of r. Findings are listed from
// the most to the least severe.
func RenderText(w io.Writer, r *Report, s Summary, colorize bool) error {
	var sb strings.Builder

	sb.WriteString("=== LEAPP REPORT SUMMARY ===\n")
	sb.WriteString(fmt.Sprintf("Status: %s\n", s.Status))
	sb.WriteString(fmt.Sprintf("Message: %s\n", s.Message))
	sb.WriteString("\n")

	sb.WriteString("SUMMARY:\n")
	sb.WriteString(fmt.Sprintf("  Total Findings: %d\n", s.Total))
	sb.WriteString(fmt.Sprintf("  Inhibitors: %d\n", s.Inhibitors))
	sb.WriteString(fmt.Sprintf("  Errors: %d\n", s.Errors))
	for _, sev := range renderOrder {
		if n := s.BySeverity[sev]; n > 0 {
			sb.WriteString(fmt.Sprintf("  %s: %d\n", strings.ToUpper(string(sev)), n))
		}
	}
	sb.WriteString("\n")

	var entries []Finding
	if r != nil {
		entries = append(entries, r.Entries...)
	}
	if len(entries) > 0 {
		sort.SliceStable(entries, func(i, j int) bool {
			return rank(entries[i].EffectiveSeverity()) > rank(entries[j].EffectiveSeverity())
		})
		sb.WriteString("FINDINGS:\n")
		for _, f := range entries {
			sev := f.EffectiveSeverity()
			tag := severityColor(sev, colorize).Sprintf("[%s]", sev)
			title := f.Title
			if title == "" {
				title = "(untitled)"
			}
			sb.WriteString(fmt.Sprintf("  %s %s\n", tag, title))
			if f.Summary != "" {
				sb.WriteString(fmt.Sprintf("    Summary: %s\n", firstLine(f.Summary)))
			}
			if len(f.Groups) > 0 {
				sb.WriteString(fmt.Sprintf("    Groups: %s\n", strings.Join(f.Groups, ", ")))
			}
		}
	} else {
		sb.WriteString("No findings reported.\n")
	}

	sb.WriteString("\n")
	sb.WriteString("============================\n")
	sb.WriteString("End of Report\n")
	sb.WriteString("============================\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

func rank(sev Severity) int {
	if r, ok := severityRank[sev]; ok {
		return r
	}
	return -1
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// RenderMarkdown writes the summary of r as a markdown document
func RenderMarkdown(w io.Writer, r *Report, s Summary) error {
	var content strings.Builder

	content.WriteString("# Leapp Report\n\n")
	content.WriteString(fmt.Sprintf("**Status:** %s  \n", s.Status))
	content.WriteString(fmt.Sprintf("**Message:** %s\n\n", s.Message))

	content.WriteString("## Summary\n\n")
	content.WriteString(fmt.Sprintf("- Total Findings: %d\n", s.Total))
	content.WriteString(fmt.Sprintf("- Inhibitors: %d\n", s.Inhibitors))
	content.WriteString(fmt.Sprintf("- Errors: %d\n\n", s.Errors))

	var entries []Finding
	if r != nil {
		entries = append(entries, r.Entries...)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return rank(entries[i].EffectiveSeverity()) > rank(entries[j].EffectiveSeverity())
	})

	content.WriteString("## Findings\n\n")
	if len(entries) == 0 {
		content.WriteString("No findings reported.\n")
	} else {
		content.WriteString("| Severity | Title | Groups |\n")
		content.WriteString("|----------|-------|--------|\n")
		for _, f := range entries {
			content.WriteString(fmt.Sprintf("| %s | %s | %s |\n",
				f.EffectiveSeverity(), escapeCell(f.Title), escapeCell(strings.Join(f.Groups, ", "))))
		}
	}

	content.WriteString("\n---\n")
	content.WriteString("*End of Report*\n")

	_, err := io.WriteString(w, content.String())
	return err
}

func escapeCell(s string) string {
	return strings.ReplaceAll(firstLine(s), "|", `\|`)
}

// Package logging sets up the run logger, archives logs of previous runs and
// registers the log file with sos report.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
)

const timeLayout = "2006-01-02 15:04:05"

// Verbosity maps a worker log level name to a logr verbosity.
// quiet is true for levels above INFO. Unknown names fall back to INFO.
func Verbosity(level string) (v int, quiet bool) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG", "NOTSET":
		return 1, false
	case "WARNING", "WARN", "ERROR", "CRITICAL", "FATAL":
		return 0, true
	default:
		return 0, false
	}
}

// lineSink renders "<time> - <LEVEL> - <msg> key=value" lines
type lineSink struct {
	funcr.Formatter
	mu    *sync.Mutex
	out   io.Writer
	quiet bool
	now   func() time.Time
}

// NewLogger returns a logger writing to out at the given level name
func NewLogger(out io.Writer, level string) logr.Logger {
	v, quiet := Verbosity(level)
	return logr.New(newSink(out, v, quiet, time.Now))
}

func newSink(out io.Writer, verbosity int, quiet bool, now func() time.Time) *lineSink {
	return &lineSink{
		Formatter: funcr.NewFormatter(funcr.Options{
			Verbosity: verbosity,
			// level, msg and error are rendered by the sink itself
			RenderBuiltinsHook: func([]any) []any { return nil },
		}),
		mu:    &sync.Mutex{},
		out:   out,
		quiet: quiet,
		now:   now,
	}
}

func (s *lineSink) Enabled(level int) bool {
	if s.quiet {
		return false
	}
	return s.Formatter.Enabled(level)
}

func (s *lineSink) Info(level int, msg string, kvList ...any) {
	prefix, args := s.FormatInfo(level, msg, kvList)
	name := "INFO"
	if level > 0 {
		name = "DEBUG"
	}
	s.write(name, prefix, msg, args)
}

func (s *lineSink) Error(err error, msg string, kvList ...any) {
	prefix, args := s.FormatError(err, msg, kvList)
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	s.write("ERROR", prefix, msg, args)
}

func (s *lineSink) WithValues(kvList ...any) logr.LogSink {
	c := *s
	c.AddValues(kvList)
	return &c
}

func (s *lineSink) WithName(name string) logr.LogSink {
	c := *s
	c.AddName(name)
	return &c
}

func (s *lineSink) write(level, prefix, msg, args string) {
	var sb strings.Builder
	sb.WriteString(s.now().Format(timeLayout))
	sb.WriteString(" - ")
	sb.WriteString(level)
	sb.WriteString(" - ")
	if prefix != "" {
		sb.WriteString(prefix)
		sb.WriteString(": ")
	}
	sb.WriteString(msg)
	if args = strings.TrimSpace(args); args != "" {
		sb.WriteString(" ")
		sb.WriteString(args)
	}
	sb.WriteString("\n")

	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = io.WriteString(s.out, sb.String())
}

// Setup creates logDir and returns a logger writing to stdout and to
// logDir/filename. The returned closer releases the log file.
func Setup(stdout io.Writer, logDir, filename, level string) (logr.Logger, io.Closer, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return logr.Discard(), nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(logDir, filename), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return logr.Discard(), nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return NewLogger(io.MultiWriter(stdout, f), level), f, nil
}

// ArchiveOld moves logDir/filename to logDir/archive, inserting the file's
// UTC modification time before the extension. It is a no-op when the log
// file does not exist.
func ArchiveOld(logDir, filename string) (string, error) {
	current := filepath.Join(logDir, filename)
	info, err := os.Stat(current)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	archiveDir := filepath.Join(logDir, "archive")
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)
	stamp := info.ModTime().UTC().Format("20060102T150405Z")
	target := filepath.Join(archiveDir, fmt.Sprintf("%s-%s%s", base, stamp, ext))
	if err := os.Rename(current, target); err != nil {
		return "", fmt.Errorf("failed to archive %s: %w", current, err)
	}
	return target, nil
}

// SOSReportFile returns the sos extras file name for a mode slug
func SOSReportFile(slug string) string {
	return fmt.Sprintf("leapp-insights-tasks-%s-logs", slug)
}

// SetupSOSReport registers logPath with sos report by writing ":<logPath>"
// into sosDir/SOSReportFile(slug). An existing file is left untouched.
func SetupSOSReport(sosDir, slug, logPath string) error {
	if err := os.MkdirAll(sosDir, 0o755); err != nil {
		return fmt.Errorf("failed to create sos extras directory: %w", err)
	}
	link := filepath.Join(sosDir, SOSReportFile(slug))
	if _, err := os.Stat(link); err == nil {
		return nil
	}
	return os.WriteFile(link, []byte(":"+logPath+"\n"), 0o644)
}

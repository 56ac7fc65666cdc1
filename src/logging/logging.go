package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
)

// DebugEnv enables debug logging when set to "1".
const DebugEnv = "LATTICE_EDIT_DEBUG"

// Options controls where and how verbosely the logger writes.
type Options struct {
	Level  string
	Debug  bool
	LogDir string
	Stderr io.Writer
}

// Logger is the process-wide logger plus the log file it may own.
type Logger struct {
	*logrus.Logger
	file   *os.File
	path   string
	stderr io.Writer

	closeOnce sync.Once
	closeErr  error
}

// New builds a logrus logger. Warnings and errors always reach stderr; in debug
// mode everything is also appended to a timestamped file under LogDir.
func New(opts Options) (*Logger, error) {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		DisableQuote:     true,
	})

	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	l.SetOutput(stderr)

	level := logrus.WarnLevel
	if opts.Level != "" {
		parsed, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}

	debug := opts.Debug || os.Getenv(DebugEnv) == "1"
	if debug {
		level = logrus.DebugLevel
	}
	l.SetLevel(level)

	out := &Logger{Logger: l, stderr: stderr}
	if !debug || opts.LogDir == "" {
		return out, nil
	}

	if err := os.MkdirAll(opts.LogDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log dir %s: %w", opts.LogDir, err)
	}
	name := fmt.Sprintf("lattice-edit-%s.log", time.Now().Format("2006-01-02_15-04-05"))
	path := filepath.Join(opts.LogDir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	l.SetOutput(io.MultiWriter(stderr, f))
	out.file = f
	out.path = path
	l.WithField("file", path).Debug("logging started")
	return out, nil
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &Logger{Logger: l}
}

// Path is the debug log file path, or "" when logging only to stderr.
func (l *Logger) Path() string { return l.path }

// Close closes the log file, if any. Later calls are no-ops.
func (l *Logger) Close() error {
	l.closeOnce.Do(func() {
		if l.file == nil {
			return
		}
		l.SetOutput(l.stderr)
		l.closeErr = l.file.Close()
	})
	return l.closeErr
}

// DefaultLogDir is ~/.lattice-edit/logs.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".lattice-edit", "logs")
}

// Truncate shortens s to at most max bytes for log output without splitting
// a UTF-8 sequence.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

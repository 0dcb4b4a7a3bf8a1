package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Options controls where and how verbosely a component logs.
type Options struct {
	// Dir receives <component>.log. Empty means "logs".
	Dir string
	// Level is a logrus level name; unknown or empty values mean info.
	Level string
}

// New creates a logger that writes to <dir>/<component>.log and returns it with a cleanup.
func New(component string, opts Options) (*logrus.Entry, func(), error) {
	dir := opts.Dir
	if dir == "" {
		dir = "logs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, err
	}
	path := filepath.Join(dir, component+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}

	return newEntry(component, f, opts.Level), func() { _ = f.Close() }, nil
}

// Fallback logs to stderr. Use it when New fails; stdout is reserved for protocol traffic.
func Fallback(component, level string) *logrus.Entry {
	return newEntry(component, os.Stderr, level)
}

func newEntry(component string, w io.Writer, level string) *logrus.Entry {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetOutput(w)
	logger.SetLevel(parseLevel(level))
	return logger.WithField("component", component)
}

func parseLevel(level string) logrus.Level {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// Package log hands out the per-subsystem leveled loggers used across
// the renderer, backed by op/go-logging.
package log

import (
	"io"
	"os"

	"github.com/op/go-logging"
)

// Level selects the minimum severity a logger lets through.
type Level logging.Level

const (
	Debug Level = iota
	Info
	Notice
	Warning
	Error
)

var backendLevels = map[Level]logging.Level{
	Debug:   logging.DEBUG,
	Info:    logging.INFO,
	Notice:  logging.NOTICE,
	Warning: logging.WARNING,
	Error:   logging.ERROR,
}

var format = logging.MustStringFormatter(
	`%{color}%{time:15:04:05.000} %{module:-10s} %{level:-8s}%{color:reset} %{message}`,
)

var leveled logging.LeveledBackend

// Logger is the subset of go-logging the renderer packages use.
type Logger interface {
	Debug(v ...interface{})
	Debugf(format string, v ...interface{})

	Notice(v ...interface{})
	Noticef(format string, v ...interface{})

	Info(v ...interface{})
	Infof(format string, v ...interface{})

	Warning(v ...interface{})
	Warningf(format string, v ...interface{})

	Error(v ...interface{})
	Errorf(format string, v ...interface{})
}

// New returns the named logger for a subsystem; the name shows up in
// the module column of every line.
func New(name string) Logger {
	return logging.MustGetLogger(name)
}

// SetSink redirects all loggers to the given writer.
func SetSink(sink io.Writer) {
	formatted := logging.NewBackendFormatter(logging.NewLogBackend(sink, "", 0), format)
	leveled = logging.AddModuleLevel(formatted)
	leveled.SetLevel(backendLevels[Notice], "")
	logging.SetBackend(leveled)
}

// SetLevel adjusts verbosity for every module at once.
func SetLevel(level Level) {
	if bl, ok := backendLevels[level]; ok {
		leveled.SetLevel(bl, "")
	}
}

func init() {
	// The progress bar owns stdout while a render is in flight; log
	// lines go to stderr so the two never interleave.
	SetSink(os.Stderr)
	SetLevel(Notice)
}

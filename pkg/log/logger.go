// Package log provides named leveled loggers backed by go-logging.
//
// Every package creates its logger once with New and the CLI decides the
// verbosity: SetLevel for all loggers, SetModuleLevel for a single one.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/op/go-logging"
)

// Level is the verbosity passed to SetLevel.
type Level int

// Verbosity levels, most verbose first.
const (
	Debug Level = iota
	Info
	Notice
	Warning
	Error
)

var levels = map[Level]logging.Level{
	Debug:   logging.DEBUG,
	Info:    logging.INFO,
	Notice:  logging.NOTICE,
	Warning: logging.WARNING,
	Error:   logging.ERROR,
}

var names = map[string]Level{
	"debug":   Debug,
	"info":    Info,
	"notice":  Notice,
	"warning": Warning,
	"error":   Error,
}

var (
	colorFormat = logging.MustStringFormatter(
		`%{color}[%{time:15:04:05.000}] [%{module}] [%{level}]%{color:reset} %{message}`,
	)
	plainFormat = logging.MustStringFormatter(
		`[%{time:15:04:05.000}] [%{module}] [%{level}] %{message}`,
	)
)

var backend logging.LeveledBackend

// Logger is the interface implemented by every named logger.
type Logger interface {
	Debug(v ...interface{})
	Debugf(format string, v ...interface{})

	Info(v ...interface{})
	Infof(format string, v ...interface{})

	Notice(v ...interface{})
	Noticef(format string, v ...interface{})

	Warning(v ...interface{})
	Warningf(format string, v ...interface{})

	Error(v ...interface{})
	Errorf(format string, v ...interface{})
}

// New returns the logger of module name.
func New(name string) Logger {
	return logging.MustGetLogger(name)
}

// ParseLevel maps a level name such as "debug" to its Level.
func ParseLevel(name string) (Level, error) {
	l, ok := names[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown log level %q", name)
	}
	return l, nil
}

// SetSink sends every logger to sink. Colours are only emitted on stdout
// and stderr. The global level survives the switch; module levels do not.
func SetSink(sink io.Writer) {
	level := logging.NOTICE
	if backend != nil {
		level = backend.GetLevel("")
	}

	format := plainFormat
	if sink == os.Stdout || sink == os.Stderr {
		format = colorFormat
	}
	formatted := logging.NewBackendFormatter(logging.NewLogBackend(sink, "", 0), format)
	backend = logging.AddModuleLevel(formatted)
	backend.SetLevel(level, "")
	logging.SetBackend(backend)
}

// SetLevel changes the verbosity of every logger.
func SetLevel(level Level) {
	backend.SetLevel(toBackend(level), "")
}

// SetModuleLevel changes the verbosity of one named logger only.
func SetModuleLevel(module string, level Level) {
	backend.SetLevel(toBackend(level), module)
}

func toBackend(level Level) logging.Level {
	if l, ok := levels[level]; ok {
		return l
	}
	return logging.ERROR
}

func init() {
	SetSink(os.Stdout)
	SetLevel(Notice)
}

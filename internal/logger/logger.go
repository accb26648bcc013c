// Package logger provides leveled logging for streamhub with a console backend,
// an optional file backend and a bounded in-memory buffer that the admin API exposes.
package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/op/go-logging"
)

const (
	module      = "streamhub"
	logFileName = "streamhub.log"
	timeFormat  = "2006/01/02 15:04:05"
)

var (
	logger  = logging.MustGetLogger(module)
	logFile *os.File

	recent = newRing(2048)
)

// ParseLevel maps a config string (debug, info, notice, warn, error) to a logging level.
func ParseLevel(s string) (logging.Level, error) {
	switch s {
	case "", "info":
		return logging.INFO, nil
	case "warn", "warning":
		return logging.WARNING, nil
	default:
		return logging.LogLevel(s)
	}
}

// InitLogger installs the console backend at level and, when dir is set,
// a file backend that always records DEBUG.
func InitLogger(level logging.Level, dir string) {
	newLogger := logging.MustGetLogger(module)
	backends := make([]logging.Backend, 0, 2)

	console := logging.NewBackendFormatter(logging.NewLogBackend(os.Stderr, "", 0), newFormatter(true))
	leveled := logging.AddModuleLevel(console)
	leveled.SetLevel(level, module)
	backends = append(backends, leveled)

	if dir != "" {
		if fileBackend := initFileBackend(dir); fileBackend != nil {
			leveledFile := logging.AddModuleLevel(fileBackend)
			leveledFile.SetLevel(logging.DEBUG, module)
			backends = append(backends, leveledFile)
		}
	}

	newLogger.SetBackend(logging.MultiLogger(backends...))
	logger = newLogger
}

func initFileBackend(dir string) logging.Backend {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create log folder %s: %v\n", dir, err)
		return nil
	}
	path := filepath.Join(dir, logFileName)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o660)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file %s: %v\n", path, err)
		return nil
	}
	if logFile != nil {
		_ = logFile.Close()
	}
	logFile = file
	return logging.NewBackendFormatter(logging.NewLogBackend(file, "", 0), newFormatter(true))
}

func newFormatter(withTime bool) logging.Formatter {
	format := `%{level} - %{message}`
	if withTime {
		format = `%{time:` + timeFormat + `} %{level} - %{message}`
	}
	return logging.MustStringFormatter(format)
}

// CloseLogger closes the log file, if any.
func CloseLogger() {
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

func Debug(args ...any) {
	emit(logging.DEBUG, fmt.Sprint(args...))
}

func Debugf(format string, args ...any) {
	emit(logging.DEBUG, fmt.Sprintf(format, args...))
}

func Info(args ...any) {
	emit(logging.INFO, fmt.Sprint(args...))
}

func Infof(format string, args ...any) {
	emit(logging.INFO, fmt.Sprintf(format, args...))
}

func Warning(args ...any) {
	emit(logging.WARNING, fmt.Sprint(args...))
}

func Warningf(format string, args ...any) {
	emit(logging.WARNING, fmt.Sprintf(format, args...))
}

func Error(args ...any) {
	emit(logging.ERROR, fmt.Sprint(args...))
}

func Errorf(format string, args ...any) {
	emit(logging.ERROR, fmt.Sprintf(format, args...))
}

// emit writes msg to the backends and keeps it for Recent.
func emit(level logging.Level, msg string) {
	switch level {
	case logging.DEBUG:
		logger.Debug(msg)
	case logging.INFO:
		logger.Info(msg)
	case logging.WARNING:
		logger.Warning(msg)
	default:
		logger.Error(msg)
	}
	recent.add(level, msg)
}

// Recent returns up to count of the newest kept messages whose severity is
// at least level, newest first. An unknown level means info.
func Recent(count int, level string) []string {
	threshold, err := ParseLevel(level)
	if err != nil {
		threshold = logging.INFO
	}
	return recent.tail(count, threshold)
}

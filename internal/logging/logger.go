package logging

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Logger writes info/warn lines to stdout and mirrors errors into a log file
// so failed overnight jobs can be reviewed after the fact.
type Logger struct {
	info  *log.Logger
	warn  *log.Logger
	err   *log.Logger
	errMu sync.Mutex
	errW  io.WriteCloser
}

// New creates a logger whose error stream is mirrored to logDir/errors.log.
// The file is truncated, so only the long-lived service should call New;
// short-lived processes sharing the log dir use Reopen.
func New(logDir string) (*Logger, error) {
	return open(logDir, true)
}

// Reopen attaches to logDir/errors.log without truncating it. Used by the
// composition worker, which runs once per job against the service's log dir.
func Reopen(logDir string) (*Logger, error) {
	return open(logDir, false)
}

func open(logDir string, truncate bool) (*Logger, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, err
	}
	errorsPath := filepath.Join(logDir, "errors.log")
	if truncate {
		if err := os.Truncate(errorsPath, 0); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}

	f, err := os.OpenFile(errorsPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	errWriter := io.MultiWriter(os.Stdout, f)
	l := &Logger{
		info: log.New(os.Stdout, "INFO ", log.LstdFlags|log.Lmicroseconds),
		warn: log.New(os.Stdout, "WARN ", log.LstdFlags|log.Lmicroseconds),
		err:  log.New(errWriter, "ERROR ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		errW: f,
	}
	return l, nil
}

func (l *Logger) Close() error {
	l.errMu.Lock()
	defer l.errMu.Unlock()
	if l.errW != nil {
		return l.errW.Close()
	}
	return nil
}

func (l *Logger) Infof(format string, args ...any) {
	l.info.Printf(format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.warn.Printf(format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.errMu.Lock()
	defer l.errMu.Unlock()
	l.err.Printf(format, args...)
}

func (l *Logger) Error(err error) {
	if err == nil {
		return
	}
	l.Errorf("%v", err)
}

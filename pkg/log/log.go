package log

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

const (
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
	LevelDebug = "DEBUG"
)

// Logger is a named component logger.
type Logger struct {
	name string
	std  *log.Logger
}

// writerHolder keeps the concrete type stored in atomic.Value stable across
// SetOutput calls with different writer types.
type writerHolder struct {
	w io.Writer
}

var (
	debugAll       atomic.Bool
	componentDebug sync.Map // map[string]*atomic.Bool
	loggers        sync.Map // map[string]*Logger
	output         atomic.Value
)

func init() {
	output.Store(writerHolder{w: os.Stderr})
}

// For returns the memoized logger for component.
func For(component string) *Logger {
	if component == "" {
		component = "catalog"
	}
	if l, ok := loggers.Load(component); ok {
		return l.(*Logger)
	}
	w := output.Load().(writerHolder).w
	l := &Logger{name: component, std: log.New(w, "", log.LstdFlags|log.Lmicroseconds)}
	actual, _ := loggers.LoadOrStore(component, l)
	return actual.(*Logger)
}

// SetDebug toggles debug output for every component.
func SetDebug(enabled bool) {
	debugAll.Store(enabled)
}

// EnableDebug turns on debug output for the named components only.
func EnableDebug(components ...string) {
	for _, c := range components {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		v, _ := componentDebug.LoadOrStore(c, &atomic.Bool{})
		v.(*atomic.Bool).Store(true)
	}
}

// DisableDebug reverts EnableDebug for the named components.
func DisableDebug(components ...string) {
	for _, c := range components {
		if v, ok := componentDebug.Load(c); ok {
			v.(*atomic.Bool).Store(false)
		}
	}
}

// DebugEnabled reports whether debug lines for component are written.
func DebugEnabled(component string) bool {
	if debugAll.Load() {
		return true
	}
	if v, ok := componentDebug.Load(component); ok {
		return v.(*atomic.Bool).Load()
	}
	return false
}

// SetOutput redirects all loggers, existing ones included. A nil writer is
// ignored.
func SetOutput(w io.Writer) {
	if w == nil {
		return
	}
	output.Store(writerHolder{w: w})
	loggers.Range(func(_, v any) bool {
		v.(*Logger).std.SetOutput(w)
		return true
	})
}

func (l *Logger) emit(level, msg string) {
	l.std.Println(level + " [" + l.name + ">] " + msg)
}

func (l *Logger) Infof(format string, args ...any) {
	l.emit(LevelInfo, fmt.Sprintf(format, args...))
}

func (l *Logger) Warnf(format string, args ...any) {
	l.emit(LevelWarn, fmt.Sprintf(format, args...))
}

func (l *Logger) Errorf(format string, args ...any) {
	l.emit(LevelError, fmt.Sprintf(format, args...))
}

// Debugf writes only when debug is enabled for this logger's component.
func (l *Logger) Debugf(format string, args ...any) {
	if !DebugEnabled(l.name) {
		return
	}
	l.emit(LevelDebug, fmt.Sprintf(format, args...))
}

// Name returns the component name.
func (l *Logger) Name() string {
	return l.name
}

package syncws

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

type logLevel int

const (
	levelDebug logLevel = iota
	levelInfo
	levelWarn
	levelError
)

func (l logLevel) String() string {
	switch l {
	case levelDebug:
		return "DEBUG"
	case levelInfo:
		return "INFO"
	case levelWarn:
		return "WARN"
	default:
		return "ERROR"
	}
}

// writerLogger writes plain text lines to an io.Writer. Loggers derived with
// WithField share the writer and its lock.
type writerLogger struct {
	mu     *sync.Mutex
	writer io.Writer
	min    logLevel
	fields map[string]any
}

func newTestLogger(writer io.Writer) logger {
	return newWriterLogger(writer, levelDebug)
}

func newWriterLogger(writer io.Writer, min logLevel) *writerLogger {
	return &writerLogger{
		mu:     &sync.Mutex{},
		writer: writer,
		min:    min,
		fields: make(map[string]any),
	}
}

func (l *writerLogger) WithField(key string, value any) logger {
	next := &writerLogger{
		mu:     l.mu,
		writer: l.writer,
		min:    l.min,
		fields: make(map[string]any, len(l.fields)+1),
	}
	for k, v := range l.fields {
		next.fields[k] = v
	}
	next.fields[key] = value
	return next
}

func (l *writerLogger) formatFields() string {
	if len(l.fields) == 0 {
		return ""
	}

	keys := make([]string, 0, len(l.fields))
	for k := range l.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, l.fields[k]))
	}
	return " [" + strings.Join(parts, ", ") + "]"
}

func (l *writerLogger) log(level logLevel, msg string) {
	if level < l.min {
		return
	}
	line := fmt.Sprintf("[%s] %s%s: %s\n",
		time.Now().Format("2006-01-02 15:04:05"), level, l.formatFields(), strings.TrimRight(msg, "\n"))

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(l.writer, line)
}

func (l *writerLogger) Debug(args ...any) { l.log(levelDebug, fmt.Sprint(args...)) }

func (l *writerLogger) Debugf(format string, args ...any) {
	l.log(levelDebug, fmt.Sprintf(format, args...))
}

func (l *writerLogger) Debugln(args ...any) { l.log(levelDebug, fmt.Sprintln(args...)) }

func (l *writerLogger) Info(args ...any) { l.log(levelInfo, fmt.Sprint(args...)) }

func (l *writerLogger) Infof(format string, args ...any) {
	l.log(levelInfo, fmt.Sprintf(format, args...))
}

func (l *writerLogger) Infoln(args ...any) { l.log(levelInfo, fmt.Sprintln(args...)) }

func (l *writerLogger) Warn(args ...any) { l.log(levelWarn, fmt.Sprint(args...)) }

func (l *writerLogger) Warnf(format string, args ...any) {
	l.log(levelWarn, fmt.Sprintf(format, args...))
}

func (l *writerLogger) Warnln(args ...any) { l.log(levelWarn, fmt.Sprintln(args...)) }

func (l *writerLogger) Error(args ...any) { l.log(levelError, fmt.Sprint(args...)) }

func (l *writerLogger) Errorf(format string, args ...any) {
	l.log(levelError, fmt.Sprintf(format, args...))
}

func (l *writerLogger) Errorln(args ...any) { l.log(levelError, fmt.Sprintln(args...)) }

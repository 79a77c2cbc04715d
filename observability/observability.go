// Package observability provides the injectable diagnostic sink used by
// the compression pipeline instead of process-wide logger state.
package observability

import (
	"fmt"
	"log"
	"strings"
)

type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

type Field interface {
	Key() string
	Value() interface{}
}

type stringField struct{ key, val string }

func (f stringField) Key() string        { return f.key }
func (f stringField) Value() interface{} { return f.val }

type intField struct {
	key string
	val int
}

func (f intField) Key() string        { return f.key }
func (f intField) Value() interface{} { return f.val }

type int64Field struct {
	key string
	val int64
}

func (f int64Field) Key() string        { return f.key }
func (f int64Field) Value() interface{} { return f.val }

type float64Field struct {
	key string
	val float64
}

func (f float64Field) Key() string        { return f.key }
func (f float64Field) Value() interface{} { return f.val }

type errorField struct {
	key string
	err error
}

func (f errorField) Key() string        { return f.key }
func (f errorField) Value() interface{} { return f.err }

func String(key, value string) Field          { return stringField{key, value} }
func Int(key string, value int) Field         { return intField{key, value} }
func Int64(key string, value int64) Field     { return int64Field{key, value} }
func Float64(key string, value float64) Field { return float64Field{key, value} }
func Error(key string, err error) Field       { return errorField{key, err} }

type NopLogger struct{}

func (NopLogger) Debug(string, ...Field) {}
func (NopLogger) Info(string, ...Field)  {}
func (NopLogger) Warn(string, ...Field)  {}
func (NopLogger) Error(string, ...Field) {}

// StdLogger writes events through the standard library logger.
type StdLogger struct {
	// MinLevel suppresses events below it: 0=debug, 1=info, 2=warn, 3=error.
	MinLevel int
}

func (l StdLogger) Debug(msg string, fields ...Field) { l.emit(0, "DEBUG", msg, fields) }
func (l StdLogger) Info(msg string, fields ...Field)  { l.emit(1, "INFO", msg, fields) }
func (l StdLogger) Warn(msg string, fields ...Field)  { l.emit(2, "WARN", msg, fields) }
func (l StdLogger) Error(msg string, fields ...Field) { l.emit(3, "ERROR", msg, fields) }

func (l StdLogger) emit(level int, tag, msg string, fields []Field) {
	if level < l.MinLevel {
		return
	}
	log.Printf("%s %s%s", tag, msg, formatFields(fields))
}

func formatFields(fields []Field) string {
	if len(fields) == 0 {
		return ""
	}
	var b strings.Builder
	for _, f := range fields {
		fmt.Fprintf(&b, " %s=%v", f.Key(), f.Value())
	}
	return b.String()
}

// Package logging provides a thin, subsystem-prefixed wrapper around
// the standard logger, matching the call-site conventions used
// throughout the runtime ("[Subsystem] message").
package logging

import "log"

// Logger prefixes every line with a subsystem tag.
type Logger struct {
	prefix string
}

// New returns a Logger tagged with the given subsystem name.
func New(subsystem string) *Logger {
	return &Logger{prefix: "[" + subsystem + "] "}
}

func (l *Logger) Printf(format string, args ...any) {
	log.Printf(l.prefix+format, args...)
}

func (l *Logger) Println(args ...any) {
	log.Println(append([]any{l.prefix}, args...)...)
}

package logger

import corelogger "github.com/kilianp07/warehouse/core/logger"

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// Fields mirrors the core structured fields type.
type Fields = corelogger.Fields

// NopLogger discards every log line.
type NopLogger = corelogger.NopLogger

// New returns a Logger for the given component. The output format is
// selected via the APP_ENV variable.
func New(component string) Logger {
	return NewZerologLogger(component)
}

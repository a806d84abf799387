package config

import "go.uber.org/zap/zapcore"

// LogLevel is a human-typed log verbosity, bound straight off the
// `log_level` flag/env var by viper (its underlying kind is string, so no
// decode hook is needed).
type LogLevel string

const (
	Trace   LogLevel = "trace"
	Debug   LogLevel = "debug"
	Info    LogLevel = "info"
	Warning LogLevel = "warning"
	Error   LogLevel = "error"
	Panic   LogLevel = "panic"
)

// ToZap maps to the nearest zapcore.Level; zap has no Trace level of its
// own, so Trace logs at Debug.
func (l LogLevel) ToZap() zapcore.Level {
	switch l {
	case Trace, Debug:
		return zapcore.DebugLevel
	case Info:
		return zapcore.InfoLevel
	case Warning:
		return zapcore.WarnLevel
	case Error:
		return zapcore.ErrorLevel
	case Panic:
		return zapcore.PanicLevel
	default:
		return zapcore.InfoLevel
	}
}

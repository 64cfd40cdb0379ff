package config

import (
	"log/slog"
	"os"

	"git.home.luguber.info/inful/pyboot/internal/foundation/normalization"
)

// Environment variables overriding the log section.
const (
	EnvLogLevel  = "PYBOOT_LOG_LEVEL"
	EnvLogFormat = "PYBOOT_LOG_FORMAT"
)

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var logLevelNormalizer = normalization.NewEnumNormalizer("log level", map[string]LogLevel{
	"debug":   LogLevelDebug,
	"info":    LogLevelInfo,
	"warn":    LogLevelWarn,
	"warning": LogLevelWarn,
	"error":   LogLevelError,
}, LogLevelInfo)

func NormalizeLogLevel(raw string) LogLevel {
	return logLevelNormalizer.Normalize(raw)
}

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

var logFormatNormalizer = normalization.NewEnumNormalizer("log format", map[string]LogFormat{
	"json": LogFormatJSON,
	"text": LogFormatText,
}, LogFormatText)

func NormalizeLogFormat(raw string) LogFormat {
	return logFormatNormalizer.Normalize(raw)
}

// SlogLevel maps the configured level onto slog.
func (l LogConfig) SlogLevel() slog.Level {
	switch NormalizeLogLevel(l.Level) {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// JSON reports whether records should be emitted as JSON.
func (l LogConfig) JSON() bool {
	return NormalizeLogFormat(l.Format) == LogFormatJSON
}

// ApplyEnvOverrides lets PYBOOT_LOG_* win over the file. Unrecognised values are ignored.
func ApplyEnvOverrides(cfg *Config) {
	if raw := os.Getenv(EnvLogLevel); raw != "" {
		if lvl, err := logLevelNormalizer.NormalizeWithValidation(raw); err == nil {
			cfg.Log.Level = string(lvl)
		}
	}
	if raw := os.Getenv(EnvLogFormat); raw != "" {
		if f, err := logFormatNormalizer.NormalizeWithValidation(raw); err == nil {
			cfg.Log.Format = string(f)
		}
	}
}

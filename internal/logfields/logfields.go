package logfields

import (
	"log/slog"
	"strings"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyStep       = "step"
	KeyPath       = "path"
	KeyCommand    = "command"
	KeyArgs       = "args"
	KeyExitCode   = "exit_code"
	KeyDurationMS = "duration_ms"
	KeyPackage    = "package"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Step(name string) slog.Attr      { return slog.String(KeyStep, name) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Command(name string) slog.Attr   { return slog.String(KeyCommand, name) }
func Args(args []string) slog.Attr    { return slog.String(KeyArgs, strings.Join(args, " ")) }
func ExitCode(code int) slog.Attr     { return slog.Int(KeyExitCode, code) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Package(name string) slog.Attr   { return slog.String(KeyPackage, name) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

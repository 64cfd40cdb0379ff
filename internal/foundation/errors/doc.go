// Package errors provides the classified error primitives used across pyboot.
//
// Launcher steps wrap subprocess and filesystem failures in a ClassifiedError so
// the CLI can pick an exit code and a log level without string matching.
//
// Key features:
//   - ErrorCategory: broad classification (config, environment, install, launch, ...)
//   - ErrorSeverity: impact level (fatal, error, warning, info)
//   - ClassifiedError: structured error with category, severity, and context
//   - ErrorBuilder: fluent API for creating classified errors
//   - CLIErrorAdapter: exit code and message selection for the CLI
//
// Example usage:
//
//	err := errors.WrapError(cause, errors.CategoryInstall, "dependency install failed").
//		WithContext("manifest", layout.Manifest).
//		Build()
package errors

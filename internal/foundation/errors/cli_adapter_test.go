package errors

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeExitError struct{ code int }

func (e *fakeExitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }
func (e *fakeExitError) ExitCode() int { return e.code }

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{name: "validation", err: ValidationError("bad flag").Build(), expected: 2},
		{name: "config", err: NewError(CategoryConfig, "bad yaml").Build(), expected: 7},
		{name: "install without status", err: InstallError("pip missing").Build(), expected: 11},
		{name: "runtime", err: NewError(CategoryRuntime, "no python").Build(), expected: 12},
		{name: "internal", err: NewError(CategoryInternal, "bug").Build(), expected: 10},
		{
			name:     "subprocess status wins over category",
			err:      WrapError(&fakeExitError{code: 3}, CategoryInstall, "pip install failed").Build(),
			expected: 3,
		},
		{
			name:     "missing binary",
			err:      fmt.Errorf("step: %w", &fakeExitError{code: 127}),
			expected: 127,
		},
		{
			name:     "signalled subprocess falls back to category",
			err:      WrapError(&fakeExitError{code: -1}, CategoryLaunch, "server died").Build(),
			expected: 11,
		},
		{name: "unclassified", err: stderrors.New("boom"), expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	cause := stderrors.New("exit status 1")
	err := WrapError(cause, CategoryInstall, "dependency install failed").Build()

	quiet := NewCLIErrorAdapter(false, nil)
	require.Equal(t, "Error: dependency install failed: exit status 1", quiet.FormatError(err))
	require.Equal(t, "Error: plain", quiet.FormatError(stderrors.New("plain")))
	require.Empty(t, quiet.FormatError(nil))

	verbose := NewCLIErrorAdapter(true, nil)
	require.Equal(t, "Error: [install:error] dependency install failed: exit status 1", verbose.FormatError(err))
}

package validation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pyboot/internal/foundation/errors"
)

func nonEmpty(field string) Validator[string] {
	return func(s string) Result {
		if s == "" {
			return Fail(field, "required", "must not be empty")
		}
		return Valid()
	}
}

func maxLen(field string, n int) Validator[string] {
	return func(s string) Result {
		if len(s) > n {
			return Fail(field, "max_length", "must be at most %d characters", n)
		}
		return Valid()
	}
}

func TestChain(t *testing.T) {
	chain := NewChain(nonEmpty("name")).Add(maxLen("name", 3))

	t.Run("valid", func(t *testing.T) {
		result := chain.Validate("abc")
		require.True(t, result.Valid)
		require.NoError(t, result.ToError())
	})

	t.Run("single failure", func(t *testing.T) {
		result := chain.Validate("abcd")
		require.False(t, result.Valid)
		require.Len(t, result.Errors, 1)
		require.Equal(t, "max_length", result.Errors[0].Code)
	})
}

func TestChain_CollectsEveryFailure(t *testing.T) {
	chain := NewChain(nonEmpty("a"), nonEmpty("b"))

	result := chain.Validate("")
	require.Len(t, result.Errors, 2)

	err := result.ToError()
	require.True(t, errors.HasCategory(err, errors.CategoryValidation))
	require.Contains(t, err.Error(), "a: must not be empty; b: must not be empty")
}

func TestFieldError_WithoutField(t *testing.T) {
	require.Equal(t, "bad", FieldError{Message: "bad"}.Error())
}

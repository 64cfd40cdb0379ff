package normalization

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type level string

const (
	levelDebug level = "debug"
	levelInfo  level = "info"
)

func newLevels() *EnumNormalizer[level] {
	return NewEnumNormalizer("log level", map[string]level{
		"debug": levelDebug,
		"INFO":  levelInfo,
	}, levelInfo)
}

func TestNormalizer_Normalize(t *testing.T) {
	n := newLevels()
	require.Equal(t, levelDebug, n.Normalize("  Debug "))
	require.Equal(t, levelInfo, n.Normalize("info"))
	require.Equal(t, levelInfo, n.Normalize("verbose"))
}

func TestNormalizer_Validation(t *testing.T) {
	n := newLevels()

	got, err := n.NormalizeWithValidation("DEBUG")
	require.NoError(t, err)
	require.Equal(t, levelDebug, got)

	got, err = n.NormalizeWithValidation("")
	require.NoError(t, err)
	require.Equal(t, levelInfo, got)

	_, err = n.NormalizeWithValidation("trace")
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid log level")
	require.Contains(t, err.Error(), "[debug info]")
}

func TestValidKeys_SortedCopy(t *testing.T) {
	n := newLevels()
	keys := n.ValidValues()
	require.Equal(t, []string{"debug", "info"}, keys)

	keys[0] = "mutated"
	require.Equal(t, []string{"debug", "info"}, n.ValidValues())
}

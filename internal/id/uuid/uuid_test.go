package uuid

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewID_Unique(t *testing.T) {
	t.Parallel()

	gen := New()
	a, err := gen.NewID()
	require.NoError(t, err)
	b, err := gen.NewID()
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestShortSuffix_Length(t *testing.T) {
	t.Parallel()

	gen := New()
	for _, n := range []int{1, 6, 12, 32, 40, 0} {
		s, err := gen.ShortSuffix(n)
		require.NoError(t, err)
		require.NotEmpty(t, s)
		require.LessOrEqual(t, len(s), 32)
	}

	s, err := gen.ShortSuffix(6)
	require.NoError(t, err)
	require.Len(t, s, 6)
}

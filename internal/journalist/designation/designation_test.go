package designation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	t.Parallel()

	gen := NewGenerator()

	for range 50 {
		designation, slug, err := gen.Generate()
		require.NoError(t, err)

		parts := strings.Split(designation, " ")
		require.Len(t, parts, 2)
		require.Equal(t, strings.ToLower(parts[0])+"_"+strings.ToLower(parts[1]), slug)

		// Slugs feed submission filenames, which are dash-delimited.
		require.NotContains(t, slug, "-")
		require.NotContains(t, slug, " ")
	}
}

func TestValid(t *testing.T) {
	t.Parallel()

	for _, ok := range []string{"Dour Bicycle", "amber walrus", "Heron"} {
		require.True(t, Valid(ok), ok)
	}
	for _, bad := range []string{
		"",
		"   ",
		"Semi-Dour Bicycle",
		"dour_bicycle",
		"Dour Bicycle 7",
		"Dour Bicycle!",
	} {
		require.False(t, Valid(bad), bad)
	}
}

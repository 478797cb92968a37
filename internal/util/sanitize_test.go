package util

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestMediaSegment(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"plain username", "reader", "reader"},
		{"allowed punctuation", "jane.doe+books@example", "jane.doe+books@example"},
		{"separators replaced", "../admin", "___admin"},
		{"leading dots replaced", ".hidden", "_hidden"},
		{"spaces and slashes", " ann / marie ", "ann___marie"},
		{"unicode letters kept", "josé", "josé"},
		{"zero-width stripped", "re\u200Bad\uFEFFer", "reader"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := MediaSegment(tc.input)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}

	t.Run("rejects values with nothing usable", func(t *testing.T) {
		for _, input := range []string{"", "   ", "\u200B\u200C", "..", "///"} {
			_, err := MediaSegment(input)
			require.Error(t, err, "input %q", input)
		}
	})

	t.Run("truncates by rune", func(t *testing.T) {
		got, err := MediaSegment(strings.Repeat("é", 200))
		require.NoError(t, err)
		require.Len(t, []rune(got), maxSegmentLength)
		require.True(t, utf8.ValidString(got))
	})
}

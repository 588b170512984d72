package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pocketrag/pocketrag/pkg/types"
)

func tokens(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(words, " ")
}

func TestSplit_BasicWindows(t *testing.T) {
	chunks, err := Split(tokens(10), Config{Size: 4, Overlap: 0})
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assert.Equal(t, "w0 w1 w2 w3", chunks[0].Text)
	assert.Equal(t, "w4 w5 w6 w7", chunks[1].Text)
	assert.Equal(t, "w8 w9", chunks[2].Text)

	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, 1, chunks[1].Index)
	assert.Equal(t, 2, chunks[2].Index)
	assert.Equal(t, 2, chunks[2].TokenCount)
}

func TestSplit_Overlap(t *testing.T) {
	chunks, err := Split(tokens(8), Config{Size: 4, Overlap: 2})
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	// Windows advance by size-overlap = 2
	assert.Equal(t, "w0 w1 w2 w3", chunks[0].Text)
	assert.Equal(t, "w2 w3 w4 w5", chunks[1].Text)
	assert.Equal(t, "w4 w5 w6 w7", chunks[2].Text)
}

func TestSplit_RoundTrip(t *testing.T) {
	// With zero overlap, concatenating all chunks reconstructs the original
	// token sequence exactly.
	original := tokens(103)

	for _, size := range []int{1, 7, 50, 103, 200} {
		chunks, err := Split(original, Config{Size: size, Overlap: 0})
		require.NoError(t, err)

		parts := make([]string, len(chunks))
		for i, c := range chunks {
			parts[i] = c.Text
		}
		assert.Equal(t, original, strings.Join(parts, " "), "size=%d", size)
	}
}

func TestSplit_InvalidConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"overlap equals size", Config{Size: 4, Overlap: 4}},
		{"overlap exceeds size", Config{Size: 4, Overlap: 6}},
		{"zero size", Config{Size: 0, Overlap: 0}},
		{"negative size", Config{Size: -1, Overlap: 0}},
		{"negative overlap", Config{Size: 4, Overlap: -1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Split(tokens(10), tc.cfg)
			assert.ErrorIs(t, err, types.ErrInvalidChunkConfig)
		})
	}
}

func TestSplit_EmptyText(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t  \n"} {
		chunks, err := Split(text, DefaultConfig())
		require.NoError(t, err)
		assert.Empty(t, chunks)
	}
}

func TestSplit_ShortText(t *testing.T) {
	// Text shorter than one window produces a single short chunk
	chunks, err := Split("hello world", Config{Size: 100, Overlap: 10})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "hello world", chunks[0].Text)
	assert.Equal(t, 2, chunks[0].TokenCount)
}

func TestSplit_CollapsesWhitespace(t *testing.T) {
	chunks, err := Split("a\tb\n\nc   d", Config{Size: 10, Overlap: 0})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "a b c d", chunks[0].Text)
}

func TestDefaultConfig(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

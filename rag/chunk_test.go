package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTextChunkerDefaults(t *testing.T) {
	tc, err := NewTextChunker()
	require.NoError(t, err)

	assert.Equal(t, 512, tc.ChunkSize)
	assert.Equal(t, 100, tc.ChunkOverlap)
	assert.IsType(t, &CharacterCounter{}, tc.Counter)
}

func TestNewTextChunkerRejectsOverlapNotSmallerThanSize(t *testing.T) {
	_, err := NewTextChunker(ChunkSize(100), ChunkOverlap(100))
	assert.Error(t, err)
}

func TestChunkRespectsBudget(t *testing.T) {
	tc, err := NewTextChunker(ChunkSize(50), ChunkOverlap(10))
	require.NoError(t, err)

	doc := Document{Text: strings.Repeat("spicy tuna roll with avocado ", 20)}
	chunks := tc.Chunk(doc)

	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len([]rune(chunk.Text)), 50, "chunk %q exceeds budget", chunk.Text)
	}
}

func TestChunkNeverSplitsWords(t *testing.T) {
	tc, err := NewTextChunker(ChunkSize(20), ChunkOverlap(5))
	require.NoError(t, err)

	doc := Document{Text: "margherita quattroformaggi prosciutto calzone"}
	chunks := tc.Chunk(doc)

	words := map[string]struct{}{}
	for _, w := range strings.Fields(doc.Text) {
		words[w] = struct{}{}
	}
	for _, chunk := range chunks {
		for _, w := range strings.Fields(chunk.Text) {
			_, ok := words[w]
			assert.True(t, ok, "word %q was split or altered", w)
		}
	}
}

func TestChunkOverlapCarriesTrailingWords(t *testing.T) {
	tc, err := NewTextChunker(ChunkSize(30), ChunkOverlap(10))
	require.NoError(t, err)

	doc := Document{Text: "one two three four five six seven eight nine ten eleven twelve"}
	chunks := tc.Chunk(doc)
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		prevWords := strings.Fields(chunks[i-1].Text)
		curWords := strings.Fields(chunks[i].Text)

		// Each chunk opens with a suffix of its predecessor covering the
		// overlap budget, so the predecessor's last word must reappear.
		assert.Contains(t, curWords, prevWords[len(prevWords)-1])

		tail := tc.overlapTail(prevWords)
		require.LessOrEqual(t, len(tail), len(curWords))
		assert.Equal(t, tail, curWords[:len(tail)])
	}
}

func TestChunkCopiesMetadata(t *testing.T) {
	tc, err := NewTextChunker(ChunkSize(20), ChunkOverlap(5))
	require.NoError(t, err)

	doc := Document{
		Text:     "pasta carbonara with guanciale and pecorino romano cheese",
		Metadata: map[string]string{"restaurant_name": "Trattoria"},
	}
	chunks := tc.Chunk(doc)
	require.Greater(t, len(chunks), 1)

	for _, chunk := range chunks {
		assert.Equal(t, "Trattoria", chunk.Metadata["restaurant_name"])
	}

	// Mutating one chunk's metadata must not leak into the others.
	chunks[0].Metadata["restaurant_name"] = "changed"
	assert.Equal(t, "Trattoria", chunks[1].Metadata["restaurant_name"])
	assert.Equal(t, "Trattoria", doc.Metadata["restaurant_name"])
}

func TestChunkDeterministic(t *testing.T) {
	tc, err := NewTextChunker(ChunkSize(40), ChunkOverlap(10))
	require.NoError(t, err)

	doc := Document{Text: strings.Repeat("grilled salmon with lemon butter ", 10)}

	first := tc.Chunk(doc)
	second := tc.Chunk(doc)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Text, second[i].Text)
	}
}

func TestChunkEmptyDocument(t *testing.T) {
	tc, err := NewTextChunker()
	require.NoError(t, err)

	assert.Nil(t, tc.Chunk(Document{Text: "   "}))
}

func TestDefaultTokenCounter(t *testing.T) {
	dtc := &DefaultTokenCounter{}
	assert.Equal(t, 3, dtc.Count("three word line"))
	assert.Equal(t, 0, dtc.Count(""))
}

func TestCharacterCounterCountsRunes(t *testing.T) {
	cc := &CharacterCounter{}
	assert.Equal(t, 5, cc.Count("crêpe"))
}

func TestNewTokenCounterSelection(t *testing.T) {
	counter, err := NewTokenCounter("")
	require.NoError(t, err)
	assert.IsType(t, &CharacterCounter{}, counter)

	counter, err = NewTokenCounter("words")
	require.NoError(t, err)
	assert.IsType(t, &DefaultTokenCounter{}, counter)

	_, err = NewTokenCounter("bogus")
	assert.Error(t, err)
}

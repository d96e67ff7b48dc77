package rag

import (
	"context"
	"hash/fnv"
	"math"
	"path/filepath"
	"testing"

	"github.com/philippgille/chromem-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEmbedding maps text to a deterministic unit vector so store tests run
// without a network.
func stubEmbedding(_ context.Context, text string) ([]float32, error) {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	v := []float32{
		float32(seed%97) + 1,
		float32(seed%89) + 1,
		float32(seed%83) + 1,
	}
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range v {
		v[i] *= scale
	}
	return v, nil
}

func testChunks(texts ...string) []Chunk {
	chunks := make([]Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = Chunk{
			Text:     text,
			Metadata: map[string]string{"restaurant_name": "Testaurant"},
		}
	}
	return chunks
}

func TestStoreAddAndCount(t *testing.T) {
	store, err := CreateStore(filepath.Join(t.TempDir(), "store"), chromem.EmbeddingFunc(stubEmbedding))
	require.NoError(t, err)

	chunks := testChunks("taco platter", "ramen bowl", "pizza slice")
	require.NoError(t, store.Add(context.Background(), chunks, 2))

	assert.Equal(t, 3, store.Count())
}

func TestStoreSearchClampsK(t *testing.T) {
	store, err := CreateStore(filepath.Join(t.TempDir(), "store"), chromem.EmbeddingFunc(stubEmbedding))
	require.NoError(t, err)

	require.NoError(t, store.Add(context.Background(), testChunks("only document"), 0))

	// Asking for more results than stored must not error.
	results, err := store.SearchWithScores(context.Background(), "anything", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "only document", results[0].Document.Text)
	assert.Equal(t, "Testaurant", results[0].Document.Metadata["restaurant_name"])
}

func TestStoreSearchEmptyStore(t *testing.T) {
	store, err := CreateStore(filepath.Join(t.TempDir(), "store"), chromem.EmbeddingFunc(stubEmbedding))
	require.NoError(t, err)

	results, err := store.SearchWithScores(context.Background(), "anything", 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestCreateStoreReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store")

	store, err := CreateStore(path, chromem.EmbeddingFunc(stubEmbedding))
	require.NoError(t, err)
	require.NoError(t, store.Add(context.Background(), testChunks("old a", "old b"), 0))
	require.Equal(t, 2, store.Count())

	rebuilt, err := CreateStore(path, chromem.EmbeddingFunc(stubEmbedding))
	require.NoError(t, err)
	require.NoError(t, rebuilt.Add(context.Background(), testChunks("new"), 0))

	assert.Equal(t, 1, rebuilt.Count())
}

func TestOpenStoreReloadsPersistedDocuments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store")

	store, err := CreateStore(path, chromem.EmbeddingFunc(stubEmbedding))
	require.NoError(t, err)
	require.NoError(t, store.Add(context.Background(), testChunks("persisted doc"), 0))

	reopened, err := OpenStore(path, chromem.EmbeddingFunc(stubEmbedding))
	require.NoError(t, err)
	assert.Equal(t, 1, reopened.Count())
}

package rag

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedbackRecordCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedback.json")
	store := NewFeedbackStore(path)

	require.NoError(t, store.Record("good tacos?", "yes, El Farolito", "positive"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var records []FeedbackRecord
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 1)
	assert.Equal(t, "good tacos?", records[0].Query)
	assert.Equal(t, "yes, El Farolito", records[0].Response)
	assert.Equal(t, "positive", records[0].Feedback)
}

func TestFeedbackRecordAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedback.json")
	store := NewFeedbackStore(path)

	require.NoError(t, store.Record("q1", "r1", "positive"))
	require.NoError(t, store.Record("q2", "r2", "negative"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var records []FeedbackRecord
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 2)
	assert.Equal(t, FeedbackRecord{Query: "q2", Response: "r2", Feedback: "negative"}, records[1])
}

func TestFeedbackRecordRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedback.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0644))

	store := NewFeedbackStore(path)
	assert.Error(t, store.Record("q", "r", "positive"))
}

func TestFeedbackFileIsIndented(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedback.json")
	store := NewFeedbackStore(path)
	require.NoError(t, store.Record("q", "r", "positive"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n    \"query\"")
}

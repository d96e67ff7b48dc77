package rag

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
)

// FeedbackRecord is one user verdict on a response, appended to the
// feedback log. Records are never mutated or deleted.
type FeedbackRecord struct {
	Query    string `json:"query"`
	Response string `json:"response"`
	Feedback string `json:"feedback"`
}

// FeedbackStore appends feedback records to a JSON array on disk. The whole
// file is rewritten pretty-printed on every record; a mutex serializes
// writers within the process so concurrent submissions cannot lose records.
type FeedbackStore struct {
	mu   sync.Mutex
	path string
}

// NewFeedbackStore creates a store writing to the given file. A missing
// file is treated as an empty log.
func NewFeedbackStore(path string) *FeedbackStore {
	return &FeedbackStore{path: path}
}

// Record appends one feedback entry.
func (s *FeedbackStore) Record(query, response, verdict string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []FeedbackRecord
	data, err := os.ReadFile(s.path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &records); err != nil {
			return fmt.Errorf("failed to parse feedback file %s: %w", s.path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// First record; start a fresh array.
	default:
		return fmt.Errorf("failed to read feedback file %s: %w", s.path, err)
	}

	records = append(records, FeedbackRecord{
		Query:    query,
		Response: response,
		Feedback: verdict,
	})

	out, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode feedback: %w", err)
	}
	if err := os.WriteFile(s.path, out, 0644); err != nil {
		return fmt.Errorf("failed to write feedback file %s: %w", s.path, err)
	}

	GlobalLogger.Info("feedback saved", "query", query, "feedback", verdict)
	return nil
}

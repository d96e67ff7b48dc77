package rag

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Chunk is a bounded-length slice of a source document. It carries the
// source's metadata unchanged so retrieval results keep their structured
// fields regardless of how the text was split.
type Chunk struct {
	// Text contains the actual content of the chunk
	Text string
	// Metadata is inherited from the source document
	Metadata map[string]string
	// Size is the measured size of the chunk in the counter's units
	Size int
}

// TokenCounter defines the interface for measuring text size. The chunker
// treats words as atomic and uses a counter to decide where chunk
// boundaries fall, so different counters give character, word, or
// model-token budgets.
type TokenCounter interface {
	// Count returns the size of the given text according to the
	// implementation's unit.
	Count(text string) int
}

// TextChunker splits document text into chunks of at most ChunkSize units
// with ChunkOverlap units of overlap between adjacent chunks. Words are
// never split; a single word longer than ChunkSize becomes its own chunk.
type TextChunker struct {
	// ChunkSize is the upper bound for each chunk in the counter's units
	ChunkSize int
	// ChunkOverlap is the amount of trailing content repeated at the start
	// of the next chunk
	ChunkOverlap int
	// Counter measures words and separators
	Counter TokenCounter
}

// TextChunkerOption configures a TextChunker.
type TextChunkerOption func(*TextChunker)

// NewTextChunker creates a TextChunker with the given options. Defaults:
// 512-character chunks with 100 characters of overlap, matching the
// ingestion pipeline's contract.
func NewTextChunker(options ...TextChunkerOption) (*TextChunker, error) {
	tc := &TextChunker{
		ChunkSize:    512,
		ChunkOverlap: 100,
		Counter:      &CharacterCounter{},
	}

	for _, option := range options {
		option(tc)
	}

	if tc.ChunkOverlap >= tc.ChunkSize {
		return nil, fmt.Errorf("chunk overlap %d must be smaller than chunk size %d", tc.ChunkOverlap, tc.ChunkSize)
	}

	return tc, nil
}

// ChunkSize sets the upper bound for each chunk.
func ChunkSize(size int) TextChunkerOption {
	return func(tc *TextChunker) {
		tc.ChunkSize = size
	}
}

// ChunkOverlap sets the overlap between adjacent chunks.
func ChunkOverlap(overlap int) TextChunkerOption {
	return func(tc *TextChunker) {
		tc.ChunkOverlap = overlap
	}
}

// WithTokenCounter sets a custom size measure for the chunker.
func WithTokenCounter(counter TokenCounter) TextChunkerOption {
	return func(tc *TextChunker) {
		tc.Counter = counter
	}
}

// Chunk splits the document's text into chunks. The algorithm:
//  1. Splits the text into whitespace-separated words
//  2. Accumulates words until adding the next one would exceed ChunkSize
//  3. Starts the next chunk with enough trailing words of the previous one
//     to cover ChunkOverlap
//  4. Copies the document's metadata onto every chunk
//
// The result is deterministic for a fixed input and parameters.
func (tc *TextChunker) Chunk(doc Document) []Chunk {
	words := strings.Fields(doc.Text)
	if len(words) == 0 {
		return nil
	}

	sep := tc.Counter.Count(" ")

	var chunks []Chunk
	var current []string
	currentSize := 0

	flush := func() {
		chunks = append(chunks, Chunk{
			Text:     strings.Join(current, " "),
			Metadata: cloneMetadata(doc.Metadata),
			Size:     currentSize,
		})
	}

	for _, word := range words {
		wordSize := tc.Counter.Count(word)
		cost := wordSize
		if len(current) > 0 {
			cost += sep
		}

		if currentSize+cost > tc.ChunkSize && currentSize > 0 {
			flush()

			overlap := tc.overlapTail(current)
			current = append(overlap, word)
			currentSize = tc.sizeOf(current, sep)
		} else {
			current = append(current, word)
			currentSize += cost
		}
	}

	if len(current) > 0 {
		flush()
	}

	return chunks
}

// overlapTail returns the trailing words of the previous chunk that together
// cover at least ChunkOverlap units, in original order.
func (tc *TextChunker) overlapTail(words []string) []string {
	overlapSize := 0
	start := len(words)
	for start > 0 && overlapSize < tc.ChunkOverlap {
		start--
		overlapSize += tc.Counter.Count(words[start])
	}
	tail := make([]string, len(words)-start)
	copy(tail, words[start:])
	return tail
}

func (tc *TextChunker) sizeOf(words []string, sep int) int {
	size := 0
	for i, w := range words {
		if i > 0 {
			size += sep
		}
		size += tc.Counter.Count(w)
	}
	return size
}

func cloneMetadata(metadata map[string]string) map[string]string {
	if metadata == nil {
		return nil
	}
	clone := make(map[string]string, len(metadata))
	for k, v := range metadata {
		clone[k] = v
	}
	return clone
}

// CharacterCounter measures text in runes. This is the ingestion default:
// chunk budgets are expressed in characters.
type CharacterCounter struct{}

// Count returns the number of runes in the text.
func (cc *CharacterCounter) Count(text string) int {
	return len([]rune(text))
}

// DefaultTokenCounter approximates token counts by splitting on whitespace.
type DefaultTokenCounter struct{}

// Count returns the number of whitespace-separated words in the text.
func (dtc *DefaultTokenCounter) Count(text string) int {
	return len(strings.Fields(text))
}

// TikTokenCounter counts tokens with the tiktoken library, matching the
// tokenization used by OpenAI models.
type TikTokenCounter struct {
	tke *tiktoken.Tiktoken
}

// NewTikTokenCounter creates a TikTokenCounter using the specified encoding,
// e.g. "cl100k_base".
func NewTikTokenCounter(encoding string) (*TikTokenCounter, error) {
	tke, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to get encoding: %w", err)
	}
	return &TikTokenCounter{tke: tke}, nil
}

// Count returns the exact number of tokens according to the encoding.
func (ttc *TikTokenCounter) Count(text string) int {
	return len(ttc.tke.Encode(text, nil, nil))
}

// NewTokenCounter selects a counter implementation by name: "chars"
// (default), "words", or "tiktoken".
func NewTokenCounter(kind string) (TokenCounter, error) {
	switch kind {
	case "", "chars":
		return &CharacterCounter{}, nil
	case "words":
		return &DefaultTokenCounter{}, nil
	case "tiktoken":
		return NewTikTokenCounter("cl100k_base")
	default:
		return nil, fmt.Errorf("unknown token counter: %s", kind)
	}
}

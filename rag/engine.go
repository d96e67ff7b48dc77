package rag

import (
	"context"
	"fmt"
	"strings"
)

const (
	// DefaultTopK is the number of nearest documents fetched per query.
	DefaultTopK = 3
	// RelevanceThreshold gates the web fallback. Strictly greater-than:
	// a score of exactly 0.5 does not count as relevant.
	RelevanceThreshold = 0.5
	// maxWebResults caps the web search fallback.
	maxWebResults = 3
	// sourcePreviewLen is how much of a local document a source displays.
	sourcePreviewLen = 200
)

const (
	greetingResponse    = "Hello! 👋 How can I help you with restaurant information today?"
	noContextFound      = "No relevant context found locally or online."
	noResponseGenerated = "No response generated."
)

// greetingWords are matched exactly against the trimmed, lower-cased query.
// This is a literal check, not a semantic one.
var greetingWords = map[string]struct{}{
	"hi":             {},
	"hello":          {},
	"hey":            {},
	"greetings":      {},
	"good morning":   {},
	"good afternoon": {},
	"good evening":   {},
}

const systemInstruction = `You are a helpful and conversational restaurant expert.

If the user says 'hi', 'hello', or a similar greeting, respond with a friendly greeting in return.
You do not need to perform any searches or provide sources for greetings.
Just be polite and acknowledge them.

For restaurant-related questions, prioritize using the local menu data provided below when relevant.
If the local data is not relevant or doesn't contain the answer, then use the web search results.
ALWAYS include source links when using web search results.`

// Result is what one call to Answer produces. History is the caller's
// history extended with the new user/assistant turn.
type Result struct {
	Response string
	Sources  []Source
	History  []ChatMessage
}

// Engine orchestrates retrieval, web fallback, prompt construction, and
// completion for a single query. It holds no per-request state: concurrent
// requests are independent invocations sharing only the read-mostly store.
type Engine struct {
	retriever Retriever
	searcher  WebSearcher
	completer Completer
	logger    Logger
}

// NewEngine wires the engine's collaborators. All three are required.
func NewEngine(retriever Retriever, searcher WebSearcher, completer Completer) *Engine {
	return &Engine{
		retriever: retriever,
		searcher:  searcher,
		completer: completer,
		logger:    GlobalLogger,
	}
}

// Answer produces a response for the query given the caller-supplied
// history. It never returns an error: any failure during retrieval, search,
// or completion is logged and converted into an assistant message of the
// form "Error: <details>", appended to history like a normal response.
func (e *Engine) Answer(ctx context.Context, query string, history []ChatMessage) Result {
	e.logger.Info("received query", "query", query)

	if _, ok := greetingWords[strings.ToLower(strings.TrimSpace(query))]; ok {
		return Result{
			Response: greetingResponse,
			Sources:  []Source{},
			History:  appendTurn(history, query, greetingResponse),
		}
	}

	response, sources, err := e.respond(ctx, query, history)
	if err != nil {
		e.logger.Error("failed to answer query", "error", err)
		response = fmt.Sprintf("Error: %v", err)
		sources = []Source{}
	}

	return Result{
		Response: response,
		Sources:  sources,
		History:  appendTurn(history, query, response),
	}
}

func (e *Engine) respond(ctx context.Context, query string, history []ChatMessage) (string, []Source, error) {
	results, err := e.retriever.SearchWithScores(ctx, query, DefaultTopK)
	if err != nil {
		return "", nil, fmt.Errorf("local retrieval failed: %w", err)
	}

	scores := make([]float64, len(results))
	relevant := 0
	for i, r := range results {
		scores[i] = r.Score
		if r.Score > RelevanceThreshold {
			relevant++
		}
	}
	e.logger.Info("similarity scores", "scores", scores)

	var contextText string
	var sources []Source

	if relevant == 0 {
		// The fallback decision looks at the filtered results only.
		e.logger.Info("no relevant local results, searching the web")
		webResults, err := e.searcher.Search(ctx, query, maxWebResults)
		if err != nil {
			e.logger.Error("web search error", "error", err)
			webResults = nil
		}

		if len(webResults) > 0 {
			bodies := make([]string, len(webResults))
			sources = make([]Source, len(webResults))
			for i, res := range webResults {
				bodies[i] = res.Body
				sources[i] = Source{Text: res.Body, URL: res.Href}
			}
			contextText = "Web Search Results:\n" + strings.Join(bodies, "\n\n")
			e.logger.Info("using web sources", "count", len(sources))
		} else {
			contextText = noContextFound
			sources = []Source{}
		}
	} else {
		// Context and sources use the full top-K set, not just the
		// passing subset; the filter only gates the fallback.
		texts := make([]string, len(results))
		sources = make([]Source, len(results))
		for i, r := range results {
			texts[i] = r.Document.Text
			sources[i] = Source{
				Text: previewText(r.Document.Text),
				URL:  r.Document.Metadata["source"],
			}
		}
		contextText = strings.Join(texts, "\n\n")
		e.logger.Info("using local documents", "relevant", relevant)
	}

	prompt := buildPrompt(history, contextText, query)

	completion, err := e.completer.Complete(ctx, prompt)
	if err != nil {
		return "", nil, fmt.Errorf("completion failed: %w", err)
	}

	response := strings.TrimSpace(completion)
	if response == "" {
		response = noResponseGenerated
	}
	return response, sources, nil
}

// buildPrompt assembles the transcript of recent turns, the persona
// instruction, the retrieved context, and the current question.
func buildPrompt(history []ChatMessage, contextText, query string) string {
	return fmt.Sprintf("%s\n<s>[INST] %s\n\nLocal Menu Data Context:\n%s\n\nCurrent Question: %s\n[/INST]",
		FormatHistory(history, DefaultMaxHistory),
		systemInstruction,
		contextText,
		query,
	)
}

// previewText truncates a document for source display. The ellipsis marker
// is always appended, matching the citation format the UI expects.
func previewText(text string) string {
	runes := []rune(text)
	if len(runes) > sourcePreviewLen {
		runes = runes[:sourcePreviewLen]
	}
	return string(runes) + "..."
}

// appendTurn returns a copy of history extended with the user query and the
// assistant response. The caller's slice is never mutated.
func appendTurn(history []ChatMessage, query, response string) []ChatMessage {
	updated := make([]ChatMessage, 0, len(history)+2)
	updated = append(updated, history...)
	return append(updated,
		ChatMessage{Role: RoleUser, Content: query},
		ChatMessage{Role: RoleAssistant, Content: response},
	)
}

// Package rag implements the core of the menubot service: a retrieval
// pipeline over a persistent vector store of restaurant menu data, a web
// search fallback, and the orchestration logic that turns a user query plus
// chat history into a grounded answer with sources.
package rag

// Message roles understood by the chat endpoints and the history formatter.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Document is one retrievable unit of text together with its structured
// fields. Documents are immutable once stored; the store assigns ids.
type Document struct {
	Text     string
	Metadata map[string]string
}

// RetrievalResult pairs a stored document with the relevance score the
// vector store computed for the query, in [0,1].
type RetrievalResult struct {
	Document Document
	Score    float64
}

// Source points at content that backed an answer and is returned to the
// caller for citation display.
type Source struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// ChatMessage is a single turn of the conversation. The caller owns the
// history and supplies it in full on every request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// WebResult is one hit returned by the web search fallback.
type WebResult struct {
	Body string
	Href string
}

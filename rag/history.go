package rag

import (
	"fmt"
	"strings"
)

// DefaultMaxHistory is the number of trailing messages included in the
// prompt. Messages, not turns: an odd window can split a user/assistant
// pair.
const DefaultMaxHistory = 5

// FormatHistory renders the last maxMessages messages of the conversation as
// an instruction-style transcript: user messages are wrapped in [INST]
// markers, assistant messages close with an end-of-sequence marker. Order is
// preserved.
func FormatHistory(history []ChatMessage, maxMessages int) string {
	if maxMessages <= 0 {
		maxMessages = DefaultMaxHistory
	}
	if len(history) > maxMessages {
		history = history[len(history)-maxMessages:]
	}

	lines := make([]string, 0, len(history))
	for _, msg := range history {
		if msg.Role == RoleUser {
			lines = append(lines, fmt.Sprintf("<s>[INST] %s [/INST]", msg.Content))
		} else {
			lines = append(lines, fmt.Sprintf("%s </s>", msg.Content))
		}
	}
	return strings.Join(lines, "\n")
}

// Package history selects the most recent slice of stored conversation
// turns that fits a model context budget.
package history

import "github.com/miulabs/miu-linebot-go/internal/storage"

// Budget approximation constants. The window is measured in characters as a
// cheap proxy for tokens; the ratio matches what OpenAI documents for mixed
// Japanese/Vietnamese text closely enough for a safety-margined budget.
const (
	// MaxContextTokens is the share of the model context reserved for
	// conversation history, after output tokens and the system prompt.
	MaxContextTokens = 9000

	// CharsPerToken is the character-to-token approximation ratio.
	CharsPerToken = 4

	// DefaultCharBudget is the default history window size in characters.
	DefaultCharBudget = MaxContextTokens * CharsPerToken
)

// Window returns a chronologically-ordered suffix of entries whose total
// content length fits within budgetChars. It walks from newest to oldest,
// stops before the entry that would exceed the budget, and restores
// chronological order. An empty or nil input yields an empty result.
//
// Windowing an already-under-budget history returns it unchanged.
func Window(entries []storage.HistoryEntry, budgetChars int) []storage.HistoryEntry {
	if len(entries) == 0 || budgetChars <= 0 {
		return []storage.HistoryEntry{}
	}

	total := 0
	start := len(entries)
	for i := len(entries) - 1; i >= 0; i-- {
		n := len(entries[i].Content)
		if total+n > budgetChars {
			break
		}
		total += n
		start = i
	}

	out := make([]storage.HistoryEntry, len(entries)-start)
	copy(out, entries[start:])
	return out
}

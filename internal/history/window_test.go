package history

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/miulabs/miu-linebot-go/internal/storage"
)

func entry(role, content string) storage.HistoryEntry {
	return storage.HistoryEntry{Role: role, Content: content}
}

func TestWindowEmptyHistory(t *testing.T) {
	assert.Empty(t, Window(nil, DefaultCharBudget))
	assert.Empty(t, Window([]storage.HistoryEntry{}, DefaultCharBudget))
}

func TestWindowZeroBudget(t *testing.T) {
	entries := []storage.HistoryEntry{entry("user", "hello")}
	assert.Empty(t, Window(entries, 0))
	assert.Empty(t, Window(entries, -1))
}

func TestWindowUnderBudgetUnchanged(t *testing.T) {
	entries := []storage.HistoryEntry{
		entry("user", "こんにちは"),
		entry("assistant", "xin chào"),
		entry("user", "元気?"),
	}

	got := Window(entries, 1000)
	assert.Equal(t, entries, got)

	// Idempotent under re-windowing.
	assert.Equal(t, got, Window(got, 1000))
}

func TestWindowTrimsOldestFirst(t *testing.T) {
	entries := []storage.HistoryEntry{
		entry("user", strings.Repeat("a", 50)),
		entry("assistant", strings.Repeat("b", 50)),
		entry("user", strings.Repeat("c", 50)),
	}

	got := Window(entries, 100)
	assert.Len(t, got, 2)
	assert.Equal(t, "assistant", got[0].Role)
	assert.Equal(t, "user", got[1].Role)
	assert.Equal(t, strings.Repeat("c", 50), got[1].Content)
}

func TestWindowStopsAtFirstOverflow(t *testing.T) {
	// The big entry sits between small ones; accumulation from the newest
	// end must stop there even though older entries alone would fit.
	entries := []storage.HistoryEntry{
		entry("user", "tiny"),
		entry("assistant", strings.Repeat("x", 500)),
		entry("user", "small"),
	}

	got := Window(entries, 100)
	assert.Len(t, got, 1)
	assert.Equal(t, "small", got[0].Content)
}

func TestWindowSingleEntryLargerThanBudget(t *testing.T) {
	entries := []storage.HistoryEntry{entry("user", strings.Repeat("x", 200))}
	assert.Empty(t, Window(entries, 100))
}

func TestWindowPreservesChronologicalOrder(t *testing.T) {
	entries := make([]storage.HistoryEntry, 0, 10)
	for i := 0; i < 10; i++ {
		entries = append(entries, entry("user", strings.Repeat("m", 10)))
	}

	got := Window(entries, 55)
	assert.Len(t, got, 5)
	for i := 1; i < len(got); i++ {
		assert.Equal(t, "user", got[i].Role)
	}
}

func TestWindowNeverExceedsBudget(t *testing.T) {
	entries := []storage.HistoryEntry{
		entry("user", strings.Repeat("a", 30)),
		entry("assistant", strings.Repeat("b", 30)),
		entry("user", strings.Repeat("c", 30)),
	}

	for _, budget := range []int{10, 30, 59, 60, 89, 90, 1000} {
		got := Window(entries, budget)
		total := 0
		for _, e := range got {
			total += len(e.Content)
		}
		assert.LessOrEqual(t, total, budget, "budget %d", budget)
	}
}

func TestDefaultCharBudget(t *testing.T) {
	assert.Equal(t, 36000, DefaultCharBudget)
}

package stringutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFoldsFullWidth(t *testing.T) {
	assert.Equal(t, "/mode translate", Sanitize("／ｍｏｄｅ　ｔｒａｎｓｌａｔｅ"))
}

func TestSanitizeStripsControlChars(t *testing.T) {
	assert.Equal(t, "hello world", Sanitize("hello\x00 world\x1b"))
}

func TestSanitizeKeepsNewlinesAndTabs(t *testing.T) {
	assert.Equal(t, "line1\nline2\ttabbed", Sanitize("line1\nline2\ttabbed"))
}

func TestSanitizeTrimsWhitespace(t *testing.T) {
	assert.Equal(t, "こんにちは", Sanitize("  こんにちは　"))
}

func TestSanitizeEmpty(t *testing.T) {
	assert.Equal(t, "", Sanitize(""))
	assert.Equal(t, "", Sanitize("   "))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab…", Truncate("abcdef", 2))
	assert.Equal(t, "日本…", Truncate("日本語能力", 2))
	assert.Equal(t, "", Truncate("abc", 0))
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "/mode translate", FirstLine("/mode translate\nextra context"))
	assert.Equal(t, "single", FirstLine("single"))
	assert.Equal(t, "", FirstLine("\nbody"))
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"ja":"猫"}`, StripCodeFence("```json\n{\"ja\":\"猫\"}\n```"))
	assert.Equal(t, `{"ja":"猫"}`, StripCodeFence("```\n{\"ja\":\"猫\"}\n```"))
	assert.Equal(t, "no fence here", StripCodeFence("no fence here"))
	assert.Equal(t, "{}", StripCodeFence("  ```{}```  "))
}

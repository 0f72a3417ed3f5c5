package lineutil

import (
	"strings"
	"testing"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFlexBubbleSections(t *testing.T) {
	header := NewFlexBox("vertical", NewFlexText("header").FlexText)
	body := NewFlexBox("vertical", NewFlexText("body").FlexText)
	footer := NewFlexBox("vertical", NewFlexText("footer").FlexText)

	bubble := NewFlexBubble(header, nil, body, footer)

	assert.NotNil(t, bubble.Header)
	assert.Nil(t, bubble.Hero)
	assert.NotNil(t, bubble.Body)
	assert.NotNil(t, bubble.Footer)
}

func TestNewFlexCarouselCapsBubbles(t *testing.T) {
	bubbles := make([]messaging_api.FlexBubble, 20)
	carousel := NewFlexCarousel(bubbles)
	assert.Len(t, carousel.Contents, MaxFlexCarouselBubbleCount)
}

func TestFlexTextFluentChain(t *testing.T) {
	text := NewFlexText("こんにちは").
		WithWeight("bold").
		WithSize("xl").
		WithColor(ColorText).
		WithWrap(true).
		WithMargin("md")

	assert.Equal(t, messaging_api.FlexTextWEIGHT("bold"), text.Weight)
	assert.Equal(t, "xl", text.Size)
	assert.Equal(t, ColorText, text.Color)
	assert.True(t, text.Wrap)
	assert.Equal(t, "md", text.Margin)
}

func TestNewFlexTextSpans(t *testing.T) {
	text := NewFlexTextSpans(
		NewFlexSpan("猫が好きです", "bold", ColorText),
		NewFlexSpan("\nTôi thích mèo", "", ColorSubtext),
	)

	require.Len(t, text.Contents, 2)
	assert.Equal(t, messaging_api.FlexSpanWEIGHT("bold"), text.Contents[0].Weight)
	assert.Equal(t, "猫が好きです", text.Contents[0].Text)
	assert.Equal(t, ColorSubtext, text.Contents[1].Color)
}

func TestFlexTextWithFlexClampsNegative(t *testing.T) {
	text := NewFlexText("x").WithFlex(-5)
	assert.Equal(t, int32(0), text.Flex)
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "short", TruncateRunes("short", 10))
	assert.Equal(t, "日本語能力試験...", TruncateRunes("日本語能力試験対策講座", 10))
	assert.Equal(t, "ab", TruncateRunes("abcdef", 2))
}

func TestTruncateRunesMultibyteBoundary(t *testing.T) {
	got := TruncateRunes(strings.Repeat("あ", 100), 50)
	assert.Len(t, []rune(got), 50)
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestNewHeroBox(t *testing.T) {
	box := NewHeroBox("title", "subtitle")
	assert.Equal(t, ColorHeroBg, box.BackgroundColor)
	assert.Len(t, box.Contents, 2)

	noSub := NewHeroBox("title", "")
	assert.Len(t, noSub.Contents, 1)
}

func TestNewButtonRowSkipsNil(t *testing.T) {
	row := NewButtonRow(
		NewFlexButton(NewMessageAction("a", "a")),
		nil,
		NewFlexButton(NewMessageAction("b", "b")),
	)
	assert.Len(t, row.Contents, 2)
}

package lineutil

import (
	"strings"
	"testing"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTextMessageTruncatesLongText(t *testing.T) {
	msg := NewTextMessage(strings.Repeat("あ", 6000))

	assert.LessOrEqual(t, len([]rune(msg.Text)), MaxTextMessageLength)
	assert.True(t, strings.HasSuffix(msg.Text, "..."))
}

func TestNewTextMessageShortTextUntouched(t *testing.T) {
	msg := NewTextMessage("こんにちは")
	assert.Equal(t, "こんにちは", msg.Text)
}

func TestNewTextMessageWithSender(t *testing.T) {
	sender := NewSender("Miu", "https://example.com/icon.png")
	msg := NewTextMessageWithSender("hi", sender)

	require.NotNil(t, msg.Sender)
	assert.Equal(t, "Miu", msg.Sender.Name)
	assert.Equal(t, "https://example.com/icon.png", msg.Sender.IconUrl)
}

func TestNewQuickReplyCapsItems(t *testing.T) {
	items := make([]QuickReplyItem, 20)
	for i := range items {
		items[i] = QuickReplyItem{Action: NewMessageAction("label", "text")}
	}

	qr := NewQuickReply(items)
	assert.Len(t, qr.Items, MaxQuickReplyItemCount)
}

func TestNewMessageActionTruncatesLabel(t *testing.T) {
	action := NewMessageAction(strings.Repeat("x", 40), "text")

	ma, ok := action.(*messaging_api.MessageAction)
	require.True(t, ok)
	assert.LessOrEqual(t, len([]rune(ma.Label)), MaxQuickReplyLabel)
	assert.Equal(t, "text", ma.Text)
}

func TestNewPostbackActionCapsData(t *testing.T) {
	action := NewPostbackAction("label", strings.Repeat("d", 500))

	pa, ok := action.(*messaging_api.PostbackAction)
	require.True(t, ok)
	assert.LessOrEqual(t, len(pa.Data), MaxPostbackData)
}

func TestNewPostbackActionWithDisplayText(t *testing.T) {
	action := NewPostbackActionWithDisplayText("label", "shown in chat", "cmd=mode")

	pa, ok := action.(*messaging_api.PostbackAction)
	require.True(t, ok)
	assert.Equal(t, "shown in chat", pa.DisplayText)
	assert.Equal(t, "cmd=mode", pa.Data)
}

func TestNewImageMessage(t *testing.T) {
	msg := NewImageMessage("https://example.com/full.png", "https://example.com/preview.png")
	assert.Equal(t, "https://example.com/full.png", msg.OriginalContentUrl)
	assert.Equal(t, "https://example.com/preview.png", msg.PreviewImageUrl)
}

func TestNewFlexMessageTruncatesAltText(t *testing.T) {
	bubble := NewFlexBubble(nil, nil, NewFlexBox("vertical", NewFlexText("body").FlexText), nil)
	msg := NewFlexMessage(strings.Repeat("a", 500), bubble.FlexBubble)

	assert.LessOrEqual(t, len([]rune(msg.AltText)), MaxAltTextLength)
}

func TestSetSenderCoversMessageTypes(t *testing.T) {
	sender := NewSender("Miu", "")

	text := NewTextMessage("hi")
	SetSender(text, sender)
	assert.Equal(t, sender, text.Sender)

	img := NewImageMessage("https://a", "https://b")
	SetSender(img, sender)
	assert.Equal(t, sender, img.Sender)

	// nil sender is a no-op
	text2 := NewTextMessage("hi")
	SetSender(text2, nil)
	assert.Nil(t, text2.Sender)
}

func TestAddQuickReplyToMessagesAttachesToLast(t *testing.T) {
	first := NewTextMessage("one")
	last := NewTextMessage("two")
	msgs := []messaging_api.MessageInterface{first, last}

	AddQuickReplyToMessages(msgs, QuickReplyItem{Action: NewMessageAction("a", "b")})

	assert.Nil(t, first.QuickReply)
	require.NotNil(t, last.QuickReply)
	assert.Len(t, last.QuickReply.Items, 1)
}

func TestAddQuickReplyToMessagesEmptySlice(t *testing.T) {
	AddQuickReplyToMessages(nil, QuickReplyItem{Action: NewMessageAction("a", "b")})
}

package lineutil

import (
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// QuickReplyItem represents an item in a quick reply.
type QuickReplyItem struct {
	ImageURL string
	Action   messaging_api.ActionInterface
}

// Action is an alias for the LINE SDK action interface for convenience.
type Action = messaging_api.ActionInterface

// NewTextMessage creates a simple text message. Text over the LINE limit is
// truncated by rune count.
func NewTextMessage(text string) *messaging_api.TextMessage {
	if len(text) > MaxTextMessageLength {
		text = TruncateRunes(text, MaxTextMessageLength-3) + "..."
	}

	return &messaging_api.TextMessage{
		Text: text,
	}
}

// NewTextMessageWithSender creates a text message carrying a sender avatar.
func NewTextMessageWithSender(text string, sender *messaging_api.Sender) *messaging_api.TextMessage {
	msg := NewTextMessage(text)
	msg.Sender = sender
	return msg
}

// NewTextMessageWithQuickReply creates a text message with quick reply items.
func NewTextMessageWithQuickReply(text string, sender *messaging_api.Sender, items ...QuickReplyItem) *messaging_api.TextMessage {
	msg := NewTextMessageWithSender(text, sender)
	if len(items) > 0 {
		msg.QuickReply = NewQuickReply(items)
	}
	return msg
}

// NewImageMessage creates an image message. Both URLs must be HTTPS;
// previewImageURL is the thumbnail shown in the chat list.
func NewImageMessage(originalContentURL, previewImageURL string) *messaging_api.ImageMessage {
	return &messaging_api.ImageMessage{
		OriginalContentUrl: originalContentURL,
		PreviewImageUrl:    previewImageURL,
	}
}

// NewFlexMessage creates a flex message with the given alt text and container.
func NewFlexMessage(altText string, contents messaging_api.FlexContainerInterface) *messaging_api.FlexMessage {
	if len(altText) > MaxAltTextLength {
		altText = TruncateRunes(altText, MaxAltTextLength-3) + "..."
	}
	return &messaging_api.FlexMessage{
		AltText:  altText,
		Contents: contents,
	}
}

// NewFlexMessageWithQuickReply creates a flex message with sender and quick
// reply items attached.
func NewFlexMessageWithQuickReply(altText string, contents messaging_api.FlexContainerInterface, sender *messaging_api.Sender, items ...QuickReplyItem) *messaging_api.FlexMessage {
	msg := NewFlexMessage(altText, contents)
	msg.Sender = sender
	if len(items) > 0 {
		msg.QuickReply = NewQuickReply(items)
	}
	return msg
}

// NewQuickReply creates a quick reply component. Items beyond the LINE limit
// of 13 are dropped.
func NewQuickReply(items []QuickReplyItem) *messaging_api.QuickReply {
	if len(items) > MaxQuickReplyItemCount {
		items = items[:MaxQuickReplyItemCount]
	}

	quickReplyItems := make([]messaging_api.QuickReplyItem, len(items))
	for i, item := range items {
		qrItem := messaging_api.QuickReplyItem{
			Action: item.Action,
		}
		if item.ImageURL != "" {
			qrItem.ImageUrl = item.ImageURL
		}
		quickReplyItems[i] = qrItem
	}

	return &messaging_api.QuickReply{
		Items: quickReplyItems,
	}
}

// NewMessageAction creates an action that sends text as a user message when
// tapped. Labels over the quick reply limit are truncated.
func NewMessageAction(label, text string) Action {
	return &messaging_api.MessageAction{
		Label: TruncateRunes(label, MaxQuickReplyLabel),
		Text:  text,
	}
}

// NewPostbackAction creates an action that sends data to the bot when tapped.
func NewPostbackAction(label, data string) Action {
	if len(data) > MaxPostbackData {
		data = data[:MaxPostbackData]
	}
	return &messaging_api.PostbackAction{
		Label: TruncateRunes(label, MaxQuickReplyLabel),
		Data:  data,
	}
}

// NewPostbackActionWithDisplayText creates a postback action that also echoes
// displayText into the chat when tapped.
func NewPostbackActionWithDisplayText(label, displayText, data string) Action {
	if len(data) > MaxPostbackData {
		data = data[:MaxPostbackData]
	}
	return &messaging_api.PostbackAction{
		Label:       TruncateRunes(label, MaxQuickReplyLabel),
		DisplayText: displayText,
		Data:        data,
	}
}

// NewCameraRollAction creates an action that opens the device photo album.
func NewCameraRollAction(label string) Action {
	return &messaging_api.CameraRollAction{
		Label: TruncateRunes(label, MaxQuickReplyLabel),
	}
}

// NewURIAction creates an action that opens a URL when tapped.
func NewURIAction(label, uri string) Action {
	return &messaging_api.UriAction{
		Label: label,
		Uri:   uri,
	}
}

// NewCameraAction creates an action that opens the device camera.
func NewCameraAction(label string) Action {
	return &messaging_api.CameraAction{
		Label: TruncateRunes(label, MaxQuickReplyLabel),
	}
}

// SetSender sets the Sender field on a message and returns it for chaining.
// Supports TextMessage, FlexMessage, TemplateMessage and ImageMessage.
func SetSender(msg messaging_api.MessageInterface, sender *messaging_api.Sender) messaging_api.MessageInterface {
	if sender == nil {
		return msg
	}

	switch m := msg.(type) {
	case *messaging_api.TextMessage:
		m.Sender = sender
	case *messaging_api.FlexMessage:
		m.Sender = sender
	case *messaging_api.TemplateMessage:
		m.Sender = sender
	case *messaging_api.ImageMessage:
		m.Sender = sender
	}

	return msg
}

// AddQuickReplyToMessages attaches quick reply items to the last message in a
// slice. LINE only renders quick replies on the final message of a reply, so
// attaching anywhere else is wasted.
func AddQuickReplyToMessages(messages []messaging_api.MessageInterface, items ...QuickReplyItem) {
	if len(messages) == 0 || len(items) == 0 {
		return
	}
	qr := NewQuickReply(items)
	switch m := messages[len(messages)-1].(type) {
	case *messaging_api.TextMessage:
		m.QuickReply = qr
	case *messaging_api.FlexMessage:
		m.QuickReply = qr
	case *messaging_api.TemplateMessage:
		m.QuickReply = qr
	}
}

// NewSender creates a message sender with the given display name and icon.
func NewSender(name, iconURL string) *messaging_api.Sender {
	sender := &messaging_api.Sender{Name: name}
	if iconURL != "" {
		sender.IconUrl = iconURL
	}
	return sender
}

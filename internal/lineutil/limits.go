// Package lineutil provides utility functions for building LINE messages
// and actions.
package lineutil

// LINE API character and item limits (rune count).
// Reference: https://developers.line.biz/en/reference/messaging-api/
const (
	MaxTextMessageLength = 5000 // Text message max content length
	MaxAltTextLength     = 400  // Template/Flex message alt text length
	MaxPostbackData      = 300  // Postback action data length

	MaxMessagesPerReply = 5 // Messages per reply/push call

	// Quick reply limits
	MaxQuickReplyItemCount = 13 // Max items in a quick reply
	MaxQuickReplyLabel     = 20 // Max label length for quick reply item

	// Flex message limits
	MaxFlexCarouselBubbleCount = 12 // Max bubbles in a Flex carousel
)

// Package lineclient wraps the LINE Messaging API for the bot: replies,
// pushes, content downloads, profile lookups and rich menu links.
package lineclient

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/miulabs/miu-linebot-go/internal/logger"
)

// maxContentBytes caps message content downloads. LINE serves images and
// audio well under this; the cap guards against a misbehaving upstream.
const maxContentBytes = 25 << 20

// Client is the concrete Messenger implementation over the LINE SDK.
type Client struct {
	api  *messaging_api.MessagingApiAPI
	blob *messaging_api.MessagingApiBlobAPI
	log  *logger.Logger
}

// New creates a client for the given channel access token.
func New(channelToken string, log *logger.Logger) (*Client, error) {
	if channelToken == "" {
		return nil, errors.New("channel access token is required")
	}

	api, err := messaging_api.NewMessagingApiAPI(channelToken)
	if err != nil {
		return nil, fmt.Errorf("create messaging API client: %w", err)
	}
	blob, err := messaging_api.NewMessagingApiBlobAPI(channelToken)
	if err != nil {
		return nil, fmt.Errorf("create blob API client: %w", err)
	}

	return &Client{
		api:  api,
		blob: blob,
		log:  log.WithModule("lineclient"),
	}, nil
}

// Reply sends messages against a reply token.
func (c *Client) Reply(_ context.Context, replyToken string, msgs []messaging_api.MessageInterface) error {
	_, err := c.api.ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: replyToken,
		Messages:   msgs,
	})
	if err != nil {
		return fmt.Errorf("reply message: %w", err)
	}
	return nil
}

// Push sends messages directly to a user. A fresh retry key makes the send
// idempotent against transport-level retries.
func (c *Client) Push(_ context.Context, to string, msgs []messaging_api.MessageInterface) error {
	_, err := c.api.PushMessage(&messaging_api.PushMessageRequest{
		To:       to,
		Messages: msgs,
	}, uuid.NewString())
	if err != nil {
		return fmt.Errorf("push message: %w", err)
	}
	return nil
}

// ShowLoading displays the typing indicator. seconds is clamped to the API's
// 5..60 range in multiples of 5.
func (c *Client) ShowLoading(_ context.Context, chatID string, seconds int) error {
	if seconds < 5 {
		seconds = 5
	}
	if seconds > 60 {
		seconds = 60
	}
	seconds -= seconds % 5

	_, err := c.api.ShowLoadingAnimation(&messaging_api.ShowLoadingAnimationRequest{
		ChatId:         chatID,
		LoadingSeconds: int32(seconds),
	})
	if err != nil {
		return fmt.Errorf("show loading animation: %w", err)
	}
	return nil
}

// Profile returns the user's display name.
func (c *Client) Profile(_ context.Context, userID string) (string, error) {
	profile, err := c.api.GetProfile(userID)
	if err != nil {
		return "", fmt.Errorf("get profile: %w", err)
	}
	return profile.DisplayName, nil
}

// Content downloads the binary payload of a message (image or audio).
func (c *Client) Content(_ context.Context, messageID string) ([]byte, error) {
	resp, err := c.blob.GetMessageContent(messageID)
	if err != nil {
		return nil, fmt.Errorf("get message content: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxContentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read message content: %w", err)
	}
	if len(data) > maxContentBytes {
		return nil, fmt.Errorf("message content exceeds %d bytes", maxContentBytes)
	}
	return data, nil
}

// LinkRichMenu attaches a rich menu to the user.
func (c *Client) LinkRichMenu(_ context.Context, userID, richMenuID string) error {
	if _, err := c.api.LinkRichMenuIdToUser(userID, richMenuID); err != nil {
		return fmt.Errorf("link rich menu: %w", err)
	}
	return nil
}

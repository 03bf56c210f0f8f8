package linebot

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// maxTextLength is the Messaging API limit for one text message.
const maxTextLength = 5000

// Replier sends a text reply for a reply token.
type Replier interface {
	Reply(ctx context.Context, replyToken, text string) error
}

// Client sends replies through the Messaging API.
type Client struct {
	api *messaging_api.MessagingApiAPI
}

var _ Replier = (*Client)(nil)

// NewClient creates a Messaging API client. endpoint overrides the API base
// URL and may be empty.
func NewClient(channelAccessToken, endpoint string) (*Client, error) {
	var opts []messaging_api.MessagingApiAPIOption
	if endpoint != "" {
		opts = append(opts, messaging_api.WithEndpoint(endpoint))
	}
	api, err := messaging_api.NewMessagingApiAPI(channelAccessToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("linebot: create messaging client: %w", err)
	}
	return &Client{api: api}, nil
}

// Reply answers the message identified by replyToken with text.
func (c *Client) Reply(ctx context.Context, replyToken, text string) error {
	_, err := c.api.WithContext(ctx).ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: replyToken,
		Messages: []messaging_api.MessageInterface{
			messaging_api.TextMessage{Text: truncate(text, maxTextLength)},
		},
	})
	if err != nil {
		return fmt.Errorf("linebot: reply message: %w", err)
	}
	return nil
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max])
}

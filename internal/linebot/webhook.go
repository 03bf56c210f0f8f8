// Package linebot connects the record pipeline to a LINE Messaging API
// channel: it verifies and parses webhook callbacks and sends replies.
package linebot

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
)

// ErrInvalidSignature is returned when X-Line-Signature does not match the
// request body.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// TextEvent is an inbound text message that can be answered.
type TextEvent struct {
	ReplyToken string
	Text       string
	UserID     string
	MessageID  string
}

// ParseTextEvents verifies r against channelSecret and returns its text
// message events. Other event and message types are skipped.
func ParseTextEvents(channelSecret string, r *http.Request) ([]TextEvent, error) {
	cb, err := webhook.ParseRequest(channelSecret, r)
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			return nil, ErrInvalidSignature
		}
		return nil, fmt.Errorf("parse webhook: %w", err)
	}

	var events []TextEvent
	for _, event := range cb.Events {
		e, ok := event.(webhook.MessageEvent)
		if !ok {
			continue
		}
		msg, ok := e.Message.(webhook.TextMessageContent)
		if !ok || e.ReplyToken == "" {
			continue
		}
		events = append(events, TextEvent{
			ReplyToken: e.ReplyToken,
			Text:       msg.Text,
			UserID:     sourceUserID(e.Source),
			MessageID:  msg.Id,
		})
	}
	return events, nil
}

func sourceUserID(src webhook.SourceInterface) string {
	switch s := src.(type) {
	case webhook.UserSource:
		return s.UserId
	case webhook.GroupSource:
		return s.UserId
	case webhook.RoomSource:
		return s.UserId
	default:
		return ""
	}
}

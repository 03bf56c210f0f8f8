package handlers

import (
	"errors"
	"net/http"

	"github.com/dvloznov/chat-ledger/internal/api/middleware"
	"github.com/dvloznov/chat-ledger/internal/jobs"
	"github.com/dvloznov/chat-ledger/internal/linebot"
	"github.com/dvloznov/chat-ledger/internal/logger"
)

var errNoPublisher = errors.New("no job publisher configured")

// CallbackHandler receives LINE webhooks and queues one reply job per text
// message. The record pipeline runs on the queue workers.
type CallbackHandler struct {
	channelSecret string
	publisher     jobs.Publisher
}

// NewCallbackHandler creates a webhook handler.
func NewCallbackHandler(channelSecret string, publisher jobs.Publisher) *CallbackHandler {
	return &CallbackHandler{
		channelSecret: channelSecret,
		publisher:     publisher,
	}
}

// Callback handles POST /callback
func (h *CallbackHandler) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	events, err := linebot.ParseTextEvents(h.channelSecret, r)
	if err != nil {
		if errors.Is(err, linebot.ErrInvalidSignature) {
			log.Warn().Msg("Rejected webhook with invalid signature")
			middleware.WriteError(w, http.StatusBadRequest, "invalid signature")
			return
		}
		log.Warn().Err(err).Msg("Failed to parse webhook")
		middleware.WriteError(w, http.StatusBadRequest, "invalid webhook body")
		return
	}

	if h.publisher == nil && len(events) > 0 {
		log.Error().Err(errNoPublisher).Msg("Dropping webhook events")
		middleware.WriteError(w, http.StatusServiceUnavailable, "not accepting messages")
		return
	}

	for _, ev := range events {
		job := &jobs.ReplyJob{
			ReplyToken: ev.ReplyToken,
			Message:    ev.Text,
			UserID:     ev.UserID,
		}
		if err := h.publisher.PublishReply(ctx, job); err != nil {
			log.Error().Err(err).Str("message_id", ev.MessageID).Msg("Failed to enqueue reply job")
			continue
		}
		log.Info().Str("job_id", job.JobID).Str("message_id", ev.MessageID).Msg("Reply job enqueued")
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

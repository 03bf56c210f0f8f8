package linebot

import (
	"context"
	"fmt"

	"github.com/dvloznov/chat-ledger/internal/jobs"
	"github.com/dvloznov/chat-ledger/internal/logger"
	"github.com/dvloznov/chat-ledger/internal/pipeline"
)

// Processor runs one message through the record pipeline.
type Processor interface {
	Process(ctx context.Context, message string) pipeline.Outcome
}

// NewReplyHandler returns the queue handler for reply jobs. The pipeline runs
// once per job; a failed delivery is retried with the stored reply text.
func NewReplyHandler(p Processor, replier Replier) jobs.JobHandler {
	return func(ctx context.Context, job *jobs.ReplyJob) error {
		log := logger.FromContext(ctx).With().Str("user_id", job.UserID).Logger()

		if job.Reply == "" {
			out := p.Process(logger.WithContext(ctx, log), job.Message)
			job.Reply = pipeline.Compose(out)
			job.Outcome = out.Kind.String()
			job.RecordID = out.Record.ID
		}

		if err := replier.Reply(ctx, job.ReplyToken, job.Reply); err != nil {
			return fmt.Errorf("deliver reply: %w", err)
		}
		log.Info().Str("outcome", job.Outcome).Int64("record_id", job.RecordID).Msg("reply delivered")
		return nil
	}
}

package handlers

import (
	"context"
	"sync"

	"github.com/dvloznov/chat-ledger/internal/domain"
	"github.com/dvloznov/chat-ledger/internal/jobs"
	"github.com/dvloznov/chat-ledger/internal/pipeline"
)

// MockProcessor is a mock implementation of Processor.
type MockProcessor struct {
	ProcessFunc func(ctx context.Context, message string) pipeline.Outcome
	calls       int
}

func (m *MockProcessor) Process(ctx context.Context, message string) pipeline.Outcome {
	m.calls++
	return m.ProcessFunc(ctx, message)
}

// MockRecordLister is a mock implementation of RecordLister.
type MockRecordLister struct {
	ListFunc func(ctx context.Context) ([]domain.Record, error)
}

func (m *MockRecordLister) List(ctx context.Context) ([]domain.Record, error) {
	return m.ListFunc(ctx)
}

// MockPublisher records published jobs.
type MockPublisher struct {
	PublishReplyFunc func(ctx context.Context, job *jobs.ReplyJob) error

	mu        sync.Mutex
	published []*jobs.ReplyJob
}

func (m *MockPublisher) PublishReply(ctx context.Context, job *jobs.ReplyJob) error {
	if m.PublishReplyFunc != nil {
		if err := m.PublishReplyFunc(ctx, job); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if job.JobID == "" {
		job.JobID = "job-" + job.ReplyToken
	}
	m.published = append(m.published, job)
	return nil
}

func (m *MockPublisher) Close() error { return nil }

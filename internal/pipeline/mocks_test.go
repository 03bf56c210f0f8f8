package pipeline_test

import (
	"context"
	"sync"

	"github.com/dvloznov/chat-ledger/internal/domain"
)

// MockExtractor is a mock implementation of pipeline.Extractor.
type MockExtractor struct {
	ExtractFunc func(ctx context.Context, prompt string) (string, error)

	mu      sync.Mutex
	prompts []string
}

func (m *MockExtractor) Extract(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, prompt)
	}
	return "", nil
}

// MockLedgerStore is an in-memory pipeline.LedgerStore.
type MockLedgerStore struct {
	CommitFunc func(ctx context.Context, rec domain.ProposedRecord) (domain.Record, error)

	mu      sync.Mutex
	records []domain.Record
	nextID  int64
}

func (m *MockLedgerStore) Commit(ctx context.Context, rec domain.ProposedRecord) (domain.Record, error) {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx, rec)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	r := rec.WithID(m.nextID)
	m.records = append(m.records, r)
	return r, nil
}

func (m *MockLedgerStore) List(ctx context.Context) ([]domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Record, len(m.records))
	copy(out, m.records)
	return out, nil
}

func (m *MockLedgerStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/chat-ledger/internal/domain"
)

// PipelineStep represents a single step in the record pipeline.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	Message   string
	Prompt    string
	RawOutput string
	Proposed  domain.ProposedRecord
	Record    domain.Record
}

// Step 1: BuildPromptStep wraps the message in the extraction instructions.
type BuildPromptStep struct{}

func (s *BuildPromptStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Prompt = BuildPrompt(state.Message)
	return nil
}

// Step 2: ExtractStep sends the prompt to the model.
type ExtractStep struct {
	Extractor Extractor
}

func (s *ExtractStep) Execute(ctx context.Context, state *PipelineState) error {
	raw, err := s.Extractor.Extract(ctx, state.Prompt)
	if err != nil {
		if !errors.Is(err, ErrBackendUnavailable) {
			err = NewBackendError("extractor", err)
		}
		return err
	}
	state.RawOutput = raw
	return nil
}

// Step 3: ParseStep decodes the model output into a proposed record.
type ParseStep struct{}

func (s *ParseStep) Execute(ctx context.Context, state *PipelineState) error {
	proposed, err := ParseRecord(state.RawOutput)
	if err != nil {
		return err
	}
	state.Proposed = proposed
	return nil
}

// Step 4: NormalizeStep resolves the today sentinel.
type NormalizeStep struct {
	Today func() time.Time
}

func (s *NormalizeStep) Execute(ctx context.Context, state *PipelineState) error {
	proposed, err := NormalizeDate(state.Proposed, s.Today())
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Raw = state.RawOutput
		}
		return err
	}
	state.Proposed = proposed
	return nil
}

// Step 5: CommitStep writes the record to the ledger.
type CommitStep struct {
	Store LedgerStore
}

func (s *CommitStep) Execute(ctx context.Context, state *PipelineState) error {
	rec, err := s.Store.Commit(ctx, state.Proposed)
	if err != nil {
		if !errors.Is(err, ErrWriteFailed) {
			err = fmt.Errorf("%w: %w", ErrWriteFailed, err)
		}
		return err
	}
	state.Record = rec
	return nil
}

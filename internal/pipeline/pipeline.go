package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/chat-ledger/internal/logger"
)

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps in the pipeline sequentially and stops at the
// first failure.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}

// Option configures a record pipeline.
type Option func(*options)

type options struct {
	clock    Clock
	location *time.Location
}

// WithClock sets the source of the current time. Defaults to time.Now.
func WithClock(c Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithLocation sets the timezone in which "today" is evaluated.
func WithLocation(loc *time.Location) Option {
	return func(o *options) { o.location = loc }
}

// NewRecordPipeline creates the standard five-step pipeline that turns one
// chat message into one committed ledger record.
func NewRecordPipeline(extractor Extractor, store LedgerStore, opts ...Option) *Pipeline {
	o := options{clock: time.Now, location: time.Local}
	for _, opt := range opts {
		opt(&o)
	}
	today := func() time.Time { return o.clock().In(o.location) }

	return NewPipeline(
		&BuildPromptStep{},
		&ExtractStep{Extractor: extractor},
		&ParseStep{},
		&NormalizeStep{Today: today},
		&CommitStep{Store: store},
	)
}

// Process runs the pipeline for message and classifies the result. It never
// returns an error; failures are reported through the Outcome.
func (p *Pipeline) Process(ctx context.Context, message string) (out Outcome) {
	log := logger.FromContext(ctx)
	state := &PipelineState{Message: message}

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("record pipeline panicked")
			out = Outcome{Kind: OutcomeBackendFailure, Err: fmt.Errorf("pipeline panic: %v", r), RawOutput: state.RawOutput}
		}
	}()

	err := p.Execute(ctx, state)
	out = classify(state, err)

	event := log.Info()
	if out.Kind != OutcomeCommitted {
		event = log.Warn().Err(err)
	}
	event.Str("outcome", out.Kind.String()).
		Int64("record_id", out.Record.ID).
		Msg("message processed")

	if out.RawOutput != "" {
		log.Debug().Str("raw_output", out.RawOutput).Msg("model output")
	}
	return out
}

func classify(state *PipelineState, err error) Outcome {
	out := Outcome{Err: err, RawOutput: state.RawOutput}
	switch {
	case err == nil:
		out.Kind = OutcomeCommitted
		out.Record = state.Record
	case errors.Is(err, ErrBackendUnavailable):
		out.Kind = OutcomeBackendFailure
	case errors.Is(err, ErrWriteFailed):
		out.Kind = OutcomeStoreFailure
	case isParseFailure(err):
		out.Kind = OutcomeRejected
	default:
		out.Kind = OutcomeBackendFailure
	}
	return out
}

func isParseFailure(err error) bool {
	return errors.Is(err, ErrMalformed) ||
		errors.Is(err, ErrMissingField) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidDate)
}

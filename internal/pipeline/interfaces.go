package pipeline

import (
	"context"
	"time"

	"github.com/dvloznov/chat-ledger/internal/domain"
)

// Extractor sends a prompt to a language model and returns its raw text.
// Output that does not follow the requested format is not an error here;
// call failures are reported as ErrBackendUnavailable.
type Extractor interface {
	Extract(ctx context.Context, prompt string) (string, error)
}

// LedgerStore persists committed records. Commit is atomic: on failure
// nothing is written and the error wraps ErrWriteFailed.
type LedgerStore interface {
	// Commit inserts rec and returns it with its assigned id.
	Commit(ctx context.Context, rec domain.ProposedRecord) (domain.Record, error)

	// List returns every record, newest date first.
	List(ctx context.Context) ([]domain.Record, error)
}

// Clock returns the current time.
type Clock func() time.Time

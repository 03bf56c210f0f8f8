package pipeline

import (
	"time"

	"github.com/dvloznov/chat-ledger/internal/domain"
)

// NormalizeDate resolves the today sentinel against today and checks that
// the resulting date is a calendar date. Any other value is passed through
// unchanged before the check.
func NormalizeDate(p domain.ProposedRecord, today time.Time) (domain.ProposedRecord, error) {
	if p.Date == TodayToken {
		p.Date = today.Format(DateLayout)
	}
	if err := validateDate(p.Date); err != nil {
		return domain.ProposedRecord{}, &ParseError{Kind: ErrInvalidDate, Field: "date", Err: err}
	}
	return p, nil
}

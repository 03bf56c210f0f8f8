package pipeline

import (
	"errors"
	"fmt"

	"github.com/dvloznov/chat-ledger/internal/domain"
)

// OutcomeKind classifies the result of processing one message.
type OutcomeKind int

const (
	OutcomeCommitted OutcomeKind = iota
	OutcomeRejected
	OutcomeBackendFailure
	OutcomeStoreFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeCommitted:
		return "committed"
	case OutcomeRejected:
		return "rejected"
	case OutcomeBackendFailure:
		return "backend_failure"
	case OutcomeStoreFailure:
		return "store_failure"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// Outcome is what Process hands to the transport. Record is set only for
// OutcomeCommitted. RawOutput is the unmodified model text when there was one.
type Outcome struct {
	Kind      OutcomeKind
	Record    domain.Record
	Err       error
	RawOutput string
}

const (
	msgRejected       = "抱歉，看不懂這筆記帳內容，請換個說法再試一次，例如「午餐 120 元」。"
	msgBackendFailure = "記帳服務暫時無法使用，請稍後再試。"
	msgStoreFailure   = "已讀懂內容但儲存失敗，請稍後再試。"

	hintMissingAmount = "（找不到金額）"
	hintInvalidAmount = "（金額需為正整數）"
	hintInvalidDate   = "（日期格式不正確）"
)

// Compose renders the user-facing reply for o. It never includes model
// output or internal error text.
func Compose(o Outcome) string {
	switch o.Kind {
	case OutcomeCommitted:
		r := o.Record
		return fmt.Sprintf("已記錄：%s %d 元（%s），日期 %s", r.Item, r.Amount, r.Category, r.Date)
	case OutcomeRejected:
		return msgRejected + rejectionHint(o.Err)
	case OutcomeStoreFailure:
		return msgStoreFailure
	default:
		return msgBackendFailure
	}
}

func rejectionHint(err error) string {
	var pe *ParseError
	if !errors.As(err, &pe) {
		return ""
	}
	switch {
	case errors.Is(pe.Kind, ErrMissingField) && pe.Field == "amount":
		return hintMissingAmount
	case errors.Is(pe.Kind, ErrInvalidAmount):
		return hintInvalidAmount
	case errors.Is(pe.Kind, ErrInvalidDate):
		return hintInvalidDate
	default:
		return ""
	}
}

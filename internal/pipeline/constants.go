package pipeline

// Defaults shared by the prompt contract, the parser and the backends.
const (
	// TodayToken is the literal the prompt asks the model to emit when the
	// message means the current day. Matching is exact and case-sensitive.
	TodayToken = "今天"

	// MaxAmount is the largest accepted amount in whole currency units.
	MaxAmount = 1_000_000_000_000

	// DateLayout is the only date format a committed record may carry.
	DateLayout = "2006-01-02"

	// DefaultTimezone is used to decide what "today" means.
	DefaultTimezone = "Asia/Taipei"
)

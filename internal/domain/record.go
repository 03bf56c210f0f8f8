package domain

// Record is one committed ledger entry. ID is assigned by the ledger store
// on insert and never changes afterwards.
type Record struct {
	ID       int64  `json:"id"`
	Date     string `json:"date"`     // YYYY-MM-DD, always resolved
	Item     string `json:"item"`
	Amount   int64  `json:"amount"`   // whole currency units
	Category string `json:"category"`
}

// ProposedRecord is a record candidate parsed from model output.
// It is untrusted until it has been normalized and committed.
type ProposedRecord struct {
	Date     string // may still hold the relative "today" token
	Item     string
	Amount   int64
	Category string
}

// WithID returns the committed form of p.
func (p ProposedRecord) WithID(id int64) Record {
	return Record{
		ID:       id,
		Date:     p.Date,
		Item:     p.Item,
		Amount:   p.Amount,
		Category: p.Category,
	}
}

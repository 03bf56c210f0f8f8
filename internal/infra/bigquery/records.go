package bigquery

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/chat-ledger/internal/domain"
)

// RecordRow is one ledger record as stored in the warehouse table.
type RecordRow struct {
	RecordID   int64      `bigquery:"record_id"`   // REQUIRED, ledger id
	Date       civil.Date `bigquery:"date"`        // REQUIRED
	Item       string     `bigquery:"item"`        // REQUIRED
	Amount     int64      `bigquery:"amount"`      // REQUIRED, whole units
	Category   string     `bigquery:"category"`    // REQUIRED
	ExportedTS time.Time  `bigquery:"exported_ts"` // REQUIRED
}

// RecordToRow converts a committed ledger record into a warehouse row.
func RecordToRow(rec domain.Record, exportedAt time.Time) (*RecordRow, error) {
	d, err := civil.ParseDate(rec.Date)
	if err != nil {
		return nil, fmt.Errorf("RecordToRow: record %d: %w", rec.ID, err)
	}
	return &RecordRow{
		RecordID:   rec.ID,
		Date:       d,
		Item:       rec.Item,
		Amount:     rec.Amount,
		Category:   rec.Category,
		ExportedTS: exportedAt.UTC(),
	}, nil
}

package bigquery

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/chat-ledger/internal/domain"
	"github.com/dvloznov/chat-ledger/internal/logger"
)

// BatchSize is the number of rows sent per insert call.
const BatchSize = 500

// RecordSource lists ledger records with an id greater than afterID,
// ordered by id ascending.
type RecordSource interface {
	ListSince(ctx context.Context, afterID int64) ([]domain.Record, error)
}

// ExportRecords copies every ledger record newer than the warehouse's
// high-water mark. Running it twice in a row exports nothing the second time.
// It returns the number of rows inserted.
func ExportRecords(ctx context.Context, src RecordSource, wh Warehouse, now func() time.Time, dryRun bool) (int, error) {
	log := logger.FromContext(ctx)

	if err := wh.EnsureTable(ctx); err != nil {
		return 0, fmt.Errorf("ExportRecords: %w", err)
	}

	since, err := wh.MaxExportedID(ctx)
	if err != nil {
		return 0, fmt.Errorf("ExportRecords: %w", err)
	}

	records, err := src.ListSince(ctx, since)
	if err != nil {
		return 0, fmt.Errorf("ExportRecords: listing records: %w", err)
	}

	log.Info().
		Int64("since_id", since).
		Int("record_count", len(records)).
		Bool("dry_run", dryRun).
		Msg("Starting ledger export to BigQuery")

	if dryRun || len(records) == 0 {
		return 0, nil
	}

	exportedAt := now()
	rows := make([]*RecordRow, 0, len(records))
	for _, rec := range records {
		row, err := RecordToRow(rec, exportedAt)
		if err != nil {
			return 0, fmt.Errorf("ExportRecords: %w", err)
		}
		rows = append(rows, row)
	}

	var inserted int
	for i := 0; i < len(rows); i += BatchSize {
		end := min(i+BatchSize, len(rows))
		if err := wh.InsertRecords(ctx, rows[i:end]); err != nil {
			return inserted, fmt.Errorf("ExportRecords: batch %d-%d: %w", i, end, err)
		}
		inserted += end - i
		log.Debug().Int("batch_start", i).Int("batch_end", end).Msg("Inserted batch")
	}

	log.Info().Int("inserted", inserted).Msg("Ledger export completed")
	return inserted, nil
}

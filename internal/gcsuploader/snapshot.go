package gcsuploader

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dvloznov/chat-ledger/internal/domain"
	"github.com/dvloznov/chat-ledger/internal/logger"
)

const (
	// SnapshotPrefix is the object path prefix for ledger snapshots.
	SnapshotPrefix = "ledger/"

	csvContentType = "text/csv; charset=utf-8"
)

var csvHeader = []string{"id", "date", "item", "amount", "category"}

// RecordLister returns every ledger record.
type RecordLister interface {
	List(ctx context.Context) ([]domain.Record, error)
}

// SnapshotObjectName names the snapshot taken at t, e.g.
// "ledger/records-20240501T120000Z.csv".
func SnapshotObjectName(t time.Time) string {
	return SnapshotPrefix + "records-" + t.UTC().Format("20060102T150405Z") + ".csv"
}

// WriteCSV writes records with a header row.
func WriteCSV(w io.Writer, records []domain.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range records {
		row := []string{
			strconv.FormatInt(r.ID, 10),
			r.Date,
			r.Item,
			strconv.FormatInt(r.Amount, 10),
			r.Category,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a snapshot written by WriteCSV.
func ReadCSV(r io.Reader) ([]domain.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvHeader)

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("read csv: missing header")
	}

	records := make([]domain.Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		id, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: id: %w", i+2, err)
		}
		amount, err := strconv.ParseInt(row[3], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: amount: %w", i+2, err)
		}
		records = append(records, domain.Record{
			ID:       id,
			Date:     row[1],
			Item:     row[2],
			Amount:   amount,
			Category: row[4],
		})
	}
	return records, nil
}

// UploadSnapshot writes the whole ledger as one CSV object and returns its
// name. When verify is set the object is read back and its row count checked.
func UploadSnapshot(ctx context.Context, src RecordLister, svc StorageService, bucket string, now time.Time, verify bool) (string, error) {
	log := logger.FromContext(ctx)

	records, err := src.List(ctx)
	if err != nil {
		return "", fmt.Errorf("UploadSnapshot: listing records: %w", err)
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, records); err != nil {
		return "", fmt.Errorf("UploadSnapshot: %w", err)
	}

	object := SnapshotObjectName(now)
	if err := svc.Upload(ctx, bucket, object, csvContentType, &buf); err != nil {
		return "", fmt.Errorf("UploadSnapshot: upload gs://%s/%s: %w", bucket, object, err)
	}

	log.Info().
		Str("bucket", bucket).
		Str("object", object).
		Int("record_count", len(records)).
		Msg("Uploaded ledger snapshot")

	if !verify {
		return object, nil
	}

	data, err := svc.Download(ctx, bucket, object)
	if err != nil {
		return object, fmt.Errorf("UploadSnapshot: verify: %w", err)
	}
	got, err := ReadCSV(bytes.NewReader(data))
	if err != nil {
		return object, fmt.Errorf("UploadSnapshot: verify: %w", err)
	}
	if len(got) != len(records) {
		return object, fmt.Errorf("UploadSnapshot: verify: object has %d records, want %d", len(got), len(records))
	}
	return object, nil
}

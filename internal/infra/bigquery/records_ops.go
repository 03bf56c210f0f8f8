package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
)

// EnsureTableWithClient creates table with the RecordRow schema if it is missing.
func EnsureTableWithClient(ctx context.Context, table *bigquery.Table) error {
	_, err := table.Metadata(ctx)
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusNotFound {
		return fmt.Errorf("EnsureTable: reading metadata: %w", err)
	}

	schema, err := bigquery.InferSchema(RecordRow{})
	if err != nil {
		return fmt.Errorf("EnsureTable: inferring schema: %w", err)
	}
	if err := table.Create(ctx, &bigquery.TableMetadata{Schema: schema}); err != nil {
		return fmt.Errorf("EnsureTable: creating table: %w", err)
	}
	return nil
}

// MaxExportedIDWithClient reads the export high-water mark from the table
// named by qualified (a backquoted project.dataset.table reference).
func MaxExportedIDWithClient(ctx context.Context, client *bigquery.Client, qualified string) (int64, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT COALESCE(MAX(record_id), 0) AS max_id
		FROM %s
	`, qualified))

	it, err := q.Read(ctx)
	if err != nil {
		return 0, fmt.Errorf("MaxExportedID: reading query: %w", err)
	}

	var row struct {
		MaxID int64 `bigquery:"max_id"`
	}
	err = it.Next(&row)
	if err == iterator.Done {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("MaxExportedID: iterating: %w", err)
	}
	return row.MaxID, nil
}

// InsertRecordsWithClient streams rows into table.
func InsertRecordsWithClient(ctx context.Context, table *bigquery.Table, rows []*RecordRow) error {
	if len(rows) == 0 {
		return nil
	}
	if err := table.Inserter().Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertRecords: inserting rows: %w", err)
	}
	return nil
}

package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
)

// Warehouse is the export target for ledger records.
type Warehouse interface {
	// EnsureTable creates the records table when it does not exist yet.
	EnsureTable(ctx context.Context) error

	// MaxExportedID returns the highest record_id already in the table, or 0.
	MaxExportedID(ctx context.Context) (int64, error)

	// InsertRecords appends rows to the table.
	InsertRecords(ctx context.Context, rows []*RecordRow) error
}

// BigQueryWarehouse is the concrete implementation of Warehouse backed by a
// BigQuery table. It holds a shared client for all operations.
type BigQueryWarehouse struct {
	client    *bigquery.Client
	projectID string
	datasetID string
	tableID   string
}

// NewBigQueryWarehouse creates a client for projectID and targets
// datasetID.tableID.
func NewBigQueryWarehouse(ctx context.Context, projectID, datasetID, tableID string) (*BigQueryWarehouse, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryWarehouse: creating client: %w", err)
	}
	return &BigQueryWarehouse{
		client:    client,
		projectID: projectID,
		datasetID: datasetID,
		tableID:   tableID,
	}, nil
}

// Close closes the BigQuery client connection.
func (w *BigQueryWarehouse) Close() error {
	if w.client != nil {
		return w.client.Close()
	}
	return nil
}

// EnsureTable delegates to EnsureTableWithClient.
func (w *BigQueryWarehouse) EnsureTable(ctx context.Context) error {
	return EnsureTableWithClient(ctx, w.table())
}

// MaxExportedID delegates to MaxExportedIDWithClient.
func (w *BigQueryWarehouse) MaxExportedID(ctx context.Context) (int64, error) {
	return MaxExportedIDWithClient(ctx, w.client, w.qualifiedName())
}

// InsertRecords delegates to InsertRecordsWithClient.
func (w *BigQueryWarehouse) InsertRecords(ctx context.Context, rows []*RecordRow) error {
	return InsertRecordsWithClient(ctx, w.table(), rows)
}

func (w *BigQueryWarehouse) table() *bigquery.Table {
	return w.client.DatasetInProject(w.projectID, w.datasetID).Table(w.tableID)
}

func (w *BigQueryWarehouse) qualifiedName() string {
	return fmt.Sprintf("`%s.%s.%s`", w.projectID, w.datasetID, w.tableID)
}

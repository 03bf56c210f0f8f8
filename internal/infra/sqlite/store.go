package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	"github.com/dvloznov/chat-ledger/internal/domain"
	"github.com/dvloznov/chat-ledger/internal/pipeline"

	_ "modernc.org/sqlite"
)

// Store is the SQLite-backed ledger. It implements pipeline.LedgerStore.
type Store struct {
	db *sql.DB
}

var _ pipeline.LedgerStore = (*Store)(nil)

// Open opens (or creates) the database at path and migrates it.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := OpenDB(ctx, path)
	if err != nil {
		return nil, err
	}
	if _, err := Migrate(ctx, db, "ledger-store"); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate ledger database: %w", err)
	}
	return &Store{db: db}, nil
}

// OpenDB opens the database at path without migrating it.
func OpenDB(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open ledger database: %w", err)
	}
	// A single connection serializes writers within the process.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping ledger database: %w", err)
	}
	return db, nil
}

func dsn(path string) string {
	q := url.Values{}
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "foreign_keys(1)")
	return path + "?" + q.Encode()
}

// DB exposes the underlying handle for tooling such as migrations.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Commit inserts rec atomically and returns it with its assigned id.
func (s *Store) Commit(ctx context.Context, rec domain.ProposedRecord) (domain.Record, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Record{}, fmt.Errorf("%w: begin: %w", pipeline.ErrWriteFailed, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO records (date, item, amount, category) VALUES (?, ?, ?, ?)`,
		rec.Date, rec.Item, rec.Amount, rec.Category,
	)
	if err != nil {
		return domain.Record{}, fmt.Errorf("%w: insert: %w", pipeline.ErrWriteFailed, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Record{}, fmt.Errorf("%w: last insert id: %w", pipeline.ErrWriteFailed, err)
	}
	if err := tx.Commit(); err != nil {
		return domain.Record{}, fmt.Errorf("%w: commit: %w", pipeline.ErrWriteFailed, err)
	}
	return rec.WithID(id), nil
}

// List returns every record, newest date first and newest id first within
// a date.
func (s *Store) List(ctx context.Context) ([]domain.Record, error) {
	return s.query(ctx,
		`SELECT id, date, item, amount, category FROM records ORDER BY date DESC, id DESC`)
}

// ListSince returns records with id greater than afterID in id order.
func (s *Store) ListSince(ctx context.Context, afterID int64) ([]domain.Record, error) {
	return s.query(ctx,
		`SELECT id, date, item, amount, category FROM records WHERE id > ? ORDER BY id ASC`, afterID)
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]domain.Record, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	records := []domain.Record{}
	for rows.Next() {
		var r domain.Record
		if err := rows.Scan(&r.ID, &r.Date, &r.Item, &r.Amount, &r.Category); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

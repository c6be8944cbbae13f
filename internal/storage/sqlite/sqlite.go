package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/FranksOps/shopsift/internal/storage"
	_ "modernc.org/sqlite"
)

// ensure sqliteBackend implements storage.Backend and storage.Querier
var (
	_ storage.Backend = (*sqliteBackend)(nil)
	_ storage.Querier = (*sqliteBackend)(nil)
)

type sqliteBackend struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS shopsift_rows (
	run_id TEXT NOT NULL,
	table_name TEXT NOT NULL,
	row_index INTEGER NOT NULL,
	data TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	PRIMARY KEY (run_id, table_name, row_index)
);
`

// New creates a SQLite archive storage.Backend.
func New(dsn string) (storage.Backend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// An in-memory database lives only as long as its single connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}

	return &sqliteBackend{db: db}, nil
}

func (b *sqliteBackend) Save(ctx context.Context, t *storage.Table) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sqlite tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
	INSERT INTO shopsift_rows (run_id, table_name, row_index, data, created_at)
	VALUES (?, ?, ?, ?, ?)
	`

	for _, r := range storage.RowsOf(t) {
		data, err := json.Marshal(r.Data)
		if err != nil {
			return fmt.Errorf("encode row: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, r.RunID, r.Table, r.Index, string(data), r.CreatedAt); err != nil {
			return fmt.Errorf("insert row %s/%d: %w", r.Table, r.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit sqlite tx: %w", err)
	}
	return nil
}

func (b *sqliteBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.Row, error) {
	query := `SELECT run_id, table_name, row_index, data, created_at FROM shopsift_rows WHERE 1=1`
	args := []any{}

	if filter.RunID != "" {
		query += ` AND run_id = ?`
		args = append(args, filter.RunID)
	}
	if filter.Table != "" {
		query += ` AND table_name = ?`
		args = append(args, filter.Table)
	}
	if filter.Since != nil {
		query += ` AND created_at >= ?`
		args = append(args, *filter.Since)
	}

	query += ` ORDER BY created_at DESC, table_name, row_index`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	} else if filter.Offset > 0 {
		query += ` LIMIT -1`
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sqlite: %w", err)
	}
	defer rows.Close()

	var results []*storage.Row
	for rows.Next() {
		var r storage.Row
		var data string

		if err := rows.Scan(&r.RunID, &r.Table, &r.Index, &data, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan sqlite row: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &r.Data); err != nil {
			return nil, fmt.Errorf("decode row data: %w", err)
		}

		results = append(results, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sqlite rows: %w", err)
	}

	return results, nil
}

func (b *sqliteBackend) Close() error {
	return b.db.Close()
}

package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/FranksOps/shopsift/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ensure postgresBackend implements storage.Backend and storage.Querier
var (
	_ storage.Backend = (*postgresBackend)(nil)
	_ storage.Querier = (*postgresBackend)(nil)
)

type postgresBackend struct {
	pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS shopsift_rows (
	run_id TEXT NOT NULL,
	table_name TEXT NOT NULL,
	row_index INTEGER NOT NULL,
	data JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (run_id, table_name, row_index)
);
`

// New creates a Postgres archive storage.Backend.
func New(ctx context.Context, dsn string) (storage.Backend, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create postgres schema: %w", err)
	}

	return &postgresBackend{pool: pool}, nil
}

func (b *postgresBackend) Save(ctx context.Context, t *storage.Table) error {
	query := `
	INSERT INTO shopsift_rows (run_id, table_name, row_index, data, created_at)
	VALUES ($1, $2, $3, $4, $5)
	`

	batch := &pgx.Batch{}
	for _, r := range storage.RowsOf(t) {
		data, err := json.Marshal(r.Data)
		if err != nil {
			return fmt.Errorf("encode row: %w", err)
		}
		batch.Queue(query, r.RunID, r.Table, r.Index, data, r.CreatedAt)
	}
	if batch.Len() == 0 {
		return nil
	}

	if err := b.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert %s rows: %w", t.Kind, err)
	}
	return nil
}

func (b *postgresBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.Row, error) {
	query := `SELECT run_id, table_name, row_index, data, created_at FROM shopsift_rows WHERE 1=1`
	args := []any{}
	paramCount := 1

	if filter.RunID != "" {
		query += fmt.Sprintf(` AND run_id = $%d`, paramCount)
		args = append(args, filter.RunID)
		paramCount++
	}
	if filter.Table != "" {
		query += fmt.Sprintf(` AND table_name = $%d`, paramCount)
		args = append(args, filter.Table)
		paramCount++
	}
	if filter.Since != nil {
		query += fmt.Sprintf(` AND created_at >= $%d`, paramCount)
		args = append(args, *filter.Since)
		paramCount++
	}

	query += ` ORDER BY created_at DESC, table_name, row_index`

	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, paramCount)
		args = append(args, filter.Limit)
		paramCount++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, paramCount)
		args = append(args, filter.Offset)
	}

	rows, err := b.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query postgres: %w", err)
	}
	defer rows.Close()

	var results []*storage.Row
	for rows.Next() {
		var r storage.Row
		var data []byte

		if err := rows.Scan(&r.RunID, &r.Table, &r.Index, &data, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan postgres row: %w", err)
		}
		if err := json.Unmarshal(data, &r.Data); err != nil {
			return nil, fmt.Errorf("decode row data: %w", err)
		}

		results = append(results, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate postgres rows: %w", err)
	}

	return results, nil
}

func (b *postgresBackend) Close() error {
	b.pool.Close()
	return nil
}

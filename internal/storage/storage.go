package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// TimestampLayout is the suffix format of output table names.
const TimestampLayout = "20060102_150405"

// Table is one pipeline output: a header and rows in input order.
type Table struct {
	RunID string
	// Kind is the table family, e.g. "domain_check_results".
	Kind string
	// Name is Kind suffixed with the run timestamp; file backends use it as
	// the file stem.
	Name      string
	Header    []string
	Rows      [][]string
	CreatedAt time.Time
}

// NewTable returns an empty table named <kind>_<YYYYMMDD_HHMMSS>.
func NewTable(runID, kind string, createdAt time.Time, header []string) *Table {
	return &Table{
		RunID:     runID,
		Kind:      kind,
		Name:      kind + "_" + createdAt.Format(TimestampLayout),
		Header:    header,
		CreatedAt: createdAt,
	}
}

// Append adds a row. Rows shorter or longer than the header are rejected.
func (t *Table) Append(row []string) error {
	if len(row) != len(t.Header) {
		return fmt.Errorf("table %s: row has %d cells, header has %d", t.Kind, len(row), len(t.Header))
	}
	t.Rows = append(t.Rows, row)
	return nil
}

// Row is one archived table row.
type Row struct {
	RunID     string
	Table     string
	Index     int
	Data      map[string]string
	CreatedAt time.Time
}

// Filter allows querying archived rows.
type Filter struct {
	RunID string
	Table string
	Since *time.Time
	Limit int
	// Offset skips rows after ordering.
	Offset int
}

// Backend receives finished tables.
type Backend interface {
	Save(ctx context.Context, table *Table) error
	Close() error
}

// Querier is implemented by archive backends that can read rows back.
type Querier interface {
	Query(ctx context.Context, filter Filter) ([]*Row, error)
}

// RowsOf flattens a table into archive rows keyed by header.
func RowsOf(t *Table) []*Row {
	out := make([]*Row, 0, len(t.Rows))
	for i, r := range t.Rows {
		data := make(map[string]string, len(t.Header))
		for j, h := range t.Header {
			if j < len(r) {
				data[h] = r[j]
			}
		}
		out = append(out, &Row{
			RunID:     t.RunID,
			Table:     t.Kind,
			Index:     i,
			Data:      data,
			CreatedAt: t.CreatedAt,
		})
	}
	return out
}

type multi []Backend

// Multi fans a table out to every backend. Save attempts all backends and
// joins their errors.
func Multi(backends ...Backend) Backend {
	return multi(backends)
}

func (m multi) Save(ctx context.Context, t *Table) error {
	var errs []error
	for _, b := range m {
		if err := b.Save(ctx, t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m multi) Close() error {
	var errs []error
	for _, b := range m {
		if err := b.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

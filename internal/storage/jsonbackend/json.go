package jsonbackend

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/FranksOps/shopsift/internal/storage"
)

// ensure jsonBackend implements storage.Backend and storage.Querier
var (
	_ storage.Backend = (*jsonBackend)(nil)
	_ storage.Querier = (*jsonBackend)(nil)
)

type jsonBackend struct {
	mu   sync.Mutex
	file *os.File
}

type line struct {
	RunID     string            `json:"run_id"`
	Table     string            `json:"table"`
	Index     int               `json:"index"`
	Data      map[string]string `json:"data"`
	CreatedAt time.Time         `json:"created_at"`
}

// New creates an NDJSON archive storage.Backend. Every row of every saved
// table becomes one line appended to filePath.
func New(filePath string) (storage.Backend, error) {
	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open ndjson archive: %w", err)
	}

	return &jsonBackend{
		file: f,
	}, nil
}

func (b *jsonBackend) Save(ctx context.Context, t *storage.Table) error {
	var buf []byte
	for _, r := range storage.RowsOf(t) {
		data, err := json.Marshal(line(*r))
		if err != nil {
			return fmt.Errorf("encode row: %w", err)
		}
		buf = append(buf, data...)
		buf = append(buf, '\n')
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.file.Write(buf); err != nil {
		return fmt.Errorf("append ndjson archive: %w", err)
	}
	return nil
}

func (b *jsonBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.Row, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek ndjson archive: %w", err)
	}
	defer func() {
		_, _ = b.file.Seek(0, io.SeekEnd)
	}()

	scanner := bufio.NewScanner(b.file)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	// Runs are appended in time order; walk them newest first, keeping row
	// order within a run, to match the SQL backends.
	var runs [][]*storage.Row
	lastRun := ""
	for scanner.Scan() {
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var l line
		if err := json.Unmarshal(raw, &l); err != nil {
			return nil, fmt.Errorf("decode ndjson archive: %w", err)
		}

		if filter.RunID != "" && l.RunID != filter.RunID {
			continue
		}
		if filter.Table != "" && l.Table != filter.Table {
			continue
		}
		if filter.Since != nil && l.CreatedAt.Before(*filter.Since) {
			continue
		}

		r := storage.Row(l)
		if len(runs) == 0 || l.RunID+l.Table != lastRun {
			runs = append(runs, nil)
			lastRun = l.RunID + l.Table
		}
		runs[len(runs)-1] = append(runs[len(runs)-1], &r)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan ndjson archive: %w", err)
	}

	var all []*storage.Row
	for i := len(runs) - 1; i >= 0; i-- {
		all = append(all, runs[i]...)
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(all) {
			return []*storage.Row{}, nil
		}
		all = all[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(all) {
		all = all[:filter.Limit]
	}

	return all, nil
}

func (b *jsonBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.file.Close()
}

package csvbackend

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/FranksOps/shopsift/internal/storage"
)

// ensure csvBackend implements storage.Backend
var _ storage.Backend = (*csvBackend)(nil)

type csvBackend struct {
	mu  sync.Mutex
	dir string
}

// New creates a CSV storage.Backend writing one <dir>/<table name>.csv file
// per saved table. The directory is created if missing.
func New(dir string) (storage.Backend, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &csvBackend{dir: dir}, nil
}

// Path returns the file a table is written to.
func Path(dir string, t *storage.Table) string {
	return filepath.Join(dir, t.Name+".csv")
}

func (b *csvBackend) Save(ctx context.Context, t *storage.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	path := Path(b.dir, t)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(t.Header); err != nil {
		f.Close()
		return fmt.Errorf("write header %s: %w", path, err)
	}
	if err := w.WriteAll(t.Rows); err != nil {
		f.Close()
		return fmt.Errorf("write rows %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func (b *csvBackend) Close() error {
	return nil
}

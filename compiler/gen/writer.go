package gen

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/imports"
)

// writer renders files into the target directory in parallel.
type writer struct {
	dir     string
	workers int
}

func newWriter(cfg *Config) *writer {
	return &writer{dir: cfg.Target, workers: cfg.Workers}
}

// write renders all files, stopping at the first failure or when ctx is
// canceled.
func (w *writer) write(ctx context.Context, files []*file) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return NewGenerationError(PhaseWrite, w.dir, "create output directory", err)
	}
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(w.workers)
	for _, f := range files {
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return w.writeFile(f)
			}
		})
	}
	return eg.Wait()
}

func (w *writer) writeFile(f *file) error {
	// 1. Render the jennifer file.
	var buf bytes.Buffer
	if err := f.f.Render(&buf); err != nil {
		return NewGenerationError(PhaseRender, f.name, "", err)
	}

	// 2. Format with goimports.
	path := filepath.Join(w.dir, f.name)
	formatted, err := imports.Process(path, buf.Bytes(), nil)
	if err != nil {
		// Keep the unformatted output around for debugging.
		debug := path + ".error"
		_ = os.WriteFile(debug, buf.Bytes(), 0o644)
		return NewGenerationError(PhaseFormat, f.name, "unformatted output written to "+debug, err)
	}

	// 3. Write.
	if err := os.WriteFile(path, formatted, 0o644); err != nil {
		return NewGenerationError(PhaseWrite, f.name, "", err)
	}
	return nil
}

package fs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/fwojciec/csvstory"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is the default number of concurrent image downloads.
const DefaultWorkers = 4

// Exporter saves gallery images to a local directory.
type Exporter struct {
	fetcher csvstory.ImageFetcher
	workers int
	logger  *slog.Logger
}

// ExporterOption configures an Exporter.
type ExporterOption func(*Exporter)

// WithWorkers sets the download concurrency. Values below 1 are ignored.
func WithWorkers(n int) ExporterOption {
	return func(e *Exporter) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ExporterOption {
	return func(e *Exporter) {
		e.logger = l
	}
}

// NewExporter creates an Exporter that downloads through fetcher.
func NewExporter(fetcher csvstory.ImageFetcher, opts ...ExporterOption) *Exporter {
	e := &Exporter{
		fetcher: fetcher,
		workers: DefaultWorkers,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export downloads every image of a into dir and returns the written paths in
// gallery order. Files are named <prefix>-<NN>-<base name of the source>.
// The first failure cancels the remaining downloads.
func (e *Exporter) Export(ctx context.Context, dir, prefix string, a *csvstory.Artifact) ([]string, error) {
	if a.Len() == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	paths := make([]string, a.Len())
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, src := range a.Images {
		dst := filepath.Join(dir, ExportName(prefix, i, src))
		paths[i] = dst
		g.Go(func() error {
			if err := e.save(gctx, src, dst); err != nil {
				return fmt.Errorf("export %s: %w", src, err)
			}
			e.logger.Debug("image exported", "src", src, "path", dst)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

func (e *Exporter) save(ctx context.Context, src, dst string) error {
	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	if err := e.fetcher.FetchImage(ctx, src, f); err != nil {
		f.Close()
		os.Remove(dst)
		return err
	}
	return f.Close()
}

// ExportName builds the local file name for image i. Query strings are
// dropped; a source without a usable base name becomes image.png.
func ExportName(prefix string, i int, src string) string {
	p := src
	if u, err := url.Parse(src); err == nil {
		p = u.Path
	}
	base := path.Base(p)
	if base == "." || base == "/" || base == "" {
		base = "image.png"
	}
	base = strings.ReplaceAll(base, string(filepath.Separator), "_")
	return fmt.Sprintf("%s-%02d-%s", prefix, i+1, base)
}

// WriteFile streams r into path, creating parent directories.
func WriteFile(path string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

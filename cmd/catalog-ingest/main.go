// Command catalog-ingest loads gzipped JSON-lines product dumps into the
// catalog. Files are decoded concurrently; a product id that appears in more
// than one file is kept from the first file listed.
package main

import (
	"bufio"
	"bytes"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/uuid"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/market-orders/internal/domain/product"
	"github.com/xenking/market-orders/internal/storage/postgres"
)

const (
	bloomCapacity = 1_000_000
	bloomFPR      = 0.001
	progressEvery = 10_000
	maxLineSize   = 1 << 20
)

// batch is the decoded content of one dump file.
type batch struct {
	path     string
	products []product.Product
	filter   *bloom.BloomFilter
}

func main() {
	var (
		databaseURL string
		files       string
		workers     int
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&files, "files", "", "comma-separated list of .jsonl.gz product dumps, highest priority first")
	flag.IntVar(&workers, "workers", 8, "concurrent upserts")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	paths := splitList(files)
	if len(paths) == 0 {
		slog.Error("at least one file is required: set --files")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, paths, workers); err != nil {
		slog.Error("catalog ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog ingest completed successfully")
}

func run(ctx context.Context, databaseURL string, paths []string, workers int) error {
	slog.Info("decoding files", slog.Int("files", len(paths)))

	batches, err := readBatches(ctx, paths)
	if err != nil {
		return errors.Wrap(err, "read files")
	}

	products, dropped := dedupe(batches)
	slog.Info("deduplicated products",
		slog.Int("unique", len(products)),
		slog.Int("dropped", dropped),
	)
	if len(products) == 0 {
		slog.Info("no products to write")
		return nil
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	return writeProducts(ctx, postgres.NewProductRepository(pool), products, workers)
}

// readBatches decodes every file concurrently, preserving argument order.
func readBatches(ctx context.Context, paths []string) ([]batch, error) {
	batches := make([]batch, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			b, err := readBatch(ctx, path)
			if err != nil {
				return err
			}
			batches[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return batches, nil
}

func readBatch(ctx context.Context, path string) (batch, error) {
	b := batch{
		path:   path,
		filter: bloom.NewWithEstimates(bloomCapacity, bloomFPR),
	}

	line := 0
	err := streamGzFile(ctx, path, func(data []byte) error {
		line++
		if len(bytes.TrimSpace(data)) == 0 {
			return nil
		}
		var p product.Product
		if err := p.Decode(jx.DecodeBytes(data)); err != nil {
			return errors.Wrapf(err, "%s:%d", path, line)
		}
		if err := p.Validate(); err != nil {
			return errors.Wrapf(err, "%s:%d", path, line)
		}
		// Within a file the last line for an id wins.
		if b.filter.Test(p.ID[:]) {
			if j := indexOf(b.products, p.ID); j >= 0 {
				b.products[j] = p
				return nil
			}
		}
		b.products = append(b.products, p)
		b.filter.Add(p.ID[:])

		if len(b.products)%progressEvery == 0 {
			slog.Info("decode progress", slog.String("file", path), slog.Int("products", len(b.products)))
		}
		return nil
	})
	if err != nil {
		return batch{}, err
	}

	slog.Info("decoded file", slog.String("file", path), slog.Int("products", len(b.products)))
	return b, nil
}

// dedupe keeps every product id from the first file that lists it. Bloom
// filters of earlier files pick the suspects; only suspects are checked
// exactly.
func dedupe(batches []batch) (kept []product.Product, dropped int) {
	suspects := make(map[uuid.UUID]int)
	for i, b := range batches {
		for _, p := range b.products {
			if mayContain(batches[:i], p.ID) {
				suspects[p.ID] = -1
			}
		}
	}
	for i, b := range batches {
		for _, p := range b.products {
			if first, ok := suspects[p.ID]; ok && first < 0 {
				suspects[p.ID] = i
			}
		}
	}

	for i, b := range batches {
		for _, p := range b.products {
			if first, ok := suspects[p.ID]; ok && first != i {
				dropped++
				continue
			}
			kept = append(kept, p)
		}
	}
	return kept, dropped
}

func mayContain(batches []batch, id uuid.UUID) bool {
	for _, b := range batches {
		if b.filter.Test(id[:]) {
			return true
		}
	}
	return false
}

// writeProducts upserts products using up to workers concurrent statements.
func writeProducts(ctx context.Context, repo product.Repository, products []product.Product, workers int) error {
	slog.Info("writing products", slog.Int("count", len(products)), slog.Int("workers", workers))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i := range products {
		p := &products[i]
		g.Go(func() error {
			return repo.Upsert(ctx, p)
		})
		if (i+1)%progressEvery == 0 {
			slog.Info("write progress", slog.Int("queued", i+1), slog.Int("total", len(products)))
		}
	}
	return g.Wait()
}

// streamGzFile calls fn for each line of a gzip-compressed file.
func streamGzFile(ctx context.Context, path string, fn func(line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(scanner.Bytes()); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}
	return nil
}

func indexOf(products []product.Product, id uuid.UUID) int {
	for i := range products {
		if products[i].ID == id {
			return i
		}
	}
	return -1
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

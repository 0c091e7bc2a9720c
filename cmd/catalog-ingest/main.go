// Command catalog-ingest bulk-loads product catalog feeds into the
// database. Feeds are gzip-compressed NDJSON files, one product per
// line, typically exported by suppliers. Feeds may overlap: the first
// feed (in argument order) that carries a product ID wins, and later
// occurrences are skipped.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/lmeira/sales-api/internal/repository"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	progressEvery = 100_000
)

type feedProduct struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
}

func (p *feedProduct) valid() bool {
	return p.ID != "" &&
		strings.TrimSpace(p.Name) != "" &&
		!p.Price.IsNegative() &&
		p.Stock >= 0
}

func main() {
	var (
		dataDir     string
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing *.ndjson.gz feed files (used when no files are given as arguments)")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	files := flag.Args()
	if len(files) == 0 {
		matches, err := filepath.Glob(filepath.Join(dataDir, "*.ndjson.gz"))
		if err != nil || len(matches) == 0 {
			slog.Error("no feed files found", slog.String("data_dir", dataDir))
			os.Exit(1)
		}
		files = matches
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, files); err != nil {
		slog.Error("catalog ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog ingest completed successfully")
}

func run(ctx context.Context, databaseURL string, files []string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	// Pass 1: build one bloom filter of product IDs per feed, concurrently.
	slog.Info("pass 1: indexing feeds", slog.Int("files", len(files)))

	filters, err := buildFeedFilters(ctx, files)
	if err != nil {
		return errors.Wrap(err, "index feeds")
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Pass 2: stream feeds in order and upsert, skipping products whose
	// ID an earlier feed already carried.
	slog.Info("pass 2: loading feeds")
	return loadFeeds(ctx, pool, files, filters)
}

// buildFeedFilters creates one bloom filter of product IDs per feed file.
func buildFeedFilters(ctx context.Context, files []string) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(indexFeed(ctx, i, f, filters))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return filters, nil
}

func indexFeed(ctx context.Context, idx int, path string, filters []*bloom.BloomFilter) func() error {
	return func() error {
		filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
		var count uint64

		if err := streamFeed(ctx, path, func(p feedProduct) {
			filter.AddString(p.ID)
			count++
			if count%progressEvery == 0 {
				slog.Info("pass 1 progress",
					slog.String("file", filepath.Base(path)),
					slog.Uint64("products", count),
				)
			}
		}); err != nil {
			return errors.Wrapf(err, "index feed %s", path)
		}

		slog.Info("pass 1 complete",
			slog.String("file", filepath.Base(path)),
			slog.Uint64("products", count),
		)

		filters[idx] = filter
		return nil
	}
}

// loadFeeds upserts each feed's products, earlier feeds winning. A
// product is skipped when any earlier feed's filter probably contains
// its ID; false positives only cost a redundant skip of a duplicate
// candidate, never a lost unique product, because the first feed always
// writes.
func loadFeeds(ctx context.Context, pool *pgxpool.Pool, files []string, filters []*bloom.BloomFilter) error {
	for i, path := range files {
		var written, skipped uint64

		err := streamFeed(ctx, path, func(p feedProduct) {
			for j := range i {
				if filters[j].TestString(p.ID) {
					skipped++
					return
				}
			}
			if err := upsertProduct(ctx, pool, p); err != nil {
				slog.Error("upsert failed",
					slog.String("product_id", p.ID),
					slog.String("error", err.Error()),
				)
				return
			}
			written++
			if written%progressEvery == 0 {
				slog.Info("pass 2 progress",
					slog.String("file", filepath.Base(path)),
					slog.Uint64("written", written),
				)
			}
		})
		if err != nil {
			return errors.Wrapf(err, "load feed %s", path)
		}

		slog.Info("pass 2 complete",
			slog.String("file", filepath.Base(path)),
			slog.Uint64("written", written),
			slog.Uint64("skipped", skipped),
		)
	}
	return nil
}

const upsertProductSQL = `
INSERT INTO products (id, name, category, price, stock)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name,
    category = EXCLUDED.category,
    price = EXCLUDED.price,
    stock = EXCLUDED.stock`

func upsertProduct(ctx context.Context, pool *pgxpool.Pool, p feedProduct) error {
	_, err := pool.Exec(ctx, upsertProductSQL, p.ID, p.Name, p.Category, p.Price, p.Stock)
	return err
}

// streamFeed opens a gzip-compressed NDJSON file and calls fn for each
// valid product line. Malformed or invalid lines are logged and skipped.
func streamFeed(ctx context.Context, path string, fn func(p feedProduct)) error {
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
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var lineNo uint64
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		lineNo++

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var p feedProduct
		if err := json.Unmarshal(line, &p); err != nil {
			slog.Warn("skipping malformed line",
				slog.String("file", filepath.Base(path)),
				slog.Uint64("line", lineNo),
			)
			continue
		}
		if !p.valid() {
			slog.Warn("skipping invalid product",
				slog.String("file", filepath.Base(path)),
				slog.Uint64("line", lineNo),
				slog.String("product_id", p.ID),
			)
			continue
		}
		fn(p)
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}

	return nil
}

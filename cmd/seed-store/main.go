// Command seed-store loads a catalog JSON file into a storefront store,
// overwriting whatever the store holds. The server only seeds an empty
// store on its own; this tool forces a reload.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"

	"github.com/avelaine/storefront/internal/domain/catalog"
	"github.com/avelaine/storefront/internal/kvstore"
	"github.com/avelaine/storefront/internal/seed"
	"github.com/avelaine/storefront/internal/storage/kvcatalog"
	"github.com/avelaine/storefront/internal/storage/postgres"
)

func main() {
	var (
		backend     string
		dir         string
		compress    bool
		databaseURL string
		seedFile    string
	)

	flag.StringVar(&backend, "backend", "file", "target store backend: file or postgres")
	flag.StringVar(&dir, "dir", "data", "directory for the file backend")
	flag.BoolVar(&compress, "compress", false, "gzip values in the file backend")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&seedFile, "seed-file", "db/seed/catalog.json", "path to catalog JSON file (.gz accepted)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, backend, dir, compress, databaseURL, seedFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, backend, dir string, compress bool, databaseURL, seedFile string) error {
	store, cleanup, err := openStore(ctx, backend, dir, compress, databaseURL)
	if err != nil {
		return err
	}
	defer cleanup()

	slog.Info("reading seed file", slog.String("path", seedFile))

	data, err := seed.NewFile(seedFile).Fetch(ctx)
	if err != nil {
		return errors.Wrap(err, "read seed file")
	}

	slog.Info("writing catalog",
		slog.Int("categories", len(data.Categories)),
		slog.Int("products", len(data.Products)))

	if err := store.StoreCategories(ctx, data.Categories); err != nil {
		return errors.Wrap(err, "store categories")
	}
	if err := store.StoreProducts(ctx, data.Products); err != nil {
		return errors.Wrap(err, "store products")
	}
	return nil
}

func openStore(ctx context.Context, backend, dir string, compress bool, databaseURL string) (catalog.Store, func(), error) {
	switch backend {
	case "file":
		kv, err := kvstore.NewFile(dir, compress)
		if err != nil {
			return nil, nil, errors.Wrap(err, "open file store")
		}
		return kvcatalog.New(kv), func() {}, nil

	case "postgres":
		if databaseURL == "" {
			return nil, nil, errors.New("database URL is required: set --database-url or DATABASE_URL")
		}
		pool, err := postgres.NewPool(ctx, databaseURL)
		if err != nil {
			return nil, nil, errors.Wrap(err, "connect to database")
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, errors.Wrap(err, "run migrations")
		}
		return postgres.NewStore(pool), pool.Close, nil

	default:
		return nil, nil, errors.Errorf("unknown backend %q", backend)
	}
}

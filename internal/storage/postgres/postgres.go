// Package postgres implements the catalog store contract over PostgreSQL.
// A whole-collection overwrite is a delete-and-insert inside one transaction,
// so readers never observe a half-written collection. The two collections
// still live in separate transactions, matching the store contract.
package postgres

import (
	"context"

	"github.com/go-faster/errors"
	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avelaine/storefront/db"
	"github.com/avelaine/storefront/internal/domain/catalog"
)

// NewPool creates a pgxpool.Pool with shopspring/decimal support registered
// for NUMERIC columns.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse database config")
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "create connection pool")
	}
	return pool, nil
}

// RunMigrations executes the embedded DDL schema against the pool.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, db.Schema); err != nil {
		return errors.Wrap(err, "run migrations")
	}
	return nil
}

var _ catalog.Store = (*Store)(nil)

// Store is a PostgreSQL-backed catalog store.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore returns a Store using the given pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const (
	productsKey   = "shop_products"
	categoriesKey = "shop_categories"
)

// LoadCategories reads the persisted category collection in stored order.
func (s *Store) LoadCategories(ctx context.Context) ([]catalog.Category, bool, error) {
	ok, err := s.hasKey(ctx, categoriesKey)
	if err != nil || !ok {
		return nil, false, err
	}

	rows, err := s.pool.Query(ctx, `SELECT id, name FROM categories ORDER BY position`)
	if err != nil {
		return nil, false, errors.Wrap(err, "query categories")
	}
	categories, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.Category, error) {
		var c catalog.Category
		err := row.Scan(&c.ID, &c.Name)
		return c, err
	})
	if err != nil {
		return nil, false, errors.Wrap(err, "scan categories")
	}
	return categories, true, nil
}

// LoadProducts reads the persisted product collection in stored order.
func (s *Store) LoadProducts(ctx context.Context) ([]catalog.Product, bool, error) {
	ok, err := s.hasKey(ctx, productsKey)
	if err != nil || !ok {
		return nil, false, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, name, price, image, category_id FROM products ORDER BY position`)
	if err != nil {
		return nil, false, errors.Wrap(err, "query products")
	}
	products, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.Product, error) {
		var p catalog.Product
		err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Image, &p.CategoryID)
		return p, err
	})
	if err != nil {
		return nil, false, errors.Wrap(err, "scan products")
	}
	return products, true, nil
}

// StoreCategories overwrites the persisted category collection.
func (s *Store) StoreCategories(ctx context.Context, categories []catalog.Category) error {
	return s.overwrite(ctx, categoriesKey, `DELETE FROM categories`, func(tx pgx.Tx) error {
		for i, c := range categories {
			if _, err := tx.Exec(ctx,
				`INSERT INTO categories (position, id, name) VALUES ($1, $2, $3)`,
				i, c.ID, c.Name,
			); err != nil {
				return errors.Wrapf(err, "insert category %d", c.ID)
			}
		}
		return nil
	})
}

// StoreProducts overwrites the persisted product collection.
func (s *Store) StoreProducts(ctx context.Context, products []catalog.Product) error {
	return s.overwrite(ctx, productsKey, `DELETE FROM products`, func(tx pgx.Tx) error {
		for i, p := range products {
			if _, err := tx.Exec(ctx,
				`INSERT INTO products (position, id, name, price, image, category_id)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				i, p.ID, p.Name, p.Price, p.Image, p.CategoryID,
			); err != nil {
				return errors.Wrapf(err, "insert product %d", p.ID)
			}
		}
		return nil
	})
}

// overwrite clears one collection and re-inserts it inside a transaction,
// then marks the key as written.
func (s *Store) overwrite(ctx context.Context, key, deleteSQL string, insert func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, deleteSQL); err != nil {
		return errors.Wrap(err, "clear collection")
	}
	if err := insert(tx); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO catalog_keys (key) VALUES ($1) ON CONFLICT (key) DO NOTHING`, key,
	); err != nil {
		return errors.Wrap(err, "mark key written")
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit tx")
	}
	return nil
}

// hasKey reports whether the collection under key has ever been written.
// An empty table alone is not enough: an empty collection stored verbatim
// must read back as present.
func (s *Store) hasKey(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM catalog_keys WHERE key = $1)`, key,
	).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "check catalog key")
	}
	return exists, nil
}

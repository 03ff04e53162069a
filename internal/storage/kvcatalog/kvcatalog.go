// Package kvcatalog implements the catalog store contract over a plain
// string key-value store. The two collections live under fixed keys as JSON
// arrays and are always rewritten whole.
package kvcatalog

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/avelaine/storefront/internal/domain/catalog"
	"github.com/avelaine/storefront/internal/kvstore"
)

// Keys under which the two catalog collections are persisted. Kept stable so
// data written by earlier versions of the storefront reads back unchanged.
const (
	productsKey   = "shop_products"
	categoriesKey = "shop_categories"
)

var _ catalog.Store = (*Store)(nil)

// Store adapts a kvstore.Store to the catalog store contract.
type Store struct {
	kv kvstore.Store
}

// New returns a catalog store over the given key-value store.
func New(kv kvstore.Store) *Store {
	return &Store{kv: kv}
}

// LoadCategories reads the persisted category collection.
func (s *Store) LoadCategories(_ context.Context) ([]catalog.Category, bool, error) {
	raw, ok := s.kv.Get(categoriesKey)
	if !ok {
		return nil, false, nil
	}
	categories, err := catalog.DecodeCategories([]byte(raw))
	if err != nil {
		return nil, false, errors.Wrap(err, "decode stored categories")
	}
	return categories, true, nil
}

// LoadProducts reads the persisted product collection.
func (s *Store) LoadProducts(_ context.Context) ([]catalog.Product, bool, error) {
	raw, ok := s.kv.Get(productsKey)
	if !ok {
		return nil, false, nil
	}
	products, err := catalog.DecodeProducts([]byte(raw))
	if err != nil {
		return nil, false, errors.Wrap(err, "decode stored products")
	}
	return products, true, nil
}

// StoreCategories overwrites the persisted category collection.
func (s *Store) StoreCategories(_ context.Context, categories []catalog.Category) error {
	if err := s.kv.Set(categoriesKey, string(catalog.EncodeCategories(categories))); err != nil {
		return errors.Wrap(err, "set categories")
	}
	return nil
}

// StoreProducts overwrites the persisted product collection.
func (s *Store) StoreProducts(_ context.Context, products []catalog.Product) error {
	if err := s.kv.Set(productsKey, string(catalog.EncodeProducts(products))); err != nil {
		return errors.Wrap(err, "set products")
	}
	return nil
}

// Package catalog owns the storefront's product and category collections and
// mediates every read and write against the persistent catalog store.
package catalog

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// UnknownCategoryName is returned by CategoryName when the category id does
// not resolve against the persisted categories.
const UnknownCategoryName = "Unknown"

// AllCategories is the sentinel category id meaning "no filter, show all".
// It is never a real category id.
const AllCategories = 0

// Category is a product grouping. Categories are loaded once from the seed
// source or the store and are never mutated in this scope.
type Category struct {
	ID   int
	Name string
}

// Product is a single catalog item. IDs are assigned by the repository and
// are never reused, even after deletion.
type Product struct {
	ID         int
	Name       string
	Price      decimal.Decimal
	Image      string
	CategoryID int
}

// Form holds raw product fields as captured from user input. Price and
// CategoryID stay unparsed strings until validation.
type Form struct {
	Name       string
	Price      string
	Image      string
	CategoryID string
}

// ValidationError reports a malformed or missing form field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid product %s: %s", e.Field, e.Reason)
}

// NotFoundError reports an operation referencing a product id that is not in
// the catalog.
type NotFoundError struct {
	ID int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("product %d not found", e.ID)
}

// Store is the persistent catalog store: a synchronous, whole-collection
// overwrite store for the two catalog collections. Load reports ok=false when
// the collection has never been written. The two collections are written
// independently, so a crash between writes can leave them inconsistent;
// callers accept that risk.
type Store interface {
	LoadCategories(ctx context.Context) (categories []Category, ok bool, err error)
	LoadProducts(ctx context.Context) (products []Product, ok bool, err error)
	StoreCategories(ctx context.Context, categories []Category) error
	StoreProducts(ctx context.Context, products []Product) error
}

// SeedData is the one-shot payload returned by a SeedSource.
type SeedData struct {
	Categories []Category
	Products   []Product
}

// SeedSource fetches the initial catalog. It is consulted only when the
// persistent store holds no catalog yet.
type SeedSource interface {
	Fetch(ctx context.Context) (SeedData, error)
}

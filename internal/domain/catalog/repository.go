package catalog

import (
	"context"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Repository owns the authoritative in-memory catalog and is the single
// writer to the persistent store. It is not safe for concurrent use; callers
// drive it from a single event-processing goroutine.
type Repository struct {
	store Store
	seed  SeedSource
	lg    *zap.Logger

	categories []Category
	products   []Product
}

// NewRepository creates a Repository over the given store and seed source.
func NewRepository(store Store, seed SeedSource, lg *zap.Logger) *Repository {
	return &Repository{
		store: store,
		seed:  seed,
		lg:    lg,
	}
}

// Initialize loads the catalog. When the store holds no product collection
// yet, the seed source is fetched and both collections are written to the
// store verbatim; otherwise both collections are read back from the store.
// A failing seed source is a soft failure: the catalog starts empty, the
// condition is logged, and no error is returned.
func (r *Repository) Initialize(ctx context.Context) ([]Category, []Product, error) {
	products, ok, err := r.store.LoadProducts(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "load products")
	}

	if !ok {
		data, err := r.seed.Fetch(ctx)
		if err != nil {
			// An empty catalog is itself visible feedback; never crash the page.
			r.lg.Warn("seed fetch failed, starting with empty catalog", zap.Error(err))
			data = SeedData{}
		}
		if err := r.store.StoreProducts(ctx, data.Products); err != nil {
			return nil, nil, errors.Wrap(err, "store seeded products")
		}
		if err := r.store.StoreCategories(ctx, data.Categories); err != nil {
			return nil, nil, errors.Wrap(err, "store seeded categories")
		}
		r.categories = data.Categories
		r.products = data.Products
		return r.categories, r.products, nil
	}

	categories, _, err := r.store.LoadCategories(ctx)
	if err != nil {
		return nil, nil, errors.Wrap(err, "load categories")
	}
	r.categories = categories
	r.products = products
	return r.categories, r.products, nil
}

// Categories returns the in-memory category collection. Callers must not
// mutate it.
func (r *Repository) Categories() []Category {
	return r.categories
}

// Products returns the in-memory product collection. Callers must not
// mutate it.
func (r *Repository) Products() []Product {
	return r.products
}

// Create validates the form, assigns the next product id, appends the product
// to the in-memory collection, and rewrites the full collection to the store.
// IDs are 1 + max(existing ids, 0): strictly increasing and never reused.
func (r *Repository) Create(ctx context.Context, f Form) (Product, error) {
	name, price, image, categoryID, err := f.parse()
	if err != nil {
		return Product{}, err
	}

	p := Product{
		ID:         r.nextID(),
		Name:       name,
		Price:      price,
		Image:      image,
		CategoryID: categoryID,
	}
	r.products = append(r.products, p)

	if err := r.store.StoreProducts(ctx, r.products); err != nil {
		return Product{}, errors.Wrap(err, "store products")
	}
	return p, nil
}

// Update replaces the mutable fields of the product with the given id and
// rewrites the full collection. The id itself is immutable. The category id
// is not re-validated against the category collection.
func (r *Repository) Update(ctx context.Context, id int, f Form) (Product, error) {
	name, price, image, categoryID, err := f.parse()
	if err != nil {
		return Product{}, err
	}

	idx := r.indexOf(id)
	if idx < 0 {
		return Product{}, &NotFoundError{ID: id}
	}

	p := &r.products[idx]
	p.Name = name
	p.Price = price
	p.Image = image
	p.CategoryID = categoryID

	if err := r.store.StoreProducts(ctx, r.products); err != nil {
		return Product{}, errors.Wrap(err, "store products")
	}
	return *p, nil
}

// Delete removes the product with the given id and rewrites the full
// collection. Deletion is hard removal, not a tombstone, and does not cascade
// into any cart referencing the product.
func (r *Repository) Delete(ctx context.Context, id int) error {
	idx := r.indexOf(id)
	if idx < 0 {
		return &NotFoundError{ID: id}
	}
	r.products = append(r.products[:idx], r.products[idx+1:]...)

	if err := r.store.StoreProducts(ctx, r.products); err != nil {
		return errors.Wrap(err, "store products")
	}
	return nil
}

// CategoryName resolves a category id to its name against the persisted
// category collection, not the in-memory one. It returns UnknownCategoryName
// when the id is absent or the store cannot be read.
func (r *Repository) CategoryName(ctx context.Context, id int) string {
	categories, ok, err := r.store.LoadCategories(ctx)
	if err != nil {
		r.lg.Warn("load categories for name lookup", zap.Error(err))
		return UnknownCategoryName
	}
	if !ok {
		return UnknownCategoryName
	}
	for _, c := range categories {
		if c.ID == id {
			return c.Name
		}
	}
	return UnknownCategoryName
}

// FilterByCategory returns the persisted products with the given category id,
// preserving their stored order. The AllCategories sentinel returns the full
// persisted collection. Reads always go to the store, not to pending
// in-memory edits.
func (r *Repository) FilterByCategory(ctx context.Context, categoryID int) ([]Product, error) {
	products, _, err := r.store.LoadProducts(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load products")
	}
	if categoryID == AllCategories {
		return products, nil
	}

	var filtered []Product
	for _, p := range products {
		if p.CategoryID == categoryID {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

func (r *Repository) nextID() int {
	maxID := 0
	for _, p := range r.products {
		if p.ID > maxID {
			maxID = p.ID
		}
	}
	return maxID + 1
}

func (r *Repository) indexOf(id int) int {
	for i, p := range r.products {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// parse validates the raw form fields and returns their typed values.
func (f Form) parse() (name string, price decimal.Decimal, image string, categoryID int, err error) {
	if f.Name == "" {
		return "", decimal.Zero, "", 0, &ValidationError{Field: "name", Reason: "required"}
	}
	price, perr := decimal.NewFromString(f.Price)
	if perr != nil || !price.IsPositive() {
		return "", decimal.Zero, "", 0, &ValidationError{Field: "price", Reason: "must be a positive number"}
	}
	if f.Image == "" {
		return "", decimal.Zero, "", 0, &ValidationError{Field: "image", Reason: "required"}
	}
	categoryID, cerr := strconv.Atoi(f.CategoryID)
	if cerr != nil || categoryID <= 0 {
		return "", decimal.Zero, "", 0, &ValidationError{Field: "category", Reason: "must be a category id"}
	}
	return f.Name, price, f.Image, categoryID, nil
}

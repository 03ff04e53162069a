package catalog

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- Fakes ---

type fakeStore struct {
	categories    []Category
	products      []Product
	hasCategories bool
	hasProducts   bool

	loadErr  error
	storeErr error

	productWrites int
}

func (s *fakeStore) LoadCategories(context.Context) ([]Category, bool, error) {
	if s.loadErr != nil {
		return nil, false, s.loadErr
	}
	return s.categories, s.hasCategories, nil
}

func (s *fakeStore) LoadProducts(context.Context) ([]Product, bool, error) {
	if s.loadErr != nil {
		return nil, false, s.loadErr
	}
	return s.products, s.hasProducts, nil
}

func (s *fakeStore) StoreCategories(_ context.Context, categories []Category) error {
	if s.storeErr != nil {
		return s.storeErr
	}
	s.categories = categories
	s.hasCategories = true
	return nil
}

func (s *fakeStore) StoreProducts(_ context.Context, products []Product) error {
	if s.storeErr != nil {
		return s.storeErr
	}
	s.products = append([]Product(nil), products...)
	s.hasProducts = true
	s.productWrites++
	return nil
}

type fakeSeed struct {
	data SeedData
	err  error
}

func (s *fakeSeed) Fetch(context.Context) (SeedData, error) {
	return s.data, s.err
}

// --- Helpers ---

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func testProduct(id int, name, price string, categoryID int) Product {
	return Product{ID: id, Name: name, Price: d(price), Image: "img.jpg", CategoryID: categoryID}
}

func validForm() Form {
	return Form{Name: "Cap", Price: "12.50", Image: "cap.jpg", CategoryID: "1"}
}

func newTestRepo(t *testing.T, store Store, seed SeedSource) *Repository {
	t.Helper()
	return NewRepository(store, seed, zap.NewNop())
}

// --- Initialize ---

func TestInitializeSeedsEmptyStore(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	seed := &fakeSeed{data: SeedData{
		Categories: []Category{{ID: 1, Name: "Clothing"}},
		Products:   []Product{testProduct(1, "Cap", "10", 1)},
	}}

	r := newTestRepo(t, store, seed)
	categories, products, err := r.Initialize(ctx)
	require.NoError(t, err)

	assert.Len(t, categories, 1)
	assert.Len(t, products, 1)
	assert.True(t, store.hasProducts, "seeded products must be persisted")
	assert.True(t, store.hasCategories, "seeded categories must be persisted")
}

func TestInitializeReadsExistingStore(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{
		categories:    []Category{{ID: 1, Name: "Clothing"}},
		products:      []Product{testProduct(1, "Cap", "10", 1)},
		hasCategories: true,
		hasProducts:   true,
	}
	seed := &fakeSeed{err: errors.New("seed must not be consulted")}

	r := newTestRepo(t, store, seed)
	categories, products, err := r.Initialize(ctx)
	require.NoError(t, err)

	assert.Len(t, categories, 1)
	assert.Len(t, products, 1)
}

func TestInitializeSeedFailureIsSoft(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	seed := &fakeSeed{err: errors.New("network down")}

	r := newTestRepo(t, store, seed)
	categories, products, err := r.Initialize(ctx)
	require.NoError(t, err)

	assert.Empty(t, categories)
	assert.Empty(t, products)
	assert.True(t, store.hasProducts, "empty collections are still written")
	assert.True(t, store.hasCategories)
}

// --- Create ---

func TestCreateAssignsNextID(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{
		products:      []Product{testProduct(1, "Cap", "10", 1), testProduct(3, "Mug", "5", 1)},
		hasCategories: true,
		hasProducts:   true,
	}

	r := newTestRepo(t, store, &fakeSeed{})
	_, _, err := r.Initialize(ctx)
	require.NoError(t, err)

	p, err := r.Create(ctx, validForm())
	require.NoError(t, err)
	assert.Equal(t, 4, p.ID, "id is 1 + max(existing), not len+1")
	assert.True(t, p.Price.Equal(d("12.50")))
	assert.Len(t, store.products, 3, "full collection rewritten")
}

func TestCreateIDsNeverReused(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{
		products:    []Product{testProduct(1, "Cap", "10", 1), testProduct(2, "Mug", "5", 1)},
		hasProducts: true,
	}

	r := newTestRepo(t, store, &fakeSeed{})
	_, _, err := r.Initialize(ctx)
	require.NoError(t, err)

	require.NoError(t, r.Delete(ctx, 2))

	p, err := r.Create(ctx, validForm())
	require.NoError(t, err)
	assert.Equal(t, 3, p.ID, "deleting the max id must not free it within the session")
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(f *Form)
		wantField string
	}{
		{"missing name", func(f *Form) { f.Name = "" }, "name"},
		{"missing price", func(f *Form) { f.Price = "" }, "price"},
		{"non-numeric price", func(f *Form) { f.Price = "abc" }, "price"},
		{"zero price", func(f *Form) { f.Price = "0" }, "price"},
		{"negative price", func(f *Form) { f.Price = "-5" }, "price"},
		{"missing image", func(f *Form) { f.Image = "" }, "image"},
		{"missing category", func(f *Form) { f.CategoryID = "" }, "category"},
		{"zero category", func(f *Form) { f.CategoryID = "0" }, "category"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := &fakeStore{hasProducts: true}
			r := newTestRepo(t, store, &fakeSeed{})
			_, _, err := r.Initialize(ctx)
			require.NoError(t, err)

			f := validForm()
			tt.mutate(&f)

			_, err = r.Create(ctx, f)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
			assert.Empty(t, r.Products(), "rejected form must not change the catalog")
			assert.Equal(t, 0, store.productWrites, "rejected form must not touch the store")
		})
	}
}

func TestCreateFailedValidationDoesNotBurnID(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{hasProducts: true}
	r := newTestRepo(t, store, &fakeSeed{})
	_, _, err := r.Initialize(ctx)
	require.NoError(t, err)

	_, err = r.Create(ctx, Form{})
	require.Error(t, err)

	p, err := r.Create(ctx, validForm())
	require.NoError(t, err)
	assert.Equal(t, 1, p.ID)
}

// --- Update / Delete ---

func TestUpdateReplacesFields(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{
		products:    []Product{testProduct(1, "Cap", "10", 1)},
		hasProducts: true,
	}
	r := newTestRepo(t, store, &fakeSeed{})
	_, _, err := r.Initialize(ctx)
	require.NoError(t, err)

	p, err := r.Update(ctx, 1, Form{Name: "Beanie", Price: "15", Image: "beanie.jpg", CategoryID: "2"})
	require.NoError(t, err)
	assert.Equal(t, 1, p.ID, "id is immutable")
	assert.Equal(t, "Beanie", p.Name)
	assert.Equal(t, 2, p.CategoryID)
	assert.Equal(t, "Beanie", store.products[0].Name, "collection rewritten to the store")
}

func TestUpdateUnknownID(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{hasProducts: true}
	r := newTestRepo(t, store, &fakeSeed{})
	_, _, err := r.Initialize(ctx)
	require.NoError(t, err)

	_, err = r.Update(ctx, 42, validForm())
	var nferr *NotFoundError
	require.ErrorAs(t, err, &nferr)
	assert.Equal(t, 42, nferr.ID)
}

func TestDeleteRemovesAndRewrites(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{
		products:    []Product{testProduct(1, "Cap", "10", 1), testProduct(2, "Mug", "5", 1)},
		hasProducts: true,
	}
	r := newTestRepo(t, store, &fakeSeed{})
	_, _, err := r.Initialize(ctx)
	require.NoError(t, err)

	require.NoError(t, r.Delete(ctx, 1))
	require.Len(t, r.Products(), 1)
	assert.Equal(t, 2, r.Products()[0].ID)
	assert.Len(t, store.products, 1)

	var nferr *NotFoundError
	require.ErrorAs(t, r.Delete(ctx, 1), &nferr)
}

// --- Reads against the store ---

func TestFilterByCategory(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{
		products: []Product{
			testProduct(1, "Cap", "10", 1),
			testProduct(2, "Mug", "5", 2),
			testProduct(3, "Shirt", "20", 1),
		},
		hasProducts: true,
	}
	r := newTestRepo(t, store, &fakeSeed{})
	_, _, err := r.Initialize(ctx)
	require.NoError(t, err)

	all, err := r.FilterByCategory(ctx, AllCategories)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	clothing, err := r.FilterByCategory(ctx, 1)
	require.NoError(t, err)
	require.Len(t, clothing, 2)
	assert.Equal(t, 1, clothing[0].ID, "stored order preserved")
	assert.Equal(t, 3, clothing[1].ID)

	none, err := r.FilterByCategory(ctx, 99)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestFilterReadsPersistedNotPending(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{
		products:    []Product{testProduct(1, "Cap", "10", 1)},
		hasProducts: true,
	}
	r := newTestRepo(t, store, &fakeSeed{})
	_, _, err := r.Initialize(ctx)
	require.NoError(t, err)

	// A write that fails to persist leaves the filter view on the stored data.
	store.storeErr = errors.New("disk full")
	_, err = r.Create(ctx, validForm())
	require.Error(t, err)
	store.storeErr = nil

	filtered, err := r.FilterByCategory(ctx, AllCategories)
	require.NoError(t, err)
	assert.Len(t, filtered, 1)
}

func TestCategoryName(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{
		categories:    []Category{{ID: 1, Name: "Clothing"}},
		hasCategories: true,
		hasProducts:   true,
	}
	r := newTestRepo(t, store, &fakeSeed{})
	_, _, err := r.Initialize(ctx)
	require.NoError(t, err)

	assert.Equal(t, "Clothing", r.CategoryName(ctx, 1))
	assert.Equal(t, UnknownCategoryName, r.CategoryName(ctx, 7))

	store.loadErr = errors.New("store gone")
	assert.Equal(t, UnknownCategoryName, r.CategoryName(ctx, 1))
}

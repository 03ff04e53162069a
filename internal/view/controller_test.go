package view

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/avelaine/storefront/internal/domain/cart"
	"github.com/avelaine/storefront/internal/domain/catalog"
	"github.com/avelaine/storefront/internal/domain/promo"
)

// --- Fakes ---

type memStore struct {
	categories    []catalog.Category
	products      []catalog.Product
	hasCategories bool
	hasProducts   bool
}

func (s *memStore) LoadCategories(context.Context) ([]catalog.Category, bool, error) {
	return s.categories, s.hasCategories, nil
}

func (s *memStore) LoadProducts(context.Context) ([]catalog.Product, bool, error) {
	return s.products, s.hasProducts, nil
}

func (s *memStore) StoreCategories(_ context.Context, categories []catalog.Category) error {
	s.categories, s.hasCategories = categories, true
	return nil
}

func (s *memStore) StoreProducts(_ context.Context, products []catalog.Product) error {
	s.products = append([]catalog.Product(nil), products...)
	s.hasProducts = true
	return nil
}

type emptySeed struct{}

func (emptySeed) Fetch(context.Context) (catalog.SeedData, error) {
	return catalog.SeedData{}, nil
}

type recorder struct {
	answer   bool
	prompts  []string
	messages []string
}

func (r *recorder) Confirm(prompt string) bool {
	r.prompts = append(r.prompts, prompt)
	return r.answer
}

func (r *recorder) Notify(_, message string) {
	r.messages = append(r.messages, message)
}

// --- Helpers ---

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func testProduct(id int, name, price string, categoryID int) catalog.Product {
	return catalog.Product{ID: id, Name: name, Price: d(price), Image: "img.jpg", CategoryID: categoryID}
}

func seededStore() *memStore {
	return &memStore{
		categories: []catalog.Category{
			{ID: 1, Name: "Clothing"},
			{ID: 2, Name: "Mugs"},
		},
		products: []catalog.Product{
			testProduct(1, "Cap", "10.00", 1),
			testProduct(2, "Mug", "5.00", 2),
			testProduct(3, "Shirt", "20.00", 1),
		},
		hasCategories: true,
		hasProducts:   true,
	}
}

func newTestController(t *testing.T, store catalog.Store, promos *promo.CodeSet) (*Controller, *recorder) {
	t.Helper()
	rec := &recorder{answer: true}
	repo := catalog.NewRepository(store, emptySeed{}, zap.NewNop())
	c := NewController(repo, cart.NewLedger(), promos, rec, rec, zap.NewNop())
	require.NoError(t, c.Start(context.Background()))
	return c, rec
}

func loginAsAdmin(t *testing.T, c *Controller) {
	t.Helper()
	c.OpenLogin()
	c.Login("admin", "secret")
	require.Equal(t, ModeAdmin, c.Mode())
}

// --- Navigation and login ---

func TestStartRendersShop(t *testing.T) {
	c, _ := newTestController(t, seededStore(), nil)

	s := c.Snapshot()
	assert.Equal(t, ModeShop, s.Mode)
	assert.Equal(t, catalog.AllCategories, s.CategoryID)
	assert.Len(t, s.Products, 3)
	assert.Len(t, s.Categories, 2)
}

func TestOpenLoginNeedsConfirmation(t *testing.T) {
	c, rec := newTestController(t, seededStore(), nil)

	rec.answer = false
	c.OpenLogin()
	assert.Equal(t, ModeShop, c.Mode(), "declined confirm leaves the shop")

	rec.answer = true
	c.OpenLogin()
	assert.Equal(t, ModeLogin, c.Mode())
}

func TestLoginRejectsEmptyFields(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
	}{
		{"empty password", "admin", ""},
		{"empty username", "", "secret"},
		{"both empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newTestController(t, seededStore(), nil)
			c.OpenLogin()

			c.Login(tt.username, tt.password)
			assert.Equal(t, ModeLogin, c.Mode(), "failed login keeps the form open")
			assert.Contains(t, rec.messages, "Please fill in all fields")
		})
	}
}

func TestLoginAcceptsAnyNonEmptyPair(t *testing.T) {
	c, _ := newTestController(t, seededStore(), nil)
	c.OpenLogin()
	c.Login("anyone", "anything")
	assert.Equal(t, ModeAdmin, c.Mode())
}

func TestLoginIgnoredOutsideLoginMode(t *testing.T) {
	c, _ := newTestController(t, seededStore(), nil)
	c.Login("admin", "secret")
	assert.Equal(t, ModeShop, c.Mode())
}

func TestAdminNavigation(t *testing.T) {
	c, _ := newTestController(t, seededStore(), nil)
	loginAsAdmin(t, c)

	c.GoAddProduct()
	assert.Equal(t, ModeAddProduct, c.Mode())
	c.Cancel()
	assert.Equal(t, ModeAdmin, c.Mode())

	c.GoEditProducts()
	assert.Equal(t, ModeEditProductList, c.Mode())
	c.Cancel()

	c.GoDeleteProducts()
	assert.Equal(t, ModeDeleteProductList, c.Mode())
	c.Cancel()

	c.BackToShop()
	assert.Equal(t, ModeShop, c.Mode())
	assert.Len(t, c.Snapshot().Products, 3, "returning re-renders the full catalog")
}

// --- Category filter ---

func TestSelectCategory(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestController(t, seededStore(), nil)

	require.NoError(t, c.SelectCategory(ctx, 1))
	s := c.Snapshot()
	assert.Equal(t, ModeShop, s.Mode, "filtering never changes the mode")
	assert.Equal(t, 1, s.CategoryID)
	require.Len(t, s.Products, 2)
	assert.Equal(t, "Cap", s.Products[0].Name)
	assert.Equal(t, "Shirt", s.Products[1].Name)

	require.NoError(t, c.SelectCategory(ctx, catalog.AllCategories))
	assert.Len(t, c.Snapshot().Products, 3)
}

func TestSelectCategoryIgnoredOutsideShop(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestController(t, seededStore(), nil)
	loginAsAdmin(t, c)

	require.NoError(t, c.SelectCategory(ctx, 1))
	assert.Equal(t, ModeAdmin, c.Mode())
}

// --- Product management ---

func TestSubmitNewProduct(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	c, rec := newTestController(t, store, nil)
	loginAsAdmin(t, c)
	c.GoAddProduct()

	err := c.SubmitNewProduct(ctx, catalog.Form{Name: "Pin", Price: "2.50", Image: "pin.jpg", CategoryID: "2"})
	require.NoError(t, err)
	assert.Equal(t, ModeAdmin, c.Mode())
	assert.Contains(t, rec.messages, "Product added successfully!")
	assert.Len(t, store.products, 4)
	assert.Equal(t, 4, store.products[3].ID)
}

func TestSubmitNewProductValidationKeepsForm(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	c, rec := newTestController(t, store, nil)
	loginAsAdmin(t, c)
	c.GoAddProduct()

	err := c.SubmitNewProduct(ctx, catalog.Form{Name: "", Price: "2.50", Image: "pin.jpg", CategoryID: "2"})
	require.NoError(t, err)
	assert.Equal(t, ModeAddProduct, c.Mode(), "invalid form stays open")
	assert.Contains(t, rec.messages, "Please fill in all fields")
	assert.Len(t, store.products, 3)
}

func TestEditProductFlow(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	c, rec := newTestController(t, store, nil)
	loginAsAdmin(t, c)
	c.GoEditProducts()

	c.SelectEditProduct(1)
	require.Equal(t, ModeEditProductForm, c.Mode())

	form := c.Snapshot().Form
	require.NotNil(t, form)
	assert.Equal(t, 1, form.ProductID)
	assert.Equal(t, "Cap", form.Fields.Name)
	assert.Equal(t, "10", form.Fields.Price)
	assert.Equal(t, "1", form.Fields.CategoryID)

	err := c.SubmitEditedProduct(ctx, catalog.Form{Name: "Beanie", Price: "15", Image: "b.jpg", CategoryID: "1"})
	require.NoError(t, err)
	assert.Equal(t, ModeAdmin, c.Mode())
	assert.Nil(t, c.Snapshot().Form)
	assert.Contains(t, rec.messages, "Product updated successfully!")
	assert.Equal(t, "Beanie", store.products[0].Name)
	assert.Equal(t, 1, store.products[0].ID, "id never changes")
}

func TestSelectEditUnknownProduct(t *testing.T) {
	c, _ := newTestController(t, seededStore(), nil)
	loginAsAdmin(t, c)
	c.GoEditProducts()

	c.SelectEditProduct(42)
	assert.Equal(t, ModeEditProductList, c.Mode())
	assert.Nil(t, c.Snapshot().Form)
}

func TestSubmitEditedProductValidationKeepsForm(t *testing.T) {
	ctx := context.Background()
	c, rec := newTestController(t, seededStore(), nil)
	loginAsAdmin(t, c)
	c.GoEditProducts()
	c.SelectEditProduct(1)

	err := c.SubmitEditedProduct(ctx, catalog.Form{Name: "Beanie", Price: "free", Image: "b.jpg", CategoryID: "1"})
	require.NoError(t, err)
	assert.Equal(t, ModeEditProductForm, c.Mode())
	assert.Contains(t, rec.messages, "Please fill in all fields")
}

func TestDeleteProduct(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	c, rec := newTestController(t, store, nil)
	loginAsAdmin(t, c)
	c.GoDeleteProducts()

	require.NoError(t, c.DeleteProduct(ctx, 2))
	assert.Equal(t, ModeDeleteProductList, c.Mode(), "deletion re-renders the same list")
	assert.Contains(t, rec.prompts, "Are you sure you want to delete this product?")
	assert.Len(t, store.products, 2)
	assert.Len(t, c.Snapshot().Products, 2)
}

func TestDeleteProductDeclined(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	c, rec := newTestController(t, store, nil)
	loginAsAdmin(t, c)
	c.GoDeleteProducts()

	rec.answer = false
	require.NoError(t, c.DeleteProduct(ctx, 2))
	assert.Len(t, store.products, 3)
}

func TestDeleteDoesNotTouchCart(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestController(t, seededStore(), nil)
	c.AddToCart(2)

	loginAsAdmin(t, c)
	c.GoDeleteProducts()
	require.NoError(t, c.DeleteProduct(ctx, 2))

	s := c.Snapshot()
	require.Len(t, s.Lines, 1, "cart lines survive catalog deletion")
	assert.Equal(t, 2, s.Lines[0].Product.ID)
	assert.True(t, s.Total.Equal(d("5.00")))
}

// --- Cart ---

func TestAddToCart(t *testing.T) {
	c, rec := newTestController(t, seededStore(), nil)

	c.AddToCart(1)
	c.AddToCart(1)
	c.AddToCart(2)

	s := c.Snapshot()
	require.Len(t, s.Lines, 2)
	assert.Equal(t, 2, s.Lines[0].Quantity)
	assert.Equal(t, 2, s.Badge, "badge counts lines, not quantities")
	assert.True(t, s.Total.Equal(d("25.00")))
	assert.Contains(t, rec.messages, "Cap added to the cart.")
	assert.Contains(t, rec.messages, "Increased quantity of Cap.")
}

func TestAddToCartUnknownIDIgnored(t *testing.T) {
	c, rec := newTestController(t, seededStore(), nil)
	c.AddToCart(99)
	assert.Equal(t, 0, c.Snapshot().Badge)
	assert.Empty(t, rec.messages)
}

func TestDecreaseLineAtOneNeedsConfirm(t *testing.T) {
	c, rec := newTestController(t, seededStore(), nil)
	c.AddToCart(1)

	rec.answer = false
	c.DecreaseLine(0)
	assert.Equal(t, 1, c.Snapshot().Badge, "declined removal keeps the line")
	assert.Contains(t, rec.prompts, "Remove this item from the cart?")

	rec.answer = true
	c.DecreaseLine(0)
	assert.Equal(t, 0, c.Snapshot().Badge)
}

func TestIncreaseAndDecreaseLine(t *testing.T) {
	c, _ := newTestController(t, seededStore(), nil)
	c.AddToCart(1)

	c.IncreaseLine(0)
	c.IncreaseLine(0)
	assert.Equal(t, 3, c.Snapshot().Lines[0].Quantity)

	c.DecreaseLine(0)
	assert.Equal(t, 2, c.Snapshot().Lines[0].Quantity)
}

func TestRemoveLineDeclined(t *testing.T) {
	c, rec := newTestController(t, seededStore(), nil)
	c.AddToCart(1)

	rec.answer = false
	c.RemoveLine(0)
	assert.Equal(t, 1, c.Snapshot().Badge)
}

func TestClearCart(t *testing.T) {
	c, rec := newTestController(t, seededStore(), nil)
	c.AddToCart(1)
	c.AddToCart(2)

	c.ClearCart()
	s := c.Snapshot()
	assert.Equal(t, 0, s.Badge)
	assert.True(t, s.Total.IsZero())
	assert.Contains(t, rec.prompts, "Are you sure you want to empty the cart?")
}

func TestClearEmptyCartNoPrompt(t *testing.T) {
	c, rec := newTestController(t, seededStore(), nil)
	c.ClearCart()
	assert.Empty(t, rec.prompts)
}

// --- Checkout ---

func TestCheckoutClearsCart(t *testing.T) {
	c, rec := newTestController(t, seededStore(), nil)
	c.AddToCart(1)
	c.AddToCart(2)

	c.Checkout("")
	s := c.Snapshot()
	assert.Equal(t, 0, s.Badge)
	assert.Contains(t, rec.messages, "Order placed. Total: 15.00")
	assert.Empty(t, rec.prompts, "checkout never asks for confirmation")
}

func TestCheckoutEmptyCartNoOp(t *testing.T) {
	c, rec := newTestController(t, seededStore(), nil)
	c.Checkout("")
	assert.Empty(t, rec.messages)
}

func TestCheckoutWithPromoCode(t *testing.T) {
	promos := promo.NewCodeSet([]string{"FIFTYOFF"})
	c, rec := newTestController(t, seededStore(), promos)
	c.AddToCart(1)
	c.AddToCart(3)

	c.Checkout("FIFTYOFF")
	assert.Equal(t, 0, c.Snapshot().Badge)
	assert.Contains(t, rec.messages, "Order placed. Total: 15.00")
}

func TestCheckoutInvalidPromoKeepsCart(t *testing.T) {
	promos := promo.NewCodeSet([]string{"FIFTYOFF"})
	c, rec := newTestController(t, seededStore(), promos)
	c.AddToCart(1)

	c.Checkout("BOGUS123")
	assert.Equal(t, 1, c.Snapshot().Badge, "failed checkout keeps the cart")
	assert.Contains(t, rec.messages, "Invalid promo code")
}

func TestCheckoutNilPromosRejectsCodes(t *testing.T) {
	c, rec := newTestController(t, seededStore(), nil)
	c.AddToCart(1)

	c.Checkout("FIFTYOFF")
	assert.Equal(t, 1, c.Snapshot().Badge)
	assert.Contains(t, rec.messages, "Invalid promo code")
}

// Package view holds the storefront's view-state coordinator: a small state
// machine that owns the active view mode and orchestrates the catalog
// repository and the cart ledger in response to user intents.
package view

import (
	"context"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/avelaine/storefront/internal/domain/cart"
	"github.com/avelaine/storefront/internal/domain/catalog"
	"github.com/avelaine/storefront/internal/domain/promo"
)

// Confirmer asks the user a blocking yes/no question. Declining always leaves
// state unchanged.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmerFunc adapts a function to the Confirmer interface.
type ConfirmerFunc func(prompt string) bool

func (f ConfirmerFunc) Confirm(prompt string) bool { return f(prompt) }

// Notifier surfaces a fire-and-forget message to the user. It never blocks
// and never affects state.
type Notifier interface {
	Notify(title, message string)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(title, message string)

func (f NotifierFunc) Notify(title, message string) { f(title, message) }

// ProductForm is the pre-filled edit form exposed to presenters while the
// edit-product-form mode is active.
type ProductForm struct {
	ProductID int
	Fields    catalog.Form
}

// Snapshot is everything a presenter needs to render the current view.
type Snapshot struct {
	Mode       Mode
	CategoryID int
	Products   []catalog.Product
	Categories []catalog.Category
	Lines      []cart.Line
	Total      decimal.Decimal
	Badge      int
	Form       *ProductForm
}

// Controller owns the current view mode and drives all transitions. It holds
// references to the repository and the ledger, never copies of their data.
// All methods must be called from a single event-processing goroutine;
// handlers run to completion before the next event.
type Controller struct {
	repo    *catalog.Repository
	cart    *cart.Ledger
	promos  *promo.CodeSet
	confirm Confirmer
	notify  Notifier
	lg      *zap.Logger

	mode     Mode
	category int
	visible  []catalog.Product
	form     *ProductForm
}

// NewController wires a Controller. promos may be nil, in which case every
// promo code is rejected at checkout.
func NewController(
	repo *catalog.Repository,
	ledger *cart.Ledger,
	promos *promo.CodeSet,
	confirm Confirmer,
	notify Notifier,
	lg *zap.Logger,
) *Controller {
	return &Controller{
		repo:    repo,
		cart:    ledger,
		promos:  promos,
		confirm: confirm,
		notify:  notify,
		lg:      lg,
		mode:    ModeShop,
	}
}

// Start initializes the catalog and renders the shop view. The initial load
// is the only asynchronous boundary; seed failure degrades to an empty
// catalog inside the repository.
func (c *Controller) Start(ctx context.Context) error {
	_, products, err := c.repo.Initialize(ctx)
	if err != nil {
		return errors.Wrap(err, "initialize catalog")
	}
	c.mode = ModeShop
	c.category = catalog.AllCategories
	c.visible = products
	return nil
}

// Mode returns the active view mode.
func (c *Controller) Mode() Mode {
	return c.mode
}

// Snapshot returns the state a presenter renders from.
func (c *Controller) Snapshot() Snapshot {
	s := Snapshot{
		Mode:       c.mode,
		CategoryID: c.category,
		Categories: c.repo.Categories(),
		Lines:      c.cart.Lines(),
		Total:      c.cart.Total(),
		Badge:      c.cart.LineCount(),
		Form:       c.form,
	}
	switch c.mode {
	case ModeShop:
		s.Products = c.visible
	case ModeEditProductList, ModeDeleteProductList:
		s.Products = c.repo.Products()
	}
	return s
}

// OpenLogin moves from the shop to the login view after the user confirms
// the redirect.
func (c *Controller) OpenLogin() {
	if c.mode != ModeShop {
		return
	}
	if !c.confirm.Confirm("Go to the admin page?") {
		return
	}
	c.mode = ModeLogin
}

// Login accepts any non-empty credential pair. This is explicitly not a
// security boundary.
func (c *Controller) Login(username, password string) {
	if c.mode != ModeLogin {
		return
	}
	if username == "" || password == "" {
		c.notify.Notify("Error", "Please fill in all fields")
		return
	}
	c.mode = ModeAdmin
}

// GoAddProduct opens the new-product form.
func (c *Controller) GoAddProduct() {
	if c.mode != ModeAdmin {
		return
	}
	c.mode = ModeAddProduct
}

// GoEditProducts lists the current products for editing.
func (c *Controller) GoEditProducts() {
	if c.mode != ModeAdmin {
		return
	}
	c.mode = ModeEditProductList
}

// GoDeleteProducts lists the current products for deletion.
func (c *Controller) GoDeleteProducts() {
	if c.mode != ModeAdmin {
		return
	}
	c.mode = ModeDeleteProductList
}

// Cancel leaves any admin-family view and returns to the admin menu,
// discarding unsaved form state.
func (c *Controller) Cancel() {
	if !c.mode.adminFamily() {
		return
	}
	c.form = nil
	c.mode = ModeAdmin
}

// BackToShop returns from the admin menu to the shop and re-renders the full
// catalog.
func (c *Controller) BackToShop() {
	if c.mode != ModeAdmin {
		return
	}
	c.form = nil
	c.category = catalog.AllCategories
	c.visible = c.repo.Products()
	c.mode = ModeShop
}

// SelectCategory re-derives the visible product list from the persisted
// catalog. Available only in the shop; never changes the view mode.
func (c *Controller) SelectCategory(ctx context.Context, categoryID int) error {
	if c.mode != ModeShop {
		return nil
	}
	products, err := c.repo.FilterByCategory(ctx, categoryID)
	if err != nil {
		return errors.Wrap(err, "filter by category")
	}
	c.category = categoryID
	c.visible = products
	return nil
}

// SubmitNewProduct validates and persists a new product. Validation failure
// keeps the form open; success returns to the admin menu.
func (c *Controller) SubmitNewProduct(ctx context.Context, f catalog.Form) error {
	if c.mode != ModeAddProduct {
		return nil
	}
	if _, err := c.repo.Create(ctx, f); err != nil {
		var verr *catalog.ValidationError
		if errors.As(err, &verr) {
			c.notify.Notify("Error", "Please fill in all fields")
			return nil
		}
		return errors.Wrap(err, "create product")
	}
	c.notify.Notify("Success", "Product added successfully!")
	c.mode = ModeAdmin
	return nil
}

// SelectEditProduct pre-fills the edit form with the chosen product's fields.
// An unknown id leaves the list as is.
func (c *Controller) SelectEditProduct(id int) {
	if c.mode != ModeEditProductList {
		return
	}
	for _, p := range c.repo.Products() {
		if p.ID != id {
			continue
		}
		c.form = &ProductForm{
			ProductID: p.ID,
			Fields: catalog.Form{
				Name:       p.Name,
				Price:      p.Price.String(),
				Image:      p.Image,
				CategoryID: strconv.Itoa(p.CategoryID),
			},
		}
		c.mode = ModeEditProductForm
		return
	}
}

// SubmitEditedProduct validates and persists the edit form. Validation
// failure keeps the form open; a stale id falls back to the edit list.
func (c *Controller) SubmitEditedProduct(ctx context.Context, f catalog.Form) error {
	if c.mode != ModeEditProductForm || c.form == nil {
		return nil
	}
	if _, err := c.repo.Update(ctx, c.form.ProductID, f); err != nil {
		var verr *catalog.ValidationError
		if errors.As(err, &verr) {
			c.notify.Notify("Error", "Please fill in all fields")
			return nil
		}
		var nferr *catalog.NotFoundError
		if errors.As(err, &nferr) {
			c.notify.Notify("Error", "Product no longer exists")
			c.form = nil
			c.mode = ModeEditProductList
			return nil
		}
		return errors.Wrap(err, "update product")
	}
	c.notify.Notify("Success", "Product updated successfully!")
	c.form = nil
	c.mode = ModeAdmin
	return nil
}

// DeleteProduct removes a product after confirmation and re-renders the same
// list. A stale id just re-renders.
func (c *Controller) DeleteProduct(ctx context.Context, id int) error {
	if c.mode != ModeDeleteProductList {
		return nil
	}
	if !c.confirm.Confirm("Are you sure you want to delete this product?") {
		return nil
	}
	if err := c.repo.Delete(ctx, id); err != nil {
		var nferr *catalog.NotFoundError
		if errors.As(err, &nferr) {
			c.notify.Notify("Error", "Product no longer exists")
			return nil
		}
		return errors.Wrap(err, "delete product")
	}
	c.notify.Notify("Success", "Product deleted successfully!")
	return nil
}

// AddToCart puts the product with the given id in the cart. Unknown ids are
// ignored, matching the rendered-but-stale button case.
func (c *Controller) AddToCart(id int) {
	for _, p := range c.repo.Products() {
		if p.ID != id {
			continue
		}
		switch c.cart.Add(p) {
		case cart.QuantityIncreased:
			c.notify.Notify("Success", "Increased quantity of "+p.Name+".")
		case cart.LineAdded:
			c.notify.Notify("Success", p.Name+" added to the cart.")
		}
		return
	}
}

// IncreaseLine bumps the quantity of the cart line at the given position.
func (c *Controller) IncreaseLine(index int) {
	if err := c.cart.Increase(index); err != nil {
		c.lg.Debug("stale cart index", zap.Int("index", index))
		return
	}
	c.notify.Notify("Success", "Quantity increased.")
}

// DecreaseLine lowers the quantity of the cart line at the given position.
// At quantity 1 the line is only removed after the user confirms.
func (c *Controller) DecreaseLine(index int) {
	outcome, err := c.cart.Decrease(index)
	if err != nil {
		c.lg.Debug("stale cart index", zap.Int("index", index))
		return
	}
	switch outcome {
	case cart.Decremented:
		c.notify.Notify("Success", "Quantity decreased.")
	case cart.ConfirmRemoval:
		if !c.confirm.Confirm("Remove this item from the cart?") {
			return
		}
		if err := c.cart.Remove(index); err != nil {
			return
		}
		c.notify.Notify("Success", "Item removed from the cart.")
	}
}

// RemoveLine deletes the cart line at the given position after confirmation.
func (c *Controller) RemoveLine(index int) {
	if !c.confirm.Confirm("Remove this item from the cart?") {
		return
	}
	if err := c.cart.Remove(index); err != nil {
		c.lg.Debug("stale cart index", zap.Int("index", index))
		return
	}
	c.notify.Notify("Success", "Item removed from the cart.")
}

// ClearCart empties the cart after confirmation.
func (c *Controller) ClearCart() {
	if c.cart.LineCount() == 0 {
		return
	}
	if !c.confirm.Confirm("Are you sure you want to empty the cart?") {
		return
	}
	c.cart.Clear()
	c.notify.Notify("Success", "The cart has been emptied.")
}

// Checkout is a terminal no-op that empties the cart; there is no payment
// processing. An optional promo code adjusts the reported total first; an
// invalid code aborts the checkout and keeps the cart.
func (c *Controller) Checkout(code string) {
	if c.cart.LineCount() == 0 {
		return
	}

	total := c.cart.Total()
	if code != "" {
		discount, ok := c.applyPromo(code)
		if !ok {
			c.notify.Notify("Error", "Invalid promo code")
			return
		}
		total = total.Sub(discount.Amount)
		if total.IsNegative() {
			total = decimal.Zero
		}
	}

	c.notify.Notify("Success", "Order placed. Total: "+total.Round(2).StringFixed(2))
	c.cart.Clear()
}

func (c *Controller) applyPromo(code string) (promo.Discount, bool) {
	if c.promos == nil {
		return promo.Discount{}, false
	}
	rule, err := c.promos.Lookup(code)
	if err != nil {
		return promo.Discount{}, false
	}
	discount, err := promo.Apply(rule, c.cart.Lines())
	if err != nil {
		return promo.Discount{}, false
	}
	return discount, true
}

package view

// Mode identifies which screen of the storefront is active. Exactly one mode
// is active at a time.
type Mode uint8

const (
	// ModeShop is the catalog view with the category filter and cart.
	ModeShop Mode = iota
	// ModeLogin is the admin credential form.
	ModeLogin
	// ModeAdmin is the admin menu.
	ModeAdmin
	// ModeAddProduct is the new-product form.
	ModeAddProduct
	// ModeEditProductList lists products to pick one for editing.
	ModeEditProductList
	// ModeEditProductForm is the pre-filled edit form for one product.
	ModeEditProductForm
	// ModeDeleteProductList lists products to pick one for deletion.
	ModeDeleteProductList
)

func (m Mode) String() string {
	switch m {
	case ModeShop:
		return "shop"
	case ModeLogin:
		return "login"
	case ModeAdmin:
		return "admin"
	case ModeAddProduct:
		return "add-product"
	case ModeEditProductList:
		return "edit-product-list"
	case ModeEditProductForm:
		return "edit-product-form"
	case ModeDeleteProductList:
		return "delete-product-list"
	default:
		return "unknown"
	}
}

// adminFamily reports whether the mode belongs to the admin flow, where
// Cancel returns to the admin menu.
func (m Mode) adminFamily() bool {
	switch m {
	case ModeAddProduct, ModeEditProductList, ModeEditProductForm, ModeDeleteProductList:
		return true
	default:
		return false
	}
}

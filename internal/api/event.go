package api

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/avelaine/storefront/internal/domain/catalog"
)

// Intent names, mirroring the discrete events a presenter emits.
const (
	eventNavigate        = "navigate"
	eventLogin           = "login"
	eventCategoryChanged = "category-changed"
	eventProductSelected = "product-selected"
	eventFormSubmit      = "form-submit"
	eventAddToCart       = "add-to-cart"
	eventCartLineAction  = "cart-line-action"
	eventCartClear       = "cart-clear"
	eventCheckout        = "checkout"
)

// Navigation targets accepted by the navigate intent.
const (
	targetLogin          = "login"
	targetAdmin          = "admin"
	targetAddProduct     = "add-product"
	targetEditProducts   = "edit-products"
	targetDeleteProducts = "delete-products"
	targetShop           = "shop"
)

// Cart line action kinds.
const (
	lineIncrease = "increase"
	lineDecrease = "decrease"
	lineRemove   = "remove"
)

// event is one decoded user intent.
type event struct {
	Type       string
	Target     string
	Username   string
	Password   string
	CategoryID int
	ProductID  int
	Index      int
	Action     string
	Form       catalog.Form
	PromoCode  string
	Confirm    bool
}

// decodeEvent parses an intent payload. Unknown keys are skipped so clients
// can evolve ahead of the server.
func decodeEvent(body []byte) (event, error) {
	var ev event
	d := jx.DecodeBytes(body)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "type":
			ev.Type, err = d.Str()
		case "target":
			ev.Target, err = d.Str()
		case "username":
			ev.Username, err = d.Str()
		case "password":
			ev.Password, err = d.Str()
		case "categoryId":
			ev.CategoryID, err = d.Int()
		case "productId":
			ev.ProductID, err = d.Int()
		case "index":
			ev.Index, err = d.Int()
		case "action":
			ev.Action, err = d.Str()
		case "fields":
			ev.Form, err = decodeForm(d)
		case "promoCode":
			ev.PromoCode, err = d.Str()
		case "confirm":
			ev.Confirm, err = d.Bool()
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		return event{}, errors.Wrap(err, "decode event")
	}
	if ev.Type == "" {
		return event{}, errors.New("event type is required")
	}
	return ev, nil
}

// decodeForm reads raw product form fields. Price and category id accept
// both JSON numbers and strings; they stay raw strings for the repository to
// validate.
func decodeForm(d *jx.Decoder) (catalog.Form, error) {
	var f catalog.Form
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			f.Name, err = d.Str()
		case "price":
			f.Price, err = rawScalar(d)
		case "image":
			f.Image, err = d.Str()
		case "categoryId":
			f.CategoryID, err = rawScalar(d)
		default:
			err = d.Skip()
		}
		return err
	})
	return f, err
}

// rawScalar reads a string or number token as its raw string form.
func rawScalar(d *jx.Decoder) (string, error) {
	if d.Next() == jx.String {
		return d.Str()
	}
	n, err := d.Num()
	if err != nil {
		return "", err
	}
	return string(n), nil
}

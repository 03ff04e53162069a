package api

import (
	"github.com/go-faster/jx"

	"github.com/avelaine/storefront/internal/domain/cart"
	"github.com/avelaine/storefront/internal/domain/catalog"
	"github.com/avelaine/storefront/internal/view"
)

// encodeState renders the full response envelope: session id, view state,
// and any notifications raised while handling the intent.
func encodeState(sessionID string, snap view.Snapshot, notes []Notification) []byte {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("sessionId", func(e *jx.Encoder) { e.Str(sessionID) })
		e.Field("state", func(e *jx.Encoder) { encodeSnapshot(e, snap) })
		e.Field("notifications", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, n := range notes {
					e.Obj(func(e *jx.Encoder) {
						e.Field("title", func(e *jx.Encoder) { e.Str(n.Title) })
						e.Field("message", func(e *jx.Encoder) { e.Str(n.Message) })
					})
				}
			})
		})
	})
	return e.Bytes()
}

func encodeSnapshot(e *jx.Encoder, snap view.Snapshot) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("mode", func(e *jx.Encoder) { e.Str(snap.Mode.String()) })
		e.Field("categoryId", func(e *jx.Encoder) { e.Int(snap.CategoryID) })
		e.Field("products", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, p := range snap.Products {
					encodeProduct(e, p)
				}
			})
		})
		e.Field("categories", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, c := range snap.Categories {
					e.Obj(func(e *jx.Encoder) {
						e.Field("id", func(e *jx.Encoder) { e.Int(c.ID) })
						e.Field("name", func(e *jx.Encoder) { e.Str(c.Name) })
					})
				}
			})
		})
		e.Field("cart", func(e *jx.Encoder) { encodeCart(e, snap) })
		if snap.Form != nil {
			e.Field("form", func(e *jx.Encoder) {
				e.Obj(func(e *jx.Encoder) {
					e.Field("productId", func(e *jx.Encoder) { e.Int(snap.Form.ProductID) })
					e.Field("name", func(e *jx.Encoder) { e.Str(snap.Form.Fields.Name) })
					e.Field("price", func(e *jx.Encoder) { e.Str(snap.Form.Fields.Price) })
					e.Field("image", func(e *jx.Encoder) { e.Str(snap.Form.Fields.Image) })
					e.Field("categoryId", func(e *jx.Encoder) { e.Str(snap.Form.Fields.CategoryID) })
				})
			})
		}
	})
}

func encodeCart(e *jx.Encoder, snap view.Snapshot) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("lines", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, l := range snap.Lines {
					encodeLine(e, l)
				}
			})
		})
		e.Field("total", func(e *jx.Encoder) { e.Str(snap.Total.String()) })
		e.Field("badge", func(e *jx.Encoder) { e.Int(snap.Badge) })
	})
}

func encodeLine(e *jx.Encoder, l cart.Line) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("product", func(e *jx.Encoder) { encodeProduct(e, l.Product) })
		e.Field("quantity", func(e *jx.Encoder) { e.Int(l.Quantity) })
		e.Field("subtotal", func(e *jx.Encoder) { e.Str(l.Subtotal().String()) })
	})
}

func encodeProduct(e *jx.Encoder, p catalog.Product) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Int(p.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
		e.Field("price", func(e *jx.Encoder) { e.Str(p.Price.String()) })
		e.Field("image", func(e *jx.Encoder) { e.Str(p.Image) })
		e.Field("categoryId", func(e *jx.Encoder) { e.Int(p.CategoryID) })
	})
}

func encodeError(code int, message string) []byte {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("code", func(e *jx.Encoder) { e.Int(code) })
		e.Field("message", func(e *jx.Encoder) { e.Str(message) })
	})
	return e.Bytes()
}

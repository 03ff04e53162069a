// Package cart owns the in-memory shopping cart. The cart is ephemeral: it is
// never persisted and dies with the session.
package cart

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/avelaine/storefront/internal/domain/catalog"
)

// Line pairs a product with a quantity. Quantity never drops below 1 while
// the line exists; dropping to 0 removes the line instead. The product is a
// captured snapshot: deleting it from the catalog does not touch the line.
type Line struct {
	Product  catalog.Product
	Quantity int
}

// Subtotal returns price multiplied by quantity, exact.
func (l Line) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// AddOutcome reports which branch Add took, so the caller can surface the
// right message.
type AddOutcome int

const (
	// LineAdded means a new line was appended with quantity 1.
	LineAdded AddOutcome = iota
	// QuantityIncreased means an existing line's quantity went up by 1.
	QuantityIncreased
)

// DecreaseOutcome reports the result of Decrease.
type DecreaseOutcome int

const (
	// Decremented means the quantity was reduced by 1.
	Decremented DecreaseOutcome = iota
	// ConfirmRemoval means the quantity is 1 and the line was NOT removed;
	// the caller must confirm with the user and call Remove explicitly.
	ConfirmRemoval
)

// IndexError reports a cart line index outside the current cart order.
// Indices are render positions, stable only until a line is removed.
type IndexError struct {
	Index int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("no cart line at index %d", e.Index)
}

// Ledger holds the cart lines in insertion order: the first add wins the
// position, later quantity changes never reorder. At most one line exists per
// product id. Not safe for concurrent use.
type Ledger struct {
	lines []Line
}

// NewLedger returns an empty cart.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Add puts the product in the cart: an existing line for the same product id
// gets its quantity incremented, otherwise a new line is appended with
// quantity 1.
func (g *Ledger) Add(p catalog.Product) AddOutcome {
	for i := range g.lines {
		if g.lines[i].Product.ID == p.ID {
			g.lines[i].Quantity++
			return QuantityIncreased
		}
	}
	g.lines = append(g.lines, Line{Product: p, Quantity: 1})
	return LineAdded
}

// Increase increments the quantity of the line at the given position.
func (g *Ledger) Increase(index int) error {
	if index < 0 || index >= len(g.lines) {
		return &IndexError{Index: index}
	}
	g.lines[index].Quantity++
	return nil
}

// Decrease decrements the quantity of the line at the given position. A line
// at quantity 1 is never silently removed: Decrease returns ConfirmRemoval
// and leaves the line untouched for the caller to confirm.
func (g *Ledger) Decrease(index int) (DecreaseOutcome, error) {
	if index < 0 || index >= len(g.lines) {
		return 0, &IndexError{Index: index}
	}
	if g.lines[index].Quantity <= 1 {
		return ConfirmRemoval, nil
	}
	g.lines[index].Quantity--
	return Decremented, nil
}

// Remove deletes the line at the given position unconditionally. Any
// confirmation policy is the caller's business.
func (g *Ledger) Remove(index int) error {
	if index < 0 || index >= len(g.lines) {
		return &IndexError{Index: index}
	}
	g.lines = append(g.lines[:index], g.lines[index+1:]...)
	return nil
}

// Clear empties the cart.
func (g *Ledger) Clear() {
	g.lines = nil
}

// Total returns the exact sum of price times quantity over all lines. Display
// rounding is the presenter's business; keeping the internal total exact
// avoids compounding rounding error across repeated reads.
func (g *Ledger) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range g.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// LineCount returns the number of distinct lines. The cart badge counts
// lines, not summed quantities.
func (g *Ledger) LineCount() int {
	return len(g.lines)
}

// Lines returns a copy of the lines in cart order. Indices into this slice
// are the positions the mutation methods accept.
func (g *Ledger) Lines() []Line {
	out := make([]Line, len(g.lines))
	copy(out, g.lines)
	return out
}

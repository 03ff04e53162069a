// Package promo applies checkout promo codes to the shopping cart. Codes are
// loaded from newline-delimited files into a bloom-prefiltered set; rules
// describe the discount each code grants.
package promo

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/avelaine/storefront/internal/domain/cart"
)

// DiscountType enumerates the supported discount strategies.
type DiscountType string

const (
	// DiscountPercentage applies a percentage discount to the cart total.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed applies a fixed monetary discount capped at the total.
	DiscountFixed DiscountType = "fixed"
	// DiscountFreeLowest removes the cost of one unit of the cheapest line.
	DiscountFreeLowest DiscountType = "free_lowest"
)

// ErrInvalidCode is returned when a promo code is unknown or the cart does
// not satisfy the rule's minimum item requirement.
var ErrInvalidCode = errors.New("invalid promo code")

// Rule defines a promo code's discount behaviour and eligibility.
type Rule struct {
	Code        string
	Type        DiscountType
	Value       decimal.Decimal
	MinItems    int
	Description string
}

// Discount holds the computed discount amount and a human-readable
// description.
type Discount struct {
	Amount      decimal.Decimal
	Description string
}

var hundred = decimal.NewFromInt(100)

// Apply calculates the discount for the given rule and cart lines. It returns
// ErrInvalidCode when the cart does not satisfy the rule's minimum total
// quantity.
func Apply(rule *Rule, lines []cart.Line) (Discount, error) {
	if rule.MinItems > 0 && totalQuantity(lines) < rule.MinItems {
		return Discount{}, ErrInvalidCode
	}

	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Subtotal())
	}

	var amount decimal.Decimal
	switch rule.Type {
	case DiscountPercentage:
		amount = subtotal.Mul(rule.Value).Div(hundred)
	case DiscountFixed:
		amount = decimal.Min(rule.Value, subtotal)
	case DiscountFreeLowest:
		amount = lowestUnitPrice(lines)
	default:
		return Discount{}, errors.Errorf("unsupported discount type: %q", rule.Type)
	}

	if amount.IsNegative() {
		amount = decimal.Zero
	}
	return Discount{
		Amount:      amount.Round(2),
		Description: rule.Description,
	}, nil
}

func totalQuantity(lines []cart.Line) int {
	total := 0
	for _, l := range lines {
		total += l.Quantity
	}
	return total
}

func lowestUnitPrice(lines []cart.Line) decimal.Decimal {
	lowest := decimal.Zero
	for i, l := range lines {
		if i == 0 || l.Product.Price.LessThan(lowest) {
			lowest = l.Product.Price
		}
	}
	return lowest
}

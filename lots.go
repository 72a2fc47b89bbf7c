package beanimport

import (
	"errors"
	"fmt"
	"strings"

	"github.com/etnz/beanimport/date"
)

// ErrSaleNotNegative is returned when a sale is not expressed as a negative quantity.
var ErrSaleNotNegative = errors.New("sale quantity must be negative")

// Lot is a quantity of a security acquired on one date at one cost.
//
// In an inventory Units are positive. A sale is expressed as a Lot with
// negative Units, in the same commodity.
type Lot struct {
	TransID string
	Date    date.Date
	Units   Amount
	Cost    *Cost // nil for lots that are not costed.
}

func (l Lot) String() string {
	s := l.Units.String()
	if l.Cost != nil {
		s += " {" + l.Cost.PerUnit.String() + "}"
	}
	if !l.Date.IsZero() {
		s += " on " + l.Date.String()
	}
	return s
}

// Inventory is the list of open lots of a security, oldest first.
type Inventory []Lot

// Units returns the total quantity held.
func (inv Inventory) Units() Quantity {
	var total Quantity
	for _, l := range inv {
		total = total.Add(l.Units.Quantity())
	}
	return total
}

func (inv Inventory) String() string {
	if len(inv) == 0 {
		return "[]"
	}
	parts := make([]string, 0, len(inv))
	for _, l := range inv {
		parts = append(parts, l.String())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// UnmatchedSaleError reports a sale that the inventory could not cover.
// The sold lots returned along with it are still valid.
type UnmatchedSaleError struct {
	Sale      Lot
	Remaining Quantity  // quantity left unmatched, negative.
	Inventory Inventory // inventory before the sale.
	Sold      []Lot
}

func (e *UnmatchedSaleError) Error() string {
	return fmt.Sprintf("cannot sell %s from %s: %s left unmatched, sold %s", e.Sale.Units, e.Inventory, e.Remaining, Inventory(e.Sold))
}

// Sell consumes the sale from the inventory using FIFO (oldest lots first).
//
// It returns the inventory after the sale and the sold lots. A sold lot
// keeps the cost and date of the lot it comes from and has a positive
// quantity. The receiver is never modified.
//
// If the inventory cannot cover the whole sale the error is an
// *UnmatchedSaleError, and the returned values hold what could be sold.
func (inv Inventory) Sell(sale Lot) (Inventory, []Lot, error) {
	if !sale.Units.IsNegative() {
		return inv, nil, fmt.Errorf("cannot sell %s: %w", sale.Units, ErrSaleNotNegative)
	}
	security := sale.Units.Currency()
	remaining := sale.Units.Quantity()

	working := make(Inventory, len(inv))
	copy(working, inv)
	var sold []Lot

	for len(working) > 0 {
		lot := working[0]
		if lot.Units.Currency() != security {
			return inv, nil, fmt.Errorf("cannot sell %s from a lot of %s", sale.Units, lot.Units)
		}
		leftover := lot.Units.Quantity().Add(remaining)

		switch {
		case leftover.IsZero():
			// Exactly consumed.
			sold = append(sold, lot)
			return working[1:], sold, nil

		case leftover.IsPositive():
			// The lot is split: the fragment sold inherits cost and date.
			fragment := lot
			fragment.Units = A(remaining.Neg().Decimal(), security)
			sold = append(sold, fragment)

			rest := lot
			rest.Units = A(leftover.Decimal(), security)
			working[0] = rest
			return working, sold, nil

		default:
			// Fully consumed, carry the rest of the sale to the next lot.
			sold = append(sold, lot)
			remaining = leftover
			working = working[1:]
		}
	}

	return working, sold, &UnmatchedSaleError{Sale: sale, Remaining: remaining, Inventory: inv, Sold: sold}
}

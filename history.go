package beanimport

import (
	"errors"
	"fmt"
	"math/big"
	"slices"
	"strings"

	"github.com/etnz/beanimport/date"
)

// Boundary delimits the part of the history replayed before an event.
//
// With a TransID, only entries carrying a trans_id strictly before it are
// replayed. Without one, entries dated on or before Date are replayed.
type Boundary struct {
	Date    date.Date
	TransID string
}

// includes reports whether an entry is replayed before the boundary.
func (b Boundary) includes(on date.Date, transID string) bool {
	if b.TransID != "" {
		return transID != "" && CompareTransIDs(transID, b.TransID) < 0
	}
	return !on.After(b.Date)
}

// CompareTransIDs orders transaction identifiers: numerically when both are
// integers, lexically otherwise.
func CompareTransIDs(a, b string) int {
	x, okx := new(big.Int).SetString(a, 10)
	y, oky := new(big.Int).SetString(b, 10)
	if okx && oky {
		return x.Cmp(y)
	}
	return strings.Compare(a, b)
}

// trade is a posting on a security account, as indexed by the History.
type trade struct {
	seq     int  // position in the history
	first   bool // first entry carrying this trans_id
	transID string
	date    date.Date
	units   Amount
	cost    *Cost
	hasUnit bool
}

// History is the chronological list of ledger entries the lot inventories are rebuilt from.
//
// Postings are indexed by account once, so that rebuilding an inventory only
// visits the postings of that account. The entries themselves are never modified.
type History struct {
	seq       int
	ids       map[string]struct{}
	byAccount map[string][]trade
}

// NewHistory indexes the entries.
func NewHistory(entries ...Entry) *History {
	h := &History{
		ids:       make(map[string]struct{}),
		byAccount: make(map[string][]trade),
	}
	h.Append(entries...)
	return h
}

// Append indexes more entries, after the ones already known.
func (h *History) Append(entries ...Entry) {
	for _, e := range entries {
		tx, ok := e.(Transaction)
		if !ok {
			continue
		}
		h.seq++
		id := tx.Meta.TransID()
		first := true
		if id != "" {
			_, seen := h.ids[id]
			first = !seen
			h.ids[id] = struct{}{}
		}
		for _, p := range tx.Postings {
			// records merged into a transaction keep their id on the posting.
			if pid := p.Meta.TransID(); pid != "" {
				h.ids[pid] = struct{}{}
			}
			h.byAccount[p.Account] = append(h.byAccount[p.Account], trade{
				seq:     h.seq,
				first:   first,
				transID: id,
				date:    tx.Date,
				units:   p.Units,
				cost:    p.Cost,
				hasUnit: p.Units.Currency() != "",
			})
		}
	}
}

// Has reports whether a transaction, or a posting, with this identifier is in the history.
func (h *History) Has(transID string) bool {
	_, ok := h.ids[transID]
	return ok
}

// Trades returns the acquisitions (buys) and disposals (sells) of the
// account before the boundary, each sorted by date. Entries with no date
// come first, ties keep the history order.
//
// A transaction identifier is only replayed once.
func (h *History) Trades(account string, b Boundary) (buys, sells []Lot, err error) {
	for _, t := range h.byAccount[account] {
		if !b.includes(t.date, t.transID) || !t.first {
			continue
		}
		if !t.hasUnit {
			return nil, nil, fmt.Errorf("%s posting on %s (trans_id %q) has no units", account, t.date, t.transID)
		}
		lot := Lot{TransID: t.transID, Date: t.date, Units: t.units, Cost: t.cost}
		switch {
		case t.units.IsPositive():
			buys = append(buys, lot)
		case t.units.IsNegative():
			sells = append(sells, lot)
		}
	}
	byDate := func(a, b Lot) int { return a.Date.Compare(b.Date) }
	slices.SortStableFunc(buys, byDate)
	slices.SortStableFunc(sells, byDate)
	return buys, sells, nil
}

// Inventory rebuilds the open lots of the account before the boundary, by
// replaying every past sell against the past buys.
//
// Past sells that the buys do not cover are reported in diags.
func (h *History) Inventory(account string, b Boundary, diags *Diagnostics) (Inventory, error) {
	buys, sells, err := h.Trades(account, b)
	if err != nil {
		return nil, err
	}
	inv := Inventory(buys)
	for _, sell := range sells {
		var unmatched *UnmatchedSaleError
		inv, _, err = inv.Sell(sell)
		switch {
		case errors.As(err, &unmatched):
			reportUnmatched(diags, account, unmatched)
		case err != nil:
			return nil, fmt.Errorf("cannot replay %s sale on %s: %w", account, sell.Date, err)
		}
	}
	return inv, nil
}

func reportUnmatched(diags *Diagnostics, account string, e *UnmatchedSaleError) {
	diags.Addf(UnmatchedSale, e.Sale.Date, e.Sale.Units.Currency(), e.Sale.TransID,
		"%s: error selling %s of %s from %s, sold %s", account, e.Sale.Units, e.Sale.Units.Currency(), e.Inventory, Inventory(e.Sold))
}

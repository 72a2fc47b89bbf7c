package beanimport

import "errors"

// Extraction is the result of importing one file: the new entries to append
// to the ledger, and the anomalies found on the way.
type Extraction struct {
	Entries     []Entry
	Diagnostics *Diagnostics
}

// Transactions returns the transactions among the entries.
func (x *Extraction) Transactions() []Transaction {
	var res []Transaction
	for _, e := range x.Entries {
		if tx, ok := e.(Transaction); ok {
			res = append(res, tx)
		}
	}
	return res
}

// emit appends a new entry and makes it visible to the following lot replays.
func (x *Extraction) emit(h *History, e Entry) {
	x.Entries = append(x.Entries, e)
	h.Append(e)
}

// sell matches the sale against the lots of its account before the
// boundary and returns the sale postings. Unmatched sales are diagnostics.
func sell(h *History, s Sale, acc SaleAccounts, b Boundary, diags *Diagnostics) ([]Posting, error) {
	inv, err := h.Inventory(acc.Security, b, diags)
	if err != nil {
		return nil, err
	}
	_, sold, err := inv.Sell(s.Lot())
	var unmatched *UnmatchedSaleError
	switch {
	case errors.As(err, &unmatched):
		reportUnmatched(diags, acc.Security, unmatched)
	case err != nil:
		return nil, err
	}
	return SalePostings(s, sold, acc), nil
}

package beanimport

import (
	"testing"

	"github.com/etnz/beanimport/date"
)

// CHF is a helper for test to create swiss francs from const
func CHF(v float64) Amount { return A(v, "CHF") }

// USD is a helper for test to create dollars from const
func USD(v float64) Amount { return A(v, "USD") }

// d is a helper for test to create a date from a literal
func d(s string) date.Date { return date.MustParse(s) }

// buy is a helper to create a costed lot.
func buy(on string, units float64, security string, cost Amount) Lot {
	return Lot{Date: d(on), Units: A(units, security), Cost: &Cost{PerUnit: cost, Date: d(on)}}
}

// buyTx is a helper to create the transaction of a costed purchase.
func buyTx(id, on, account string, units float64, security string, cost Amount) Transaction {
	lot := NewPosting(account, A(units, security))
	lot.Cost = &Cost{PerUnit: cost, Date: d(on)}
	return Transaction{
		Meta:      Meta{MetaTransID: id},
		Date:      d(on),
		Flag:      "*",
		Narration: "Buy " + security,
		Postings:  []Posting{NewPosting("Assets:Cash", cost.Mul(Q(units)).Neg()), lot},
	}
}

// sellTx is a helper to create a transaction disposing of units without cost.
func sellTx(id, on, account string, units float64, security string) Transaction {
	return Transaction{
		Meta:      Meta{MetaTransID: id},
		Date:      d(on),
		Flag:      "*",
		Narration: "Sell " + security,
		Postings:  []Posting{NewPosting(account, A(-units, security))},
	}
}

// assertBalanced fails the test for every unbalanced transaction.
func assertBalanced(t *testing.T, entries []Entry) {
	t.Helper()
	for _, e := range entries {
		tx, ok := e.(Transaction)
		if !ok {
			continue
		}
		if !tx.IsBalanced() {
			t.Errorf("transaction %q on %s is not balanced: residual %s", tx.Narration, tx.Date, tx.ResidualString())
		}
	}
}

// find returns the first transaction whose narration is n.
func find(t *testing.T, entries []Entry, n string) Transaction {
	t.Helper()
	for _, e := range entries {
		if tx, ok := e.(Transaction); ok && tx.Narration == n {
			return tx
		}
	}
	t.Fatalf("no transaction %q in %v", n, entries)
	return Transaction{}
}

// posting returns the first posting on account.
func posting(t *testing.T, tx Transaction, account string) Posting {
	t.Helper()
	for _, p := range tx.Postings {
		if p.Account == account {
			return p
		}
	}
	t.Fatalf("no posting on %s in %q", account, tx.Narration)
	return Posting{}
}

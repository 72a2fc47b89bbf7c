package beanimport

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/etnz/beanimport/date"
	"github.com/shopspring/decimal"
)

// Well known metadata keys.
const (
	MetaFilename      = "filename"
	MetaLineno        = "lineno"
	MetaDocument      = "document"
	MetaTransID       = "trans_id"
	MetaEffectiveDate = "effective_date"
)

// Meta holds free-form metadata attached to entries and postings.
type Meta map[string]string

// NewMeta returns the metadata identifying a source location.
func NewMeta(filename string, lineno int) Meta {
	return Meta{MetaFilename: filename, MetaLineno: strconv.Itoa(lineno)}
}

// TransID returns the transaction identifier, or "" if there is none.
func (m Meta) TransID() string { return m[MetaTransID] }

// Clone returns an independent copy of m.
func (m Meta) Clone() Meta {
	if m == nil {
		return nil
	}
	return maps.Clone(m)
}

// Cost is the per unit acquisition cost of a lot.
type Cost struct {
	PerUnit Amount
	Date    date.Date // acquisition date, may be zero.
}

// Posting is one account/amount line of a transaction.
type Posting struct {
	Account string
	Units   Amount
	Cost    *Cost   // nil when the posting is not held at cost.
	Price   *Amount // per unit price annotation, nil if none.
	Meta    Meta
}

// NewPosting returns a simple posting with no cost nor price.
func NewPosting(account string, units Amount) Posting {
	return Posting{Account: account, Units: units}
}

// Weight returns the amount this posting contributes to the transaction balance.
//
// A posting held at cost weighs units*cost, a posting with a price weighs
// units*price, any other posting weighs its units.
func (p Posting) Weight() Amount {
	switch {
	case p.Cost != nil:
		return p.Cost.PerUnit.Mul(p.Units.Quantity())
	case p.Price != nil:
		return p.Price.Mul(p.Units.Quantity())
	default:
		return p.Units
	}
}

// Entry is any directive of the ledger.
type Entry interface {
	When() date.Date
	Metadata() Meta
}

// Transaction is a dated, balanced set of postings.
type Transaction struct {
	Meta      Meta
	Date      date.Date
	Flag      string
	Payee     string
	Narration string
	Postings  []Posting
}

func (t Transaction) When() date.Date { return t.Date }
func (t Transaction) Metadata() Meta  { return t.Meta }

// Residual returns, per currency, the sum of the postings weights.
//
// Currencies that sum to zero once rounded to their minor unit are omitted,
// so a balanced transaction has an empty residual.
func (t Transaction) Residual() map[string]decimal.Decimal {
	sums := make(map[string]decimal.Decimal)
	for _, p := range t.Postings {
		w := p.Weight()
		sums[w.Currency()] = sums[w.Currency()].Add(w.Number())
	}
	for c, v := range sums {
		if A(v, c).Round().IsZero() {
			delete(sums, c)
		}
	}
	return sums
}

// IsBalanced reports whether every currency of the transaction sums to zero.
//
// Single posting transactions (deposits, transfers) are balanced by the
// ledger's padding and are not checked.
func (t Transaction) IsBalanced() bool {
	if len(t.Postings) < 2 {
		return true
	}
	return len(t.Residual()) == 0
}

// ResidualString formats the residual for error messages.
func (t Transaction) ResidualString() string {
	r := t.Residual()
	var parts []string
	for _, c := range slices.Sorted(maps.Keys(r)) {
		parts = append(parts, r[c].String()+" "+c)
	}
	return strings.Join(parts, ", ")
}

// Balance asserts the balance of an account at the beginning of a day.
type Balance struct {
	Meta    Meta
	Date    date.Date
	Account string
	Amount  Amount
}

func (b Balance) When() date.Date { return b.Date }
func (b Balance) Metadata() Meta  { return b.Meta }

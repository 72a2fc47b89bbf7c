package beanimport

import (
	"github.com/etnz/beanimport/date"
)

// Sale is a disposal of a security to be matched against its open lots.
type Sale struct {
	TransID  string
	Date     date.Date
	Units    Amount  // negative, in the security's commodity.
	Proceeds Amount  // cash received.
	Price    Amount  // per unit sale price, in the Proceeds currency.
	FX       *Amount // optional rate from the Proceeds currency into the lots' cost currency.
	// Commission is signed as brokers report it: negative for a charge.
	Commission Amount
}

// Lot returns the sale in the form the FIFO matcher consumes.
func (s Sale) Lot() Lot {
	return Lot{TransID: s.TransID, Date: s.Date, Units: s.Units}
}

// SaleAccounts names the accounts of a sale transaction.
type SaleAccounts struct {
	Cash     string
	Security string
	PnL      string
	Fees     string
	// Currency of the PnL posting when the sale has no FX. Defaults to the
	// Proceeds currency.
	Currency string
}

// PnL returns the realized profit (negative) or loss (positive) of the sold
// lots, as booked on the income account.
//
// It starts from the negated proceeds, converted by the FX rate when there is
// one, and recovers the cost of every costed lot.
func (s Sale) PnL(sold []Lot, defaultCurrency string) Amount {
	cur := defaultCurrency
	if cur == "" {
		cur = s.Proceeds.Currency()
	}
	pnl := s.Proceeds.Number().Neg()
	if s.FX != nil {
		pnl = pnl.Mul(s.FX.Number())
		cur = s.FX.Currency()
	}
	for _, lot := range sold {
		if lot.Cost == nil {
			continue
		}
		pnl = pnl.Add(lot.Cost.PerUnit.Number().Mul(lot.Units.Number()))
	}
	return A(pnl, cur)
}

// SalePostings returns the postings of the sale transaction, in order: the
// cash received (at the FX rate if any), the PnL, one posting per sold lot at
// its original cost annotated with the sale price, and when there is a
// commission the fees and their cash offset.
func SalePostings(s Sale, sold []Lot, acc SaleAccounts) []Posting {
	price := s.Price
	if s.FX != nil {
		price = A(price.Number().Mul(s.FX.Number()), s.FX.Currency())
	}

	cash := NewPosting(acc.Cash, s.Proceeds)
	if s.FX != nil {
		fx := *s.FX
		cash.Price = &fx
	}
	postings := []Posting{
		cash,
		NewPosting(acc.PnL, s.PnL(sold, acc.Currency)),
	}
	for _, lot := range sold {
		p := NewPosting(acc.Security, lot.Units.Neg())
		p.Cost = lot.Cost
		lotPrice := price
		p.Price = &lotPrice
		postings = append(postings, p)
	}
	if !s.Commission.IsZero() {
		postings = append(postings,
			NewPosting(acc.Fees, s.Commission.Neg()),
			NewPosting(acc.Cash, s.Commission),
		)
	}
	return postings
}

package beanimport

import (
	"fmt"
	"strings"

	"github.com/etnz/beanimport/date"
)

// dividendPrefix starts the narration of every dividend transaction, it is
// followed by the security name.
const dividendPrefix = "Dividends "

// WithholdingTax is a tax record withheld on (negative) or reimbursed for
// (positive) the dividends of a security.
type WithholdingTax struct {
	Security string
	Date     date.Date
	Amount   Amount
	Meta     Meta
	Matched  bool
}

// TaxAccounts names the accounts used to reconcile withholding taxes.
type TaxAccounts struct {
	Cash   string
	Tax    string // parent of the per currency tax accounts.
	Income string // parent of the per security dividends accounts.
	Payee  string
}

// TaxAccount returns the tax account of a currency.
func (a TaxAccounts) TaxAccount(currency string) string { return a.Tax + ":" + currency }

// DividendAccount returns the dividends income account of a security.
func (a TaxAccounts) DividendAccount(security string) string {
	return a.Income + ":" + security + ":Dividends"
}

// DividendSecurity returns the security of a dividend transaction.
func DividendSecurity(e Entry) (string, bool) {
	tx, ok := e.(Transaction)
	if !ok {
		return "", false
	}
	return strings.CutPrefix(tx.Narration, dividendPrefix)
}

// ReconcileWithholdingTaxes attaches the tax records to the dividend
// transactions they were withheld on.
//
// A record with the same security and date as a dividend of entries is merged
// into it: the cash received is reduced by the tax and the tax is booked on the
// tax account of its currency. Tax recalculations, a reimbursement paired with
// a new withholding of the same security, are booked in a new transaction
// dated on the reimbursement, whose tax posting carries the date of the
// dividend it amends (found in entries or existing).
//
// It returns the reconciled entries, followed by the recalculations. Neither
// the entries nor the records are modified. Anomalies are reported in diags.
func ReconcileWithholdingTaxes(entries, existing []Entry, taxes []WithholdingTax, acc TaxAccounts, diags *Diagnostics) ([]Entry, error) {
	records := make([]WithholdingTax, len(taxes))
	copy(records, taxes)

	result := make([]Entry, 0, len(entries))
	for _, e := range entries {
		security, ok := DividendSecurity(e)
		if !ok {
			result = append(result, e)
			continue
		}
		tx := e.(Transaction)
		merged, err := mergeTax(tx, security, records, acc, diags)
		if err != nil {
			return nil, err
		}
		result = append(result, merged)
	}

	// Recalculations.
	for i := range records {
		refund := &records[i]
		if refund.Matched || !refund.Amount.IsPositive() {
			continue
		}
		for j := range records {
			withheld := &records[j]
			if withheld.Matched || withheld.Security != refund.Security || !withheld.Amount.IsNegative() ||
				withheld.Amount.Currency() != refund.Amount.Currency() {
				continue
			}
			dividend, found := findTaxedDividend(refund, acc, result, existing)
			if !found {
				break
			}
			result = append(result, recalculation(*refund, *withheld, dividend, acc))
			refund.Matched = true
			withheld.Matched = true
			break
		}
	}

	for _, r := range records {
		if !r.Matched {
			diags.Addf(UnmatchedTax, r.Date, r.Security, r.Meta.TransID(),
				"unmatched withholding tax for %s on %s, value %s", r.Security, r.Date, r.Amount)
		}
	}
	return result, nil
}

// mergeTax returns a copy of the dividend with the first tax record of the
// same security and date merged into it.
func mergeTax(tx Transaction, security string, records []WithholdingTax, acc TaxAccounts, diags *Diagnostics) (Transaction, error) {
	for i := range records {
		r := &records[i]
		if r.Security != security || r.Date != tx.Date {
			continue
		}
		if r.Matched {
			diags.Addf(DoubleMatchedTax, tx.Date, security, r.Meta.TransID(),
				"double match withholding tax for %s on %s", security, tx.Date)
		}
		r.Matched = true

		cur := r.Amount.Currency()
		if err := ValidateCurrency(cur); err != nil {
			return tx, fmt.Errorf("withholding tax for %s on %s: %w", security, tx.Date, err)
		}
		cashIdx := 0
		for k, p := range tx.Postings {
			if p.Account == acc.Cash {
				cashIdx = k
				break
			}
		}
		if len(tx.Postings) == 0 || tx.Postings[cashIdx].Units.Currency() != cur {
			return tx, fmt.Errorf("withholding tax %s for %s on %s does not match the dividend's cash currency", r.Amount, security, tx.Date)
		}

		postings := make([]Posting, 0, len(tx.Postings)+1)
		postings = append(postings, tx.Postings...)
		cash := postings[cashIdx]
		cash.Units = cash.Units.Add(r.Amount)
		postings[cashIdx] = cash

		tax := NewPosting(acc.TaxAccount(cur), r.Amount.Neg())
		if id := r.Meta.TransID(); id != "" {
			tax.Meta = Meta{MetaTransID: id}
		}
		postings = append(postings, tax)

		merged := tx
		merged.Meta = tx.Meta.Clone()
		merged.Postings = postings
		return merged, nil
	}
	diags.Addf(MissingTax, tx.Date, security, tx.Meta.TransID(),
		"missing withholding tax for %s on %s", security, tx.Date)
	return tx, nil
}

// findTaxedDividend returns the first dividend of the refund's security whose
// tax posting equals the refunded amount.
func findTaxedDividend(refund *WithholdingTax, acc TaxAccounts, lists ...[]Entry) (Transaction, bool) {
	account := acc.TaxAccount(refund.Amount.Currency())
	for _, list := range lists {
		for _, e := range list {
			security, ok := DividendSecurity(e)
			if !ok || security != refund.Security {
				continue
			}
			tx := e.(Transaction)
			for _, p := range tx.Postings {
				if p.Account == account && p.Units.Equal(refund.Amount) {
					return tx, true
				}
			}
		}
	}
	return Transaction{}, false
}

func recalculation(refund, withheld WithholdingTax, dividend Transaction, acc TaxAccounts) Transaction {
	cur := refund.Amount.Currency()
	balance := refund.Amount.Add(withheld.Amount)

	tax := NewPosting(acc.TaxAccount(cur), balance.Neg())
	tax.Meta = Meta{MetaEffectiveDate: dividend.Date.String()}
	if id := withheld.Meta.TransID(); id != "" {
		tax.Meta[MetaTransID] = id
	}

	return Transaction{
		Meta:      refund.Meta.Clone(),
		Date:      refund.Date,
		Flag:      "*",
		Payee:     acc.Payee,
		Narration: dividendPrefix + refund.Security,
		Postings: []Posting{
			NewPosting(acc.Cash, balance),
			NewPosting(acc.DividendAccount(refund.Security), A(0, cur)),
			tax,
		},
	}
}

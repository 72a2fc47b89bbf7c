package beanimport

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/etnz/beanimport/date"
)

const (
	finpensionPayee    = "FinPension"
	finpensionCurrency = "CHF"
)

// finpension categories.
const (
	FinpensionFee       = "Flat-rate administrative fee"
	FinpensionDeposit   = "Deposit"
	FinpensionInterests = "Interests"
	FinpensionDividend  = "Dividend"
	FinpensionTransfer  = "Transfer"
	FinpensionBuy       = "Buy"
	FinpensionSell      = "Sell"
)

// FinpensionRow is one record of a finpension transactions export.
// Cash flows are in CHF.
type FinpensionRow struct {
	Date     string `json:"date"`
	Category string `json:"category"`
	Asset    string `json:"asset"`
	ISIN     string `json:"ISIN"`
	Shares   string `json:"shares"`
	Currency string `json:"currency"`
	FxRate   string `json:"fxRate"`
	PriceCHF string `json:"priceCHF"`
	CashFlow string `json:"cashFlow"`
	Balance  string `json:"balance"`

	// Line in the source file, 0 if unknown.
	Line int `json:"-"`
}

// Security names a fund held through finpension.
type Security struct {
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

// Finpension imports finpension pillar 3a records.
type Finpension struct {
	Parent     string // e.g. Assets:Pension:FinPension
	Income     string // e.g. Income:Pension:FinPension
	Fees       string // e.g. Expenses:Pension:FinPension:Fees
	Securities map[string]Security // by ISIN
}

func (im *Finpension) CashAccount() string                    { return im.Parent + ":Cash" }
func (im *Finpension) InterestsAccount() string               { return im.Income + ":Interests" }
func (im *Finpension) SecurityAccount(security string) string { return im.Parent + ":" + security }
func (im *Finpension) DividendAccount(security string) string {
	return im.Income + ":" + security + ":Dividends"
}
func (im *Finpension) PnLAccount(security string) string { return im.Income + ":" + security + ":PnL" }

// security returns the name of the security with this ISIN.
func (im *Finpension) security(isin string) (string, error) {
	isin = strings.TrimSpace(isin)
	s, ok := im.Securities[isin]
	if !ok {
		return "", fmt.Errorf("unknown ISIN %q", isin)
	}
	return s.Name, nil
}

// Extract translates the rows of file into new ledger entries.
//
// Rows come in the export order, newest first, and are processed oldest
// first. Each row is identified by its date and its rank within that day, so
// that rows already in existing are skipped.
func (im *Finpension) Extract(file string, rows []FinpensionRow, existing []Entry) (*Extraction, error) {
	x := &Extraction{Diagnostics: new(Diagnostics)}
	h := NewHistory(existing...)
	document := filepath.Base(file)

	var (
		day  date.Date
		rank int
	)
	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]
		line := row.Line
		if line == 0 {
			line = i + 2 // after the header.
		}
		on, err := date.Parse(strings.TrimSpace(row.Date))
		if err != nil {
			return nil, &RowError{File: file, Line: line, Err: err}
		}
		if on != day {
			day, rank = on, 0
		}
		rank++
		id := fmt.Sprintf("%s-%03d", on, rank)
		category := strings.TrimSpace(row.Category)
		if h.Has(id) {
			x.Diagnostics.Addf(DuplicateRow, on, row.ISIN, id, "%s:%d: %s %s already imported", file, line, category, id)
			continue
		}
		cashFlow, err := ParseAmount(strings.TrimSpace(row.CashFlow), finpensionCurrency)
		if err != nil {
			return nil, &RowError{File: file, Line: line, Err: fmt.Errorf("cashFlow: %w", err)}
		}

		meta := NewMeta(file, line)
		meta[MetaDocument] = document
		meta[MetaTransID] = id
		tx := Transaction{Meta: meta, Date: on, Flag: "*", Payee: finpensionPayee, Narration: category}

		switch category {
		case FinpensionFee:
			tx.Postings = []Posting{
				NewPosting(im.CashAccount(), cashFlow),
				NewPosting(im.Fees, cashFlow.Neg()),
			}
		case FinpensionDeposit, FinpensionTransfer:
			tx.Postings = []Posting{NewPosting(im.CashAccount(), cashFlow)}
		case FinpensionInterests:
			tx.Postings = []Posting{
				NewPosting(im.CashAccount(), cashFlow),
				NewPosting(im.InterestsAccount(), cashFlow.Neg()),
			}
		case FinpensionDividend:
			var security string
			if security, err = im.security(row.ISIN); err == nil {
				tx.Narration = dividendPrefix + security
				tx.Postings = []Posting{
					NewPosting(im.CashAccount(), cashFlow),
					NewPosting(im.DividendAccount(security), cashFlow.Neg()),
				}
			}
		case FinpensionBuy:
			tx.Narration, tx.Postings, err = im.buy(row, on, cashFlow)
		case FinpensionSell:
			tx.Narration, tx.Postings, err = im.sell(h, row, on, id, cashFlow, x.Diagnostics)
		default:
			return nil, &RowError{File: file, Line: line, Err: fmt.Errorf("%w %q", ErrUnknownCategory, category)}
		}
		if err != nil {
			return nil, &RowError{File: file, Line: line, Err: err}
		}
		x.emit(h, tx)
	}
	return x, nil
}

// shares parses the number of shares traded, as a positive amount.
func (im *Finpension) shares(row FinpensionRow) (string, Amount, error) {
	security, err := im.security(row.ISIN)
	if err != nil {
		return "", Amount{}, err
	}
	shares, err := ParseAmount(strings.TrimSpace(row.Shares), security)
	if err != nil {
		return "", Amount{}, fmt.Errorf("shares: %w", err)
	}
	if shares.IsNegative() {
		shares = shares.Neg()
	}
	return security, shares, nil
}

// buy opens a lot whose cost per share is the cash spent over the shares bought.
func (im *Finpension) buy(row FinpensionRow, on date.Date, cashFlow Amount) (string, []Posting, error) {
	security, shares, err := im.shares(row)
	if err != nil {
		return "", nil, err
	}
	perUnit := A(0, finpensionCurrency)
	if !shares.IsZero() {
		perUnit = A(cashFlow.Number().Abs().Div(shares.Number()), finpensionCurrency)
	}
	lot := NewPosting(im.SecurityAccount(security), shares)
	lot.Cost = &Cost{PerUnit: perUnit, Date: on}
	return "Buy " + security, []Posting{NewPosting(im.CashAccount(), cashFlow), lot}, nil
}

// sell matches the sale against the lots bought up to its date.
func (im *Finpension) sell(h *History, row FinpensionRow, on date.Date, id string, cashFlow Amount, diags *Diagnostics) (string, []Posting, error) {
	security, shares, err := im.shares(row)
	if err != nil {
		return "", nil, err
	}
	price, err := ParseAmount(strings.TrimSpace(row.PriceCHF), finpensionCurrency)
	if err != nil {
		return "", nil, fmt.Errorf("priceCHF: %w", err)
	}
	s := Sale{
		TransID:  id,
		Date:     on,
		Units:    shares.Neg(),
		Proceeds: cashFlow,
		Price:    price,
	}
	acc := SaleAccounts{
		Cash:     im.CashAccount(),
		Security: im.SecurityAccount(security),
		PnL:      im.PnLAccount(security),
		Fees:     im.Fees,
		Currency: finpensionCurrency,
	}
	postings, err := sell(h, s, acc, Boundary{Date: on}, diags)
	return "Sell " + security, postings, err
}

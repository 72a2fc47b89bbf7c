package beanimport

import (
	"fmt"
	"strings"

	"github.com/etnz/beanimport/date"
)

const ibkrPayee = "Interactive Brokers"

// IBKR row types.
const (
	IBKRDeposit     = "Deposits/Withdrawals"
	IBKRDividend    = "Dividends"
	IBKROtherFees   = "Other Fees"
	IBKRTax         = "Withholding Tax"
	IBKRInterests   = "Broker Interest Received"
	IBKRBuy         = "BUY"
	IBKRSell        = "SELL"
	ibkrFXSeparator = "."
)

// IBKRRow is one record of an Interactive Brokers flex query, fields as exported.
type IBKRRow struct {
	Id                 string `json:"Id"`
	Date               string `json:"Date"`
	Type               string `json:"Type"`
	Currency           string `json:"Currency"`
	Proceeds           string `json:"Proceeds"`
	Security           string `json:"Security"`
	Amount             string `json:"Amount"`
	CostBasis          string `json:"CostBasis"`
	TradePrice         string `json:"TradePrice"`
	Commission         string `json:"Commission"`
	CommissionCurrency string `json:"CommissionCurrency"`

	// Line in the source file, 0 if unknown.
	Line int `json:"-"`
}

// IBKR imports Interactive Brokers records.
type IBKR struct {
	Parent string // e.g. Assets:Investment:IBKR
	Income string // e.g. Income:Investment:IBKR
	Tax    string // e.g. Assets:Investment:IBKR:Tax
	Fees   string // e.g. Expenses:Investment:IBKR:Fees
}

func (im *IBKR) CashAccount() string                    { return im.Parent + ":Cash" }
func (im *IBKR) InterestsAccount() string               { return im.Income + ":Interests" }
func (im *IBKR) SecurityAccount(security string) string { return im.Parent + ":" + security }
func (im *IBKR) PnLAccount(security string) string      { return im.Income + ":" + security + ":PnL" }

// TaxAccounts returns the accounts used to reconcile withholding taxes.
func (im *IBKR) TaxAccounts() TaxAccounts {
	return TaxAccounts{Cash: im.CashAccount(), Tax: im.Tax, Income: im.Income, Payee: ibkrPayee}
}

// ibkrDocument is the yearly activity report every entry links to.
func ibkrDocument(on date.Date) string {
	return fmt.Sprintf("%d-12-31-InteractiveBrokers_ActivityReport.pdf", on.Year())
}

// Extract translates the rows of file into new ledger entries.
//
// Rows whose Id is already in existing are skipped. Sales are matched FIFO
// against the lots bought in existing and in the previous rows. Withholding
// taxes are merged into their dividends once all rows are read.
func (im *IBKR) Extract(file string, rows []IBKRRow, existing []Entry) (*Extraction, error) {
	x := &Extraction{Diagnostics: new(Diagnostics)}
	h := NewHistory(existing...)
	var taxes []WithholdingTax

	for i, row := range rows {
		line := row.Line
		if line == 0 {
			line = i + 2 // after the header.
		}
		if row.Id == "" {
			return nil, rowErrorf(file, line, "missing Id")
		}
		on, err := date.Parse(strings.TrimSpace(row.Date))
		if err != nil {
			return nil, &RowError{File: file, Line: line, Err: err}
		}
		if h.Has(row.Id) {
			x.Diagnostics.Addf(DuplicateRow, on, row.Security, row.Id, "%s:%d: transaction %s already imported", file, line, row.Id)
			continue
		}
		if err := ValidateCurrency(row.Currency); err != nil {
			return nil, &RowError{File: file, Line: line, Err: err}
		}
		cashFlow, err := ParseAmount(row.Proceeds, row.Currency)
		if err != nil {
			return nil, &RowError{File: file, Line: line, Err: fmt.Errorf("Proceeds: %w", err)}
		}

		meta := NewMeta(file, line)
		meta[MetaDocument] = ibkrDocument(on)
		meta[MetaTransID] = row.Id
		tx := Transaction{Meta: meta, Date: on, Flag: "*", Payee: ibkrPayee}

		switch {
		case row.Type == IBKRDeposit:
			tx.Narration = "Deposit"
			if !cashFlow.IsPositive() {
				tx.Narration = "Withdrawal"
			}
			tx.Postings = []Posting{NewPosting(im.CashAccount(), cashFlow)}

		case row.Type == IBKRDividend:
			tx.Narration = dividendPrefix + row.Security
			tx.Postings = []Posting{
				NewPosting(im.CashAccount(), cashFlow),
				NewPosting(im.TaxAccounts().DividendAccount(row.Security), cashFlow.Neg()),
			}

		case row.Type == IBKROtherFees:
			tx.Narration = "Other"
			tx.Postings = []Posting{NewPosting(im.CashAccount(), cashFlow)}

		case row.Type == IBKRTax:
			taxes = append(taxes, WithholdingTax{Security: row.Security, Date: on, Amount: cashFlow, Meta: meta})
			// records are only visible to the history once merged.
			continue

		case row.Type == IBKRInterests:
			tx.Narration = "Interests"
			tx.Postings = []Posting{
				NewPosting(im.CashAccount(), cashFlow),
				NewPosting(im.InterestsAccount(), cashFlow.Neg()),
			}

		case (row.Type == IBKRBuy || row.Type == IBKRSell) && strings.Contains(row.Security, ibkrFXSeparator):
			tx.Narration = "FX Exchange " + row.Security
			tx.Postings, err = im.exchange(row)

		case row.Type == IBKRBuy:
			tx.Narration = "Buy " + row.Security
			tx.Postings, err = im.buy(row, on, cashFlow)

		case row.Type == IBKRSell:
			tx.Narration = "Sell " + row.Security
			tx.Postings, err = im.sell(h, row, on, cashFlow, x.Diagnostics)

		default:
			return nil, &RowError{File: file, Line: line, Err: fmt.Errorf("%w %q on %s", ErrUnknownCategory, row.Type, row.Date)}
		}
		if err != nil {
			return nil, &RowError{File: file, Line: line, Err: err}
		}
		x.emit(h, tx)
	}

	entries, err := ReconcileWithholdingTaxes(x.Entries, existing, taxes, im.TaxAccounts(), x.Diagnostics)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	x.Entries = entries
	return x, nil
}

// commission returns the row's commission, zero when there is none.
func (row IBKRRow) commission() (Amount, error) {
	if strings.TrimSpace(row.Commission) == "" {
		return A(0, row.Currency), nil
	}
	cur := row.CommissionCurrency
	if cur == "" {
		cur = row.Currency
	}
	if err := ValidateCurrency(cur); err != nil {
		return Amount{}, fmt.Errorf("CommissionCurrency: %w", err)
	}
	c, err := ParseAmount(row.Commission, cur)
	if err != nil {
		return Amount{}, fmt.Errorf("Commission: %w", err)
	}
	return c, nil
}

// feePostings books a non zero commission against the cash account.
func (im *IBKR) feePostings(commission Amount) []Posting {
	if commission.IsZero() {
		return nil
	}
	return []Posting{
		NewPosting(im.CashAccount(), commission),
		NewPosting(im.Fees, commission.Neg()),
	}
}

// exchange converts Amount units of the first currency of the pair
// (e.g. EUR.USD) into Proceeds of the second, at TradePrice.
func (im *IBKR) exchange(row IBKRRow) ([]Posting, error) {
	from, to, ok := strings.Cut(row.Security, ibkrFXSeparator)
	if !ok || ValidateCurrency(from) != nil || ValidateCurrency(to) != nil {
		return nil, fmt.Errorf("invalid currency pair %q", row.Security)
	}
	orig, err := ParseAmount(row.Amount, from)
	if err != nil {
		return nil, fmt.Errorf("Amount: %w", err)
	}
	dest, err := ParseAmount(row.Proceeds, to)
	if err != nil {
		return nil, fmt.Errorf("Proceeds: %w", err)
	}
	rate, err := ParseAmount(row.TradePrice, to)
	if err != nil {
		return nil, fmt.Errorf("TradePrice: %w", err)
	}
	commission, err := row.commission()
	if err != nil {
		return nil, err
	}

	cash := NewPosting(im.CashAccount(), orig)
	cash.Price = &rate
	postings := []Posting{cash, NewPosting(im.CashAccount(), dest)}
	return append(postings, im.feePostings(commission)...), nil
}

// buy opens a new lot at TradePrice, the commission is paid in cash.
func (im *IBKR) buy(row IBKRRow, on date.Date, proceeds Amount) ([]Posting, error) {
	shares, err := ParseAmount(row.Amount, row.Security)
	if err != nil {
		return nil, fmt.Errorf("Amount: %w", err)
	}
	price, err := ParseAmount(row.TradePrice, row.Currency)
	if err != nil {
		return nil, fmt.Errorf("TradePrice: %w", err)
	}
	commission, err := row.commission()
	if err != nil {
		return nil, err
	}

	lot := NewPosting(im.SecurityAccount(row.Security), shares)
	lot.Cost = &Cost{PerUnit: price, Date: on}

	if commission.Currency() == proceeds.Currency() {
		postings := []Posting{NewPosting(im.CashAccount(), proceeds.Add(commission)), lot}
		if !commission.IsZero() {
			postings = append(postings, NewPosting(im.Fees, commission.Neg()))
		}
		return postings, nil
	}
	postings := []Posting{NewPosting(im.CashAccount(), proceeds), lot}
	return append(postings, im.feePostings(commission)...), nil
}

// sell matches the sale against the lots bought by the transactions before this one.
func (im *IBKR) sell(h *History, row IBKRRow, on date.Date, proceeds Amount, diags *Diagnostics) ([]Posting, error) {
	shares, err := ParseAmount(row.Amount, row.Security)
	if err != nil {
		return nil, fmt.Errorf("Amount: %w", err)
	}
	price, err := ParseAmount(row.TradePrice, row.Currency)
	if err != nil {
		return nil, fmt.Errorf("TradePrice: %w", err)
	}
	commission, err := row.commission()
	if err != nil {
		return nil, err
	}
	s := Sale{
		TransID:    row.Id,
		Date:       on,
		Units:      shares,
		Proceeds:   proceeds,
		Price:      price,
		Commission: commission,
	}
	acc := SaleAccounts{
		Cash:     im.CashAccount(),
		Security: im.SecurityAccount(row.Security),
		PnL:      im.PnLAccount(row.Security),
		Fees:     im.Fees,
		Currency: row.Currency,
	}
	return sell(h, s, acc, Boundary{TransID: row.Id}, diags)
}

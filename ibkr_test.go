package beanimport

import (
	"errors"
	"testing"
)

func newIBKR() *IBKR {
	return &IBKR{
		Parent: "Assets:Investment:IBKR",
		Income: "Income:Investment:IBKR",
		Tax:    "Assets:Investment:IBKR:Tax",
		Fees:   "Expenses:Investment:IBKR:Fees",
	}
}

func ibkrRows() []IBKRRow {
	return []IBKRRow{
		{Id: "100", Date: "2024-01-05", Type: IBKRDeposit, Currency: "USD", Proceeds: "10000"},
		{Id: "101", Date: "2024-01-10", Type: IBKRBuy, Currency: "USD", Proceeds: "-400", Security: "VEA", Amount: "10", TradePrice: "40", Commission: "-1", CommissionCurrency: "USD"},
		{Id: "102", Date: "2024-02-10", Type: IBKRBuy, Currency: "USD", Proceeds: "-210", Security: "VEA", Amount: "5", TradePrice: "42", Commission: "-1", CommissionCurrency: "USD"},
		{Id: "103", Date: "2024-03-20", Type: IBKRDividend, Currency: "USD", Proceeds: "100", Security: "VEA"},
		{Id: "104", Date: "2024-03-20", Type: IBKRTax, Currency: "USD", Proceeds: "-15", Security: "VEA"},
		{Id: "105", Date: "2024-04-01", Type: IBKRSell, Currency: "USD", Proceeds: "600", Security: "VEA", Amount: "-12", TradePrice: "50", Commission: "-1", CommissionCurrency: "USD"},
		{Id: "106", Date: "2024-04-02", Type: IBKRBuy, Currency: "USD", Proceeds: "-1100", Security: "EUR.USD", Amount: "1000", TradePrice: "1.1", Commission: "-2", CommissionCurrency: "USD"},
		{Id: "107", Date: "2024-05-02", Type: IBKRInterests, Currency: "USD", Proceeds: "3.21"},
		{Id: "108", Date: "2024-05-03", Type: IBKROtherFees, Currency: "USD", Proceeds: "-0.5"},
	}
}

func TestIBKR_Extract(t *testing.T) {
	im := newIBKR()
	x, err := im.Extract("ibkr.jsonl", ibkrRows(), nil)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got := len(x.Entries); got != 8 {
		t.Fatalf("got %d entries, want 8 (the tax is merged)", got)
	}
	assertBalanced(t, x.Entries)
	if w := x.Diagnostics.Warnings(); len(w) != 0 {
		t.Errorf("warnings = %v, want none", w)
	}

	for _, tx := range x.Transactions() {
		if got := tx.Meta[MetaDocument]; got != "2024-12-31-InteractiveBrokers_ActivityReport.pdf" {
			t.Errorf("%q document = %q", tx.Narration, got)
		}
		if tx.Meta.TransID() == "" {
			t.Errorf("%q has no trans_id", tx.Narration)
		}
	}

	t.Run("buy", func(t *testing.T) {
		tx := find(t, x.Entries, "Buy VEA")
		if cash := posting(t, tx, im.CashAccount()); !cash.Units.Equal(USD(-401)) {
			t.Errorf("cash = %s, want -401 USD", cash.Units)
		}
		lot := posting(t, tx, "Assets:Investment:IBKR:VEA")
		if lot.Cost == nil || !lot.Cost.PerUnit.Equal(USD(40)) || lot.Cost.Date != d("2024-01-10") {
			t.Errorf("lot cost = %v, want 40 USD on 2024-01-10", lot.Cost)
		}
	})

	t.Run("dividend", func(t *testing.T) {
		tx := find(t, x.Entries, "Dividends VEA")
		if cash := posting(t, tx, im.CashAccount()); !cash.Units.Equal(USD(85)) {
			t.Errorf("cash = %s, want 85 USD", cash.Units)
		}
		if tax := posting(t, tx, "Assets:Investment:IBKR:Tax:USD"); !tax.Units.Equal(USD(15)) {
			t.Errorf("tax = %s, want 15 USD", tax.Units)
		}
	})

	t.Run("sell", func(t *testing.T) {
		tx := find(t, x.Entries, "Sell VEA")
		if pnl := posting(t, tx, "Income:Investment:IBKR:VEA:PnL"); !pnl.Units.Equal(USD(-116)) {
			t.Errorf("PnL = %s, want -116 USD", pnl.Units)
		}
		var sold []Amount
		for _, p := range tx.Postings {
			if p.Account == "Assets:Investment:IBKR:VEA" {
				sold = append(sold, p.Units)
			}
		}
		if len(sold) != 2 || !sold[0].Equal(A(-10, "VEA")) || !sold[1].Equal(A(-2, "VEA")) {
			t.Errorf("sold lots = %v, want [-10 VEA -2 VEA]", sold)
		}
	})

	t.Run("fx exchange", func(t *testing.T) {
		tx := find(t, x.Entries, "FX Exchange EUR.USD")
		if len(tx.Postings) != 4 {
			t.Errorf("got %d postings, want 4", len(tx.Postings))
		}
	})
}

func TestIBKR_Extract_Idempotent(t *testing.T) {
	im := newIBKR()
	first, err := im.Extract("ibkr.jsonl", ibkrRows(), nil)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	second, err := im.Extract("ibkr.jsonl", ibkrRows(), first.Entries)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(second.Entries) != 0 {
		t.Errorf("second extraction = %d entries, want none", len(second.Entries))
	}
	if got := len(second.Diagnostics.OfKind(DuplicateRow)); got != len(ibkrRows()) {
		t.Errorf("duplicate rows = %d, want %d", got, len(ibkrRows()))
	}
	if w := second.Diagnostics.Warnings(); len(w) != 0 {
		t.Errorf("warnings = %v, want none", w)
	}
}

func TestIBKR_Extract_Incremental(t *testing.T) {
	im := newIBKR()
	rows := ibkrRows()
	first, err := im.Extract("2024-q1.jsonl", rows[:5], nil)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	second, err := im.Extract("2024-q2.jsonl", rows[5:], first.Entries)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	tx := find(t, second.Entries, "Sell VEA")
	if pnl := posting(t, tx, "Income:Investment:IBKR:VEA:PnL"); !pnl.Units.Equal(USD(-116)) {
		t.Errorf("PnL = %s, want -116 USD from the lots of the first file", pnl.Units)
	}
}

func TestIBKR_Extract_InsufficientInventory(t *testing.T) {
	rows := []IBKRRow{
		{Id: "1", Date: "2024-01-10", Type: IBKRBuy, Currency: "USD", Proceeds: "-240", Security: "VEA", Amount: "6", TradePrice: "40"},
		{Id: "2", Date: "2024-02-10", Type: IBKRSell, Currency: "USD", Proceeds: "500", Security: "VEA", Amount: "-10", TradePrice: "50"},
	}
	x, err := newIBKR().Extract("ibkr.jsonl", rows, nil)
	if err != nil {
		t.Fatalf("Extract() error = %v, want a warning only", err)
	}
	w := x.Diagnostics.Warnings()
	if len(w) != 1 || w[0].Kind != UnmatchedSale || w[0].Security != "VEA" {
		t.Fatalf("warnings = %v, want one unmatched sale of VEA", w)
	}
	assertBalanced(t, x.Entries)
}

func TestIBKR_Extract_Errors(t *testing.T) {
	tests := []struct {
		name    string
		row     IBKRRow
		unknown bool
	}{
		{name: "unknown type", row: IBKRRow{Id: "1", Date: "2024-01-10", Type: "Bond Coupon", Currency: "USD", Proceeds: "1"}, unknown: true},
		{name: "bad proceeds", row: IBKRRow{Id: "1", Date: "2024-01-10", Type: IBKRDividend, Currency: "USD", Proceeds: "1,000.00"}},
		{name: "bad date", row: IBKRRow{Id: "1", Date: "yesterday", Type: IBKRDividend, Currency: "USD", Proceeds: "1"}},
		{name: "bad currency", row: IBKRRow{Id: "1", Date: "2024-01-10", Type: IBKRDividend, Currency: "XYZW", Proceeds: "1"}},
		{name: "missing id", row: IBKRRow{Date: "2024-01-10", Type: IBKRDividend, Currency: "USD", Proceeds: "1"}},
		{name: "positive sale", row: IBKRRow{Id: "1", Date: "2024-01-10", Type: IBKRSell, Currency: "USD", Proceeds: "1", Security: "VEA", Amount: "3", TradePrice: "1"}},
		{name: "bad pair", row: IBKRRow{Id: "1", Date: "2024-01-10", Type: IBKRBuy, Currency: "USD", Proceeds: "1", Security: "EURUS.D", Amount: "1", TradePrice: "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newIBKR().Extract("ibkr.jsonl", []IBKRRow{tt.row}, nil)
			var rowErr *RowError
			if !errors.As(err, &rowErr) {
				t.Fatalf("Extract() error = %v, want a *RowError", err)
			}
			if rowErr.File != "ibkr.jsonl" || rowErr.Line != 2 {
				t.Errorf("error located at %s:%d, want ibkr.jsonl:2", rowErr.File, rowErr.Line)
			}
			if got := errors.Is(err, ErrUnknownCategory); got != tt.unknown {
				t.Errorf("errors.Is(err, ErrUnknownCategory) = %v, want %v", got, tt.unknown)
			}
		})
	}
}

package beanimport

import (
	"testing"
)

func TestSalePostings(t *testing.T) {
	acc := SaleAccounts{
		Cash:     "Assets:IBKR:Cash",
		Security: "Assets:IBKR:VEA",
		PnL:      "Income:IBKR:VEA:PnL",
		Fees:     "Expenses:IBKR:Fees",
		Currency: "USD",
	}
	sold := []Lot{
		buy("2024-01-10", 10, "VEA", USD(40)),
		buy("2024-02-10", 2, "VEA", USD(42)),
	}
	fx := A(0.9, "CHF")

	tests := []struct {
		name     string
		sale     Sale
		sold     []Lot
		accounts SaleAccounts
		wantPnL  Amount
		wantLen  int
	}{
		{
			name:     "gain",
			sale:     Sale{Units: A(-12, "VEA"), Proceeds: USD(600), Price: USD(50)},
			sold:     sold,
			accounts: acc,
			wantPnL:  USD(-116), // -600 + 400 + 84
			wantLen:  4,
		},
		{
			name:     "loss with commission",
			sale:     Sale{Units: A(-12, "VEA"), Proceeds: USD(420), Price: USD(35), Commission: USD(-1.5)},
			sold:     sold,
			accounts: acc,
			wantPnL:  USD(64), // -420 + 484
			wantLen:  6,
		},
		{
			name:     "fx",
			sale:     Sale{Units: A(-10, "VEA"), Proceeds: USD(500), Price: USD(50), FX: &fx},
			sold:     []Lot{buy("2024-01-10", 10, "VEA", CHF(40))},
			accounts: acc,
			wantPnL:  CHF(-50), // -450 + 400
			wantLen:  3,
		},
		{
			name:     "default currency",
			sale:     Sale{Units: A(-10, "VEA"), Proceeds: CHF(500), Price: CHF(50)},
			sold:     []Lot{buy("2024-01-10", 10, "VEA", CHF(40))},
			accounts: SaleAccounts{Cash: acc.Cash, Security: acc.Security, PnL: acc.PnL, Fees: acc.Fees},
			wantPnL:  CHF(-100),
			wantLen:  3,
		},
		{
			name:     "nothing sold",
			sale:     Sale{Units: A(-10, "VEA"), Proceeds: USD(500), Price: USD(50)},
			accounts: acc,
			wantPnL:  USD(-500),
			wantLen:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			postings := SalePostings(tt.sale, tt.sold, tt.accounts)
			if len(postings) != tt.wantLen {
				t.Fatalf("SalePostings() returned %d postings, want %d", len(postings), tt.wantLen)
			}

			tx := Transaction{Date: d("2024-04-01"), Narration: "Sell VEA", Postings: postings}
			if !tx.IsBalanced() {
				t.Errorf("sale is not balanced: residual %s", tx.ResidualString())
			}

			// fixed posting order.
			if p := postings[0]; p.Account != tt.accounts.Cash || !p.Units.Equal(tt.sale.Proceeds) {
				t.Errorf("postings[0] = %s %s, want the proceeds", p.Account, p.Units)
			}
			if p := postings[1]; p.Account != tt.accounts.PnL || !p.Units.Equal(tt.wantPnL) {
				t.Errorf("postings[1] = %s %s, want PnL %s", p.Account, p.Units, tt.wantPnL)
			}
			for i, lot := range tt.sold {
				p := postings[2+i]
				if p.Account != tt.accounts.Security || !p.Units.Equal(lot.Units.Neg()) || p.Cost != lot.Cost {
					t.Errorf("postings[%d] = %s %s, want %s at its original cost", 2+i, p.Account, p.Units, lot.Units.Neg())
				}
				if p.Price == nil {
					t.Errorf("postings[%d] has no price annotation", 2+i)
				}
			}
			if !tt.sale.Commission.IsZero() {
				fees, cash := postings[len(postings)-2], postings[len(postings)-1]
				if fees.Account != tt.accounts.Fees || !fees.Units.Equal(tt.sale.Commission.Neg()) {
					t.Errorf("fees posting = %s %s, want %s", fees.Account, fees.Units, tt.sale.Commission.Neg())
				}
				if cash.Account != tt.accounts.Cash || !cash.Units.Equal(tt.sale.Commission) {
					t.Errorf("commission cash posting = %s %s, want %s", cash.Account, cash.Units, tt.sale.Commission)
				}
			}
		})
	}
}

func TestSalePostings_FXPrice(t *testing.T) {
	fx := A(0.9, "CHF")
	s := Sale{Units: A(-10, "VEA"), Proceeds: USD(500), Price: USD(50), FX: &fx}
	postings := SalePostings(s, []Lot{buy("2024-01-10", 10, "VEA", CHF(40))}, SaleAccounts{Cash: "C", Security: "S", PnL: "P"})

	if p := postings[0].Price; p == nil || !p.Equal(fx) {
		t.Errorf("cash price = %v, want %s", p, fx)
	}
	if p := postings[2].Price; p == nil || !p.Equal(CHF(45)) {
		t.Errorf("lot price = %v, want 45 CHF", p)
	}
}

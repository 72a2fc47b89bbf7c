package beanimport

import (
	"encoding/json"
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Amount is a number of units of a commodity.
//
// The commodity is either an ISO currency ("CHF") or a security symbol ("VEA").
type Amount struct {
	value decimal.Decimal
	cur   string
}

// A creates an Amount.
func A[T float64 | int | int64 | decimal.Decimal](value T, commodity string) Amount {
	return Amount{value: newDecimal(value), cur: commodity}
}

// ParseAmount parses a decimal string into an Amount of commodity.
func ParseAmount(number, commodity string) (Amount, error) {
	d, err := parseDecimal(number)
	if err != nil {
		return Amount{}, err
	}
	return Amount{value: d, cur: commodity}, nil
}

// ValidateCurrency checks that cur is a known ISO 4217 currency code.
func ValidateCurrency(cur string) error {
	if len(cur) != 3 || money.GetCurrency(cur) == nil {
		return fmt.Errorf("unknown currency %q", cur)
	}
	return nil
}

func (m Amount) Number() decimal.Decimal        { return m.value }
func (m Amount) Currency() string               { return m.cur }
func (m Amount) Quantity() Quantity             { return Quantity{value: m.value} }
func (m Amount) IsZero() bool                   { return m.value.IsZero() }
func (m Amount) IsPositive() bool               { return m.value.IsPositive() }
func (m Amount) IsNegative() bool               { return m.value.IsNegative() }
func (m Amount) Equal(n Amount) bool            { return m.value.Equal(n.value) && m.cur == n.cur }
func (m Amount) Neg() Amount                    { return Amount{value: m.value.Neg(), cur: m.cur} }
func (m Amount) Mul(q Quantity) Amount          { return Amount{value: m.value.Mul(q.value), cur: m.cur} }
func (m Amount) Scale(d decimal.Decimal) Amount { return Amount{value: m.value.Mul(d), cur: m.cur} }

// In returns the same number expressed in another commodity.
func (m Amount) In(commodity string) Amount { return Amount{value: m.value, cur: commodity} }

// binary operators.
func (m Amount) Add(n Amount) Amount { return Amount{value: m.value.Add(n.value), cur: cur(m, n)} }
func (m Amount) Sub(n Amount) Amount { return Amount{value: m.value.Sub(n.value), cur: cur(m, n)} }

// makes the "" currency totally weak.
func cur(a, b Amount) string {
	if a.cur == "" {
		return b.cur
	}
	if b.cur == "" {
		return a.cur
	}
	if a.cur != b.cur {
		panic("currency mismatch " + a.cur + " != " + b.cur)
	}
	return a.cur
}

// Round returns the amount rounded to the currency's minor unit.
// Security units and unknown commodities are returned unchanged.
func (m Amount) Round() Amount {
	c := money.GetCurrency(m.cur)
	if c == nil {
		return m
	}
	return Amount{value: m.value.Round(int32(c.Fraction)), cur: m.cur}
}

// String returns the amount in ledger notation, e.g. "85.00 CHF".
func (m Amount) String() string {
	if m.cur == "" {
		return m.value.String()
	}
	return m.value.String() + " " + m.cur
}

// MarshalJSON writes the amount as {"number":..,"currency":..}.
func (m Amount) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("number", m.value)
	w.Optional("currency", m.cur)
	return w.MarshalJSON()
}

func (m *Amount) UnmarshalJSON(data []byte) error {
	var temp struct {
		Number   *decimal.Decimal `json:"number"`
		Currency string           `json:"currency"`
	}
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}
	if temp.Number == nil {
		return fmt.Errorf("amount %s: missing number", string(data))
	}
	*m = Amount{value: *temp.Number, cur: temp.Currency}
	return nil
}

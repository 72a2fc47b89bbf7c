package beanimport

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/etnz/beanimport/date"
	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// entry types, as stored in the "type" field of a ledger line.
const (
	typeTransaction = "transaction"
	typeBalance     = "balance"
)

// maxLineSize bounds a single JSONL line.
const maxLineSize = 1 << 20

func (c Cost) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.EmbedFrom(c.PerUnit)
	w.Optional("date", c.Date)
	return w.MarshalJSON()
}

func (c *Cost) UnmarshalJSON(data []byte) error {
	var perUnit Amount
	if err := json.Unmarshal(data, &perUnit); err != nil {
		return fmt.Errorf("cost: %w", err)
	}
	var temp struct {
		Date date.Date `json:"date"`
	}
	if err := json.Unmarshal(data, &temp); err != nil {
		return fmt.Errorf("cost: %w", err)
	}
	*c = Cost{PerUnit: perUnit, Date: temp.Date}
	return nil
}

func (p Posting) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("account", p.Account)
	w.Append("units", p.Units)
	w.Optional("cost", p.Cost)
	w.Optional("price", p.Price)
	w.Optional("meta", p.Meta)
	return w.MarshalJSON()
}

func (p *Posting) UnmarshalJSON(data []byte) error {
	var temp struct {
		Account string  `json:"account"`
		Units   *Amount `json:"units"`
		Cost    *Cost   `json:"cost"`
		Price   *Amount `json:"price"`
		Meta    Meta    `json:"meta"`
	}
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}
	if temp.Account == "" {
		return fmt.Errorf("posting %s: missing account", string(data))
	}
	if temp.Units == nil {
		return fmt.Errorf("posting on %s: missing units", temp.Account)
	}
	*p = Posting{Account: temp.Account, Units: *temp.Units, Cost: temp.Cost, Price: temp.Price, Meta: temp.Meta}
	return nil
}

func (t Transaction) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("type", typeTransaction)
	w.Append("date", t.Date)
	w.Append("flag", t.Flag)
	w.Optional("payee", t.Payee)
	w.Append("narration", t.Narration)
	w.Optional("meta", t.Meta)
	w.Append("postings", t.Postings)
	return w.MarshalJSON()
}

func (b Balance) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("type", typeBalance)
	w.Append("date", b.Date)
	w.Append("account", b.Account)
	w.Append("amount", b.Amount)
	w.Optional("meta", b.Meta)
	return w.MarshalJSON()
}

// EncodeEntries writes the entries in JSONL format, one entry per line.
func EncodeEntries(w io.Writer, entries []Entry) error {
	for _, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to marshal entry of %s: %w", e.When(), err)
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("failed to write entry: %w", err)
		}
	}
	return nil
}

// DecodeEntries reads entries in JSONL format, in the order they are stored.
func DecodeEntries(r io.Reader) ([]Entry, error) {
	var entries []Entry
	err := scanLines(r, func(line int, data []byte) error {
		var identifier struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &identifier); err != nil {
			return err
		}

		switch identifier.Type {
		case typeTransaction:
			var temp struct {
				Meta      Meta      `json:"meta"`
				Date      date.Date `json:"date"`
				Flag      string    `json:"flag"`
				Payee     string    `json:"payee"`
				Narration string    `json:"narration"`
				Postings  []Posting `json:"postings"`
			}
			if err := json.Unmarshal(data, &temp); err != nil {
				return err
			}
			entries = append(entries, Transaction(temp))
		case typeBalance:
			var temp struct {
				Date    date.Date `json:"date"`
				Account string    `json:"account"`
				Amount  Amount    `json:"amount"`
				Meta    Meta      `json:"meta"`
			}
			if err := json.Unmarshal(data, &temp); err != nil {
				return err
			}
			entries = append(entries, Balance{Meta: temp.Meta, Date: temp.Date, Account: temp.Account, Amount: temp.Amount})
		default:
			return fmt.Errorf("unknown entry type %q", identifier.Type)
		}
		return nil
	})
	return entries, err
}

// DecodeIBKRRows reads Interactive Brokers records in JSONL format.
func DecodeIBKRRows(r io.Reader) ([]IBKRRow, error) {
	var rows []IBKRRow
	err := scanLines(r, func(line int, data []byte) error {
		var row IBKRRow
		if err := json.Unmarshal(data, &row); err != nil {
			return err
		}
		row.Line = line
		rows = append(rows, row)
		return nil
	})
	return rows, err
}

// DecodeFinpensionRows reads finpension records in JSONL format, in export order.
func DecodeFinpensionRows(r io.Reader) ([]FinpensionRow, error) {
	var rows []FinpensionRow
	err := scanLines(r, func(line int, data []byte) error {
		var row FinpensionRow
		if err := json.Unmarshal(data, &row); err != nil {
			return err
		}
		row.Line = line
		rows = append(rows, row)
		return nil
	})
	return rows, err
}

// DecodeSecurities reads the finpension securities, a JSON object by ISIN.
func DecodeSecurities(r io.Reader) (map[string]Security, error) {
	securities := make(map[string]Security)
	if err := json.NewDecoder(r).Decode(&securities); err != nil {
		return nil, fmt.Errorf("invalid securities: %w", err)
	}
	for isin, s := range securities {
		if s.Name == "" {
			return nil, fmt.Errorf("security %s has no name", isin)
		}
	}
	return securities, nil
}

// scanLines calls f for every non empty line. Errors are located with a *RowError.
func scanLines(r io.Reader, f func(line int, data []byte) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	line := 0
	for scanner.Scan() {
		line++
		data := scanner.Bytes()
		if len(data) == 0 {
			continue // Skip empty lines
		}
		if err := f(line, data); err != nil {
			return &RowError{Line: line, Err: err}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading from input: %w", err)
	}
	return nil
}

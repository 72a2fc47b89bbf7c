package renderer

import (
	"strings"
	"testing"

	"github.com/etnz/beanimport"
	"github.com/etnz/beanimport/date"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// outline is the structure of a markdown document.
type outline struct {
	headings []string
	rows     int // table rows, header excluded.
	code     map[string]string
}

func parse(t *testing.T, md string) outline {
	t.Helper()
	content := []byte(md)
	root := goldmark.New(goldmark.WithExtensions(extension.Table)).Parser().Parse(text.NewReader(content))

	o := outline{code: make(map[string]string)}
	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Heading:
			var b strings.Builder
			for c := v.FirstChild(); c != nil; c = c.NextSibling() {
				if s, ok := c.(*ast.Text); ok {
					b.Write(s.Segment.Value(content))
				}
			}
			o.headings = append(o.headings, b.String())
		case *east.TableRow:
			o.rows++
		case *ast.FencedCodeBlock:
			var b strings.Builder
			for i := 0; i < v.Lines().Len(); i++ {
				line := v.Lines().At(i)
				b.Write(line.Value(content))
			}
			o.code[string(v.Language(content))] = b.String()
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		t.Fatalf("walking markdown: %v", err)
	}
	return o
}

func extraction() *beanimport.Extraction {
	on := date.New(2024, 4, 1)
	lot := beanimport.NewPosting("Assets:IBKR:VEA", beanimport.A(-10, "VEA"))
	lot.Cost = &beanimport.Cost{PerUnit: beanimport.A(40, "USD"), Date: date.New(2024, 1, 10)}
	price := beanimport.A(50, "USD")
	lot.Price = &price

	diags := new(beanimport.Diagnostics)
	diags.Addf(beanimport.DuplicateRow, on, "VEA", "100", "transaction 100 already imported")
	diags.Addf(beanimport.UnmatchedSale, on, "VEA", "105", "error selling -10 VEA | from []")

	return &beanimport.Extraction{
		Entries: []beanimport.Entry{
			beanimport.Transaction{
				Meta:      beanimport.Meta{beanimport.MetaTransID: "105", beanimport.MetaFilename: "ibkr.jsonl", beanimport.MetaLineno: "7"},
				Date:      on,
				Flag:      "*",
				Payee:     "Interactive Brokers",
				Narration: "Sell VEA",
				Postings: []beanimport.Posting{
					beanimport.NewPosting("Assets:IBKR:Cash", beanimport.A(500, "USD")),
					beanimport.NewPosting("Income:IBKR:VEA:PnL", beanimport.A(-100, "USD")),
					lot,
				},
			},
			beanimport.Balance{Date: date.New(2024, 5, 1), Account: "Assets:IBKR:Cash", Amount: beanimport.A(500, "USD")},
		},
		Diagnostics: diags,
	}
}

func TestBeancount(t *testing.T) {
	got := Beancount(extraction().Entries)
	want := `2024-04-01 * "Interactive Brokers" "Sell VEA"
  trans_id: "105"
  Assets:IBKR:Cash  500 USD
  Income:IBKR:VEA:PnL  -100 USD
  Assets:IBKR:VEA  -10 VEA {40 USD, 2024-01-10} @ 50 USD

2024-05-01 balance Assets:IBKR:Cash  500 USD
`
	if got != want {
		t.Errorf("Beancount() =\n%s\nwant\n%s", got, want)
	}
}

func TestExtraction(t *testing.T) {
	o := parse(t, Extraction("ibkr.jsonl", extraction()))

	wantHeadings := []string{"Import of ibkr.jsonl", "Diagnostics"}
	if strings.Join(o.headings, ",") != strings.Join(wantHeadings, ",") {
		t.Errorf("headings = %q, want %q", o.headings, wantHeadings)
	}
	if o.rows != 2 {
		t.Errorf("diagnostics table has %d rows, want 2", o.rows)
	}
	if code, ok := o.code["beancount"]; !ok || !strings.Contains(code, `"Sell VEA"`) {
		t.Errorf("beancount block = %q, want the sale", code)
	}
}

func TestDiagnostics_WarningsFirst(t *testing.T) {
	md := Diagnostics(extraction().Diagnostics)
	unmatched := strings.Index(md, "unmatched-sale")
	duplicate := strings.Index(md, "duplicate-row")
	if unmatched < 0 || duplicate < 0 || unmatched > duplicate {
		t.Errorf("Diagnostics() =\n%s\nwant the unmatched sale before the duplicate row", md)
	}
	if o := parse(t, Diagnostics(new(beanimport.Diagnostics))); o.rows != 0 {
		t.Errorf("empty diagnostics rendered %d rows", o.rows)
	}
}

func TestInventory(t *testing.T) {
	lots := beanimport.Inventory{
		{TransID: "101", Date: date.New(2024, 1, 10), Units: beanimport.A(6, "VEA"), Cost: &beanimport.Cost{PerUnit: beanimport.A(40, "USD")}},
		{TransID: "102", Date: date.New(2024, 2, 10), Units: beanimport.A(5, "VEA"), Cost: &beanimport.Cost{PerUnit: beanimport.A(42, "USD")}},
	}
	md := Inventory("Assets:IBKR:VEA", lots)
	o := parse(t, md)
	if len(o.headings) != 1 || o.headings[0] != "Open lots of Assets:IBKR:VEA" {
		t.Errorf("headings = %q", o.headings)
	}
	if o.rows != 3 {
		t.Errorf("got %d rows, want 2 lots and the total", o.rows)
	}
	if !strings.Contains(md, "**11**") {
		t.Errorf("Inventory() =\n%s\nwant a total of 11", md)
	}
}

package renderer

import (
	"fmt"
	"strings"

	"github.com/etnz/beanimport"
)

// markdownRenderer accumulates a markdown report.
type markdownRenderer struct {
	*strings.Builder
}

func newRenderer() *markdownRenderer { return &markdownRenderer{Builder: &strings.Builder{}} }

// Printf formats according to a format specifier and writes to the renderer's buffer.
func (r *markdownRenderer) Printf(format string, args ...any) {
	fmt.Fprintf(r, format, args...)
}

// cell escapes the characters that would break a table row.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

// Extraction renders the summary of an import: the new entries, in
// beancount syntax, followed by the diagnostics.
func Extraction(file string, x *beanimport.Extraction) string {
	r := newRenderer()
	r.Printf("# Import of %s\n\n", file)
	switch n := len(x.Entries); n {
	case 0:
		r.Printf("No new entries.\n\n")
	case 1:
		r.Printf("1 new entry.\n\n")
	default:
		r.Printf("%d new entries.\n\n", n)
	}
	if len(x.Entries) > 0 {
		r.Printf("```beancount\n%s```\n\n", Beancount(x.Entries))
	}
	r.renderDiagnostics(x.Diagnostics)
	return r.String()
}

// Diagnostics renders the anomalies of an import as a markdown table,
// warnings first.
func Diagnostics(diags *beanimport.Diagnostics) string {
	r := newRenderer()
	r.renderDiagnostics(diags)
	return r.String()
}

func (r *markdownRenderer) renderDiagnostics(diags *beanimport.Diagnostics) {
	r.Printf("## Diagnostics\n\n")
	if diags.Len() == 0 {
		r.Printf("No diagnostics.\n")
		return
	}
	r.Printf("| Date | Kind | Security | Transaction | Message |\n")
	r.Printf("|:---|:---|:---|:---|:---|\n")
	for _, warning := range []bool{true, false} {
		for d := range diags.All() {
			if d.Kind.Warning() != warning {
				continue
			}
			kind := string(d.Kind)
			if warning {
				kind = "**" + kind + "**"
			}
			r.Printf("| %s | %s | %s | %s | %s |\n", d.Date, kind, cell(d.Security), cell(d.TransID), cell(d.Message))
		}
	}
}

// Inventory renders the open lots of a security account, oldest first.
func Inventory(account string, lots beanimport.Inventory) string {
	r := newRenderer()
	r.Printf("## Open lots of %s\n\n", account)
	if len(lots) == 0 {
		r.Printf("No open lots.\n")
		return r.String()
	}
	r.Printf("| Acquired | Units | Cost | Transaction |\n")
	r.Printf("|:---|---:|---:|:---|\n")
	for _, lot := range lots {
		cost := ""
		if lot.Cost != nil {
			cost = lot.Cost.PerUnit.String()
		}
		r.Printf("| %s | %s | %s | %s |\n", lot.Date, lot.Units, cost, cell(lot.TransID))
	}
	r.Printf("| **Total** | **%s** | | |\n", lots.Units())
	return r.String()
}

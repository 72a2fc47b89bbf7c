package beanimport

import (
	"fmt"
	"iter"

	"github.com/etnz/beanimport/date"
)

// DiagnosticKind classifies a reconciliation anomaly.
type DiagnosticKind string

const (
	// UnmatchedSale: the open lots do not cover a sale.
	UnmatchedSale DiagnosticKind = "unmatched-sale"
	// DoubleMatchedTax: a withholding tax record was merged into more than one dividend.
	DoubleMatchedTax DiagnosticKind = "double-matched-tax"
	// MissingTax: a dividend has no withholding tax record.
	MissingTax DiagnosticKind = "missing-tax"
	// UnmatchedTax: a withholding tax record is neither merged nor paired.
	UnmatchedTax DiagnosticKind = "unmatched-tax"
	// DuplicateRow: a row was skipped because its transaction is already in the ledger.
	DuplicateRow DiagnosticKind = "duplicate-row"
)

// Warning reports whether the kind requires a manual review of the ledger.
func (k DiagnosticKind) Warning() bool {
	switch k {
	case UnmatchedSale, DoubleMatchedTax, UnmatchedTax:
		return true
	default:
		return false
	}
}

// Diagnostic is a non fatal anomaly found while extracting entries.
// The entries produced are still balanced, but the ledger may need a review.
type Diagnostic struct {
	Kind     DiagnosticKind
	Date     date.Date
	Security string
	TransID  string
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s %s: %s", d.Date, d.Kind, d.Message)
}

// Diagnostics collects the anomalies of a single extraction, in the order they were found.
type Diagnostics struct {
	list []Diagnostic
}

// Add records a diagnostic. Identical diagnostics are recorded once: lot
// replays visit the same past sales again for every new sale of a security.
func (ds *Diagnostics) Add(d Diagnostic) {
	if ds == nil {
		return
	}
	for _, x := range ds.list {
		if x == d {
			return
		}
	}
	ds.list = append(ds.list, d)
}

// Addf records a formatted diagnostic.
func (ds *Diagnostics) Addf(kind DiagnosticKind, on date.Date, security, transID, format string, args ...any) {
	ds.Add(Diagnostic{Kind: kind, Date: on, Security: security, TransID: transID, Message: fmt.Sprintf(format, args...)})
}

// Len returns the number of diagnostics.
func (ds *Diagnostics) Len() int {
	if ds == nil {
		return 0
	}
	return len(ds.list)
}

// All returns an iterator over all diagnostics.
func (ds *Diagnostics) All() iter.Seq[Diagnostic] {
	return func(yield func(Diagnostic) bool) {
		if ds == nil {
			return
		}
		for _, d := range ds.list {
			if !yield(d) {
				return
			}
		}
	}
}

// OfKind returns the diagnostics of a given kind.
func (ds *Diagnostics) OfKind(kind DiagnosticKind) []Diagnostic {
	var res []Diagnostic
	for d := range ds.All() {
		if d.Kind == kind {
			res = append(res, d)
		}
	}
	return res
}

// Warnings returns the diagnostics that require a review.
func (ds *Diagnostics) Warnings() []Diagnostic {
	var res []Diagnostic
	for d := range ds.All() {
		if d.Kind.Warning() {
			res = append(res, d)
		}
	}
	return res
}

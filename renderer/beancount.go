package renderer

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/etnz/beanimport"
)

// Beancount renders the entries in beancount syntax, in order.
//
// The source location metadata (filename, lineno) is not rendered.
func Beancount(entries []beanimport.Entry) string {
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		switch v := e.(type) {
		case beanimport.Transaction:
			writeTransaction(&b, v)
		case beanimport.Balance:
			fmt.Fprintf(&b, "%s balance %s  %s\n", v.Date, v.Account, v.Amount)
			writeMeta(&b, "  ", v.Meta)
		}
	}
	return b.String()
}

func writeTransaction(b *strings.Builder, tx beanimport.Transaction) {
	flag := tx.Flag
	if flag == "" {
		flag = "*"
	}
	fmt.Fprintf(b, "%s %s", tx.Date, flag)
	if tx.Payee != "" {
		fmt.Fprintf(b, " %s", strconv.Quote(tx.Payee))
	}
	fmt.Fprintf(b, " %s\n", strconv.Quote(tx.Narration))
	writeMeta(b, "  ", tx.Meta)

	for _, p := range tx.Postings {
		fmt.Fprintf(b, "  %s  %s", p.Account, p.Units)
		if p.Cost != nil {
			if p.Cost.Date.IsZero() {
				fmt.Fprintf(b, " {%s}", p.Cost.PerUnit)
			} else {
				fmt.Fprintf(b, " {%s, %s}", p.Cost.PerUnit, p.Cost.Date)
			}
		}
		if p.Price != nil {
			fmt.Fprintf(b, " @ %s", p.Price)
		}
		b.WriteString("\n")
		writeMeta(b, "    ", p.Meta)
	}
}

func writeMeta(b *strings.Builder, indent string, meta beanimport.Meta) {
	for _, k := range slices.Sorted(maps.Keys(meta)) {
		if k == beanimport.MetaFilename || k == beanimport.MetaLineno {
			continue
		}
		fmt.Fprintf(b, "%s%s: %s\n", indent, k, strconv.Quote(meta[k]))
	}
}

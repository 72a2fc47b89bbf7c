package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/beanimport"
	"github.com/google/subcommands"
)

type ibkrCmd struct {
	importer beanimport.IBKR
	output
}

func (*ibkrCmd) Name() string     { return "ibkr" }
func (*ibkrCmd) Synopsis() string { return "imports Interactive Brokers activity rows" }
func (*ibkrCmd) Usage() string {
	return `bimp ibkr [-parent <account>] [-income <account>] [-tax <account>] [-fees <account>] <rows.jsonl>...

  Imports Interactive Brokers activity rows (JSONL) into ledger entries.
  Sales are matched FIFO against the lots of the ledger, withholding tax
  rows are merged into their dividends.
  Rows already in the ledger are skipped.
`
}

func (c *ibkrCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.importer.Parent, "parent", envOr("BIMP_IBKR_PARENT", "Assets:Investment:IBKR"), "Parent account of the cash and security accounts")
	f.StringVar(&c.importer.Income, "income", envOr("BIMP_IBKR_INCOME", "Income:Investment:IBKR"), "Parent account of the dividends, interests and PnL")
	f.StringVar(&c.importer.Tax, "tax", envOr("BIMP_IBKR_TAX", "Assets:Investment:IBKR:Tax"), "Withholding tax account, suffixed by the currency")
	f.StringVar(&c.importer.Fees, "fees", envOr("BIMP_IBKR_FEES", "Expenses:Investment:IBKR:Fees"), "Fees account")
	c.output.SetFlags(f)
}

func (c *ibkrCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: missing the rows file")
		return subcommands.ExitUsageError
	}

	err := c.run(ctx, os.Stdout, f.Args(), func(file string, existing []beanimport.Entry) (*beanimport.Extraction, error) {
		rows, err := decodeFile(file, beanimport.DecodeIBKRRows)
		if err != nil {
			return nil, err
		}
		return c.importer.Extract(file, rows, existing)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error importing IBKR rows: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

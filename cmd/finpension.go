package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/beanimport"
	"github.com/google/subcommands"
)

type finpensionCmd struct {
	importer   beanimport.Finpension
	securities string
	output
}

func (*finpensionCmd) Name() string     { return "finpension" }
func (*finpensionCmd) Synopsis() string { return "imports finpension pillar 3a transactions" }
func (*finpensionCmd) Usage() string {
	return `bimp finpension -securities <securities.json> [-parent <account>] [-income <account>] [-fees <account>] <rows.jsonl>...

  Imports finpension transaction rows (JSONL, newest first) into ledger entries.
  The securities file is a JSON object mapping every ISIN to a security:
  {"CH0033782431": {"name": "CSIF-World", "currency": "CHF"}}
`
}

func (c *finpensionCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.importer.Parent, "parent", envOr("BIMP_FINPENSION_PARENT", "Assets:Pension:FinPension"), "Parent account of the cash and security accounts")
	f.StringVar(&c.importer.Income, "income", envOr("BIMP_FINPENSION_INCOME", "Income:Pension:FinPension"), "Parent account of the dividends, interests and PnL")
	f.StringVar(&c.importer.Fees, "fees", envOr("BIMP_FINPENSION_FEES", "Expenses:Pension:FinPension:Fees"), "Fees account")
	f.StringVar(&c.securities, "securities", envOr("BIMP_FINPENSION_SECURITIES", "securities.json"), "Path to the ISIN to security file")
	c.output.SetFlags(f)
}

func (c *finpensionCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: missing the rows file")
		return subcommands.ExitUsageError
	}

	securities, err := decodeSecurities(c.securities)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error decoding securities: %v\n", err)
		return subcommands.ExitFailure
	}
	c.importer.Securities = securities

	err = c.run(ctx, os.Stdout, f.Args(), func(file string, existing []beanimport.Entry) (*beanimport.Extraction, error) {
		rows, err := decodeFile(file, beanimport.DecodeFinpensionRows)
		if err != nil {
			return nil, err
		}
		return c.importer.Extract(file, rows, existing)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error importing finpension rows: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func decodeSecurities(file string) (map[string]beanimport.Security, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return beanimport.DecodeSecurities(f)
}

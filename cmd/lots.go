package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/beanimport"
	"github.com/etnz/beanimport/date"
	"github.com/etnz/beanimport/internal/logger"
	"github.com/etnz/beanimport/renderer"
	"github.com/google/subcommands"
)

type lotsCmd struct {
	on      string
	transID string
}

func (*lotsCmd) Name() string     { return "lots" }
func (*lotsCmd) Synopsis() string { return "displays the open lots of a security account" }
func (*lotsCmd) Usage() string {
	return `bimp lots [-d <date>] [-id <trans_id>] <account>

  Replays the ledger trades of the account, FIFO, and displays the lots still
  open at the end of the day, or just before a transaction identifier.
`
}

func (c *lotsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.on, "d", date.Today().String(), "Date of the inventory")
	f.StringVar(&c.transID, "id", "", "Replay only the transactions before this identifier")
}

func (c *lotsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: expecting exactly one account")
		return subcommands.ExitUsageError
	}
	account := f.Arg(0)

	b, err := c.boundary()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}

	entries, err := DecodeLedger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error decoding ledger: %v\n", err)
		return subcommands.ExitFailure
	}

	diags := new(beanimport.Diagnostics)
	inv, err := beanimport.NewHistory(entries...).Inventory(account, b, diags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error replaying %s: %v\n", account, err)
		return subcommands.ExitFailure
	}
	logger.Diagnostics(logger.FromContext(ctx), diags)

	printMarkdown(os.Stdout, renderer.Inventory(account, inv))
	return subcommands.ExitSuccess
}

func (c *lotsCmd) boundary() (beanimport.Boundary, error) {
	if c.transID != "" {
		return beanimport.Boundary{TransID: c.transID}, nil
	}
	on, err := date.Parse(c.on)
	return beanimport.Boundary{Date: on}, err
}

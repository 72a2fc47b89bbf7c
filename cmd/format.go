package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/beanimport"
	"github.com/google/subcommands"
)

type formatCmd struct{}

func (*formatCmd) Name() string     { return "format" }
func (*formatCmd) Synopsis() string { return "formats the ledger file into a canonical form" }
func (*formatCmd) Usage() string {
	return `bimp format

  Rewrites the ledger file into a canonical form, entries kept in order.
`
}

func (*formatCmd) SetFlags(f *flag.FlagSet) {}

func (*formatCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	entries, err := DecodeLedger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error decoding ledger: %v\n", err)
		return subcommands.ExitFailure
	}

	if err := EncodeLedger(entries); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding ledger: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Ledger file '%s' has been formatted.\n", LedgerPath())
	return subcommands.ExitSuccess
}

// EncodeLedger replaces the content of the ledger file with the entries.
func EncodeLedger(entries []beanimport.Entry) error {
	filename := LedgerPath()
	f, err := os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("error opening ledger file %q for writing: %w", filename, err)
	}
	defer f.Close()

	return beanimport.EncodeEntries(f, entries)
}

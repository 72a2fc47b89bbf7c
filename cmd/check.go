package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/beanimport"
	"github.com/google/subcommands"
)

type checkCmd struct{}

func (*checkCmd) Name() string     { return "check" }
func (*checkCmd) Synopsis() string { return "checks that the ledger transactions balance" }
func (*checkCmd) Usage() string {
	return `bimp check

  Checks that every transaction of the ledger balances and that no
  transaction identifier is used twice.
`
}

func (*checkCmd) SetFlags(f *flag.FlagSet) {}

func (*checkCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	entries, err := DecodeLedger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error decoding ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := checkLedger(entries); err != nil {
		fmt.Fprintf(os.Stderr, "Error checking ledger:\n%v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Ledger file '%s' is valid (%d entries).\n", LedgerPath(), len(entries))
	return subcommands.ExitSuccess
}

// checkLedger returns every unbalanced transaction and duplicated trans_id.
func checkLedger(entries []beanimport.Entry) error {
	var errs []error
	seen := make(map[string]bool)
	for _, e := range entries {
		tx, ok := e.(beanimport.Transaction)
		if !ok {
			continue
		}
		id := tx.Meta.TransID()
		if id != "" {
			if seen[id] {
				errs = append(errs, fmt.Errorf("%s: transaction %s is duplicated", tx.Date, id))
			}
			seen[id] = true
		}
		if !tx.IsBalanced() {
			errs = append(errs, fmt.Errorf("%s: transaction %q does not balance: %s", tx.Date, tx.Narration, tx.ResidualString()))
		}
	}
	return errors.Join(errs...)
}

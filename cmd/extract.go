package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/etnz/beanimport"
	"github.com/etnz/beanimport/internal/logger"
	"github.com/etnz/beanimport/renderer"
)

const (
	formatBeancount = "beancount"
	formatJSONL     = "jsonl"
	formatMarkdown  = "markdown"
)

// output holds the flags shared by the import commands.
type output struct {
	format       string
	appendLedger bool
}

func (o *output) SetFlags(f *flag.FlagSet) {
	f.StringVar(&o.format, "format", envOr("BIMP_FORMAT", formatBeancount), "Output format: beancount, jsonl or markdown")
	f.BoolVar(&o.appendLedger, "append", false, "Append the new entries to the ledger file")
}

func (o *output) validate() error {
	switch o.format {
	case formatBeancount, formatJSONL, formatMarkdown:
		return nil
	}
	return fmt.Errorf("unknown output format %q", o.format)
}

// extractor imports one file against the existing entries.
type extractor func(file string, existing []beanimport.Entry) (*beanimport.Extraction, error)

// run imports every file in order, each one seeing the entries of the
// previous ones, and writes the new entries to w.
func (o *output) run(ctx context.Context, w io.Writer, files []string, extract extractor) error {
	if err := o.validate(); err != nil {
		return err
	}
	log := logger.FromContext(ctx)

	existing, err := DecodeLedger()
	if err != nil {
		return fmt.Errorf("decoding ledger: %w", err)
	}

	for _, file := range files {
		x, err := extract(file, existing)
		if err != nil {
			return err
		}
		logger.Diagnostics(log, x.Diagnostics)
		log.Info().Str("file", file).Int("entries", len(x.Entries)).Int("diagnostics", x.Diagnostics.Len()).Msg("imported")

		if err := o.write(w, file, x); err != nil {
			return err
		}
		if o.appendLedger {
			if err := AppendLedger(x.Entries); err != nil {
				return err
			}
		}
		existing = append(existing, x.Entries...)
	}
	return nil
}

func (o *output) write(w io.Writer, file string, x *beanimport.Extraction) error {
	switch o.format {
	case formatJSONL:
		if err := beanimport.EncodeEntries(w, x.Entries); err != nil {
			return err
		}
	case formatMarkdown:
		printMarkdown(w, renderer.Extraction(file, x))
		return nil
	default:
		if _, err := io.WriteString(w, renderer.Beancount(x.Entries)); err != nil {
			return err
		}
	}
	if x.Diagnostics.Len() > 0 {
		printMarkdown(os.Stderr, renderer.Diagnostics(x.Diagnostics))
	}
	return nil
}

// Package cmd implements the CLI application to import broker records into a ledger.
package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/beanimport"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&ibkrCmd{}, "import")
	c.Register(&finpensionCmd{}, "import")

	c.Register(&checkCmd{}, "ledger")
	c.Register(&lotsCmd{}, "ledger")
	c.Register(&formatCmd{}, "ledger")

	c.Register(&topicCmd{}, "help")
}

// Completion describes the command line for shell completion.
func Completion() *complete.Command {
	jsonl := predict.Files("*.jsonl")
	formats := predict.Set{formatBeancount, formatJSONL, formatMarkdown}
	global := map[string]complete.Predictor{
		"ledger": jsonl,
		"v":      predict.Nothing,
	}
	return &complete.Command{
		Sub: map[string]*complete.Command{
			"ibkr": {
				Flags: map[string]complete.Predictor{
					"parent": predict.Something, "income": predict.Something,
					"tax": predict.Something, "fees": predict.Something,
					"format": formats, "append": predict.Nothing,
				},
				Args: jsonl,
			},
			"finpension": {
				Flags: map[string]complete.Predictor{
					"parent": predict.Something, "income": predict.Something,
					"fees": predict.Something, "securities": predict.Files("*.json"),
					"format": formats, "append": predict.Nothing,
				},
				Args: jsonl,
			},
			"check":  {},
			"format": {},
			"topic":  {Args: predict.Set{"ibkr", "finpension", "lots", "withholding", "diagnostics"}},
			"lots": {
				Flags: map[string]complete.Predictor{"d": predict.Something, "id": predict.Something},
				Args:  predict.Something,
			},
		},
		Flags: global,
	}
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var ledgerFile = flag.String("ledger", "", "Path to the ledger file (JSONL format). Defaults to $BIMP_LEDGER or ledger.jsonl")
var verbose = flag.Bool("v", false, "Log every diagnostic. Defaults to $BIMP_VERBOSE")

// Verbose reports whether the debug events should be logged.
func Verbose() bool {
	return *verbose || envBool("BIMP_VERBOSE")
}

// LedgerPath returns the path of the ledger file.
func LedgerPath() string {
	if *ledgerFile != "" {
		return *ledgerFile
	}
	return envOr("BIMP_LEDGER", "ledger.jsonl")
}

// envOr returns the environment variable key, or def when it is not set.
func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}

// DecodeLedger reads the ledger file. A missing ledger is an empty one.
func DecodeLedger() ([]beanimport.Entry, error) {
	entries, err := decodeFile(LedgerPath(), beanimport.DecodeEntries)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return entries, err
}

// AppendLedger appends the entries to the ledger file, creating it if needed.
func AppendLedger(entries []beanimport.Entry) error {
	filename := LedgerPath()
	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening ledger file %q: %w", filename, err)
	}
	if err := beanimport.EncodeEntries(f, entries); err != nil {
		f.Close()
		return fmt.Errorf("writing to ledger file %q: %w", filename, err)
	}
	return f.Close()
}

// decodeFile decodes a JSONL file, locating row errors in it.
func decodeFile[T any](file string, decode func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	res, err := decode(f)
	var rowErr *beanimport.RowError
	if errors.As(err, &rowErr) && rowErr.File == "" {
		rowErr.File = file
	}
	return res, err
}

// printMarkdown renders markdown for the terminal, or prints it raw if it cannot.
func printMarkdown(w io.Writer, md string) {
	out, err := glamour.Render(md, "auto")
	if err != nil {
		out = md
	}
	fmt.Fprint(w, out)
}

// Command bimp imports broker records into a beancount ledger.
package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"os"
	"path"

	"github.com/etnz/beanimport/cmd"
	"github.com/etnz/beanimport/internal/logger"
	"github.com/google/subcommands"
	"github.com/joho/godotenv"
)

func main() {
	// .env provides the defaults of the BIMP_* variables, the environment wins.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log := logger.New(false)
		log.Warn().Err(err).Msg("cannot load .env file")
	}

	cmd.Completion().Complete("bimp")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cmd.Register(commander)

	flag.Parse()
	ctx := logger.WithContext(context.Background(), logger.New(cmd.Verbose()))
	os.Exit(int(commander.Execute(ctx)))
}

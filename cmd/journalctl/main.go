// Command journalctl runs broker imports and syncs offline and prints the
// resulting report. Nothing is written to the database.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"

	"github.com/username/tradejournal/backend/src/logger"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	for _, c := range commands(os.Stdout) {
		commander.Register(c, "")
	}

	logLevel := flag.String("log-level", "warn", "Log level written to stderr (debug, info, warn, error).")
	flag.Parse()
	logger.InitLoggerTo(os.Stderr, *logLevel)

	os.Exit(int(commander.Execute(context.Background())))
}

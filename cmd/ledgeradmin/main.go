// Command ledgeradmin runs maintenance tasks against the ledger database.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"

	"github.com/simaogato/fintrack-backend/internal/config"
	"github.com/simaogato/fintrack-backend/internal/logger"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")

	for _, c := range commands {
		commander.Register(c, "ledger")
	}

	flag.Parse()

	config.LoadDotEnv()
	ctx := logger.ToContext(context.Background(), logger.InitWithWriter(os.Getenv("LOG_LEVEL"), os.Stderr))
	os.Exit(int(commander.Execute(ctx)))
}

// Command ledgerctl is a terminal client for the ledgerd HTTP API. It covers
// the same surface the service exposes: accounts, deposits, withdrawals,
// transfers, history, and the admin-gated delete.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))

	commander.Register(commander.HelpCommand(), "")
	commander.Register(&createCmd{}, "accounts")
	commander.Register(&getCmd{}, "accounts")
	commander.Register(&searchCmd{}, "accounts")
	commander.Register(&deleteCmd{}, "accounts")
	commander.Register(&depositCmd{}, "money")
	commander.Register(&withdrawCmd{}, "money")
	commander.Register(&transferCmd{}, "money")
	commander.Register(&historyCmd{}, "money")
	commander.Register(&unlockCmd{}, "admin")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

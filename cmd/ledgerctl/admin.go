package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/google/subcommands"
)

type unlockCmd struct {
	commonFlags
	password string
}

func (*unlockCmd) Name() string     { return "unlock" }
func (*unlockCmd) Synopsis() string { return "unlock an admin session" }
func (*unlockCmd) Usage() string {
	return `ledgerctl unlock [-password <password>]

  Exchanges the admin password for a session token usable with -token on
  gated operations. Reads the password from stdin when the flag is absent.
`
}

func (c *unlockCmd) SetFlags(f *flag.FlagSet) {
	c.register(f)
	f.StringVar(&c.password, "password", "", "Admin password. Prompted on stdin when empty.")
}

func (c *unlockCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	password := c.password
	if password == "" {
		fmt.Fprint(os.Stderr, "Admin password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading password: %v\n", err)
			return subcommands.ExitFailure
		}
		password = strings.TrimRight(line, "\r\n")
	}
	var result struct {
		Token string `json:"token"`
	}
	body := map[string]any{"password": password}
	if err := c.client().do(ctx, http.MethodPost, "/admin/unlock", body, &result); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Println(result.Token)
	return subcommands.ExitSuccess
}

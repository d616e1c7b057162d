package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

type accountView struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}

type createCmd struct {
	commonFlags
	initial string
}

func (*createCmd) Name() string     { return "create" }
func (*createCmd) Synopsis() string { return "create a new account" }
func (*createCmd) Usage() string {
	return `ledgerctl create [-initial <amount>] <name>

  Creates an account, optionally funded with an initial balance.
`
}

func (c *createCmd) SetFlags(f *flag.FlagSet) {
	c.register(f)
	f.StringVar(&c.initial, "initial", "0", "Initial balance for the new account.")
}

func (c *createCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: account name required.")
		return subcommands.ExitUsageError
	}
	initial, err := decimal.NewFromString(c.initial)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing initial balance: %v\n", err)
		return subcommands.ExitUsageError
	}
	var account accountView
	body := map[string]any{"name": f.Arg(0), "initial_balance": initial}
	if err := c.client().do(ctx, http.MethodPost, "/accounts", body, &account); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Account created (ID: %d)\n", account.ID)
	return subcommands.ExitSuccess
}

type getCmd struct {
	commonFlags
}

func (*getCmd) Name() string     { return "get" }
func (*getCmd) Synopsis() string { return "show one account" }
func (*getCmd) Usage() string {
	return `ledgerctl get <account-id>

  Prints the account's name, balance, and creation time.
`
}

func (c *getCmd) SetFlags(f *flag.FlagSet) { c.register(f) }

func (c *getCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: account id required.")
		return subcommands.ExitUsageError
	}
	var account accountView
	if err := c.client().do(ctx, http.MethodGet, "/accounts/"+f.Arg(0), nil, &account); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	printAccounts(account)
	return subcommands.ExitSuccess
}

type searchCmd struct {
	commonFlags
	query string
}

func (*searchCmd) Name() string     { return "search" }
func (*searchCmd) Synopsis() string { return "list accounts matching a query" }
func (*searchCmd) Usage() string {
	return `ledgerctl search [-q <query>]

  Lists accounts whose name or id contains the query. No query lists all.
`
}

func (c *searchCmd) SetFlags(f *flag.FlagSet) {
	c.register(f)
	f.StringVar(&c.query, "q", "", "Substring to match against name or id.")
}

func (c *searchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var accounts []accountView
	if err := c.client().do(ctx, http.MethodGet, "/accounts?q="+url.QueryEscape(c.query), nil, &accounts); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	printAccounts(accounts...)
	return subcommands.ExitSuccess
}

type deleteCmd struct {
	commonFlags
}

func (*deleteCmd) Name() string     { return "delete" }
func (*deleteCmd) Synopsis() string { return "delete an account (admin, zero balance only)" }
func (*deleteCmd) Usage() string {
	return `ledgerctl delete -token <admin-token> <account-id>

  Deletes an account and its transaction history. Requires an unlocked admin
  session and a zero balance.
`
}

func (c *deleteCmd) SetFlags(f *flag.FlagSet) { c.register(f) }

func (c *deleteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: account id required.")
		return subcommands.ExitUsageError
	}
	if err := c.client().do(ctx, http.MethodDelete, "/accounts/"+f.Arg(0), nil, nil); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Account %s deleted.\n", f.Arg(0))
	return subcommands.ExitSuccess
}

func printAccounts(accounts ...accountView) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tBALANCE\tCREATED")
	for _, a := range accounts {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", a.ID, a.Name, a.Balance.StringFixed(2), a.CreatedAt.Format(time.RFC3339))
	}
	_ = w.Flush()
}

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

type balanceView struct {
	AccountID int64           `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
}

type transferView struct {
	FromID      int64           `json:"from_id"`
	ToID        int64           `json:"to_id"`
	FromBalance decimal.Decimal `json:"from_balance"`
	ToBalance   decimal.Decimal `json:"to_balance"`
}

type recordView struct {
	ID               int64           `json:"id"`
	Kind             string          `json:"kind"`
	Amount           decimal.Decimal `json:"amount"`
	OccurredAt       time.Time       `json:"occurred_at"`
	Note             string          `json:"note"`
	RelatedAccountID *int64          `json:"related_account_id"`
}

type depositCmd struct {
	commonFlags
	note string
}

func (*depositCmd) Name() string     { return "deposit" }
func (*depositCmd) Synopsis() string { return "credit an account" }
func (*depositCmd) Usage() string {
	return `ledgerctl deposit [-note <text>] <account-id> <amount>
`
}

func (c *depositCmd) SetFlags(f *flag.FlagSet) {
	c.register(f)
	f.StringVar(&c.note, "note", "", "Optional annotation.")
}

func (c *depositCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return runAdjust(ctx, &c.commonFlags, c.note, f, "deposit")
}

type withdrawCmd struct {
	commonFlags
	note string
}

func (*withdrawCmd) Name() string     { return "withdraw" }
func (*withdrawCmd) Synopsis() string { return "debit an account" }
func (*withdrawCmd) Usage() string {
	return `ledgerctl withdraw [-note <text>] <account-id> <amount>
`
}

func (c *withdrawCmd) SetFlags(f *flag.FlagSet) {
	c.register(f)
	f.StringVar(&c.note, "note", "", "Optional annotation.")
}

func (c *withdrawCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return runAdjust(ctx, &c.commonFlags, c.note, f, "withdraw")
}

// runAdjust is the shared deposit/withdraw flow.
func runAdjust(ctx context.Context, c *commonFlags, note string, f *flag.FlagSet, op string) subcommands.ExitStatus {
	if f.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "Error: account id and amount required.")
		return subcommands.ExitUsageError
	}
	amount, err := decimal.NewFromString(f.Arg(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing amount: %v\n", err)
		return subcommands.ExitUsageError
	}
	var balance balanceView
	body := map[string]any{"amount": amount, "note": note}
	if err := c.client().do(ctx, http.MethodPost, "/accounts/"+f.Arg(0)+"/"+op, body, &balance); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("New balance: %s\n", balance.Balance.StringFixed(2))
	return subcommands.ExitSuccess
}

type transferCmd struct {
	commonFlags
	note string
}

func (*transferCmd) Name() string     { return "transfer" }
func (*transferCmd) Synopsis() string { return "move money between two accounts" }
func (*transferCmd) Usage() string {
	return `ledgerctl transfer [-note <text>] <from-id> <to-id> <amount>

  Both legs commit atomically; failure leaves both balances untouched.
`
}

func (c *transferCmd) SetFlags(f *flag.FlagSet) {
	c.register(f)
	f.StringVar(&c.note, "note", "", "Optional annotation stored on both legs.")
}

func (c *transferCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 3 {
		fmt.Fprintln(os.Stderr, "Error: from id, to id, and amount required.")
		return subcommands.ExitUsageError
	}
	var fromID, toID int64
	if _, err := fmt.Sscanf(f.Arg(0)+" "+f.Arg(1), "%d %d", &fromID, &toID); err != nil {
		fmt.Fprintln(os.Stderr, "Error: account ids must be integers.")
		return subcommands.ExitUsageError
	}
	amount, err := decimal.NewFromString(f.Arg(2))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing amount: %v\n", err)
		return subcommands.ExitUsageError
	}
	var result transferView
	body := map[string]any{"from_id": fromID, "to_id": toID, "amount": amount, "note": c.note}
	if err := c.client().do(ctx, http.MethodPost, "/transfers", body, &result); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Transferred %s. From balance: %s, to balance: %s\n",
		amount.StringFixed(2), result.FromBalance.StringFixed(2), result.ToBalance.StringFixed(2))
	return subcommands.ExitSuccess
}

type historyCmd struct {
	commonFlags
	limit int
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "list recent transactions for an account" }
func (*historyCmd) Usage() string {
	return `ledgerctl history [-limit <n>] <account-id>

  Shows the newest records first.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	c.register(f)
	f.IntVar(&c.limit, "limit", 50, "Maximum number of records to fetch.")
}

func (c *historyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: account id required.")
		return subcommands.ExitUsageError
	}
	var records []recordView
	path := fmt.Sprintf("/accounts/%s/transactions?limit=%d", f.Arg(0), c.limit)
	if err := c.client().do(ctx, http.MethodGet, path, nil, &records); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tAMOUNT\tWHEN\tNOTE\tRELATED")
	for _, rec := range records {
		related := ""
		if rec.RelatedAccountID != nil {
			related = fmt.Sprintf("%d", *rec.RelatedAccountID)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			rec.ID, rec.Kind, rec.Amount.StringFixed(2), rec.OccurredAt.Format(time.RFC3339), rec.Note, related)
	}
	_ = w.Flush()
	return subcommands.ExitSuccess
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"ledger/internal/analysis"
	"ledger/internal/cli"
	"ledger/internal/core"
	"ledger/internal/storage"
)

const usage = `Usage: ledger <command> [flags]

Commands:
  account add       create a bank account (-name, -type, -description)
  account list      list bank accounts
  tx add            record a transaction (-date, -description, -amount, -account, -category)
  tx list           list transactions (-from, -to, -category, -account)
  category list     list categories
  category add      create a category (-name)
  category delete   delete a custom category (-name)
  report            financial report (-from, -to, -account)
  backup            copy the database to a timestamped backup file
`

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(slog.LevelInfo)
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.LogLevel)

	if len(os.Args) < 2 || os.Args[1] == "help" || os.Args[1] == "-h" || os.Args[1] == "--help" {
		fmt.Fprint(os.Stderr, usage)
		if len(os.Args) < 2 {
			os.Exit(2)
		}
		return
	}

	store := cli.InitStore(logger, cfg)
	defer store.Close()

	ctx := context.Background()

	var err error
	switch os.Args[1] {
	case "account":
		err = runAccount(ctx, store, os.Args[2:])
	case "tx":
		err = runTx(ctx, store, os.Args[2:])
	case "category":
		err = runCategory(ctx, store, os.Args[2:])
	case "report":
		err = runReport(ctx, store, os.Args[2:])
	case "backup":
		err = runBackup(store)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", userMessage(err))
		os.Exit(1)
	}
}

// userMessage turns a core error into a user-facing line. Only the
// presentation layer formats errors for people.
func userMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrReferential):
		return err.Error() + " (see 'ledger account list')"
	case errors.Is(err, core.ErrStorage):
		return "storage failure: " + err.Error()
	default:
		return err.Error()
	}
}

func runAccount(ctx context.Context, store *storage.Store, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: ledger account <add|list>")
	}
	switch args[0] {
	case "add":
		fs := flag.NewFlagSet("account add", flag.ExitOnError)
		name := fs.String("name", "", "account name (required)")
		accountType := fs.String("type", "", "account type, e.g. Checking (required)")
		description := fs.String("description", "", "optional description")
		fs.Parse(args[1:])

		account, err := store.CreateBankAccount(ctx, *name, *accountType, *description)
		if err != nil {
			return err
		}
		fmt.Printf("Created account #%d: %s (%s)\n", account.ID, account.Name, account.AccountType)
		return nil
	case "list":
		accounts, err := store.GetBankAccounts(ctx)
		if err != nil {
			return err
		}
		if len(accounts) == 0 {
			fmt.Println("No bank accounts yet. Create one with 'ledger account add'.")
			return nil
		}
		fmt.Printf("%-5s %-30s %-15s %s\n", "ID", "NAME", "TYPE", "DESCRIPTION")
		for _, a := range accounts {
			fmt.Printf("%-5d %-30s %-15s %s\n", a.ID, a.Name, a.AccountType, a.Description)
		}
		return nil
	default:
		return fmt.Errorf("unknown account subcommand %q", args[0])
	}
}

func runTx(ctx context.Context, store *storage.Store, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: ledger tx <add|list>")
	}
	switch args[0] {
	case "add":
		fs := flag.NewFlagSet("tx add", flag.ExitOnError)
		dateStr := fs.String("date", time.Now().Format("2006-01-02"), "transaction date (YYYY-MM-DD)")
		description := fs.String("description", "", "description (required)")
		amountStr := fs.String("amount", "", "signed amount, negative for expenses (required)")
		accountID := fs.Int64("account", 0, "bank account id (required)")
		category := fs.String("category", "", "category name, created if new")
		fs.Parse(args[1:])

		date, err := parseDate(*dateStr)
		if err != nil {
			return err
		}
		amount, err := core.ParseAmount(*amountStr)
		if err != nil {
			return err
		}
		txn, err := store.CreateTransaction(ctx, date, *description, amount, *accountID, *category)
		if err != nil {
			return err
		}
		fmt.Printf("Recorded transaction #%d: %s %s\n", txn.ID, txn.Description, signedCurrency(txn.Amount))
		return nil
	case "list":
		fs := flag.NewFlagSet("tx list", flag.ExitOnError)
		from := fs.String("from", "", "inclusive start date (YYYY-MM-DD)")
		to := fs.String("to", "", "inclusive end date (YYYY-MM-DD)")
		category := fs.String("category", "", "exact category name")
		accountID := fs.Int64("account", 0, "bank account id")
		fs.Parse(args[1:])

		filter := core.TransactionFilter{Category: *category, AccountID: *accountID}
		var err error
		if filter.StartDate, err = parseDate(*from); err != nil {
			return err
		}
		if filter.EndDate, err = parseDate(*to); err != nil {
			return err
		}

		txns, err := store.GetTransactions(ctx, filter)
		if err != nil {
			return err
		}
		if len(txns) == 0 {
			fmt.Println("No matching transactions.")
			return nil
		}
		fmt.Printf("%-5s %-12s %12s %-20s %-8s %s\n", "ID", "DATE", "AMOUNT", "CATEGORY", "ACCOUNT", "DESCRIPTION")
		for _, t := range txns {
			name := t.Category
			if name == "" {
				name = analysis.Uncategorized
			}
			fmt.Printf("%-5d %-12s %12s %-20s %-8d %s\n",
				t.ID, t.Date.Format("2006-01-02"), signedCurrency(t.Amount), name, t.AccountID, t.Description)
		}
		return nil
	default:
		return fmt.Errorf("unknown tx subcommand %q", args[0])
	}
}

func runCategory(ctx context.Context, store *storage.Store, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: ledger category <list|add|delete>")
	}
	switch args[0] {
	case "list":
		categories, err := store.GetCategories(ctx)
		if err != nil {
			return err
		}
		for _, c := range categories {
			if core.IsDefaultCategory(c.Name) {
				fmt.Printf("%s (default)\n", c.Name)
			} else {
				fmt.Println(c.Name)
			}
		}
		return nil
	case "add":
		fs := flag.NewFlagSet("category add", flag.ExitOnError)
		name := fs.String("name", "", "category name (required)")
		fs.Parse(args[1:])

		canonical, err := store.GetOrCreateCategory(ctx, *name)
		if err != nil {
			return err
		}
		fmt.Printf("Category %q is available\n", canonical)
		return nil
	case "delete":
		fs := flag.NewFlagSet("category delete", flag.ExitOnError)
		name := fs.String("name", "", "category name (required)")
		fs.Parse(args[1:])

		deleted, err := store.DeleteCategory(ctx, *name)
		if err != nil {
			return err
		}
		switch {
		case deleted:
			fmt.Printf("Deleted category %q\n", *name)
		case core.IsDefaultCategory(*name):
			fmt.Printf("Category %q is a protected default and was not deleted\n", *name)
		default:
			fmt.Printf("Category %q does not exist\n", *name)
		}
		return nil
	default:
		return fmt.Errorf("unknown category subcommand %q", args[0])
	}
}

func runReport(ctx context.Context, store *storage.Store, args []string) error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	from := fs.String("from", "", "inclusive start date (YYYY-MM-DD)")
	to := fs.String("to", "", "inclusive end date (YYYY-MM-DD)")
	accountID := fs.Int64("account", 0, "bank account id, 0 for all accounts")
	fs.Parse(args)

	start, err := parseDate(*from)
	if err != nil {
		return err
	}
	end, err := parseDate(*to)
	if err != nil {
		return err
	}

	report, err := analysis.Report(ctx, store, start, end, *accountID)
	if err != nil {
		return err
	}
	fmt.Print(report)
	return nil
}

func runBackup(store *storage.Store) error {
	path, err := store.Backup()
	if err != nil {
		return err
	}
	fmt.Printf("Database backed up to: %s\n", path)
	return nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q (want YYYY-MM-DD)", core.ErrValidation, s)
	}
	return t, nil
}

func signedCurrency(d decimal.Decimal) string {
	if d.Sign() < 0 {
		return "-" + analysis.FormatCurrency(d)
	}
	return analysis.FormatCurrency(d)
}

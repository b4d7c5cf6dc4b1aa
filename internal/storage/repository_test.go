package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	store, err := Open(filepath.Join(dir, "ledger.db"), filepath.Join(dir, "backups"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func amount(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := core.ParseAmount(s)
	if err != nil {
		t.Fatalf("parse amount %q: %v", s, err)
	}
	return d
}

func categoryNames(t *testing.T, store *Store) map[string]bool {
	t.Helper()
	categories, err := store.GetCategories(context.Background())
	if err != nil {
		t.Fatalf("get categories: %v", err)
	}
	names := make(map[string]bool, len(categories))
	for _, c := range categories {
		names[c.Name] = true
	}
	return names
}

func TestOpenSeedsDefaultCategories(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "ledger.db")

	store, err := Open(dbPath, filepath.Join(dir, "backups"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	names := categoryNames(t, store)
	for _, want := range core.DefaultCategories {
		if !names[want] {
			t.Errorf("default category %q missing after open", want)
		}
	}
	store.Close()

	// Reopening must not duplicate the seed set.
	store, err = Open(dbPath, filepath.Join(dir, "backups"))
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer store.Close()

	categories, err := store.GetCategories(ctx)
	if err != nil {
		t.Fatalf("get categories: %v", err)
	}
	if len(categories) != len(core.DefaultCategories) {
		t.Fatalf("expected %d categories after reopen, got %d", len(core.DefaultCategories), len(categories))
	}
}

func TestCreateBankAccount(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	account, err := store.CreateBankAccount(ctx, "Main Checking", "Checking", "daily spending")
	if err != nil {
		t.Fatalf("create bank account: %v", err)
	}
	if account.ID == 0 {
		t.Error("expected assigned id")
	}
	if account.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}

	got, err := store.GetBankAccount(ctx, account.ID)
	if err != nil {
		t.Fatalf("get bank account: %v", err)
	}
	if got == nil {
		t.Fatal("expected account, got nil")
	}
	if got.Name != "Main Checking" || got.AccountType != "Checking" || got.Description != "daily spending" {
		t.Errorf("round-trip mismatch: %+v", got)
	}
	if !got.CreatedAt.Equal(account.CreatedAt) {
		t.Errorf("created_at mismatch: %v != %v", got.CreatedAt, account.CreatedAt)
	}
}

func TestCreateBankAccountValidation(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if _, err := store.CreateBankAccount(ctx, "", "Checking", ""); !errors.Is(err, core.ErrValidation) {
		t.Errorf("empty name: expected validation error, got %v", err)
	}
	if _, err := store.CreateBankAccount(ctx, "Main", "  ", ""); !errors.Is(err, core.ErrValidation) {
		t.Errorf("blank type: expected validation error, got %v", err)
	}

	accounts, err := store.GetBankAccounts(ctx)
	if err != nil {
		t.Fatalf("get bank accounts: %v", err)
	}
	if len(accounts) != 0 {
		t.Errorf("rejected inputs must not persist, found %d accounts", len(accounts))
	}
}

func TestGetBankAccountAbsent(t *testing.T) {
	store := newTestStore(t)

	got, err := store.GetBankAccount(context.Background(), 999)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for unknown id, got %+v", got)
	}
}

func TestGetOrCreateCategoryIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	first, err := store.GetOrCreateCategory(ctx, "Subscriptions")
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := store.GetOrCreateCategory(ctx, "Subscriptions")
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if first != second || first != "Subscriptions" {
		t.Errorf("expected canonical name both times, got %q and %q", first, second)
	}

	categories, err := store.GetCategories(ctx)
	if err != nil {
		t.Fatalf("get categories: %v", err)
	}
	count := 0
	for _, c := range categories {
		if c.Name == "Subscriptions" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected exactly one stored row, got %d", count)
	}
}

func TestGetOrCreateCategoryExistingDefault(t *testing.T) {
	name, err := newTestStore(t).GetOrCreateCategory(context.Background(), "Food")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "Food" {
		t.Errorf("expected Food, got %q", name)
	}
}

func TestDeleteCategory(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	// Defaults are protected: declined, not an error.
	deleted, err := store.DeleteCategory(ctx, "Food")
	if err != nil {
		t.Fatalf("delete default: %v", err)
	}
	if deleted {
		t.Error("default category must not be deletable")
	}
	if !categoryNames(t, store)["Food"] {
		t.Error("Food must remain after declined deletion")
	}

	// Unknown names are also a false return.
	deleted, err = store.DeleteCategory(ctx, "Nonexistent")
	if err != nil {
		t.Fatalf("delete unknown: %v", err)
	}
	if deleted {
		t.Error("unknown category reported as deleted")
	}

	// Custom categories delete cleanly.
	if _, err := store.GetOrCreateCategory(ctx, "Custom1"); err != nil {
		t.Fatalf("create custom: %v", err)
	}
	deleted, err = store.DeleteCategory(ctx, "Custom1")
	if err != nil {
		t.Fatalf("delete custom: %v", err)
	}
	if !deleted {
		t.Error("expected custom category to be deleted")
	}
	if categoryNames(t, store)["Custom1"] {
		t.Error("Custom1 still present after deletion")
	}
}

func TestDeleteCategoryKeepsTransactionLabel(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	account, err := store.CreateBankAccount(ctx, "Main", "Checking", "")
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	if _, err := store.CreateTransaction(ctx, date(2025, 3, 1), "Gym", amount(t, "-30"), account.ID, "Fitness"); err != nil {
		t.Fatalf("create transaction: %v", err)
	}

	deleted, err := store.DeleteCategory(ctx, "Fitness")
	if err != nil {
		t.Fatalf("delete category: %v", err)
	}
	if !deleted {
		t.Fatal("expected deletion")
	}

	// Category is a denormalized string: the label survives the row.
	txns, err := store.GetTransactions(ctx, core.TransactionFilter{})
	if err != nil {
		t.Fatalf("get transactions: %v", err)
	}
	if len(txns) != 1 || txns[0].Category != "Fitness" {
		t.Errorf("expected transaction to keep its category label, got %+v", txns)
	}
}

func TestCreateTransactionRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	account, err := store.CreateBankAccount(ctx, "Main", "Checking", "")
	if err != nil {
		t.Fatalf("create account: %v", err)
	}

	when := date(2025, 2, 10)
	created, err := store.CreateTransaction(ctx, when, "Groceries", amount(t, "-42.50"), account.ID, "Food")
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	if created.ID == 0 {
		t.Error("expected assigned id")
	}

	txns, err := store.GetTransactions(ctx, core.TransactionFilter{})
	if err != nil {
		t.Fatalf("get transactions: %v", err)
	}
	if len(txns) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txns))
	}
	got := txns[0]
	if got.ID != created.ID || !got.Date.Equal(when) || got.Description != "Groceries" ||
		!got.Amount.Equal(amount(t, "-42.50")) || got.Category != "Food" || got.AccountID != account.ID {
		t.Errorf("round-trip mismatch: %+v", got)
	}
	if !got.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("created_at mismatch: %v != %v", got.CreatedAt, created.CreatedAt)
	}
}

func TestCreateTransactionUncategorized(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	account, err := store.CreateBankAccount(ctx, "Main", "Checking", "")
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	created, err := store.CreateTransaction(ctx, date(2025, 2, 10), "Cash withdrawal", amount(t, "-40"), account.ID, "")
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	if created.Category != "" {
		t.Errorf("expected empty category, got %q", created.Category)
	}
}

func TestCreateTransactionUnknownAccount(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.CreateTransaction(ctx, date(2025, 2, 10), "Groceries", amount(t, "-10"), 42, "Ghost")
	if !errors.Is(err, core.ErrReferential) {
		t.Fatalf("expected referential error, got %v", err)
	}

	// The whole unit of work rolls back: no transaction and no orphan
	// category row from the get-or-create step.
	txns, err := store.GetTransactions(ctx, core.TransactionFilter{})
	if err != nil {
		t.Fatalf("get transactions: %v", err)
	}
	if len(txns) != 0 {
		t.Errorf("expected no persisted transactions, got %d", len(txns))
	}
	if categoryNames(t, store)["Ghost"] {
		t.Error("orphan category row persisted after rollback")
	}
}

func TestGetTransactionsFilters(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	checking, err := store.CreateBankAccount(ctx, "Checking", "Checking", "")
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	savings, err := store.CreateBankAccount(ctx, "Savings", "Savings", "")
	if err != nil {
		t.Fatalf("create account: %v", err)
	}

	seed := []struct {
		day      int
		desc     string
		amt      string
		account  int64
		category string
	}{
		{1, "Salary", "2500", checking.ID, "Income"},
		{5, "Rent", "-900", checking.ID, "Housing"},
		{10, "Groceries", "-60", checking.ID, "Food"},
		{15, "Interest", "1.25", savings.ID, "Income"},
		{20, "Cinema", "-15", checking.ID, "Entertainment"},
	}
	for _, s := range seed {
		if _, err := store.CreateTransaction(ctx, date(2025, 4, s.day), s.desc, amount(t, s.amt), s.account, s.category); err != nil {
			t.Fatalf("seed %q: %v", s.desc, err)
		}
	}

	t.Run("no filters returns all", func(t *testing.T) {
		txns, err := store.GetTransactions(ctx, core.TransactionFilter{})
		if err != nil {
			t.Fatal(err)
		}
		if len(txns) != len(seed) {
			t.Fatalf("expected %d, got %d", len(seed), len(txns))
		}
	})

	t.Run("date bounds inclusive", func(t *testing.T) {
		txns, err := store.GetTransactions(ctx, core.TransactionFilter{
			StartDate: date(2025, 4, 5),
			EndDate:   date(2025, 4, 15),
		})
		if err != nil {
			t.Fatal(err)
		}
		if len(txns) != 3 {
			t.Fatalf("expected 3 transactions in [Apr 5, Apr 15], got %d", len(txns))
		}
		if txns[0].Description != "Rent" || txns[2].Description != "Interest" {
			t.Errorf("boundary dates must be included: %+v", txns)
		}
	})

	t.Run("category match", func(t *testing.T) {
		txns, err := store.GetTransactions(ctx, core.TransactionFilter{Category: "Income"})
		if err != nil {
			t.Fatal(err)
		}
		if len(txns) != 2 {
			t.Fatalf("expected 2 Income transactions, got %d", len(txns))
		}
	})

	t.Run("account match", func(t *testing.T) {
		txns, err := store.GetTransactions(ctx, core.TransactionFilter{AccountID: savings.ID})
		if err != nil {
			t.Fatal(err)
		}
		if len(txns) != 1 || txns[0].Description != "Interest" {
			t.Fatalf("expected only the savings transaction, got %+v", txns)
		}
	})

	t.Run("conjunctive filters", func(t *testing.T) {
		txns, err := store.GetTransactions(ctx, core.TransactionFilter{
			StartDate: date(2025, 4, 1),
			EndDate:   date(2025, 4, 30),
			Category:  "Income",
			AccountID: checking.ID,
		})
		if err != nil {
			t.Fatal(err)
		}
		if len(txns) != 1 || txns[0].Description != "Salary" {
			t.Fatalf("expected only Salary, got %+v", txns)
		}
	})
}

func TestBackup(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if _, err := store.CreateBankAccount(ctx, "Main", "Checking", ""); err != nil {
		t.Fatalf("create account: %v", err)
	}

	path, err := store.Backup()
	if err != nil {
		t.Fatalf("backup: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat backup: %v", err)
	}
	if info.Size() == 0 {
		t.Error("backup file is empty")
	}
	if filepath.Dir(path) != store.backupDir {
		t.Errorf("backup written outside backup dir: %s", path)
	}
}

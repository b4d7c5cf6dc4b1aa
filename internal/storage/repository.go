// Package storage is the sole gateway to the ledger's persisted state. It
// owns the SQLite connection, enforces referential integrity between
// accounts, categories, and transactions, and seeds the default category
// set. Every mutating operation runs inside exactly one unit of work that
// commits on success and rolls back on any failure.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"ledger/internal/core"
)

// timeLayout stores timestamps as UTC text so SQL range predicates compare
// correctly as strings.
const timeLayout = "2006-01-02 15:04:05"

type Store struct {
	db        *sql.DB
	path      string
	backupDir string
}

// Open opens (creating if necessary) the SQLite store at dbPath, brings the
// schema up to date, and seeds the default categories. Idempotent: calling
// it on every process start is the expected usage.
func Open(dbPath, backupDir string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	store := &Store{db: db, path: dbPath, backupDir: backupDir}

	if err := store.BootstrapDefaultCategories(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("bootstrap default categories: %w", err)
	}

	return store, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// withTx runs fn inside a unit of work: commit when fn returns nil, roll
// back otherwise. The deferred Rollback is a no-op after a successful
// commit and releases the connection on every exit path.
func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin transaction", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return storageErr("commit transaction", err)
	}
	return nil
}

// BootstrapDefaultCategories inserts any missing default category in one
// unit of work. No-op once all defaults exist.
func (s *Store) BootstrapDefaultCategories(ctx context.Context) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		now := formatTime(time.Now())
		for _, name := range core.DefaultCategories {
			_, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO categories (name, created_at) VALUES (?, ?)`,
				name, now)
			if err != nil {
				return storageErr("seed default category", err)
			}
		}
		return nil
	})
}

// CreateBankAccount persists a new account and returns it with its assigned
// id. Name and account type are required; description may be empty.
func (s *Store) CreateBankAccount(ctx context.Context, name, accountType, description string) (core.BankAccount, error) {
	account := core.BankAccount{
		Name:        strings.TrimSpace(name),
		AccountType: strings.TrimSpace(accountType),
		Description: description,
		CreatedAt:   nowUTC(),
	}
	if err := account.Validate(); err != nil {
		return core.BankAccount{}, err
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO bank_accounts (name, account_type, description, created_at)
			 VALUES (?, ?, ?, ?)`,
			account.Name, account.AccountType, nullString(account.Description), formatTime(account.CreatedAt))
		if err != nil {
			return storageErr("insert bank account", err)
		}
		account.ID, err = res.LastInsertId()
		if err != nil {
			return storageErr("bank account id", err)
		}
		return nil
	})
	if err != nil {
		return core.BankAccount{}, err
	}

	slog.InfoContext(ctx, "Bank account created",
		"id", account.ID, "name", account.Name, "type", account.AccountType)
	return account, nil
}

// GetBankAccounts returns all accounts in insertion order.
func (s *Store) GetBankAccounts(ctx context.Context) ([]core.BankAccount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, account_type, description, created_at FROM bank_accounts ORDER BY id`)
	if err != nil {
		return nil, storageErr("query bank accounts", err)
	}
	defer rows.Close()

	var accounts []core.BankAccount
	for rows.Next() {
		account, err := scanBankAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate bank accounts", err)
	}
	return accounts, nil
}

// GetBankAccount returns the account with the given id, or nil when no such
// account exists. Absence is not an error.
func (s *Store) GetBankAccount(ctx context.Context, id int64) (*core.BankAccount, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, account_type, description, created_at FROM bank_accounts WHERE id = ?`, id)
	account, err := scanBankAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetOrCreateCategory returns the canonical name of the category, inserting
// it first when absent. Calling it with an existing name writes nothing.
func (s *Store) GetOrCreateCategory(ctx context.Context, name string) (string, error) {
	if err := core.ValidateCategoryName(name); err != nil {
		return "", err
	}

	var canonical string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		canonical, err = getOrCreateCategoryTx(ctx, tx, name)
		return err
	})
	if err != nil {
		return "", err
	}
	return canonical, nil
}

func getOrCreateCategoryTx(ctx context.Context, tx *sql.Tx, name string) (string, error) {
	var existing string
	err := tx.QueryRowContext(ctx,
		`SELECT name FROM categories WHERE name = ?`, name).Scan(&existing)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", storageErr("query category", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO categories (name, created_at) VALUES (?, ?)`,
		name, formatTime(time.Now()))
	if err != nil {
		return "", storageErr("insert category", err)
	}
	slog.InfoContext(ctx, "Category created", "name", name)
	return name, nil
}

// GetCategories returns all categories, defaults and custom, ordered by name.
func (s *Store) GetCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, storageErr("query categories", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		var (
			c         core.Category
			createdAt string
		)
		if err := rows.Scan(&c.ID, &c.Name, &createdAt); err != nil {
			return nil, storageErr("scan category", err)
		}
		c.CreatedAt, err = parseTime(createdAt)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate categories", err)
	}
	return categories, nil
}

// DeleteCategory removes a custom category by name and reports whether a
// deletion happened. Default categories and unknown names return false, not
// an error. Transactions already labeled with the name keep the string:
// category is denormalized, so no cascade applies.
func (s *Store) DeleteCategory(ctx context.Context, name string) (bool, error) {
	if core.IsDefaultCategory(name) {
		return false, nil
	}

	var deleted bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE name = ?`, name)
		if err != nil {
			return storageErr("delete category", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return storageErr("delete category", err)
		}
		deleted = n > 0
		return nil
	})
	if err != nil {
		return false, err
	}

	if deleted {
		slog.InfoContext(ctx, "Category deleted", "name", name)
	}
	return deleted, nil
}

// CreateTransaction persists a new transaction. The referenced account must
// exist, and a non-empty category is resolved via get-or-create. Everything
// happens in one unit of work: a failure leaves neither the transaction nor
// a freshly created category behind.
func (s *Store) CreateTransaction(ctx context.Context, date time.Time, description string, amount decimal.Decimal, accountID int64, category string) (core.Transaction, error) {
	txn := core.Transaction{
		Date:        date.UTC().Truncate(time.Second),
		Description: description,
		Amount:      amount,
		Category:    category,
		AccountID:   accountID,
		CreatedAt:   nowUTC(),
	}
	if err := txn.Validate(); err != nil {
		return core.Transaction{}, err
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx,
			`SELECT 1 FROM bank_accounts WHERE id = ?`, txn.AccountID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: account %d", core.ErrUnknownAccount, txn.AccountID)
		}
		if err != nil {
			return storageErr("check bank account", err)
		}

		if txn.Category != "" {
			txn.Category, err = getOrCreateCategoryTx(ctx, tx, txn.Category)
			if err != nil {
				return err
			}
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO transactions (date, description, amount, category, account_id, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			formatTime(txn.Date), txn.Description, txn.Amount.StringFixed(2),
			nullString(txn.Category), txn.AccountID, formatTime(txn.CreatedAt))
		if err != nil {
			return storageErr("insert transaction", err)
		}
		txn.ID, err = res.LastInsertId()
		if err != nil {
			return storageErr("transaction id", err)
		}
		return nil
	})
	if err != nil {
		return core.Transaction{}, err
	}

	slog.InfoContext(ctx, "Transaction created",
		"id", txn.ID, "account_id", txn.AccountID,
		"amount", txn.Amount.StringFixed(2), "category", txn.Category)
	return txn, nil
}

// GetTransactions returns every transaction matching all provided filters.
// Date bounds are inclusive on both ends; unset fields impose no constraint.
func (s *Store) GetTransactions(ctx context.Context, filter core.TransactionFilter) ([]core.Transaction, error) {
	query := `SELECT id, date, description, amount, category, account_id, created_at FROM transactions`
	var (
		conds []string
		args  []any
	)
	if !filter.StartDate.IsZero() {
		conds = append(conds, "date >= ?")
		args = append(args, formatTime(filter.StartDate))
	}
	if !filter.EndDate.IsZero() {
		conds = append(conds, "date <= ?")
		args = append(args, formatTime(filter.EndDate))
	}
	if filter.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.AccountID != 0 {
		conds = append(conds, "account_id = ?")
		args = append(args, filter.AccountID)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("query transactions", err)
	}
	defer rows.Close()

	var txns []core.Transaction
	for rows.Next() {
		var (
			txn             core.Transaction
			date, createdAt string
			amount          string
			category        sql.NullString
		)
		if err := rows.Scan(&txn.ID, &date, &txn.Description, &amount, &category, &txn.AccountID, &createdAt); err != nil {
			return nil, storageErr("scan transaction", err)
		}
		if txn.Date, err = parseTime(date); err != nil {
			return nil, err
		}
		if txn.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if txn.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, storageErr("parse stored amount", err)
		}
		txn.Category = category.String
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate transactions", err)
	}
	return txns, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBankAccount(row rowScanner) (core.BankAccount, error) {
	var (
		account     core.BankAccount
		description sql.NullString
		createdAt   string
	)
	err := row.Scan(&account.ID, &account.Name, &account.AccountType, &description, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.BankAccount{}, err
	}
	if err != nil {
		return core.BankAccount{}, storageErr("scan bank account", err)
	}
	account.Description = description.String
	account.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return core.BankAccount{}, err
	}
	return account, nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", core.ErrStorage, op, err)
}

func nowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

func formatTime(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, storageErr("parse stored timestamp", err)
	}
	return t, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

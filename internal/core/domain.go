package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCategories are seeded at initialization and protected from deletion.
// The category set stays open: custom names are created on demand when a
// transaction references them.
var DefaultCategories = []string{
	"Food", "Housing", "Transportation", "Utilities",
	"Healthcare", "Entertainment", "Shopping",
	"Education", "Income", "Other",
}

// IsDefaultCategory reports whether name is one of the protected defaults.
func IsDefaultCategory(name string) bool {
	for _, c := range DefaultCategories {
		if c == name {
			return true
		}
	}
	return false
}

type (
	BankAccount struct {
		ID          int64
		Name        string
		AccountType string
		Description string
		CreatedAt   time.Time
	}

	Category struct {
		ID        int64
		Name      string
		CreatedAt time.Time
	}

	Transaction struct {
		ID          int64
		Date        time.Time
		Description string
		Amount      decimal.Decimal
		Category    string // empty means uncategorized
		AccountID   int64
		CreatedAt   time.Time
	}

	// TransactionFilter narrows GetTransactions. Zero-valued fields impose
	// no constraint; date bounds are inclusive on both ends.
	TransactionFilter struct {
		StartDate time.Time
		EndDate   time.Time
		Category  string
		AccountID int64
	}
)

func (a BankAccount) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if len(a.Name) > 100 {
		return ErrNameTooLong
	}
	if strings.TrimSpace(a.AccountType) == "" {
		return ErrEmptyAccountType
	}
	if len(a.AccountType) > 50 {
		return ErrAccountTypeTooLong
	}
	return nil
}

// ValidateCategoryName checks a category name used either as a Category row
// or as the denormalized label on a transaction.
func ValidateCategoryName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyCategoryName
	}
	if len(name) > 50 {
		return ErrCategoryNameTooLong
	}
	return nil
}

func (t Transaction) Validate() error {
	if t.Date.IsZero() {
		return ErrZeroDate
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return ErrDescriptionTooLong
	}
	if err := ValidateAmount(t.Amount); err != nil {
		return err
	}
	if t.AccountID <= 0 {
		return ErrMissingAccount
	}
	if t.Category != "" {
		return ValidateCategoryName(t.Category)
	}
	return nil
}

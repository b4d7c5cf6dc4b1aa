// Package analysis computes read-side aggregates over storage query results
// and renders them as text. It never touches persisted state directly.
package analysis

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

// Uncategorized is the label substituted for transactions with no category.
const Uncategorized = "Uncategorized"

// TransactionSource is the slice of the storage engine the aggregations need.
type TransactionSource interface {
	GetTransactions(ctx context.Context, filter core.TransactionFilter) ([]core.Transaction, error)
}

// AccountBalance sums transaction amounts, optionally limited to one account
// (accountID > 0) and to dates up to and including endDate. No matching
// transactions yields exactly zero.
func AccountBalance(ctx context.Context, src TransactionSource, accountID int64, endDate time.Time) (decimal.Decimal, error) {
	txns, err := src.GetTransactions(ctx, core.TransactionFilter{
		AccountID: accountID,
		EndDate:   endDate,
	})
	if err != nil {
		return decimal.Zero, err
	}

	balance := decimal.Zero
	for _, t := range txns {
		balance = balance.Add(t.Amount)
	}
	return balance, nil
}

// CategorySummary groups matching transactions by category and sums their
// amounts, preserving sign. Transactions without a category land under
// Uncategorized.
func CategorySummary(ctx context.Context, src TransactionSource, start, end time.Time, accountID int64) (map[string]decimal.Decimal, error) {
	txns, err := src.GetTransactions(ctx, core.TransactionFilter{
		StartDate: start,
		EndDate:   end,
		AccountID: accountID,
	})
	if err != nil {
		return nil, err
	}

	summary := make(map[string]decimal.Decimal)
	for _, t := range txns {
		name := t.Category
		if name == "" {
			name = Uncategorized
		}
		summary[name] = summary[name].Add(t.Amount)
	}
	return summary, nil
}

package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ledger/internal/core"
)

const chartWidth = 40

// ReportSource adds the account lookup the report header needs.
type ReportSource interface {
	TransactionSource
	GetBankAccount(ctx context.Context, id int64) (*core.BankAccount, error)
}

// Report assembles the full financial report: header, balance, and income
// and expense charts. accountID 0 covers all accounts; zero dates impose no
// bound.
func Report(ctx context.Context, src ReportSource, start, end time.Time, accountID int64) (string, error) {
	accountName := "All Accounts"
	if accountID > 0 {
		account, err := src.GetBankAccount(ctx, accountID)
		if err != nil {
			return "", err
		}
		if account != nil {
			accountName = fmt.Sprintf("%s (%s)", account.Name, account.AccountType)
		}
	}

	balance, err := AccountBalance(ctx, src, accountID, end)
	if err != nil {
		return "", err
	}
	summary, err := CategorySummary(ctx, src, start, end, accountID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Financial Report - %s\n", accountName)
	if !start.IsZero() {
		fmt.Fprintf(&b, "From: %s\n", start.Format("2006-01-02"))
	}
	if !end.IsZero() {
		fmt.Fprintf(&b, "To: %s\n", end.Format("2006-01-02"))
	}

	sign := ""
	if balance.Sign() < 0 {
		sign = "-"
	}
	fmt.Fprintf(&b, "\nCurrent Balance: %s%s\n", sign, FormatCurrency(balance))

	fmt.Fprintf(&b, "\nIncome Summary:\n%s\n", RenderBarChart(summary, chartWidth, true))
	fmt.Fprintf(&b, "\nExpense Summary:\n%s\n", RenderBarChart(summary, chartWidth, false))

	return b.String(), nil
}

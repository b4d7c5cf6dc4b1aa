package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// NoData is returned by RenderBarChart when nothing matches the sign filter.
const NoData = "No data available"

// RenderBarChart renders summary entries whose sign matches showPositive
// (zero counts as positive) as horizontal bars. Bars scale against the
// largest absolute value in the filtered set, rows sort by descending
// absolute value, ties by name.
func RenderBarChart(summary map[string]decimal.Decimal, width int, showPositive bool) string {
	type entry struct {
		name  string
		value decimal.Decimal
	}
	var entries []entry
	for name, value := range summary {
		if (value.Sign() >= 0) == showPositive {
			entries = append(entries, entry{name, value})
		}
	}
	if len(entries) == 0 {
		return NoData
	}

	maxAbs := entries[0].value.Abs()
	for _, e := range entries[1:] {
		if a := e.value.Abs(); a.GreaterThan(maxAbs) {
			maxAbs = a
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		ai, aj := entries[i].value.Abs(), entries[j].value.Abs()
		if !ai.Equal(aj) {
			return ai.GreaterThan(aj)
		}
		return entries[i].name < entries[j].name
	})

	scale := decimal.NewFromInt(int64(width))
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		barLen := 0
		if maxAbs.Sign() > 0 {
			barLen = int(e.value.Abs().Div(maxAbs).Mul(scale).Round(0).IntPart())
		}
		bar := strings.Repeat("█", barLen)
		lines = append(lines, fmt.Sprintf("%-20s %10s %s", e.name, FormatCurrency(e.value), bar))
	}
	return strings.Join(lines, "\n")
}

// FormatCurrency renders the absolute value as $1,234.56.
func FormatCurrency(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	dot := strings.Index(s, ".")
	intPart, fracPart := s[:dot], s[dot:]

	var b strings.Builder
	b.WriteByte('$')
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteString(fracPart)
	return b.String()
}

package sheets

import (
	"context"

	"budgettracker/internal/core"
)

// Ports for outbound adapters.
type (
	// ReportExporter writes a month's budget-vs-expense report somewhere
	// outside the app and returns a reference to where it landed.
	ReportExporter interface {
		ExportReport(ctx context.Context, month core.Month, rows []core.ReportRow) (ref string, err error)
	}
)

// ReportHeader is the column header row of an exported report.
var ReportHeader = []any{"Month", "Category", "Budget", "Spent", "Remaining", "Usage %"}

// ReportValues lays out rows as a values matrix: the header followed by
// one line per category. Amounts are plain decimal numbers so the sheet
// can compute with them.
func ReportValues(month core.Month, rows []core.ReportRow) [][]any {
	out := make([][]any, 0, len(rows)+1)
	out = append(out, ReportHeader)
	for _, r := range rows {
		out = append(out, []any{
			month.String(),
			r.CategoryName,
			r.Budget.Float(),
			r.Spent.Float(),
			r.Remaining.Float(),
			core.UsagePercent(r.Spent, r.Budget),
		})
	}
	return out
}

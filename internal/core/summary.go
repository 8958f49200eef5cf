package core

import "math"

// NoTopCategory is shown when nothing has been spent yet.
const NoTopCategory = "N/A"

// DashboardSummary aggregates the per-category dashboard rows for the
// headline cards.
type DashboardSummary struct {
	TotalSpent      Money
	RemainingBudget Money
	TopCategory     string
}

// Summarize totals the dashboard rows. Remaining budget is the sum of
// limit minus spent over every row, so unbudgeted spending reduces it.
// The top category is the one with the strictly highest spending.
func Summarize(rows []DashboardCategory) DashboardSummary {
	s := DashboardSummary{TopCategory: NoTopCategory}
	var top int64
	for _, r := range rows {
		s.TotalSpent = s.TotalSpent.Add(r.Spent)
		s.RemainingBudget = s.RemainingBudget.Add(r.Limit.Sub(r.Spent))
		if r.Spent.Cents > top {
			top = r.Spent.Cents
			s.TopCategory = r.Name
		}
	}
	if s.TopCategory == "" {
		s.TopCategory = NoTopCategory
	}
	return s
}

// UsagePercent returns spent as a rounded percentage of limit, or 0 when
// there is no limit. The result is not capped.
func UsagePercent(spent, limit Money) int {
	if limit.Cents <= 0 {
		return 0
	}
	return int(math.Round(float64(spent.Cents) / float64(limit.Cents) * 100))
}

// StatusLevel classifies budget usage for styling.
type StatusLevel string

const (
	LevelCritical StatusLevel = "error"
	LevelWarning  StatusLevel = "warning"
	LevelOK       StatusLevel = "success"
	LevelIdle     StatusLevel = "default"
)

// BudgetStatus is the label and level shown next to a category's usage.
type BudgetStatus struct {
	Label string
	Level StatusLevel
}

// StatusFor maps a usage percentage to its status.
func StatusFor(percent int) BudgetStatus {
	switch {
	case percent >= 90:
		return BudgetStatus{Label: "Critical", Level: LevelCritical}
	case percent >= 70:
		return BudgetStatus{Label: "Warning", Level: LevelWarning}
	case percent > 0:
		return BudgetStatus{Label: "On Track", Level: LevelOK}
	default:
		return BudgetStatus{Label: "Not Started", Level: LevelIdle}
	}
}

// BarWidth scales v against max to a 0-100 width, keeping any non-zero
// value visible.
func BarWidth(v, max Money) int {
	if max.Cents <= 0 || v.Cents <= 0 {
		return 0
	}
	width := int((v.Cents*100 + max.Cents/2) / max.Cents)
	if width < 2 {
		width = 2
	}
	if width > 100 {
		width = 100
	}
	return width
}

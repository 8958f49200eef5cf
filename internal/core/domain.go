package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultCategoryColor is used when a category is created without a colour.
const DefaultCategoryColor = "#1976d2"

// DeletedCategoryName labels budgets whose category no longer exists.
const DeletedCategoryName = "Deleted Category"

type (
	// Month identifies a calendar month, rendered as YYYY-MM.
	Month struct {
		Year  int
		Month int // 1-12
	}

	Money struct {
		Cents int64
	}

	Category struct {
		ID    string
		Name  string
		Color string
	}

	// CategoryRef is the category a budget points at. Name and Color are
	// empty when the server did not populate the reference.
	CategoryRef struct {
		ID    string
		Name  string
		Color string
	}

	Budget struct {
		ID       string
		Category CategoryRef
		Limit    Money
		Month    Month
	}

	Expense struct {
		Amount      Money
		Description string
		CategoryID  string
	}

	// DashboardCategory is one row of the server-computed dashboard.
	DashboardCategory struct {
		ID        string
		Name      string
		Color     string
		Spent     Money
		Limit     Money
		Remaining Money
	}

	// ReportRow is one row of the budget-vs-expense report.
	ReportRow struct {
		CategoryID   string
		CategoryName string
		Spent        Money
		Budget       Money
		Remaining    Money
	}
)

var (
	ErrInvalidMonth        = errors.New("invalid month")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrEmptyDescription    = errors.New("empty description")
	ErrMissingCategory     = errors.New("please select a category")
	ErrEmptyCategoryName   = errors.New("category name cannot be empty")
	ErrDuplicateCategory   = errors.New("category name already exists")
	ErrInvalidLimit        = errors.New("please enter a valid positive limit")
	ErrMissingMonth        = errors.New("please select a month")
	ErrDuplicateBudget     = errors.New("budget for this category already exists this month")
	ErrDescriptionTooLong  = errors.New("description too long (max 200 characters)")
	ErrCategoryNameTooLong = errors.New("category name too long (max 60 characters)")
)

// ParseMonth parses a YYYY-MM string.
func ParseMonth(s string) (Month, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Month{}, ErrMissingMonth
	}
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return Month{Year: t.Year(), Month: int(t.Month())}, nil
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: int(t.Month())}
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, m.Month)
}

func (m Month) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

func (m Month) Validate() error {
	if m.IsZero() {
		return ErrMissingMonth
	}
	if m.Month < 1 || m.Month > 12 || m.Year < 1 {
		return ErrInvalidMonth
	}
	return nil
}

// Label renders the month for headings, e.g. "March 2025".
func (m Month) Label() string {
	return time.Month(m.Month).String() + " " + strconv.Itoa(m.Year)
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.CategoryID) == "" {
		return ErrMissingCategory
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return ErrDescriptionTooLong
	}
	return nil
}

// DisplayName returns the category name, or DeletedCategoryName when the
// reference was not populated.
func (r CategoryRef) DisplayName() string {
	if r.Name == "" {
		return DeletedCategoryName
	}
	return r.Name
}

// ValidateCategoryName checks a category name before it is sent to the
// server. editingID is the category being renamed, empty on create.
// Names are compared trimmed and case-insensitively.
func ValidateCategoryName(name string, existing []Category, editingID string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyCategoryName
	}
	if len(name) > 60 {
		return ErrCategoryNameTooLong
	}
	for _, c := range existing {
		if c.ID != editingID && strings.EqualFold(c.Name, name) {
			return ErrDuplicateCategory
		}
	}
	return nil
}

// ValidateNewBudget checks a budget draft against the budgets already
// loaded for the month.
func ValidateNewBudget(categoryID string, limit Money, month Month, existing []Budget) error {
	if strings.TrimSpace(categoryID) == "" {
		return ErrMissingCategory
	}
	if err := ValidateLimit(limit); err != nil {
		return err
	}
	if err := month.Validate(); err != nil {
		return err
	}
	for _, b := range existing {
		if b.Category.ID == categoryID && b.Month == month {
			return ErrDuplicateBudget
		}
	}
	return nil
}

// ValidateLimit checks an edited budget limit.
func ValidateLimit(limit Money) error {
	if limit.Cents <= 0 {
		return ErrInvalidLimit
	}
	return nil
}

// ResolveCategoryNames fills in the name and colour of budgets whose
// category reference came back unpopulated, using the loaded categories.
// References that match no category are left empty and display as
// DeletedCategoryName.
func ResolveCategoryNames(budgets []Budget, categories []Category) []Budget {
	byID := make(map[string]Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}
	out := make([]Budget, len(budgets))
	for i, b := range budgets {
		if b.Category.Name == "" {
			if c, ok := byID[b.Category.ID]; ok && b.Category.ID != "" {
				b.Category.Name = c.Name
				b.Category.Color = c.Color
			}
		}
		out[i] = b
	}
	return out
}

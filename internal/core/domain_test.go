package core

import (
	"errors"
	"testing"
	"time"
)

func TestParseMonth(t *testing.T) {
	m, err := ParseMonth("2025-03")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m != (Month{Year: 2025, Month: 3}) {
		t.Fatalf("got %+v", m)
	}
	if m.String() != "2025-03" {
		t.Fatalf("String() = %q", m.String())
	}
	if _, err := ParseMonth(""); !errors.Is(err, ErrMissingMonth) {
		t.Fatalf("expected ErrMissingMonth, got %v", err)
	}
	if _, err := ParseMonth("2025-13"); !errors.Is(err, ErrInvalidMonth) {
		t.Fatalf("expected ErrInvalidMonth, got %v", err)
	}
	if got := MonthOf(time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC)); got.String() != "2024-12" {
		t.Fatalf("MonthOf = %s", got)
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{Amount: Money{Cents: 100}, Description: "ok", CategoryID: "c1"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Expense{
		{Amount: Money{Cents: 100}, Description: "ok"},
		{Amount: Money{Cents: 0}, Description: "ok", CategoryID: "c1"},
		{Amount: Money{Cents: 100}, Description: "  ", CategoryID: "c1"},
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestValidateCategoryName(t *testing.T) {
	existing := []Category{{ID: "1", Name: "Food"}, {ID: "2", Name: "Rent"}}
	cases := []struct {
		name      string
		in        string
		editingID string
		want      error
	}{
		{"new unique", "Travel", "", nil},
		{"empty", "   ", "", ErrEmptyCategoryName},
		{"duplicate case-insensitive", " food ", "", ErrDuplicateCategory},
		{"rename keeps own name", "FOOD", "1", nil},
		{"rename onto other", "rent", "1", ErrDuplicateCategory},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateCategoryName(tc.in, existing, tc.editingID)
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestValidateNewBudget(t *testing.T) {
	march := Month{Year: 2025, Month: 3}
	existing := []Budget{{ID: "b1", Category: CategoryRef{ID: "c1"}, Limit: Money{Cents: 100}, Month: march}}
	cases := []struct {
		name  string
		cat   string
		limit int64
		month Month
		want  error
	}{
		{"ok", "c2", 500, march, nil},
		{"no category", "", 500, march, ErrMissingCategory},
		{"zero limit", "c2", 0, march, ErrInvalidLimit},
		{"no month", "c2", 500, Month{}, ErrMissingMonth},
		{"duplicate", "c1", 500, march, ErrDuplicateBudget},
		{"same category other month", "c1", 500, Month{Year: 2025, Month: 4}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateNewBudget(tc.cat, Money{Cents: tc.limit}, tc.month, existing)
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestValidateLimit(t *testing.T) {
	for _, cents := range []int64{0, -100} {
		if err := ValidateLimit(Money{Cents: cents}); !errors.Is(err, ErrInvalidLimit) {
			t.Fatalf("%d: got %v, want ErrInvalidLimit", cents, err)
		}
	}
	if err := ValidateLimit(Money{Cents: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCategoryRefDisplayName(t *testing.T) {
	if got := (CategoryRef{ID: "x"}).DisplayName(); got != DeletedCategoryName {
		t.Fatalf("got %q", got)
	}
	if got := (CategoryRef{ID: "x", Name: "Food"}).DisplayName(); got != "Food" {
		t.Fatalf("got %q", got)
	}
}

func TestResolveCategoryNames(t *testing.T) {
	cats := []Category{{ID: "c1", Name: "Food", Color: "#111111"}}
	budgets := []Budget{
		{ID: "b1", Category: CategoryRef{ID: "c1"}},
		{ID: "b2", Category: CategoryRef{ID: "gone"}},
		{ID: "b3", Category: CategoryRef{}},
		{ID: "b4", Category: CategoryRef{ID: "c1", Name: "Groceries"}},
	}
	got := ResolveCategoryNames(budgets, cats)

	if got[0].Category.DisplayName() != "Food" || got[0].Category.Color != "#111111" {
		t.Fatalf("b1 not resolved: %+v", got[0].Category)
	}
	if got[1].Category.DisplayName() != DeletedCategoryName {
		t.Fatalf("b2 = %q", got[1].Category.DisplayName())
	}
	if got[2].Category.DisplayName() != DeletedCategoryName {
		t.Fatalf("b3 = %q", got[2].Category.DisplayName())
	}
	if got[3].Category.Name != "Groceries" {
		t.Fatalf("populated name overwritten: %q", got[3].Category.Name)
	}
	if budgets[0].Category.Name != "" {
		t.Fatal("input slice modified")
	}
}

package memory

import (
	"context"
	"testing"

	"budgettracker/internal/core"
)

func TestStore_ExportReport(t *testing.T) {
	s := New()
	month := core.Month{Year: 2024, Month: 3}
	rows := []core.ReportRow{
		{CategoryName: "Food", Budget: core.Money{Cents: 10000}, Spent: core.Money{Cents: 7500}, Remaining: core.Money{Cents: 2500}},
	}

	ref, err := s.ExportReport(context.Background(), month, rows)
	if err != nil {
		t.Fatalf("ExportReport() error = %v", err)
	}
	if ref != "mem:1" {
		t.Errorf("ref = %q, want mem:1", ref)
	}

	exports := s.Exports()
	if len(exports) != 1 {
		t.Fatalf("len(Exports()) = %d, want 1", len(exports))
	}
	values := exports[0].Values
	if len(values) != 2 {
		t.Fatalf("len(values) = %d, want header + 1 row", len(values))
	}
	if values[1][1] != "Food" || values[1][5] != 75 {
		t.Errorf("row = %v", values[1])
	}
}

func TestStore_RejectsMissingMonth(t *testing.T) {
	if _, err := New().ExportReport(context.Background(), core.Month{}, nil); err == nil {
		t.Error("ExportReport() with zero month should fail")
	}
}

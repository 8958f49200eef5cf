package output

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestParseColorMode(t *testing.T) {
	tests := []struct {
		input string
		want  ColorMode
	}{
		{"auto", ColorAuto},
		{"always", ColorAlways},
		{"never", ColorNever},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseColorMode(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseColorMode(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}

	if _, err := ParseColorMode("rainbow"); err == nil {
		t.Error("expected error for invalid color mode")
	}
}

func TestResolveColors(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	if !ResolveColors(ColorAlways) {
		t.Error("ColorAlways should ignore NO_COLOR")
	}
	if ResolveColors(ColorAuto) {
		t.Error("ColorAuto should honour NO_COLOR")
	}
	if ResolveColors(ColorNever) {
		t.Error("ColorNever should disable colors")
	}
}

func TestPrinter_PlainPrefixes(t *testing.T) {
	var out, errOut bytes.Buffer
	p := NewPrinterWithWriters(&out, &errOut, false)

	p.Success("logged in as %s", "u1")
	p.Info("month %s", "2025-03")
	p.Warning("no data")
	p.Error("boom")

	if got := out.String(); !strings.Contains(got, "[OK] logged in as u1") || !strings.Contains(got, "month 2025-03") {
		t.Errorf("stdout = %q", got)
	}
	if got := errOut.String(); !strings.Contains(got, "[WARN] no data") || !strings.Contains(got, "[ERROR] boom") {
		t.Errorf("stderr = %q", got)
	}
}

func TestPrinter_Quiet(t *testing.T) {
	var out, errOut bytes.Buffer
	p := NewPrinterWithWriters(&out, &errOut, false)
	p.SetQuiet(true)

	p.Info("hidden")
	p.Header("Hidden")
	p.Error("shown")

	if out.Len() != 0 {
		t.Errorf("quiet printer wrote %q", out.String())
	}
	if !strings.Contains(errOut.String(), "shown") {
		t.Error("errors must be printed in quiet mode")
	}
}

func TestPrinter_UsageBadge(t *testing.T) {
	p := NewPrinterWithWriters(&bytes.Buffer{}, &bytes.Buffer{}, false)

	tests := map[int]string{
		0:   "0% Not Started",
		25:  "25% On Track",
		75:  "75% Warning",
		120: "120% Critical",
	}
	for pct, want := range tests {
		if got := p.UsageBadge(pct); got != want {
			t.Errorf("UsageBadge(%d) = %q, want %q", pct, got, want)
		}
	}
}

func TestFormatError(t *testing.T) {
	var errOut bytes.Buffer
	p := NewPrinterWithWriters(&bytes.Buffer{}, &errOut, false)

	p.FormatError(&CLIError{
		Summary:    "not logged in",
		Detail:     "no session token is stored",
		Suggestion: "Run 'budgetctl login' first",
		ExitCode:   ExitNotLoggedIn,
	})

	got := errOut.String()
	for _, want := range []string{"[ERROR] not logged in", "Cause: no session token is stored", "Suggestion: Run 'budgetctl login' first"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in %q", want, got)
		}
	}

	errOut.Reset()
	p.FormatError(errors.New("plain failure"))
	if !strings.Contains(errOut.String(), "[ERROR] plain failure") {
		t.Errorf("plain error output = %q", errOut.String())
	}
}

func TestExitCodeFor(t *testing.T) {
	if got := ExitCodeFor(nil); got != ExitSuccess {
		t.Errorf("nil = %d", got)
	}
	if got := ExitCodeFor(errors.New("x")); got != ExitGeneral {
		t.Errorf("plain = %d", got)
	}
	wrapped := fmt.Errorf("dashboard: %w", &CLIError{Summary: "not logged in", ExitCode: ExitNotLoggedIn})
	if got := ExitCodeFor(wrapped); got != ExitNotLoggedIn {
		t.Errorf("wrapped = %d", got)
	}
}

func TestTable_Render(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinterWithWriters(&out, &bytes.Buffer{}, false)

	table := p.NewTable("Category", "Spent")
	table.AddRow("Food", "₹50")
	table.AddRow("Rent", "₹1,200")
	if table.Len() != 2 {
		t.Fatalf("Len() = %d", table.Len())
	}
	if err := table.Render(); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	got := out.String()
	for _, want := range []string{"CATEGORY", "Food", "₹1,200"} {
		if !strings.Contains(got, want) {
			t.Errorf("table missing %q:\n%s", want, got)
		}
	}
}

package http

import (
	"net/http"

	"budgettracker/internal/api"
	"budgettracker/internal/core"
	applog "budgettracker/internal/log"
	"budgettracker/internal/nav"
)

// NoReportData is shown when a month has no report rows or the report
// could not be loaded.
const NoReportData = "No data for selected month."

type reportRow struct {
	core.ReportRow
	SpentWidth  int
	BudgetWidth int
}

type reportsPage struct {
	pageData
	Month      core.Month
	Rows       []reportRow
	CanExport  bool
	TotalSpent core.Money
}

func (s *Server) reportsData(r *http.Request, month core.Month, rows []core.ReportRow) reportsPage {
	p := reportsPage{
		pageData:  s.basePage(r, "Reports"),
		Month:     month,
		CanExport: s.exporter != nil,
	}
	p.Path = nav.RouteReports

	var max core.Money
	for _, row := range rows {
		if row.Spent.Cents > max.Cents {
			max = row.Spent
		}
		if row.Budget.Cents > max.Cents {
			max = row.Budget
		}
		p.TotalSpent = p.TotalSpent.Add(row.Spent)
	}
	for _, row := range rows {
		p.Rows = append(p.Rows, reportRow{
			ReportRow:   row,
			SpentWidth:  core.BarWidth(row.Spent, max),
			BudgetWidth: core.BarWidth(row.Budget, max),
		})
	}
	return p
}

// handleReports shows the budget-vs-expense report. A failed load is
// shown as an empty report.
func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snap := s.sessions.CurrentSession()
	month := ParseMonthParam(r.URL.Query(), "month")

	rows, err := s.api.BudgetVsExpense(ctx, month)
	if s.discardIfStale(w, r, snap, nav.RouteReports+"?month="+month.String()) {
		return
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to fetch report",
			applog.FieldComponent, applog.ComponentReport,
			applog.FieldMonth, month.String(),
			applog.FieldStatusCode, api.StatusOf(err),
			applog.FieldError, err.Error())
		rows = nil
	}
	s.renderPage(w, r, http.StatusOK, "reports.html", s.reportsData(r, month, rows))
}

// handleExportReport sends the month's report to the configured exporter.
// The page itself is left untouched.
func (s *Server) handleExportReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.exporter == nil {
		msg := "Report export is not configured"
		NotFoundError(msg).TriggerErrorNotification(msg).Reswap("none").Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	month := ParseMonthParam(r.PostForm, "month")

	rows, err := s.api.BudgetVsExpense(ctx, month)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to fetch report for export",
			applog.FieldComponent, applog.ComponentReport,
			applog.FieldOperation, applog.OpExport,
			applog.FieldMonth, month.String(),
			applog.FieldError, err.Error())
		msg := api.MessageOr(err, "Failed to load report")
		ErrorResponse(http.StatusBadGateway, msg).TriggerErrorNotification(msg).Reswap("none").Write(w)
		return
	}
	if len(rows) == 0 {
		NewHTMXResponse().Status(http.StatusOK).Reswap("none").TriggerWarningNotification(NoReportData).Write(w)
		return
	}

	ref, err := s.exporter.ExportReport(ctx, month, rows)
	if err != nil {
		s.logger.ErrorContext(ctx, "Report export failed",
			applog.FieldComponent, applog.ComponentSheets,
			applog.FieldOperation, applog.OpExport,
			applog.FieldMonth, month.String(),
			applog.FieldError, err.Error())
		msg := "Failed to export report"
		InternalServerError(msg).TriggerErrorNotification(msg).Reswap("none").Write(w)
		return
	}
	s.logger.InfoContext(ctx, "Report exported",
		applog.FieldComponent, applog.ComponentReport,
		applog.FieldOperation, applog.OpExport,
		applog.FieldMonth, month.String(),
		applog.FieldExportRef, ref)
	NewHTMXResponse().Status(http.StatusOK).Reswap("none").
		TriggerSuccessNotification("Report exported (" + ref + ")").
		Write(w)
}

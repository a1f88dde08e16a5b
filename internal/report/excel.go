// Package report renders analysis summaries as Excel workbooks and
// plain-text console output.
package report

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/ledgerlens/ledgerlens/internal/models"
)

const (
	sheetSummary   = "Summary"
	sheetAnomalies = "Anomalies"
	sheetVariances = "Variances"
)

// Writer renders a summary into a multi-sheet workbook: an overview sheet,
// the ranked anomaly list, and the raw variance results behind it.
type Writer struct {
	runID string
}

func NewWriter(runID string) *Writer {
	return &Writer{runID: runID}
}

// WriteExcel writes the workbook to path.
func (w *Writer) WriteExcel(path string, summary *models.Summary, variances []models.VarianceResult) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := w.writeSummarySheet(f, summary); err != nil {
		return err
	}
	if err := w.writeAnomaliesSheet(f, headerStyle, summary.Anomalies); err != nil {
		return err
	}
	if err := w.writeVariancesSheet(f, headerStyle, variances); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values ...any) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeSummarySheet(f *excelize.File, summary *models.Summary) error {
	rows := [][]any{
		{"Run ID", w.runID},
		{"Total Accounts", summary.TotalAccounts},
		{"Accounts Flagged", summary.AccountsFlagged},
		{"Total Anomalies", len(summary.Anomalies)},
		{},
		{"By Severity"},
	}
	for _, sev := range []models.Severity{models.SeverityCritical, models.SeverityHigh, models.SeverityMedium, models.SeverityLow} {
		rows = append(rows, []any{string(sev), summary.BySeverity[sev]})
	}

	rows = append(rows, []any{}, []any{"By Type"})
	types := make([]string, 0, len(summary.ByType))
	for typ := range summary.ByType {
		types = append(types, string(typ))
	}
	sort.Strings(types)
	for _, typ := range types {
		rows = append(rows, []any{typ, summary.ByType[models.AnomalyType(typ)]})
	}

	if len(summary.Warnings) > 0 {
		rows = append(rows, []any{}, []any{"Warnings"})
		for _, warn := range summary.Warnings {
			rows = append(rows, []any{warn.Code, warn.Message})
		}
	}

	for i, row := range rows {
		if err := setRow(f, sheetSummary, i+1, row...); err != nil {
			return fmt.Errorf("failed to write summary sheet: %w", err)
		}
	}
	return nil
}

func (w *Writer) writeAnomaliesSheet(f *excelize.File, headerStyle int, anomalies []models.Anomaly) error {
	if _, err := f.NewSheet(sheetAnomalies); err != nil {
		return fmt.Errorf("failed to create anomalies sheet: %w", err)
	}

	header := []any{"Priority", "Severity", "Type", "Account Code", "Account Name", "Category", "Period", "Metric", "Rule", "Description", "Recommended Action"}
	if err := setRow(f, sheetAnomalies, 1, header...); err != nil {
		return fmt.Errorf("failed to write anomalies header: %w", err)
	}
	if err := styleHeader(f, sheetAnomalies, headerStyle, len(header)); err != nil {
		return err
	}

	for i, a := range anomalies {
		row := []any{
			a.PriorityScore, string(a.Severity), string(a.Type),
			a.AccountCode, a.AccountName, a.Category, a.Period,
			a.MetricValue, a.RuleName, a.Description, a.RecommendedAction,
		}
		if err := setRow(f, sheetAnomalies, i+2, row...); err != nil {
			return fmt.Errorf("failed to write anomaly row %d: %w", i, err)
		}
	}
	return nil
}

func (w *Writer) writeVariancesSheet(f *excelize.File, headerStyle int, variances []models.VarianceResult) error {
	if _, err := f.NewSheet(sheetVariances); err != nil {
		return fmt.Errorf("failed to create variances sheet: %w", err)
	}

	header := []any{"Account Code", "Account Name", "Category", "Statement", "From", "To", "Previous", "Current", "Change", "Change %", "Significant", "Critical", "Sign Changed"}
	if err := setRow(f, sheetVariances, 1, header...); err != nil {
		return fmt.Errorf("failed to write variances header: %w", err)
	}
	if err := styleHeader(f, sheetVariances, headerStyle, len(header)); err != nil {
		return err
	}

	for i, v := range variances {
		row := []any{
			v.AccountCode, v.AccountName, v.Category, string(v.StatementType),
			v.PeriodFrom, v.PeriodTo,
			v.PreviousValue, v.CurrentValue, v.AbsoluteChange, v.PercentChange,
			v.IsSignificant, v.IsCritical, v.SignChanged,
		}
		if err := setRow(f, sheetVariances, i+2, row...); err != nil {
			return fmt.Errorf("failed to write variance row %d: %w", i, err)
		}
	}
	return nil
}

func styleHeader(f *excelize.File, sheet string, style, cols int) error {
	last, err := excelize.CoordinatesToCellName(cols, 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("failed to style %s header: %w", sheet, err)
	}
	return nil
}

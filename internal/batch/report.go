package batch

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

const (
	sheetOverview = "Overview"
	sheetFiles    = "Files"
)

// WriteSummaryExcel writes the consolidated batch report: an overview
// sheet with run totals and a per-file sheet covering successes and
// failures alike.
func WriteSummaryExcel(path string, res *Result) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetOverview); err != nil {
		return fmt.Errorf("failed to create overview sheet: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeOverviewSheet(f, res); err != nil {
		return err
	}
	if err := writeFilesSheet(f, headerStyle, res); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save batch report: %w", err)
	}
	return nil
}

func writeOverviewSheet(f *excelize.File, res *Result) error {
	rate := 0.0
	if len(res.Files) > 0 {
		rate = float64(res.Successful()) / float64(len(res.Files)) * 100
	}
	rows := [][]any{
		{"Output Directory", res.OutputDir},
		{"Total Files", len(res.Files)},
		{"Succeeded", res.Successful()},
		{"Failed", res.Failed()},
		{"Success Rate %", rate},
		{"Total Anomalies", res.TotalAnomalies()},
		{"Elapsed", res.Duration.String()},
	}
	for i, row := range rows {
		if err := setRow(f, sheetOverview, i+1, row...); err != nil {
			return fmt.Errorf("failed to write overview sheet: %w", err)
		}
	}
	return nil
}

func writeFilesSheet(f *excelize.File, headerStyle int, res *Result) error {
	if _, err := f.NewSheet(sheetFiles); err != nil {
		return fmt.Errorf("failed to create files sheet: %w", err)
	}

	header := []any{"File", "Status", "Run ID", "Accounts", "Variances", "Anomalies", "Elapsed", "Report", "Error"}
	if err := setRow(f, sheetFiles, 1, header...); err != nil {
		return fmt.Errorf("failed to write files header: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetFiles, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to style files header: %w", err)
	}

	for i, fr := range res.Files {
		status, errMsg := "ok", ""
		if fr.Err != nil {
			status = "failed"
			errMsg = fr.Err.Error()
		}
		row := []any{
			filepath.Base(fr.Path), status, fr.RunID,
			fr.AccountCount, fr.VarianceCount, fr.AnomalyCount,
			fr.Duration.String(), filepath.Base(fr.OutputPath), errMsg,
		}
		if err := setRow(f, sheetFiles, i+2, row...); err != nil {
			return fmt.Errorf("failed to write file row %d: %w", i, err)
		}
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

// RenderText prints the batch outcome to w, one line per file.
func RenderText(w io.Writer, res *Result) error {
	if _, err := fmt.Fprintf(w, "Batch: %d files, %d succeeded, %d failed, %d anomalies (%s)\n",
		len(res.Files), res.Successful(), res.Failed(), res.TotalAnomalies(), res.Duration.Round(0)); err != nil {
		return err
	}
	for _, fr := range res.Files {
		if fr.Err != nil {
			if _, err := fmt.Fprintf(w, "  FAIL %s: %v\n", filepath.Base(fr.Path), fr.Err); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(w, "  ok   %s: %d anomalies -> %s\n",
			filepath.Base(fr.Path), fr.AnomalyCount, filepath.Base(fr.OutputPath)); err != nil {
			return err
		}
	}
	return nil
}

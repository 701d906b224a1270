package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"temposquare/syncer"
)

const (
	outcomesSheet = "Outcomes"
	dailySheet    = "Daily"
)

// ExcelWriter writes the outcomes sheet plus a per-member daily totals sheet.
type ExcelWriter struct{}

func (w *ExcelWriter) Write(path string, summary *syncer.Summary) error {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName(file.GetSheetName(0), outcomesSheet); err != nil {
		return fmt.Errorf("rename excel sheet: %w", err)
	}
	if _, err := file.NewSheet(dailySheet); err != nil {
		return fmt.Errorf("create excel sheet %s: %w", dailySheet, err)
	}

	rows := make([][]string, 0, len(summary.Outcomes))
	for _, outcome := range summary.Outcomes {
		rows = append(rows, outcomeRow(outcome))
	}
	if err := writeSheet(file, outcomesSheet, outcomeHeaders, rows); err != nil {
		return err
	}

	totals := BuildDailyTotals(summary.Outcomes)
	dailyRows := make([][]string, 0, len(totals))
	for _, total := range totals {
		dailyRows = append(dailyRows, total.row())
	}
	if err := writeSheet(file, dailySheet, dailyHeaders, dailyRows); err != nil {
		return err
	}

	if err := file.SaveAs(path); err != nil {
		return fmt.Errorf("save excel report %s: %w", path, err)
	}

	return nil
}

func writeSheet(file *excelize.File, sheet string, headers []string, rows [][]string) error {
	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := file.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("set excel header %s!%s: %w", sheet, cell, err)
		}
	}

	for i, values := range rows {
		row := i + 2
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := file.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("set excel value %s!%s: %w", sheet, cell, err)
			}
		}
	}
	return nil
}

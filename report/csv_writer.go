package report

import (
	"encoding/csv"
	"fmt"
	"os"

	"temposquare/syncer"
)

type CSVWriter struct{}

func (w *CSVWriter) Write(path string, summary *syncer.Summary) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv report %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(outcomeHeaders); err != nil {
		return fmt.Errorf("write csv headers: %w", err)
	}

	for _, outcome := range summary.Outcomes {
		if err := writer.Write(outcomeRow(outcome)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv report: %w", err)
	}

	return nil
}

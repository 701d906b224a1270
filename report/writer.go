package report

import (
	"fmt"
	"path/filepath"
	"strings"

	"temposquare/syncer"
)

type Writer interface {
	Write(path string, summary *syncer.Summary) error
}

func WriterForFormat(format string) (Writer, error) {
	switch normalizeFormat(format) {
	case "csv":
		return &CSVWriter{}, nil
	case "excel", "xlsx":
		return &ExcelWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported report format: %s", format)
	}
}

// WriterForPath picks the writer from the file extension.
func WriterForPath(path string) (Writer, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return nil, fmt.Errorf("report path %q has no extension (use .csv or .xlsx)", path)
	}
	return WriterForFormat(ext)
}

var outcomeHeaders = []string{"WorklogID", "Date", "Author", "AccountID", "Project", "Hours", "Status", "TeamMemberID", "TimecardID", "Error"}

func outcomeRow(outcome syncer.Outcome) []string {
	return []string{
		outcome.WorklogID.String(),
		outcome.StartDate,
		outcome.Author,
		outcome.AccountID,
		outcome.Project,
		fmt.Sprintf("%.2f", outcome.Hours),
		string(outcome.Status),
		outcome.TeamMemberID,
		outcome.TimecardID,
		outcome.Message(),
	}
}

func normalizeFormat(value string) string {
	return strings.TrimSpace(strings.ToLower(value))
}

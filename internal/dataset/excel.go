package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// DefaultSheet is the workbook tab holding the cohort.
const DefaultSheet = "Cohort 2 Startups"

// ExcelSource reads one sheet of an .xlsx workbook on local disk.
type ExcelSource struct {
	path   string
	sheet  string
	logger *slog.Logger
}

// NewExcelSource creates a source for the given workbook and sheet.
// An empty sheet name selects DefaultSheet.
func NewExcelSource(path, sheet string, logger *slog.Logger) *ExcelSource {
	if sheet == "" {
		sheet = DefaultSheet
	}
	if logger == nil {
		logger = slog.Default()
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return &ExcelSource{
		path:   path,
		sheet:  sheet,
		logger: logger.With(slog.String("component", "excel_source")),
	}
}

// Identity is the workbook path plus its size and modification time.
func (s *ExcelSource) Identity(ctx context.Context) (Identity, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return Identity{}, fmt.Errorf("stat workbook: %w", err)
	}
	return Identity{
		Source:  s.path + "#" + s.sheet,
		Version: strconv.FormatInt(info.Size(), 10) + "-" + strconv.FormatInt(info.ModTime().UnixNano(), 10),
	}, nil
}

// Read opens the workbook and returns the configured sheet as a table.
func (s *ExcelSource) Read(ctx context.Context) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if idx, err := f.GetSheetIndex(s.sheet); err != nil || idx < 0 {
		s.logger.ErrorContext(ctx, "sheet not found in workbook",
			slog.String("path", s.path),
			slog.String("sheet", s.sheet),
			slog.Any("available", f.GetSheetList()))
		return nil, fmt.Errorf("%w: %q in %s", ErrSheetNotFound, s.sheet, filepath.Base(s.path))
	}

	rows, err := f.GetRows(s.sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", s.sheet, err)
	}

	s.logger.DebugContext(ctx, "sheet read",
		slog.String("sheet", s.sheet),
		slog.Int("total_rows", len(rows)))

	return tableFromRows(stringRows(rows))
}

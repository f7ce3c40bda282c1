package exporter

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"efscli/pkg/contracts/domain"
)

// Workbook sheet names.
const (
	SheetCleaned           = "整理后数据"
	SheetDeletedTotals     = "删除的合计行"
	SheetDeletedIncomplete = "删除的时间不完整行"
)

// WorkbookData is the input for an Excel export. Deleted is optional;
// when present each non-empty bucket gets its own sheet. SourceHeaders
// carries the pre-transform column order used for the total-row sheet,
// since those rows were removed before any columns were derived. When
// empty, the cleaned header order is used for every sheet.
type WorkbookData struct {
	Cleaned       *domain.Dataset
	Deleted       *domain.DeletedRows
	SourceHeaders []string
}

// ExcelWriter exports datasets as xlsx workbooks.
type ExcelWriter struct {
	logger *slog.Logger
}

// NewExcelWriter creates a new Excel writer instance.
func NewExcelWriter(logger *slog.Logger) *ExcelWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExcelWriter{logger: logger.With(slog.String("component", "excel_exporter"))}
}

// WriteWorkbook writes an xlsx workbook to w.
func (e *ExcelWriter) WriteWorkbook(w io.Writer, data WorkbookData) error {
	f, err := e.build(data)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// WriteWorkbookFile writes an xlsx workbook to filePath.
func (e *ExcelWriter) WriteWorkbookFile(filePath string, data WorkbookData) error {
	f, err := e.build(data)
	if err != nil {
		return err
	}
	defer f.Close()

	e.logger.Info("writing Excel file",
		slog.String("file_path", filePath),
		slog.Int("row_count", len(data.Cleaned.Rows)))

	if err := f.SaveAs(filePath); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func (e *ExcelWriter) build(data WorkbookData) (*excelize.File, error) {
	if data.Cleaned == nil {
		return nil, fmt.Errorf("dataset is nil")
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetCleaned); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := writeSheet(f, SheetCleaned, data.Cleaned.Headers, data.Cleaned.Rows); err != nil {
		f.Close()
		return nil, err
	}

	sourceHeaders := data.SourceHeaders
	if len(sourceHeaders) == 0 {
		sourceHeaders = data.Cleaned.Headers
	}
	if data.Deleted != nil {
		if len(data.Deleted.TotalRows) > 0 {
			if err := addSheet(f, SheetDeletedTotals, sourceHeaders, data.Deleted.TotalRows); err != nil {
				f.Close()
				return nil, err
			}
		}
		if len(data.Deleted.IncompleteTimeRows) > 0 {
			if err := addSheet(f, SheetDeletedIncomplete, data.Cleaned.Headers, data.Deleted.IncompleteTimeRows); err != nil {
				f.Close()
				return nil, err
			}
		}
	}
	return f, nil
}

func addSheet(f *excelize.File, name string, headers []string, rows []domain.Row) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to add sheet %s: %w", name, err)
	}
	return writeSheet(f, name, headers, rows)
}

func writeSheet(f *excelize.File, name string, headers []string, rows []domain.Row) error {
	cells := make([]interface{}, len(headers))
	for i, h := range headers {
		cells[i] = h
	}
	if err := f.SetSheetRow(name, "A1", &cells); err != nil {
		return fmt.Errorf("failed to write headers on %s: %w", name, err)
	}
	for i, row := range rows {
		for j, h := range headers {
			cells[j] = row[h]
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to compute cell: %w", err)
		}
		if err := f.SetSheetRow(name, cell, &cells); err != nil {
			return fmt.Errorf("failed to write row %d on %s: %w", i, name, err)
		}
	}
	return nil
}

package dataprocessing

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"efscli/internal/schema"
	"efscli/pkg/contracts/domain"
)

// ParseResult is the outcome of reading one workbook: the ordered record set,
// the resolved column mapping and extraction bookkeeping.
type ParseResult struct {
	SheetName             string              `json:"sheetName"`
	Headers               []string            `json:"headers"`
	Mapping               schema.FieldMapping `json:"mapping"`
	Dataset               *domain.Dataset     `json:"dataset"`
	RowCount              int                 `json:"rowCount"`
	SkippedEmptyWorkOrder int                 `json:"skippedEmptyWorkOrder"`
}

// Parser reads maintenance-log workbooks. The first sheet is taken as the
// data sheet; row 1 is the header row.
type Parser struct {
	logger   *slog.Logger
	resolver *schema.Resolver
}

// NewParser creates a workbook parser. A nil logger falls back to
// slog.Default.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{
		logger:   logger.With(slog.String("component", "workbook_parser")),
		resolver: schema.NewResolver(logger),
	}
}

// ParseFile reads a workbook from disk.
func (p *Parser) ParseFile(path string) (*ParseResult, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()
	return p.parse(f)
}

// Parse reads a workbook from a stream, typically an uploaded file.
func (p *Parser) Parse(r io.Reader) (*ParseResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook: %w", err)
	}
	defer f.Close()
	return p.parse(f)
}

func (p *Parser) parse(f *excelize.File) (*ParseResult, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook contains no sheets")
	}
	sheetName := sheets[0]

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheetName, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s is empty", sheetName)
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	mapping := p.resolver.Resolve(headers)
	workOrderKey := mapping[schema.FieldWorkOrder]

	result := &ParseResult{
		SheetName: sheetName,
		Headers:   headers,
		Mapping:   mapping,
		Dataset:   &domain.Dataset{Headers: headers},
	}

	for _, cells := range rows[1:] {
		row := make(domain.Row, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			if i < len(cells) {
				row[h] = cells[i]
			} else {
				// excelize trims trailing empty cells; restore them as "".
				row[h] = ""
			}
		}

		// Rows without a work-order id are noise (blank padding rows at the
		// bottom of the sheet) and never enter the record set.
		if workOrderKey != "" && strings.TrimSpace(row[workOrderKey]) == "" {
			result.SkippedEmptyWorkOrder++
			continue
		}

		result.Dataset.Rows = append(result.Dataset.Rows, row)
	}
	result.RowCount = len(result.Dataset.Rows)

	p.logger.Info("workbook parsed",
		slog.String("sheet", sheetName),
		slog.Int("columns", len(headers)),
		slog.Int("rows", result.RowCount),
		slog.Int("skipped_empty_work_order", result.SkippedEmptyWorkOrder))

	return result, nil
}

// Preview returns the first limit rows of the parsed record set.
func (r *ParseResult) Preview(limit int) []domain.Row {
	if limit <= 0 || limit > len(r.Dataset.Rows) {
		limit = len(r.Dataset.Rows)
	}
	return r.Dataset.Rows[:limit]
}

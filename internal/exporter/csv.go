package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"efscli/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter exports datasets as CSV.
type CSVWriter struct {
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance.
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger.With(slog.String("component", "csv_exporter"))}
}

// WriteDataset writes the dataset to w, headers first, rows in order.
// A UTF-8 BOM is written before the header row so Excel recognizes the
// encoding.
func (c *CSVWriter) WriteDataset(w io.Writer, data *domain.Dataset) error {
	if data == nil {
		return fmt.Errorf("dataset is nil")
	}

	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(data.Headers); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i, row := range data.Rows {
		if err := writer.Write(recordFor(data.Headers, row)); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteDatasetFile writes the dataset to filePath, creating parent
// directories as needed.
func (c *CSVWriter) WriteDatasetFile(filePath string, data *domain.Dataset) error {
	if data == nil {
		return fmt.Errorf("dataset is nil")
	}

	c.logger.Info("writing CSV file",
		slog.String("file_path", filePath),
		slog.Int("row_count", len(data.Rows)))

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := c.WriteDataset(file, data); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// recordFor projects a row onto the header order. Columns missing from
// the row render as empty cells.
func recordFor(headers []string, row domain.Row) []string {
	record := make([]string, len(headers))
	for i, h := range headers {
		record[i] = row[h]
	}
	return record
}

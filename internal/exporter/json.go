package exporter

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"efscli/pkg/contracts"
	"efscli/pkg/contracts/domain"
)

// JSONDocument is the JSON export envelope.
type JSONDocument struct {
	Format     string                 `json:"format"`
	ExportedAt time.Time              `json:"exportedAt"`
	Headers    []string               `json:"headers"`
	RowCount   int                    `json:"rowCount"`
	Rows       []domain.Row           `json:"rows"`
	Stats      *domain.TransformStats `json:"stats,omitempty"`
}

// WriteJSON writes the dataset to w as an indented JSON document.
func WriteJSON(w io.Writer, data *domain.Dataset, stats *domain.TransformStats) error {
	if data == nil {
		return fmt.Errorf("dataset is nil")
	}
	doc := JSONDocument{
		Format:     contracts.DataFormatVersion,
		ExportedAt: time.Now().UTC(),
		Headers:    data.Headers,
		RowCount:   len(data.Rows),
		Rows:       data.Rows,
		Stats:      stats,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode dataset: %w", err)
	}
	return nil
}

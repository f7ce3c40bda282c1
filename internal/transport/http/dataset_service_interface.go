package http

import (
	"context"
	"io"

	"efscli/internal/dataprocessing"
	"efscli/internal/pareto"
	"efscli/internal/services"
	"efscli/pkg/contracts/domain"
)

// DatasetServiceInterface is the service surface the handlers depend
// on.
type DatasetServiceInterface interface {
	Upload(ctx context.Context, filename string, size int64, r io.Reader) (*services.DatasetInfo, error)
	Info(id string) (*services.DatasetInfo, error)
	List() []*services.DatasetInfo
	Delete(id string) error
	Validate(ctx context.Context, id string) (*domain.ValidationResult, error)
	Transform(ctx context.Context, id string) (*dataprocessing.TransformResult, error)
	Rows(id string, offset, limit int) (*services.RowPage, error)
	DeletedRows(id string) (*domain.DeletedRows, error)
	Export(ctx context.Context, id, format string, w io.Writer) (filename, contentType string, err error)
	TransformSummary(id string) (string, error)

	Chart(id string) (*pareto.ChartOption, error)
	DrillDown(id, name string) (*pareto.ChartOption, error)
	GoBack(id string) (*pareto.ChartOption, error)
	ResetChart(id string) (*pareto.ChartOption, error)
	SwitchMetric(id, metric string) (*pareto.ChartOption, error)
	ToggleKeyOnly(id string) (*pareto.ChartOption, error)
}

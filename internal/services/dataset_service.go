package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"efscli/internal/dataprocessing"
	apierrors "efscli/internal/errors"
	"efscli/internal/exporter"
	"efscli/internal/metrics"
	"efscli/internal/pareto"
	"efscli/internal/validation"
	"efscli/pkg/contracts/domain"
)

// previewRows is how many source rows ride along with dataset info.
const previewRows = 5

// Broadcaster pushes processing events to connected clients. The
// websocket hub satisfies it; a nil Broadcaster disables pushes.
type Broadcaster interface {
	BroadcastDatasetUploaded(datasetID string, rowCount int)
	BroadcastTransformProgress(datasetID, stage string, progress int)
	BroadcastTransformComplete(datasetID string, stats interface{})
	BroadcastChartUpdate(datasetID string, chart interface{})
}

// UploadLimits constrains incoming workbooks.
type UploadLimits struct {
	MaxSizeBytes      int64
	AllowedExtensions []string
}

// session is one uploaded dataset and everything derived from it.
type session struct {
	mu sync.Mutex

	id         string
	filename   string
	uploadedAt time.Time

	parse      *dataprocessing.ParseResult
	validation *domain.ValidationResult
	result     *dataprocessing.TransformResult
	deleted    *domain.DeletedRows
	engine     *pareto.Engine
}

// DatasetInfo is the JSON view of a session.
type DatasetInfo struct {
	ID                    string                   `json:"id"`
	Filename              string                   `json:"filename"`
	UploadedAt            time.Time                `json:"uploadedAt"`
	SheetName             string                   `json:"sheetName"`
	RowCount              int                      `json:"rowCount"`
	SkippedEmptyWorkOrder int                      `json:"skippedEmptyWorkOrder"`
	Headers               []string                 `json:"headers"`
	Preview               []domain.Row             `json:"preview,omitempty"`
	Validation            *domain.ValidationResult `json:"validation,omitempty"`
	Transformed           bool                     `json:"transformed"`
	Stats                 *domain.TransformStats   `json:"stats,omitempty"`
}

// RowPage is one page of cleaned rows.
type RowPage struct {
	Headers []string     `json:"headers"`
	Rows    []domain.Row `json:"rows"`
	Total   int          `json:"total"`
	Offset  int          `json:"offset"`
}

// DatasetService owns all dataset sessions.
type DatasetService struct {
	mu       sync.RWMutex
	sessions map[string]*session

	logger    *slog.Logger
	limits    UploadLimits
	hub       Broadcaster
	parser    *dataprocessing.Parser
	validator *validation.RowValidator
	csv       *exporter.CSVWriter
	excel     *exporter.ExcelWriter
}

// NewDatasetService creates the service. hub may be nil.
func NewDatasetService(logger *slog.Logger, limits UploadLimits, hub Broadcaster) *DatasetService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "dataset_service"))
	return &DatasetService{
		sessions:  make(map[string]*session),
		logger:    logger,
		limits:    limits,
		hub:       hub,
		parser:    dataprocessing.NewParser(logger),
		validator: validation.NewRowValidator(logger),
		csv:       exporter.NewCSVWriter(logger),
		excel:     exporter.NewExcelWriter(logger),
	}
}

// Upload parses a workbook and registers a new session. The size, when
// known (>=0), is checked against the configured limit before reading.
func (s *DatasetService) Upload(ctx context.Context, filename string, size int64, r io.Reader) (*DatasetInfo, error) {
	if s.limits.MaxSizeBytes > 0 && size > s.limits.MaxSizeBytes {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		return nil, apierrors.ErrFileTooLarge
	}
	if !s.extensionAllowed(filename) {
		metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		return nil, apierrors.ErrUnsupportedFileType
	}

	reader := r
	if s.limits.MaxSizeBytes > 0 {
		reader = io.LimitReader(r, s.limits.MaxSizeBytes+1)
	}

	start := time.Now()
	parse, err := s.parser.Parse(reader)
	metrics.ParseDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("failed").Inc()
		return nil, apierrors.ParseError(err)
	}
	metrics.UploadsTotal.WithLabelValues("accepted").Inc()

	sess := &session{
		id:         uuid.New().String(),
		filename:   filename,
		uploadedAt: time.Now(),
		parse:      parse,
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "dataset uploaded",
		slog.String("dataset_id", sess.id),
		slog.String("filename", filename),
		slog.String("sheet", parse.SheetName),
		slog.Int("rows", parse.RowCount))

	if s.hub != nil {
		s.hub.BroadcastDatasetUploaded(sess.id, parse.RowCount)
	}
	return s.info(sess), nil
}

// Info returns the current view of a session.
func (s *DatasetService) Info(id string) (*DatasetInfo, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.info(sess), nil
}

// List returns all sessions, newest first.
func (s *DatasetService) List() []*DatasetInfo {
	s.mu.RLock()
	sessions := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.RUnlock()

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].uploadedAt.After(sessions[j].uploadedAt)
	})

	infos := make([]*DatasetInfo, len(sessions))
	for i, sess := range sessions {
		sess.mu.Lock()
		infos[i] = s.info(sess)
		sess.mu.Unlock()
	}
	return infos
}

// Delete removes a session.
func (s *DatasetService) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return apierrors.ErrDatasetNotFound
	}
	delete(s.sessions, id)
	return nil
}

// Validate runs the structural check over the parsed rows. The result
// is cached on the session; re-validating replaces it.
func (s *DatasetService) Validate(ctx context.Context, id string) (*domain.ValidationResult, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	result := s.validator.Validate(sess.parse.Dataset.Rows, sess.parse.Mapping)
	sess.validation = result
	if !result.Valid {
		metrics.ValidationFailuresTotal.Inc()
	}
	return result, nil
}

// Transform runs the five-stage pipeline. Validation errors block the
// run; warnings do not. A repeated call re-runs the pipeline from the
// parsed data and rebuilds the analysis engine.
func (s *DatasetService) Transform(ctx context.Context, id string) (*dataprocessing.TransformResult, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.validation == nil {
		sess.validation = s.validator.Validate(sess.parse.Dataset.Rows, sess.parse.Mapping)
		if !sess.validation.Valid {
			metrics.ValidationFailuresTotal.Inc()
		}
	}
	if !sess.validation.Valid {
		return nil, apierrors.NewWithDetails(
			apierrors.ErrDatasetInvalid.StatusCode,
			apierrors.ErrDatasetInvalid.ErrorCode,
			apierrors.ErrDatasetInvalid.Message,
			sess.validation.Errors,
		)
	}

	s.progress(id, "validate", 10)

	start := time.Now()
	pipeline := dataprocessing.NewPipeline(s.logger)
	s.progress(id, "transform", 50)
	result := pipeline.Transform(sess.parse.Dataset, sess.parse.Mapping)
	deleted := pipeline.GetDeletedRows()
	metrics.TransformRunsTotal.Inc()
	metrics.TransformDuration.Observe(time.Since(start).Seconds())
	metrics.RowsRemovedTotal.WithLabelValues(string(domain.DeletionTotalRow)).
		Add(float64(result.Stats.TotalRowsRemoved))
	metrics.RowsRemovedTotal.WithLabelValues(string(domain.DeletionIncompleteTime)).
		Add(float64(result.Stats.IncompleteTimeRowsRemoved))

	sess.result = result
	sess.deleted = &deleted

	engine := pareto.NewEngine(s.logger)
	engine.SetData(result.Data.Rows, sess.parse.Mapping)
	sess.engine = engine

	s.logger.InfoContext(ctx, "dataset transformed",
		slog.String("dataset_id", id),
		slog.Int("rows_out", len(result.Data.Rows)),
		slog.Int("total_rows_removed", result.Stats.TotalRowsRemoved),
		slog.Int("incomplete_time_rows_removed", result.Stats.IncompleteTimeRowsRemoved))

	s.progress(id, "complete", 100)
	if s.hub != nil {
		s.hub.BroadcastTransformComplete(id, result.Stats)
	}
	return result, nil
}

// Rows returns a page of cleaned rows. limit<=0 means all remaining.
func (s *DatasetService) Rows(id string, offset, limit int) (*RowPage, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.result == nil {
		return nil, apierrors.NotFoundError("transformed data")
	}

	data := sess.result.Data
	total := len(data.Rows)
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return &RowPage{
		Headers: data.Headers,
		Rows:    data.Rows[offset:end],
		Total:   total,
		Offset:  offset,
	}, nil
}

// DeletedRows returns the audit buckets of the last transform run.
func (s *DatasetService) DeletedRows(id string) (*domain.DeletedRows, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.deleted == nil {
		return nil, apierrors.NotFoundError("transformed data")
	}
	return sess.deleted, nil
}

// Export writes the cleaned dataset to w in the requested format (csv,
// json or xlsx) and returns the suggested filename and content type.
func (s *DatasetService) Export(ctx context.Context, id, format string, w io.Writer) (filename, contentType string, err error) {
	sess, err := s.get(id)
	if err != nil {
		return "", "", err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.result == nil {
		return "", "", apierrors.NotFoundError("transformed data")
	}

	base := strings.TrimSuffix(sess.filename, filepath.Ext(sess.filename))
	if base == "" {
		base = "dataset"
	}
	base = fmt.Sprintf("%s_cleaned_%s", base, time.Now().Format("20060102_150405"))

	switch strings.ToLower(format) {
	case "csv":
		if err := s.csv.WriteDataset(w, sess.result.Data); err != nil {
			return "", "", fmt.Errorf("csv export: %w", err)
		}
		metrics.ExportsTotal.WithLabelValues("csv").Inc()
		return base + ".csv", "text/csv; charset=utf-8", nil

	case "json":
		if err := exporter.WriteJSON(w, sess.result.Data, &sess.result.Stats); err != nil {
			return "", "", fmt.Errorf("json export: %w", err)
		}
		metrics.ExportsTotal.WithLabelValues("json").Inc()
		return base + ".json", "application/json", nil

	case "xlsx":
		err := s.excel.WriteWorkbook(w, exporter.WorkbookData{
			Cleaned:       sess.result.Data,
			Deleted:       sess.deleted,
			SourceHeaders: sess.parse.Headers,
		})
		if err != nil {
			return "", "", fmt.Errorf("xlsx export: %w", err)
		}
		metrics.ExportsTotal.WithLabelValues("xlsx").Inc()
		return base + ".xlsx",
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", nil

	default:
		return "", "", apierrors.ErrValidation("format", "supported formats: csv, json, xlsx")
	}
}

// Chart returns the chart for the engine's current state.
func (s *DatasetService) Chart(id string) (*pareto.ChartOption, error) {
	return s.chartOp(id, func(e *pareto.Engine) error { return nil }, false)
}

// DrillDown descends into the named group and returns the new chart.
func (s *DatasetService) DrillDown(id, name string) (*pareto.ChartOption, error) {
	return s.chartOp(id, func(e *pareto.Engine) error {
		if !e.DrillDown(name) {
			return apierrors.ErrValidation("name", "cannot drill into this group")
		}
		return nil
	}, true)
}

// GoBack pops one navigation level and returns the new chart.
func (s *DatasetService) GoBack(id string) (*pareto.ChartOption, error) {
	return s.chartOp(id, func(e *pareto.Engine) error {
		e.GoBack()
		return nil
	}, true)
}

// ResetChart returns navigation to the root level.
func (s *DatasetService) ResetChart(id string) (*pareto.ChartOption, error) {
	return s.chartOp(id, func(e *pareto.Engine) error {
		e.Reset()
		return nil
	}, true)
}

// SwitchMetric changes the analyzed metric.
func (s *DatasetService) SwitchMetric(id, metric string) (*pareto.ChartOption, error) {
	return s.chartOp(id, func(e *pareto.Engine) error {
		if !e.SwitchMetric(pareto.Metric(metric)) {
			return apierrors.ErrInvalidMetric
		}
		metrics.ChartRequestsTotal.WithLabelValues(metric).Inc()
		return nil
	}, true)
}

// ToggleKeyOnly flips key-only display mode.
func (s *DatasetService) ToggleKeyOnly(id string) (*pareto.ChartOption, error) {
	return s.chartOp(id, func(e *pareto.Engine) error {
		e.ToggleKeyOnly()
		return nil
	}, true)
}

// TransformSummary renders the UI banner for the last transform run.
func (s *DatasetService) TransformSummary(id string) (string, error) {
	sess, err := s.get(id)
	if err != nil {
		return "", err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return dataprocessing.NewPipeline(s.logger).Summary(sess.result), nil
}

func (s *DatasetService) chartOp(id string, op func(*pareto.Engine) error, broadcast bool) (*pareto.ChartOption, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.engine == nil {
		return nil, apierrors.NotFoundError("analysis data")
	}
	if err := op(sess.engine); err != nil {
		return nil, err
	}

	chart := pareto.BuildChartOption(sess.engine.View())
	if broadcast && s.hub != nil {
		s.hub.BroadcastChartUpdate(id, chart)
	}
	return chart, nil
}

func (s *DatasetService) get(id string) (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, apierrors.ErrDatasetNotFound
	}
	return sess, nil
}

func (s *DatasetService) info(sess *session) *DatasetInfo {
	info := &DatasetInfo{
		ID:                    sess.id,
		Filename:              sess.filename,
		UploadedAt:            sess.uploadedAt,
		SheetName:             sess.parse.SheetName,
		RowCount:              sess.parse.RowCount,
		SkippedEmptyWorkOrder: sess.parse.SkippedEmptyWorkOrder,
		Headers:               sess.parse.Headers,
		Preview:               sess.parse.Preview(previewRows),
		Validation:            sess.validation,
		Transformed:           sess.result != nil,
	}
	if sess.result != nil {
		stats := sess.result.Stats
		info.Stats = &stats
	}
	return info
}

func (s *DatasetService) progress(id, stage string, pct int) {
	if s.hub != nil {
		s.hub.BroadcastTransformProgress(id, stage, pct)
	}
}

func (s *DatasetService) extensionAllowed(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range s.limits.AllowedExtensions {
		if ext == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

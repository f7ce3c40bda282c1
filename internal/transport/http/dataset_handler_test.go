package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"efscli/internal/dataprocessing"
	apierrors "efscli/internal/errors"
	"efscli/internal/pareto"
	"efscli/internal/services"
	"efscli/pkg/contracts/domain"
)

// stubService is a canned DatasetServiceInterface implementation.
type stubService struct {
	info      *services.DatasetInfo
	infos     []*services.DatasetInfo
	valResult *domain.ValidationResult
	result    *dataprocessing.TransformResult
	page      *services.RowPage
	deleted   *domain.DeletedRows
	chart     *pareto.ChartOption
	summary   string
	err       error

	drilledName    string
	switchedMetric string
}

func (s *stubService) Upload(ctx context.Context, filename string, size int64, r io.Reader) (*services.DatasetInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	io.Copy(io.Discard, r)
	return s.info, nil
}

func (s *stubService) Info(id string) (*services.DatasetInfo, error) {
	return s.info, s.err
}

func (s *stubService) List() []*services.DatasetInfo { return s.infos }

func (s *stubService) Delete(id string) error { return s.err }

func (s *stubService) Validate(ctx context.Context, id string) (*domain.ValidationResult, error) {
	return s.valResult, s.err
}

func (s *stubService) Transform(ctx context.Context, id string) (*dataprocessing.TransformResult, error) {
	return s.result, s.err
}

func (s *stubService) Rows(id string, offset, limit int) (*services.RowPage, error) {
	return s.page, s.err
}

func (s *stubService) DeletedRows(id string) (*domain.DeletedRows, error) {
	return s.deleted, s.err
}

func (s *stubService) Export(ctx context.Context, id, format string, w io.Writer) (string, string, error) {
	if s.err != nil {
		return "", "", s.err
	}
	w.Write([]byte("col\nval\n"))
	return "dataset_cleaned." + format, "text/csv; charset=utf-8", nil
}

func (s *stubService) TransformSummary(id string) (string, error) { return s.summary, s.err }

func (s *stubService) Chart(id string) (*pareto.ChartOption, error) { return s.chart, s.err }

func (s *stubService) DrillDown(id, name string) (*pareto.ChartOption, error) {
	s.drilledName = name
	return s.chart, s.err
}

func (s *stubService) GoBack(id string) (*pareto.ChartOption, error)    { return s.chart, s.err }
func (s *stubService) ResetChart(id string) (*pareto.ChartOption, error) { return s.chart, s.err }

func (s *stubService) SwitchMetric(id, metric string) (*pareto.ChartOption, error) {
	s.switchedMetric = metric
	return s.chart, s.err
}

func (s *stubService) ToggleKeyOnly(id string) (*pareto.ChartOption, error) { return s.chart, s.err }

func newTestRouter(svc DatasetServiceInterface) http.Handler {
	handler := NewDatasetHandler(svc, nil, apierrors.NewErrorHandler(nil, false))
	r := chi.NewRouter()
	r.Mount("/api/datasets", handler.Routes())
	return r
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestDatasetHandler_Upload(t *testing.T) {
	svc := &stubService{info: &services.DatasetInfo{ID: "ds-1", Filename: "log.xlsx", RowCount: 3}}
	router := newTestRouter(svc)

	body, contentType := multipartBody(t, "file", "log.xlsx", []byte("fake"))
	req := httptest.NewRequest(http.MethodPost, "/api/datasets", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var info services.DatasetInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "ds-1", info.ID)
}

func TestDatasetHandler_Upload_MissingFile(t *testing.T) {
	router := newTestRouter(&stubService{})

	req := httptest.NewRequest(http.MethodPost, "/api/datasets", strings.NewReader("not multipart"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDatasetHandler_Get(t *testing.T) {
	svc := &stubService{info: &services.DatasetInfo{ID: "ds-1"}}
	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/datasets/ds-1", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ds-1")
}

func TestDatasetHandler_Get_NotFound(t *testing.T) {
	svc := &stubService{err: apierrors.ErrDatasetNotFound}
	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/datasets/missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "DATASET_NOT_FOUND")
}

func TestDatasetHandler_Transform(t *testing.T) {
	svc := &stubService{result: &dataprocessing.TransformResult{
		Data:  &domain.Dataset{Headers: []string{"工单号"}, Rows: []domain.Row{{"工单号": "WO-1"}}},
		Stats: domain.TransformStats{TotalRowsRemoved: 1},
	}}
	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/datasets/ds-1/transform", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(1), resp["rowCount"])
}

func TestDatasetHandler_Rows_PassesPaging(t *testing.T) {
	svc := &stubService{page: &services.RowPage{Total: 5, Offset: 2}}
	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/datasets/ds-1/rows?offset=2&limit=2", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var page services.RowPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 5, page.Total)
}

func TestDatasetHandler_Export(t *testing.T) {
	router := newTestRouter(&stubService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/datasets/ds-1/export?format=csv", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Equal(t, "col\nval\n", rec.Body.String())
}

func TestDatasetHandler_Export_BeforeTransform(t *testing.T) {
	svc := &stubService{err: apierrors.NotFoundError("transformed data")}
	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/datasets/ds-1/export", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Header().Get("Content-Disposition"))
}

func TestDatasetHandler_Delete(t *testing.T) {
	router := newTestRouter(&stubService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/datasets/ds-1", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestDatasetHandler_Validate(t *testing.T) {
	svc := &stubService{valResult: &domain.ValidationResult{Valid: true, Warnings: []string{"发现 1 行时间数据不完整（将在处理时删除）"}}}
	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/datasets/ds-1/validate", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var result domain.ValidationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Valid)
	assert.Len(t, result.Warnings, 1)
}

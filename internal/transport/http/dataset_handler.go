package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "efscli/internal/errors"
	custommw "efscli/internal/middleware"
)

// DatasetHandler handles dataset lifecycle requests: upload, validate,
// transform, inspect and export.
type DatasetHandler struct {
	service      DatasetServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	charts       *ChartHandler
}

// NewDatasetHandler creates a new dataset handler.
func NewDatasetHandler(service DatasetServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DatasetHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DatasetHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "dataset_handler")),
		errorHandler: errorHandler,
		charts:       NewChartHandler(service, logger, errorHandler),
	}
}

// Routes returns the dataset routes.
func (h *DatasetHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/", h.Upload)
	r.Get("/", h.List)

	r.Route("/{datasetID}", func(r chi.Router) {
		r.Use(h.DatasetCtx)
		r.Get("/", h.Get)
		r.Delete("/", h.Delete)
		r.Post("/validate", h.Validate)
		r.Post("/transform", h.Transform)
		r.Get("/rows", h.Rows)
		r.Get("/deleted-rows", h.DeletedRows)
		r.Get("/summary", h.Summary)
		r.Get("/export", h.Export)
		r.Mount("/chart", h.charts.Routes())
	})

	return r
}

// DatasetCtx validates the dataset ID parameter.
func (h *DatasetHandler) DatasetCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "datasetID") == "" {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("datasetID", "dataset ID is required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Upload handles POST /api/datasets. The workbook arrives as the
// multipart field "file".
func (h *DatasetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	reqID := custommw.GetRequestID(r.Context())

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "multipart field \"file\" is required"))
		return
	}
	defer file.Close()

	h.logger.InfoContext(r.Context(), "upload received",
		slog.String("request_id", reqID),
		slog.String("filename", header.Filename),
		slog.Int64("size", header.Size))

	info, err := h.service.Upload(r.Context(), header.Filename, header.Size, file)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, info)
}

// List handles GET /api/datasets.
func (h *DatasetHandler) List(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"datasets": h.service.List(),
	})
}

// Get handles GET /api/datasets/{datasetID}.
func (h *DatasetHandler) Get(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.Info(chi.URLParam(r, "datasetID"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, info)
}

// Delete handles DELETE /api/datasets/{datasetID}.
func (h *DatasetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(chi.URLParam(r, "datasetID")); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.Status(r, http.StatusNoContent)
	render.NoContent(w, r)
}

// Validate handles POST /api/datasets/{datasetID}/validate.
func (h *DatasetHandler) Validate(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Validate(r.Context(), chi.URLParam(r, "datasetID"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, result)
}

// Transform handles POST /api/datasets/{datasetID}/transform.
func (h *DatasetHandler) Transform(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "datasetID")
	result, err := h.service.Transform(r.Context(), id)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"datasetId": id,
		"rowCount":  len(result.Data.Rows),
		"stats":     result.Stats,
	})
}

// Rows handles GET /api/datasets/{datasetID}/rows?offset=&limit=.
func (h *DatasetHandler) Rows(w http.ResponseWriter, r *http.Request) {
	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", 0)

	page, err := h.service.Rows(chi.URLParam(r, "datasetID"), offset, limit)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, page)
}

// DeletedRows handles GET /api/datasets/{datasetID}/deleted-rows.
func (h *DatasetHandler) DeletedRows(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.service.DeletedRows(chi.URLParam(r, "datasetID"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, deleted)
}

// Summary handles GET /api/datasets/{datasetID}/summary.
func (h *DatasetHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.TransformSummary(chi.URLParam(r, "datasetID"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]string{"summary": summary})
}

// Export handles GET /api/datasets/{datasetID}/export?format=csv|json|xlsx.
// The export is buffered so headers are only written on success.
func (h *DatasetHandler) Export(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	var buf bytes.Buffer
	name, contentType, err := h.service.Export(r.Context(), chi.URLParam(r, "datasetID"), format, &buf)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(name)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

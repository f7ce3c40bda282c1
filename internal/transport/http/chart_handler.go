package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "efscli/internal/errors"
	"efscli/internal/pareto"
)

// ChartHandler serves the Pareto chart and its navigation operations.
// All routes hang off a dataset: /api/datasets/{datasetID}/chart.
type ChartHandler struct {
	service      DatasetServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewChartHandler creates a new chart handler.
func NewChartHandler(service DatasetServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ChartHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChartHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "chart_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the chart routes.
func (h *ChartHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.Get)
	r.Post("/drill", h.Drill)
	r.Post("/back", h.Back)
	r.Post("/reset", h.Reset)
	r.Put("/metric", h.Metric)
	r.Post("/key-only", h.KeyOnly)

	return r
}

// drillRequest is the body of POST .../chart/drill.
type drillRequest struct {
	Name string `json:"name"`
}

func (d *drillRequest) Bind(r *http.Request) error {
	if d.Name == "" {
		return apierrors.ErrValidation("name", "group name is required")
	}
	return nil
}

// metricRequest is the body of PUT .../chart/metric.
type metricRequest struct {
	Metric string `json:"metric"`
}

func (m *metricRequest) Bind(r *http.Request) error {
	if m.Metric == "" {
		return apierrors.ErrValidation("metric", "metric is required")
	}
	return nil
}

// Get handles GET .../chart.
func (h *ChartHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func(id string) (*pareto.ChartOption, error) {
		return h.service.Chart(id)
	})
}

// Drill handles POST .../chart/drill.
func (h *ChartHandler) Drill(w http.ResponseWriter, r *http.Request) {
	data := &drillRequest{}
	if err := render.Bind(r, data); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respond(w, r, func(id string) (*pareto.ChartOption, error) {
		return h.service.DrillDown(id, data.Name)
	})
}

// Back handles POST .../chart/back.
func (h *ChartHandler) Back(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.service.GoBack)
}

// Reset handles POST .../chart/reset.
func (h *ChartHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.service.ResetChart)
}

// Metric handles PUT .../chart/metric.
func (h *ChartHandler) Metric(w http.ResponseWriter, r *http.Request) {
	data := &metricRequest{}
	if err := render.Bind(r, data); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respond(w, r, func(id string) (*pareto.ChartOption, error) {
		return h.service.SwitchMetric(id, data.Metric)
	})
}

// KeyOnly handles POST .../chart/key-only.
func (h *ChartHandler) KeyOnly(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.service.ToggleKeyOnly)
}

func (h *ChartHandler) respond(w http.ResponseWriter, r *http.Request, op func(id string) (*pareto.ChartOption, error)) {
	chart, err := op(chi.URLParam(r, "datasetID"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, chart)
}

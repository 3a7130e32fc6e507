package handler

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"pricetrends/internal/pricing/models"
	"pricetrends/internal/pricing/render"
	"pricetrends/pkg/platform/httputil"
	"pricetrends/pkg/requestcontext"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Service defines the pricing operations the handler needs.
type Service interface {
	Bounds(ctx context.Context) (models.DateRange, error)
	Dashboard(ctx context.Context, params models.Params) (*models.Dashboard, error)
	Report(ctx context.Context, params models.Params, kind models.ReportKind) (models.Series, error)
}

// Handler wires pricing trend endpoints to the pricing service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a pricing handler.
func New(service Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{service: service, logger: logger}
}

// Register mounts pricing endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/pricing", func(r chi.Router) {
		r.Get("/bounds", h.HandleBounds)
		r.Get("/dashboard", h.HandleDashboard)
		r.Get("/dashboard.xlsx", h.HandleWorkbook)
		r.Get("/reports/{kind}", h.HandleReport)
		r.Get("/reports/{kind}/chart.png", h.HandleChart)
	})
}

// HandleBounds handles GET /pricing/bounds.
func (h *Handler) HandleBounds(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bounds, err := h.service.Bounds(ctx)
	if err != nil {
		h.fail(ctx, w, "bounds lookup failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromRange(bounds))
}

// HandleDashboard handles GET /pricing/dashboard.
func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	d, ok := h.dashboard(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}

// HandleWorkbook handles GET /pricing/dashboard.xlsx.
func (h *Handler) HandleWorkbook(w http.ResponseWriter, r *http.Request) {
	d, ok := h.dashboard(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := render.WriteWorkbook(&buf, d); err != nil {
		h.fail(r.Context(), w, "workbook render failed", err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+render.WorkbookName+`"`)
	writeBytes(w, xlsxContentType, buf.Bytes())
}

// HandleReport handles GET /pricing/reports/{kind}.
func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	series, ok := h.report(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, series)
}

// HandleChart handles GET /pricing/reports/{kind}/chart.png.
func (h *Handler) HandleChart(w http.ResponseWriter, r *http.Request) {
	series, ok := h.report(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := render.PNG(&buf, series); err != nil {
		h.fail(r.Context(), w, "chart render failed", err)
		return
	}
	writeBytes(w, "image/png", buf.Bytes())
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) (*models.Dashboard, bool) {
	ctx := r.Context()
	params, err := parseParams(r)
	if err != nil {
		httputil.WriteError(w, err)
		return nil, false
	}
	start := time.Now()
	d, err := h.service.Dashboard(ctx, params)
	if err != nil {
		h.fail(ctx, w, "dashboard failed", err)
		return nil, false
	}
	h.logger.InfoContext(ctx, "dashboard served",
		"request_id", requestcontext.RequestID(ctx),
		"run_id", d.RunID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return d, true
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) (models.Series, bool) {
	ctx := r.Context()
	kind, err := parseKind(r)
	if err != nil {
		httputil.WriteError(w, err)
		return models.Series{}, false
	}
	params, err := parseParams(r)
	if err != nil {
		httputil.WriteError(w, err)
		return models.Series{}, false
	}
	series, err := h.service.Report(ctx, params, kind)
	if err != nil {
		h.fail(ctx, w, "report failed", err)
		return models.Series{}, false
	}
	return series, true
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	h.logger.ErrorContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}

func writeBytes(w http.ResponseWriter, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

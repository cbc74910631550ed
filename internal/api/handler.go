// Package api serves stored billing reports over HTTP.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"energy_bill/internal/billing"
	"energy_bill/internal/logger"
	"energy_bill/internal/metrics"
	"energy_bill/internal/model"
	"energy_bill/internal/report"
	"energy_bill/internal/store"
)

const (
	latestID      = "latest"
	statementXLSX = "statement.xlsx"
	statementPDF  = "statement.pdf"

	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypePDF  = "application/pdf"
)

// ErrResponse is the JSON body of every error reply.
type ErrResponse struct {
	Error string `json:"error"`
}

// ReportResponse describes one report with its rendered totals.
type ReportResponse struct {
	store.Summary
	ParseErrors []string          `json:"parse_errors,omitempty"`
	Totals      report.TotalsView `json:"totals"`
}

func newReportResponse(r *billing.Report) ReportResponse {
	return ReportResponse{
		Summary:     store.Summarize(r),
		ParseErrors: r.ParseErrors,
		Totals:      report.NewTotalsView(r.Totals),
	}
}

// Handler serves the report endpoints.
type Handler struct {
	svc *Service
	log logrus.FieldLogger
}

func NewHandler(svc *Service, log logrus.FieldLogger) *Handler {
	return &Handler{svc: svc, log: logger.OrDiscard(log).WithField("component", "api")}
}

// NewRouter mounts the report API, the WebSocket endpoint and /metrics.
// Unmatched paths go to static when it is non-nil.
func NewRouter(h *Handler, wsHandler, static http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.log))
	r.Use(middleware.Recoverer)

	r.Get("/health", h.Health)
	r.Handle("/metrics", metrics.Handler())
	if wsHandler != nil {
		r.Handle("/ws", wsHandler)
	}
	r.Mount("/api/reports", h.Routes())
	if static != nil {
		r.NotFound(static.ServeHTTP)
	}
	return r
}

// Routes returns the /api/reports routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListReports)
	r.Post("/", h.CreateReport)
	r.Get("/{id}", h.GetReport)
	r.Get("/{id}/{view}", h.GetView)
	return r
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{
		"status":  "ok",
		"reports": h.svc.Store().Len(),
		"tariff":  h.svc.TariffName(),
	})
}

// ListReports handles GET /api/reports
func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.svc.Store().List())
}

// CreateReport handles POST /api/reports
func (h *Handler) CreateReport(w http.ResponseWriter, r *http.Request) {
	rep, err := h.svc.Reload(r.Context())
	if err != nil {
		h.log.WithError(err).Error("report reload failed")
		h.renderError(w, r, http.StatusInternalServerError, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, newReportResponse(rep))
}

// GetReport handles GET /api/reports/{id}
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.resolve(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, newReportResponse(rep))
}

// GetView handles GET /api/reports/{id}/{view}. The view is one of the
// rendered views or a statement download.
func (h *Handler) GetView(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.resolve(w, r)
	if !ok {
		return
	}

	name := chi.URLParam(r, "view")
	switch name {
	case statementXLSX:
		h.sendStatement(w, r, rep, "xlsx", contentTypeXLSX, report.XLSX)
		return
	case statementPDF:
		h.sendStatement(w, r, rep, "pdf", contentTypePDF, report.PDF)
		return
	}

	view, err := model.ParseView(name)
	if err != nil {
		h.renderError(w, r, http.StatusBadRequest, err)
		return
	}
	if view == model.ViewSummary {
		metrics.IncExport(string(view), metrics.ResultSuccess)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if err := report.WriteSummary(w, rep.Totals); err != nil {
			h.log.WithError(err).Warn("writing summary")
		}
		return
	}

	data, err := report.ViewData(rep, view)
	if err != nil {
		metrics.IncExport(string(view), metrics.ResultError)
		h.renderError(w, r, http.StatusInternalServerError, err)
		return
	}
	metrics.IncExport(string(view), metrics.ResultSuccess)
	render.JSON(w, r, data)
}

func (h *Handler) sendStatement(w http.ResponseWriter, r *http.Request, rep *billing.Report, format, contentType string, build func(*billing.Report) ([]byte, error)) {
	data, err := build(rep)
	if err != nil {
		metrics.IncExport(format, metrics.ResultError)
		h.log.WithError(err).WithField("format", format).Error("building statement")
		h.renderError(w, r, http.StatusInternalServerError, err)
		return
	}
	metrics.IncExport(format, metrics.ResultSuccess)

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("statement-%s.%s", rep.ID, format)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// resolve finds the report named by the {id} parameter. "latest" selects
// the newest report, or with ?at=RFC3339 the newest created at or before
// that instant.
func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) (*billing.Report, bool) {
	s := h.svc.Store()
	id := chi.URLParam(r, "id")

	var (
		rep *billing.Report
		err error
	)
	if id == latestID {
		if at := r.URL.Query().Get("at"); at != "" {
			t, perr := time.Parse(time.RFC3339, at)
			if perr != nil {
				h.renderError(w, r, http.StatusBadRequest, fmt.Errorf("invalid at %q: %w", at, perr))
				return nil, false
			}
			rep, err = s.ReportAt(t)
		} else {
			rep, err = s.Latest()
		}
	} else {
		parsed, perr := uuid.Parse(id)
		if perr != nil {
			h.renderError(w, r, http.StatusBadRequest, fmt.Errorf("invalid report id %q", id))
			return nil, false
		}
		rep, err = s.Get(parsed)
	}

	if errors.Is(err, store.ErrNotFound) {
		h.renderError(w, r, http.StatusNotFound, err)
		return nil, false
	}
	if err != nil {
		h.renderError(w, r, http.StatusInternalServerError, err)
		return nil, false
	}
	return rep, true
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, err error) {
	render.Status(r, status)
	render.JSON(w, r, ErrResponse{Error: err.Error()})
}

func requestLogger(log logrus.FieldLogger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			log.WithFields(logrus.Fields{
				"request_id": middleware.GetReqID(r.Context()),
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"duration":   time.Since(start).String(),
			}).Debug("request completed")
		})
	}
}

// Package http wires the KPI pipeline to its HTTP surface: multipart report
// uploads in, JSON summary tables and the Excel workbook out.
package http

import (
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "claimskpi/internal/errors"
	"claimskpi/internal/exporter"
	"claimskpi/internal/kpi"
	"claimskpi/internal/loader"
	"claimskpi/internal/services"
)

// Multipart field names of the report upload.
const (
	FieldClaims       = "claims"
	FieldTransactions = "transactions"
	FieldRemittance   = "era"
	FieldToday        = "today"
)

// ReportHandler serves report building and retrieval.
type ReportHandler struct {
	service        *services.ReportService
	loader         *loader.Loader
	workbook       *exporter.WorkbookWriter
	logger         *slog.Logger
	maxUploadBytes int64
}

// NewReportHandler creates a report handler.
func NewReportHandler(service *services.ReportService, ld *loader.Loader, wb *exporter.WorkbookWriter, logger *slog.Logger, maxUploadBytes int64) *ReportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportHandler{
		service:        service,
		loader:         ld,
		workbook:       wb,
		logger:         logger.With(slog.String("component", "report_handler")),
		maxUploadBytes: maxUploadBytes,
	}
}

// Routes returns the report routes.
func (h *ReportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/", h.CreateReport)
	r.Get("/tables", h.ListTables)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.GetReport)
		r.Get("/tables/{name}", h.GetTable)
		r.Get("/workbook", h.DownloadWorkbook)
	})

	return r
}

// CreateReport handles POST /api/reports: a multipart upload of the
// claim-detail and daily-transactions files, an optional ERA file, and an
// optional reporting date.
func (h *ReportHandler) CreateReport(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		h.renderError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	claims, err := formUpload(r, FieldClaims)
	if err != nil {
		h.renderError(w, r, apierrors.ErrValidation(FieldClaims, "claim detail file is required"))
		return
	}
	transactions, err := formUpload(r, FieldTransactions)
	if err != nil {
		h.renderError(w, r, apierrors.ErrValidation(FieldTransactions, "daily transactions file is required"))
		return
	}
	remittance, _ := formUpload(r, FieldRemittance)

	today := time.Time{}
	if v := r.FormValue(FieldToday); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			h.renderError(w, r, apierrors.ErrValidation(FieldToday, "reporting date must be YYYY-MM-DD"))
			return
		}
		today = parsed
	}

	batches, err := h.loader.LoadAll(r.Context(), *claims, *transactions, remittance)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to load uploads",
			slog.String("request_id", reqID),
			slog.String("error", err.Error()))
		h.renderError(w, r, apierrors.FromError(err))
		return
	}

	envelope, err := h.service.Build(r.Context(), kpi.Inputs{
		Claims:       batches.Claims,
		Transactions: batches.Transactions,
		Remittance:   batches.Remittance,
		Today:        today,
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to build report",
			slog.String("request_id", reqID),
			slog.String("error", err.Error()))
		h.renderError(w, r, apierrors.FromError(err))
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]interface{}{
		"status":   "success",
		"id":       envelope.ID,
		"cached":   envelope.Cached,
		"warnings": envelope.Report.Warnings,
		"tables":   services.TableNames(),
	})
}

// GetReport handles GET /api/reports/{id}.
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	envelope, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.renderError(w, r, apierrors.FromError(err))
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"id":     envelope.ID,
		"data":   envelope.Report,
	})
}

// ListTables handles GET /api/reports/tables.
func (h *ReportHandler) ListTables(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   services.TableNames(),
	})
}

// GetTable handles GET /api/reports/{id}/tables/{name}.
func (h *ReportHandler) GetTable(w http.ResponseWriter, r *http.Request) {
	envelope, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.renderError(w, r, apierrors.FromError(err))
		return
	}
	table, err := services.Table(envelope.Report, chi.URLParam(r, "name"))
	if err != nil {
		h.renderError(w, r, apierrors.FromError(err))
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   table,
	})
}

// DownloadWorkbook handles GET /api/reports/{id}/workbook, streaming the
// Excel KPI workbook.
func (h *ReportHandler) DownloadWorkbook(w http.ResponseWriter, r *http.Request) {
	envelope, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.renderError(w, r, apierrors.FromError(err))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "weekly_kpis_"+envelope.ID+".xlsx"))

	if err := h.workbook.Write(r.Context(), w, envelope.Report); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to stream workbook",
			slog.String("report_id", envelope.ID),
			slog.String("error", err.Error()))
	}
}

func (h *ReportHandler) renderError(w http.ResponseWriter, r *http.Request, apiErr *apierrors.APIError) {
	render.Status(r, apiErr.StatusCode)
	render.JSON(w, r, apierrors.NewErrorResponse(apiErr))
}

func formUpload(r *http.Request, field string) (*loader.Upload, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	return &loader.Upload{Name: headerName(header), Data: data}, nil
}

func headerName(h *multipart.FileHeader) string {
	if h == nil {
		return ""
	}
	return h.Filename
}

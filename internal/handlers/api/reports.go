package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/factura-eu/api/internal/services/oss"
	"github.com/factura-eu/api/internal/vat"
)

// ReportHandler serves the OSS declaration report and threshold status.
type ReportHandler struct {
	reporter *oss.Reporter
	tracker  *oss.Tracker
	logger   *slog.Logger
	now      func() time.Time
}

// NewReportHandler creates a new report handler.
func NewReportHandler(reporter *oss.Reporter, tracker *oss.Tracker, logger *slog.Logger) *ReportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportHandler{reporter: reporter, tracker: tracker, logger: logger, now: time.Now}
}

// WithClock overrides the clock used for the default period. Intended for tests.
func (h *ReportHandler) WithClock(now func() time.Time) *ReportHandler {
	h.now = now
	return h
}

// RegisterRoutes registers the report routes on the given mux.
func (h *ReportHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/reports/oss", h.OSSReport)
	mux.HandleFunc("GET /api/reports/oss/thresholds", h.Thresholds)
}

func (h *ReportHandler) parseYear(r *http.Request) (int, error) {
	v := r.URL.Query().Get("year")
	if v == "" {
		return h.now().Year(), nil
	}
	year, err := strconv.Atoi(v)
	if err != nil || year < 2000 || year > 9999 {
		return 0, errors.New("Invalid year")
	}
	return year, nil
}

// OSSReport returns the quarterly OSS report as JSON or, with format=csv, as
// a CSV download. Year and quarter default to the current period.
func (h *ReportHandler) OSSReport(w http.ResponseWriter, r *http.Request) {
	shop, ok := shopOf(w, r)
	if !ok {
		return
	}

	year, err := h.parseYear(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	quarter := vat.QuarterOf(h.now().Month())
	if v := r.URL.Query().Get("quarter"); v != "" {
		if quarter, err = strconv.Atoi(v); err != nil {
			quarter = 0
		}
	}
	if quarter < 1 || quarter > 4 {
		writeError(w, http.StatusBadRequest, oss.ErrInvalidQuarter.Error())
		return
	}

	report, err := h.reporter.GenerateReport(r.Context(), shop, year, quarter)
	if err != nil {
		h.logger.Error("generating OSS report", "shop", shop, "year", year, "quarter", quarter, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to generate OSS report")
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		data, err := oss.ExportCSV(report)
		if err != nil {
			h.logger.Error("exporting OSS report", "shop", shop, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to export OSS report")
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="`+oss.CSVFilename(report.Period)+`"`)
		w.WriteHeader(http.StatusOK)
		w.Write(data)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "report": report})
}

type thresholdsResponse struct {
	Success  bool          `json:"success"`
	Year     int           `json:"year"`
	Scope    oss.Scope     `json:"scope"`
	Warnings []oss.Warning `json:"warnings"`
	EU       oss.EUSales   `json:"eu"`
}

// Thresholds returns the per-country OSS totals of a year and the combined
// EU figure.
func (h *ReportHandler) Thresholds(w http.ResponseWriter, r *http.Request) {
	shop, ok := shopOf(w, r)
	if !ok {
		return
	}

	year, err := h.parseYear(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	warnings, err := h.tracker.Warnings(r.Context(), shop, year)
	if err != nil {
		h.logger.Error("listing OSS warnings", "shop", shop, "year", year, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load OSS thresholds")
		return
	}
	eu, err := h.tracker.TotalEUSales(r.Context(), shop, year)
	if err != nil {
		h.logger.Error("totalling EU sales", "shop", shop, "year", year, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load OSS thresholds")
		return
	}
	if warnings == nil {
		warnings = []oss.Warning{}
	}

	writeJSON(w, http.StatusOK, thresholdsResponse{
		Success:  true,
		Year:     year,
		Scope:    h.tracker.Scope(),
		Warnings: warnings,
		EU:       eu,
	})
}

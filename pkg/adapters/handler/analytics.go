package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/wadjakorntonsri/go-linkbio/pkg/core/domain"
	"github.com/wadjakorntonsri/go-linkbio/pkg/core/services"
	"github.com/wadjakorntonsri/go-linkbio/pkg/ports"
)

type AnalyticsHandler struct {
	service      ports.AnalyticsService
	writeTimeout time.Duration
}

func NewAnalyticsHandler(service ports.AnalyticsService, writeTimeout time.Duration) *AnalyticsHandler {
	return &AnalyticsHandler{service: service, writeTimeout: writeTimeout}
}

type TrackRequest struct {
	LinktreeID string `json:"linktreeId" validate:"required"`
	LinkID     string `json:"linkId" validate:"required"`
	Referrer   string `json:"referrer"`
}

// Track ingests one click. A client hanging up mid request does not abort
// the write.
func (h *AnalyticsHandler) Track(w http.ResponseWriter, r *http.Request) {
	var req TrackRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "Missing required parameters")
		return
	}

	referrer := req.Referrer
	if referrer == "" {
		referrer = r.Referer()
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.writeTimeout)
	defer cancel()

	id, err := h.service.Ingest(ctx, ports.IngestInput{
		LinktreeRef: req.LinktreeID,
		LinkID:      req.LinkID,
		Referrer:    referrer,
		IP:          ExtractIP(r),
		UserAgent:   r.UserAgent(),
	})
	if err != nil {
		switch domain.KindOf(err) {
		case domain.KindNotFound, domain.KindInvalidInput:
			writeError(w, r, err)
		default:
			writeErrorMessage(w, http.StatusInternalServerError, "Failed to track analytics")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "analyticsId": id})
}

// List returns raw events; pagination travels in the response headers.
func (h *AnalyticsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := ports.AnalyticsQuery{LinktreeRef: q.Get("linktreeId")}

	var err error
	if query.Start, err = parseDate(q.Get("startDate"), false); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "Invalid startDate")
		return
	}
	if query.End, err = parseDate(q.Get("endDate"), true); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "Invalid endDate")
		return
	}
	if query.Page, err = parseInt(q.Get("page")); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "Invalid page")
		return
	}
	if query.Limit, err = parseInt(q.Get("limit")); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "Invalid limit")
		return
	}

	page, err := h.service.Query(r.Context(), UserIDFromContext(r.Context()), query)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("X-Total-Count", strconv.FormatInt(page.Total, 10))
	w.Header().Set("X-Page", strconv.Itoa(page.Page))
	w.Header().Set("X-Limit", strconv.Itoa(page.Limit))
	w.Header().Set("X-Total-Pages", strconv.Itoa(page.TotalPages))
	writeJSON(w, http.StatusOK, page.Events)
}

func (h *AnalyticsHandler) Report(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("linktreeId") == "" {
		writeErrorMessage(w, http.StatusBadRequest, "linktreeId is required")
		return
	}
	rangeDays, err := services.ParseRange(q.Get("range"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	report, err := h.service.Report(r.Context(), UserIDFromContext(r.Context()), q.Get("linktreeId"), rangeDays)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	rangeDays, err := services.ParseRange(r.URL.Query().Get("range"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	stats, err := h.service.Summary(r.Context(), UserIDFromContext(r.Context()), rangeDays)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// parseDate accepts RFC 3339 or a bare YYYY-MM-DD. A bare end date covers
// the whole day.
func parseDate(s string, endOfDay bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Millisecond)
	}
	return &t, nil
}

func parseInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

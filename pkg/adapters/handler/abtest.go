package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/wadjakorntonsri/go-linkbio/pkg/core/domain"
	"github.com/wadjakorntonsri/go-linkbio/pkg/ports"
)

type ABTestHandler struct {
	service      ports.ABTestService
	writeTimeout time.Duration
}

func NewABTestHandler(service ports.ABTestService, writeTimeout time.Duration) *ABTestHandler {
	return &ABTestHandler{service: service, writeTimeout: writeTimeout}
}

type CreateTestRequest struct {
	Name       string `json:"name" validate:"required,max=200"`
	LinktreeID string `json:"linktreeId" validate:"required"`
	LinkID     string `json:"linkId" validate:"required"`
	Variants   []struct {
		Title string `json:"title" validate:"required,max=200"`
		URL   string `json:"url" validate:"required,url"`
	} `json:"variants" validate:"required,min=2,dive"`
}

type UpdateTestStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active paused completed"`
}

type RecordMetricRequest struct {
	VariantID string `json:"variantId" validate:"required"`
	Type      string `json:"type" validate:"required,oneof=impression click"`
}

// ActiveForLink is public: the client asks which variant set to render.
func (h *ABTestHandler) ActiveForLink(w http.ResponseWriter, r *http.Request) {
	t, err := h.service.LookupActiveTest(r.Context(), r.PathValue("linkId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// RecordMetric is public. The write is detached from the client connection.
func (h *ABTestHandler) RecordMetric(w http.ResponseWriter, r *http.Request) {
	var req RecordMetricRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "Invalid parameters")
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.writeTimeout)
	defer cancel()

	err := h.service.RecordEvent(ctx, r.PathValue("testId"), req.VariantID, domain.MetricType(req.Type))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *ABTestHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	m, err := h.service.GetMetrics(r.Context(), UserIDFromContext(r.Context()), r.PathValue("testId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *ABTestHandler) List(w http.ResponseWriter, r *http.Request) {
	tests, err := h.service.ListTests(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tests)
}

func (h *ABTestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTestRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	in := ports.CreateTestInput{
		Name:       req.Name,
		LinktreeID: req.LinktreeID,
		LinkID:     req.LinkID,
		Variants:   make([]ports.VariantInput, 0, len(req.Variants)),
	}
	for _, v := range req.Variants {
		in.Variants = append(in.Variants, ports.VariantInput{Title: v.Title, URL: v.URL})
	}

	t, err := h.service.CreateTest(r.Context(), UserIDFromContext(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *ABTestHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateTestStatusRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	t, err := h.service.UpdateStatus(r.Context(), UserIDFromContext(r.Context()),
		r.PathValue("testId"), domain.TestStatus(req.Status))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

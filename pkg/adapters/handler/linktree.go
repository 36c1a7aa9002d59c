package handler

import (
	"net/http"

	"github.com/wadjakorntonsri/go-linkbio/pkg/ports"
)

type LinktreeHandler struct {
	service ports.LinktreeService
}

func NewLinktreeHandler(service ports.LinktreeService) *LinktreeHandler {
	return &LinktreeHandler{service: service}
}

type CreateLinktreeRequest struct {
	Title     string  `json:"title" validate:"required,max=100"`
	Slug      string  `json:"slug" validate:"required,max=64,slug"`
	Theme     *string `json:"theme,omitempty" validate:"omitempty,max=32"`
	IsDefault *bool   `json:"isDefault,omitempty"`
	IsPublic  *bool   `json:"isPublic,omitempty"`
	Footer    *string `json:"footer,omitempty" validate:"omitempty,max=500"`
}

type UpdateLinktreeRequest struct {
	Title     *string `json:"title,omitempty" validate:"omitempty,max=100"`
	Slug      *string `json:"slug,omitempty" validate:"omitempty,max=64,slug"`
	Theme     *string `json:"theme,omitempty" validate:"omitempty,max=32"`
	IsDefault *bool   `json:"isDefault,omitempty"`
	IsPublic  *bool   `json:"isPublic,omitempty"`
	Footer    *string `json:"footer,omitempty" validate:"omitempty,max=500"`
}

type CreateLinkRequest struct {
	Title   string  `json:"title" validate:"required,max=200"`
	URL     string  `json:"url" validate:"required,url"`
	Icon    *string `json:"icon,omitempty" validate:"omitempty,max=200"`
	Enabled *bool   `json:"enabled,omitempty"`
	Order   *int    `json:"order,omitempty"`
}

type UpdateLinkRequest struct {
	Title   *string `json:"title,omitempty" validate:"omitempty,max=200"`
	URL     *string `json:"url,omitempty" validate:"omitempty,url"`
	Icon    *string `json:"icon,omitempty" validate:"omitempty,max=200"`
	Enabled *bool   `json:"enabled,omitempty"`
	Order   *int    `json:"order,omitempty"`
}

type ReorderLinksRequest struct {
	Links []struct {
		ID    string `json:"id" validate:"required"`
		Order int    `json:"order"`
	} `json:"links" validate:"required,dive"`
}

func (h *LinktreeHandler) List(w http.ResponseWriter, r *http.Request) {
	trees, err := h.service.List(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trees)
}

func (h *LinktreeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateLinktreeRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	lt, err := h.service.Create(r.Context(), UserIDFromContext(r.Context()), ports.LinktreeInput{
		Title:     &req.Title,
		Slug:      &req.Slug,
		Theme:     req.Theme,
		IsDefault: req.IsDefault,
		IsPublic:  req.IsPublic,
		Footer:    req.Footer,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, lt)
}

func (h *LinktreeHandler) Get(w http.ResponseWriter, r *http.Request) {
	lt, err := h.service.Get(r.Context(), UserIDFromContext(r.Context()), r.PathValue("slug"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lt)
}

func (h *LinktreeHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateLinktreeRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	lt, err := h.service.Update(r.Context(), UserIDFromContext(r.Context()), r.PathValue("slug"), ports.LinktreeInput{
		Title:     req.Title,
		Slug:      req.Slug,
		Theme:     req.Theme,
		IsDefault: req.IsDefault,
		IsPublic:  req.IsPublic,
		Footer:    req.Footer,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lt)
}

func (h *LinktreeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), UserIDFromContext(r.Context()), r.PathValue("slug")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *LinktreeHandler) AddLink(w http.ResponseWriter, r *http.Request) {
	var req CreateLinkRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	link, err := h.service.AddLink(r.Context(), UserIDFromContext(r.Context()), r.PathValue("slug"), ports.LinkInput{
		Title:   &req.Title,
		URL:     &req.URL,
		Icon:    req.Icon,
		Enabled: req.Enabled,
		Order:   req.Order,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, link)
}

func (h *LinktreeHandler) UpdateLink(w http.ResponseWriter, r *http.Request) {
	var req UpdateLinkRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	link, err := h.service.UpdateLink(r.Context(), UserIDFromContext(r.Context()),
		r.PathValue("slug"), r.PathValue("linkId"), ports.LinkInput{
			Title:   req.Title,
			URL:     req.URL,
			Icon:    req.Icon,
			Enabled: req.Enabled,
			Order:   req.Order,
		})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, link)
}

func (h *LinktreeHandler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	err := h.service.DeleteLink(r.Context(), UserIDFromContext(r.Context()), r.PathValue("slug"), r.PathValue("linkId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *LinktreeHandler) ReorderLinks(w http.ResponseWriter, r *http.Request) {
	var req ReorderLinksRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	order := make([]ports.LinkOrder, 0, len(req.Links))
	for _, l := range req.Links {
		order = append(order, ports.LinkOrder{ID: l.ID, Order: l.Order})
	}
	lt, err := h.service.ReorderLinks(r.Context(), UserIDFromContext(r.Context()), r.PathValue("slug"), order)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lt)
}

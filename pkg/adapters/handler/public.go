package handler

import (
	"net/http"

	"github.com/wadjakorntonsri/go-linkbio/pkg/ports"
)

type PublicHandler struct {
	resolver ports.ResolverService
}

func NewPublicHandler(resolver ports.ResolverService) *PublicHandler {
	return &PublicHandler{resolver: resolver}
}

// GetLinktree serves the visitor view of a slug. Private linktrees answer
// 403 to everyone but their owner.
func (h *PublicHandler) GetLinktree(w http.ResponseWriter, r *http.Request) {
	view, err := h.resolver.Resolve(r.Context(), r.PathValue("slug"), UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, view)
}

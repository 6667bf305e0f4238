package handlers

import (
	"net/http"

	"yatube/internal/middleware"
)

// clearCache drops every cached page. Staff only.
func (h *Handler) clearCache(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.ViewerFromContext(r.Context())
	if !viewer.IsStaff {
		h.renderError(w, r, http.StatusForbidden, "Staff only")
		return
	}
	if err := h.pageCache.Clear(r.Context()); err != nil {
		h.serverError(w, r, err)
		return
	}
	h.log.WithField("by", viewer.Username).Info("Page cache cleared")
	redirect(w, r, "/")
}

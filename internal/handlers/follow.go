package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"yatube/internal/middleware"
	"yatube/internal/store"
	"yatube/internal/views"
)

func (h *Handler) followIndex(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.ViewerFromContext(r.Context())
	page, err := h.listPosts(r.Context(), store.PostFilter{FollowerID: viewer.ID}, r.URL.Query().Get("page"))
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, views.FollowPage{
		Base: h.base(r, "Following"),
		Page: page,
	})
}

func (h *Handler) profileFollow(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.ViewerFromContext(r.Context())
	author, err := h.store.UserByUsername(r.Context(), mux.Vars(r)["username"])
	if err != nil {
		h.lookupFailed(w, r, err)
		return
	}

	created, err := h.store.Follow(r.Context(), viewer.ID, author.ID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	if created {
		h.metrics.FollowRequests.Inc()
		h.log.WithFields(logrus.Fields{"user": viewer.Username, "author": author.Username}).Info("Follow created")
	}
	redirect(w, r, profileURL(author.Username))
}

func (h *Handler) profileUnfollow(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.ViewerFromContext(r.Context())
	author, err := h.store.UserByUsername(r.Context(), mux.Vars(r)["username"])
	if err != nil {
		h.lookupFailed(w, r, err)
		return
	}

	removed, err := h.store.Unfollow(r.Context(), viewer.ID, author.ID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	if removed {
		h.metrics.UnfollowRequests.Inc()
	}
	redirect(w, r, profileURL(author.Username))
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"yatube/internal/blob"
	"yatube/internal/forms"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/store"
	"yatube/internal/views"
)

const msgBadImage = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	page, err := h.listPosts(r.Context(), store.PostFilter{}, r.URL.Query().Get("page"))
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, views.IndexPage{
		Base: h.base(r, "Latest updates"),
		Page: page,
	})
}

func (h *Handler) groupPosts(w http.ResponseWriter, r *http.Request) {
	group, err := h.store.GroupBySlug(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		h.lookupFailed(w, r, err)
		return
	}
	page, err := h.listPosts(r.Context(), store.PostFilter{GroupID: group.ID}, r.URL.Query().Get("page"))
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, views.GroupPage{
		Base:  h.base(r, group.Title),
		Group: *group,
		Page:  page,
	})
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	author, err := h.store.UserByUsername(r.Context(), mux.Vars(r)["username"])
	if err != nil {
		h.lookupFailed(w, r, err)
		return
	}
	page, err := h.listPosts(r.Context(), store.PostFilter{AuthorID: author.ID}, r.URL.Query().Get("page"))
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	following := false
	if viewer := middleware.ViewerFromContext(r.Context()); viewer != nil {
		following, err = h.store.IsFollowing(r.Context(), viewer.ID, author.ID)
		if err != nil {
			h.serverError(w, r, err)
			return
		}
	}

	h.render(w, r, http.StatusOK, views.ProfilePage{
		Base:      h.base(r, "Profile of "+author.DisplayName()),
		Author:    *author,
		Page:      page,
		Following: following,
	})
}

func (h *Handler) postDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(r)
	if !ok {
		h.notFound(w, r)
		return
	}
	post, err := h.store.PostByID(r.Context(), id)
	if err != nil {
		h.lookupFailed(w, r, err)
		return
	}
	h.renderPostDetail(w, r, post, &forms.CommentForm{Errors: forms.Errors{}})
}

func (h *Handler) renderPostDetail(w http.ResponseWriter, r *http.Request, post *models.Post, form *forms.CommentForm) {
	comments, err := h.store.CommentsForPost(r.Context(), post.ID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	count, err := h.store.CountPosts(r.Context(), store.PostFilter{AuthorID: post.AuthorID})
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, views.PostDetailPage{
		Base:            h.base(r, "Post "+post.Excerpt()),
		Post:            *post,
		Comments:        comments,
		Form:            form,
		AuthorPostCount: count,
	})
}

func (h *Handler) postCreate(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.ViewerFromContext(r.Context())
	groups, err := h.store.ListGroups(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	if r.Method != http.MethodPost {
		h.render(w, r, http.StatusOK, views.PostFormPage{
			Base:   h.base(r, "New post"),
			Form:   &forms.PostForm{Errors: forms.Errors{}},
			Groups: groups,
		})
		return
	}

	if !h.parsePostForm(w, r) {
		return
	}
	form := forms.NewPostForm(r.PostForm)
	image, ok := h.validatePostForm(r, form, groups)
	if !ok {
		h.render(w, r, http.StatusOK, views.PostFormPage{
			Base:   h.base(r, "New post"),
			Form:   form,
			Groups: groups,
		})
		return
	}

	post := &models.Post{
		Text:     form.Text,
		GroupID:  form.GroupID,
		Image:    image,
		AuthorID: viewer.ID,
	}
	if err := h.store.CreatePost(r.Context(), post); err != nil {
		h.discardImage(r, image)
		h.serverError(w, r, err)
		return
	}
	h.metrics.PostsCreated.Inc()
	h.log.WithFields(logrus.Fields{"post_id": post.ID, "author": viewer.Username}).Info("Post created")
	redirect(w, r, profileURL(viewer.Username))
}

func (h *Handler) postEdit(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.ViewerFromContext(r.Context())
	id, ok := postID(r)
	if !ok {
		h.notFound(w, r)
		return
	}
	post, err := h.store.PostByID(r.Context(), id)
	if err != nil {
		h.lookupFailed(w, r, err)
		return
	}
	if post.AuthorID != viewer.ID {
		redirect(w, r, postURL(post.ID))
		return
	}
	groups, err := h.store.ListGroups(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	if r.Method != http.MethodPost {
		h.render(w, r, http.StatusOK, views.PostFormPage{
			Base:   h.base(r, "Edit post"),
			Form:   forms.PostFormFrom(post),
			Groups: groups,
			Post:   post,
		})
		return
	}

	if !h.parsePostForm(w, r) {
		return
	}
	form := forms.NewPostForm(r.PostForm)
	image, ok := h.validatePostForm(r, form, groups)
	if !ok {
		h.render(w, r, http.StatusOK, views.PostFormPage{
			Base:   h.base(r, "Edit post"),
			Form:   form,
			Groups: groups,
			Post:   post,
		})
		return
	}

	oldImage := post.Image
	switch {
	case image != "":
		post.Image = image
	case form.ClearImage:
		post.Image = ""
	}
	post.Text = form.Text
	post.GroupID = form.GroupID
	post.AuthorID = viewer.ID
	if err := h.store.UpdatePost(r.Context(), post); err != nil {
		h.discardImage(r, image)
		h.lookupFailed(w, r, err)
		return
	}
	if oldImage != post.Image {
		h.discardImage(r, oldImage)
	}
	h.metrics.PostsEdited.Inc()
	redirect(w, r, postURL(post.ID))
}

// postDelete asks for confirmation on GET and deletes on POST. Posts of other
// authors look like they do not exist.
func (h *Handler) postDelete(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.ViewerFromContext(r.Context())
	id, ok := postID(r)
	if !ok {
		h.notFound(w, r)
		return
	}
	post, err := h.store.PostByID(r.Context(), id)
	if err != nil {
		h.lookupFailed(w, r, err)
		return
	}
	if post.AuthorID != viewer.ID {
		h.notFound(w, r)
		return
	}

	if r.Method != http.MethodPost {
		h.render(w, r, http.StatusOK, views.PostDeletePage{
			Base: h.base(r, "Delete post"),
			Post: *post,
		})
		return
	}

	if err := h.store.DeletePost(r.Context(), post.ID); err != nil {
		h.lookupFailed(w, r, err)
		return
	}
	h.discardImage(r, post.Image)
	h.metrics.PostsDeleted.Inc()
	h.log.WithFields(logrus.Fields{"post_id": post.ID, "author": viewer.Username}).Info("Post deleted")
	redirect(w, r, "/")
}

// addComment always ends on the post page; an empty comment is dropped.
func (h *Handler) addComment(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.ViewerFromContext(r.Context())
	id, ok := postID(r)
	if !ok {
		h.notFound(w, r)
		return
	}
	post, err := h.store.PostByID(r.Context(), id)
	if err != nil {
		h.lookupFailed(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Bad request")
		return
	}

	form := forms.NewCommentForm(r.PostForm)
	if !form.Validate() {
		h.metrics.ValidationFailures.WithLabelValues("comment").Inc()
		redirect(w, r, postURL(post.ID))
		return
	}
	c := &models.Comment{Text: form.Text, PostID: post.ID, AuthorID: viewer.ID}
	if err := h.store.CreateComment(r.Context(), c); err != nil {
		h.serverError(w, r, err)
		return
	}
	h.metrics.CommentsCreated.Inc()
	redirect(w, r, postURL(post.ID))
}

// parsePostForm accepts both multipart and urlencoded bodies.
func (h *Handler) parsePostForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	err := r.ParseMultipartForm(maxUploadSize)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		h.log.WithError(err).Warn("Failed to parse post form")
		h.renderError(w, r, http.StatusBadRequest, "Bad request")
		return false
	}
	return true
}

// validatePostForm validates the fields and, if they pass, stores the
// uploaded image. It returns the stored reference, empty without an upload.
func (h *Handler) validatePostForm(r *http.Request, form *forms.PostForm, groups []models.Group) (string, bool) {
	if !form.Validate(groups) {
		h.metrics.ValidationFailures.WithLabelValues("post").Inc()
		return "", false
	}
	file, _, err := r.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return "", true
	case err != nil:
		form.Errors.Add("image", msgBadImage)
		h.metrics.ValidationFailures.WithLabelValues("post").Inc()
		return "", false
	}
	defer file.Close()

	ref, err := h.blobs.Save(r.Context(), file)
	if err != nil {
		if !errors.Is(err, blob.ErrNotImage) {
			h.log.WithError(err).Error("Failed to store image")
		}
		form.Errors.Add("image", msgBadImage)
		h.metrics.ValidationFailures.WithLabelValues("post").Inc()
		return "", false
	}
	return ref, true
}

func (h *Handler) discardImage(r *http.Request, ref string) {
	if err := h.blobs.Delete(r.Context(), ref); err != nil {
		h.log.WithError(err).WithField("image", ref).Warn("Failed to delete image")
	}
}

// Package handlers implements the yatube HTTP surface.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"yatube/internal/blob"
	"yatube/internal/forms"
	"yatube/internal/identity"
	"yatube/internal/metrics"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/pagecache"
	"yatube/internal/paginate"
	"yatube/internal/store"
	"yatube/internal/views"
)

// maxUploadSize bounds a multipart post form including its image.
const maxUploadSize = 10 << 20

type Options struct {
	Store       *store.Store
	Identity    *identity.Service
	Sessions    *identity.Sessions
	Views       *views.Renderer
	Blobs       blob.Storage
	PageCache   pagecache.Cache
	CacheTTL    time.Duration
	Metrics     *metrics.Metrics
	Log         logrus.FieldLogger
	SignupRules forms.SignupRules
	// MediaURL is the path prefix blobs are served under.
	MediaURL string
	// LoginLimiter throttles login attempts; nil allows 10 a minute.
	LoginLimiter *middleware.RateLimiter
}

type Handler struct {
	store       *store.Store
	identity    *identity.Service
	sessions    *identity.Sessions
	views       *views.Renderer
	blobs       blob.Storage
	cache       *pagecache.Middleware
	pageCache   pagecache.Cache
	metrics     *metrics.Metrics
	log         logrus.FieldLogger
	auth        *middleware.Auth
	limiter     *middleware.RateLimiter
	signupRules forms.SignupRules
	mediaURL    string
}

func New(o Options) *Handler {
	if o.LoginLimiter == nil {
		o.LoginLimiter = middleware.NewRateLimiter(10, 5, TooManyRequests(o.Views, o.Log), o.Log)
	}
	cache := pagecache.NewMiddleware(o.PageCache, o.CacheTTL, CacheKey, o.Log).
		WithCounters(o.Metrics.CacheHits, o.Metrics.CacheMisses)

	return &Handler{
		store:       o.Store,
		identity:    o.Identity,
		sessions:    o.Sessions,
		views:       o.Views,
		blobs:       o.Blobs,
		cache:       cache,
		pageCache:   o.PageCache,
		metrics:     o.Metrics,
		log:         o.Log,
		auth:        middleware.NewAuth(o.Sessions, o.Store, o.Log),
		limiter:     o.LoginLimiter,
		signupRules: o.SignupRules,
		mediaURL:    o.MediaURL,
	}
}

// Routes builds the router. Logging and viewer loading wrap the router itself
// so unmatched requests are logged and render the 404 page with the viewer.
func (h *Handler) Routes() http.Handler {
	r := mux.NewRouter().StrictSlash(true)
	r.Use(middleware.Metrics(h.metrics))

	login := h.auth.RequireLogin
	get := []string{http.MethodGet, http.MethodHead}
	form := []string{http.MethodGet, http.MethodHead, http.MethodPost}

	r.Handle("/", h.cache.Wrap(http.HandlerFunc(h.index))).Methods(get...)
	r.HandleFunc("/group/{slug}/", h.groupPosts).Methods(get...)
	r.HandleFunc("/profile/{username}/", h.profile).Methods(get...)
	r.Handle("/profile/{username}/follow/", login(http.HandlerFunc(h.profileFollow))).Methods(http.MethodPost)
	r.Handle("/profile/{username}/unfollow/", login(http.HandlerFunc(h.profileUnfollow))).Methods(http.MethodPost)
	r.HandleFunc("/posts/{id:[0-9]+}/", h.postDetail).Methods(get...)
	r.Handle("/posts/{id:[0-9]+}/edit/", login(http.HandlerFunc(h.postEdit))).Methods(form...)
	r.Handle("/posts/{id:[0-9]+}/delete/", login(http.HandlerFunc(h.postDelete))).Methods(form...)
	r.Handle("/posts/{id:[0-9]+}/comment/", login(http.HandlerFunc(h.addComment))).Methods(http.MethodPost)
	r.Handle("/create/", login(http.HandlerFunc(h.postCreate))).Methods(form...)
	r.Handle("/follow/", login(http.HandlerFunc(h.followIndex))).Methods(get...)

	r.HandleFunc("/auth/signup/", h.signup).Methods(form...)
	r.Handle("/auth/login/", h.limiter.Handler(http.HandlerFunc(h.login))).Methods(form...)
	r.HandleFunc("/auth/logout/", h.logout).Methods(form...)

	r.Handle("/admin/cache/clear/", login(http.HandlerFunc(h.clearCache))).Methods(http.MethodPost)

	r.Handle("/metrics", h.metrics.Handler()).Methods(get...)
	if h.mediaURL != "" {
		prefix := "/" + strings.Trim(h.mediaURL, "/") + "/"
		r.PathPrefix(prefix).Handler(http.StripPrefix(prefix, h.blobs.Handler())).Methods(get...)
	}

	r.NotFoundHandler = http.HandlerFunc(h.notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.renderError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return middleware.Logging(h.log)(h.auth.LoadViewer(r))
}

// TooManyRequests renders the 429 page for the login rate limiter.
func TooManyRequests(v *views.Renderer, log logrus.FieldLogger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := views.ErrorPage{
			Base:    views.Base{Viewer: middleware.ViewerFromContext(r.Context()), Title: "Too many requests"},
			Code:    http.StatusTooManyRequests,
			Message: "Too many attempts. Try again in a minute.",
		}
		if err := v.Render(w, http.StatusTooManyRequests, page); err != nil {
			log.WithError(err).Error("Failed to render error page")
		}
	})
}

func (h *Handler) base(r *http.Request, title string) views.Base {
	return views.Base{Viewer: middleware.ViewerFromContext(r.Context()), Title: title}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, p views.Page) {
	if err := h.views.Render(w, status, p); err != nil {
		h.serverError(w, r, err)
	}
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, http.StatusNotFound, "Page not found")
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	h.log.WithError(err).WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
	}).Error("Request failed")
	h.renderError(w, r, http.StatusInternalServerError, "An error occurred.")
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	page := views.ErrorPage{Base: h.base(r, http.StatusText(code)), Code: code, Message: msg}
	if err := h.views.Render(w, code, page); err != nil {
		h.log.WithError(err).Error("Failed to render error page")
		http.Error(w, msg, code)
	}
}

// lookupFailed renders 404 for store.ErrNotFound and 500 otherwise.
func (h *Handler) lookupFailed(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		h.notFound(w, r)
		return
	}
	h.serverError(w, r, err)
}

// listPosts loads the page of posts selected by the ?page= parameter.
func (h *Handler) listPosts(ctx context.Context, f store.PostFilter, raw string) (paginate.Page[models.Post], error) {
	total, err := h.store.CountPosts(ctx, f)
	if err != nil {
		return paginate.Page[models.Post]{}, err
	}
	p := paginate.Paginator{Total: total, PerPage: paginate.PerPage}
	n := p.Clamp(raw)
	offset, limit := p.Bounds(n)
	posts, err := h.store.ListPosts(ctx, f, offset, limit)
	if err != nil {
		return paginate.Page[models.Post]{}, err
	}
	return paginate.NewPage(posts, n, p), nil
}

func postID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 0)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func redirect(w http.ResponseWriter, r *http.Request, url string) {
	http.Redirect(w, r, url, http.StatusFound)
}

func profileURL(username string) string { return "/profile/" + username + "/" }

func postURL(id uint) string { return "/posts/" + strconv.FormatUint(uint64(id), 10) + "/" }

// CacheKey keys cached pages by viewer so the layout never shows another
// user's navigation.
func CacheKey(r *http.Request) string {
	viewer := "-"
	if u := middleware.ViewerFromContext(r.Context()); u != nil {
		viewer = u.Username
	}
	return viewer + " " + r.URL.RequestURI()
}

// Package middleware holds the HTTP middleware shared by all routes.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"yatube/internal/models"
	"yatube/internal/store"
)

// LoginPath is where anonymous visitors of protected pages are sent.
const LoginPath = "/auth/login/"

type viewerKey struct{}

// SessionReader resolves the user id stored in the request session.
type SessionReader interface {
	UserID(r *http.Request) (uint, bool)
}

type UserLookup interface {
	UserByID(ctx context.Context, id uint) (*models.User, error)
}

type Auth struct {
	sessions SessionReader
	users    UserLookup
	log      logrus.FieldLogger
}

func NewAuth(sessions SessionReader, users UserLookup, log logrus.FieldLogger) *Auth {
	return &Auth{sessions: sessions, users: users, log: log}
}

// LoadViewer puts the logged in user, if any, into the request context.
// A session pointing at a deleted user is treated as anonymous.
func (a *Auth) LoadViewer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := a.sessions.UserID(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		u, err := a.users.UserByID(r.Context(), id)
		switch {
		case errors.Is(err, store.ErrNotFound):
		case err != nil:
			a.log.WithError(err).WithField("user_id", id).Error("Failed to load session user")
		default:
			r = r.WithContext(WithViewer(r.Context(), u))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireLogin redirects anonymous requests to the login page, remembering
// the requested path in the next parameter.
func (a *Auth) RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ViewerFromContext(r.Context()) == nil {
			http.Redirect(w, r, LoginURL(r.URL.Path), http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// LoginURL is the login page URL with next set to path. Slashes stay
// unescaped: /auth/login/?next=/create/.
func LoginURL(path string) string {
	return LoginPath + "?next=" + strings.ReplaceAll(url.QueryEscape(path), "%2F", "/")
}

func WithViewer(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, viewerKey{}, u)
}

// ViewerFromContext returns the logged in user or nil for anonymous requests.
func ViewerFromContext(ctx context.Context) *models.User {
	u, _ := ctx.Value(viewerKey{}).(*models.User)
	return u
}

package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"yatube/internal/forms"
	"yatube/internal/identity"
	"yatube/internal/views"
)

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.render(w, r, http.StatusOK, views.SignupPage{
			Base: h.base(r, "Sign up"),
			Form: &forms.SignupForm{Errors: forms.Errors{}},
		})
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Bad request")
		return
	}

	form := forms.NewSignupForm(r.PostForm)
	if form.Validate(h.signupRules) {
		u, err := h.identity.Register(r.Context(), form)
		switch {
		case errors.Is(err, identity.ErrUsernameTaken):
			form.Errors.Add("username", "A user with that username already exists.")
		case err != nil:
			h.serverError(w, r, err)
			return
		default:
			if err := h.sessions.Login(w, r, u.ID); err != nil {
				h.serverError(w, r, err)
				return
			}
			h.log.WithField("username", u.Username).Info("User registered")
			redirect(w, r, "/")
			return
		}
	}

	h.metrics.ValidationFailures.WithLabelValues("signup").Inc()
	h.render(w, r, http.StatusOK, views.SignupPage{
		Base: h.base(r, "Sign up"),
		Form: form,
	})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.render(w, r, http.StatusOK, views.LoginPage{
			Base: h.base(r, "Log in"),
			Form: &forms.LoginForm{Next: r.URL.Query().Get("next"), Errors: forms.Errors{}},
		})
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Bad request")
		return
	}

	form := forms.NewLoginForm(r.PostForm)
	if form.Validate() {
		u, err := h.identity.Authenticate(r.Context(), form.Username, form.Password)
		switch {
		case errors.Is(err, identity.ErrInvalidCredentials):
			form.Errors.Add("", "Please enter a correct username and password.")
		case err != nil:
			h.serverError(w, r, err)
			return
		default:
			if err := h.sessions.Login(w, r, u.ID); err != nil {
				h.serverError(w, r, err)
				return
			}
			redirect(w, r, safeNext(form.Next))
			return
		}
	}

	h.metrics.ValidationFailures.WithLabelValues("login").Inc()
	h.render(w, r, http.StatusOK, views.LoginPage{
		Base: h.base(r, "Log in"),
		Form: form,
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(w, r); err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, views.LoggedOutPage{
		Base: views.Base{Title: "Logged out"},
	})
}

// safeNext only follows local paths; anything else goes home.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return next
}

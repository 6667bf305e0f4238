// Package views renders the HTML pages. Every page has its own view model
// struct; templates only see the fields that struct declares.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"yatube/internal/forms"
	"yatube/internal/models"
	"yatube/internal/paginate"
)

//go:embed templates
var files embed.FS

// Page is implemented by every view model.
type Page interface {
	templateName() string
}

// Base carries what the layout needs on every page.
type Base struct {
	Viewer *models.User
	Title  string
}

type IndexPage struct {
	Base
	Page paginate.Page[models.Post]
}

type GroupPage struct {
	Base
	Group models.Group
	Page  paginate.Page[models.Post]
}

type ProfilePage struct {
	Base
	Author    models.User
	Page      paginate.Page[models.Post]
	Following bool
}

// CanFollow reports whether the follow/unfollow button is shown.
func (p ProfilePage) CanFollow() bool {
	return p.Viewer != nil && p.Viewer.ID != p.Author.ID
}

type PostDetailPage struct {
	Base
	Post            models.Post
	Comments        []models.Comment
	Form            *forms.CommentForm
	AuthorPostCount int64
}

func (p PostDetailPage) IsAuthor() bool {
	return p.Viewer != nil && p.Viewer.ID == p.Post.AuthorID
}

type PostFormPage struct {
	Base
	Form   *forms.PostForm
	Groups []models.Group
	// Post is set when editing.
	Post *models.Post
}

func (p PostFormPage) IsEdit() bool { return p.Post != nil }

type PostDeletePage struct {
	Base
	Post models.Post
}

type FollowPage struct {
	Base
	Page paginate.Page[models.Post]
}

type SignupPage struct {
	Base
	Form *forms.SignupForm
}

type LoginPage struct {
	Base
	Form *forms.LoginForm
}

type LoggedOutPage struct {
	Base
}

type ErrorPage struct {
	Base
	Code    int
	Message string
}

func (IndexPage) templateName() string      { return "index.html" }
func (GroupPage) templateName() string      { return "group.html" }
func (ProfilePage) templateName() string    { return "profile.html" }
func (PostDetailPage) templateName() string { return "post_detail.html" }
func (PostFormPage) templateName() string   { return "post_form.html" }
func (PostDeletePage) templateName() string { return "post_delete.html" }
func (FollowPage) templateName() string     { return "follow.html" }
func (SignupPage) templateName() string     { return "signup.html" }
func (LoginPage) templateName() string      { return "login.html" }
func (LoggedOutPage) templateName() string  { return "logged_out.html" }
func (ErrorPage) templateName() string      { return "error.html" }

// Renderer holds one parsed template set per page.
type Renderer struct {
	pages map[string]*template.Template
}

// New parses every page together with the layout and partials. mediaURL maps
// a stored image reference to its public URL.
func New(mediaURL func(ref string) string) (*Renderer, error) {
	funcs := template.FuncMap{
		"mediaURL": mediaURL,
		"date": func(t time.Time) string {
			return t.Format("2 Jan 2006")
		},
		"pageURL": func(n int) string {
			return "?page=" + strconv.Itoa(n)
		},
	}

	pages, err := fs.Glob(files, "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	r := &Renderer{pages: make(map[string]*template.Template, len(pages))}
	for _, p := range pages {
		name := p[len("templates/pages/"):]
		t, err := template.New(name).Funcs(funcs).ParseFS(files,
			"templates/base.html",
			"templates/partials/*.html",
			p,
		)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render executes the page into a buffer first so a template failure never
// leaves a half written response.
func (r *Renderer) Render(w http.ResponseWriter, status int, p Page) error {
	t, ok := r.pages[p.templateName()]
	if !ok {
		return fmt.Errorf("unknown page %s", p.templateName())
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", p); err != nil {
		return fmt.Errorf("render %s: %w", p.templateName(), err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// Package forms parses and validates the submitted HTML forms.
package forms

import (
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"yatube/internal/models"
)

const msgRequired = "This field is required."

// Errors maps a field name to its validation messages. The empty key holds
// errors that do not belong to a single field.
type Errors map[string][]string

func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// Get returns the first message for field.
func (e Errors) Get(field string) string {
	if msgs := e[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

func (e Errors) Has(field string) bool { return len(e[field]) > 0 }

func (e Errors) Valid() bool { return len(e) == 0 }

// PostForm is the create/edit form of a post. The image upload itself is
// handled by the caller, which records storage errors under "image".
type PostForm struct {
	Text       string
	GroupID    *uint
	ClearImage bool

	// rawGroup keeps the submitted value so an invalid choice can be re-rendered.
	rawGroup string
	Errors   Errors
}

func NewPostForm(v url.Values) *PostForm {
	return &PostForm{
		Text:       v.Get("text"),
		rawGroup:   strings.TrimSpace(v.Get("group")),
		ClearImage: v.Get("image-clear") != "",
		Errors:     Errors{},
	}
}

// PostFormFrom prefills the form with an existing post for editing.
func PostFormFrom(p *models.Post) *PostForm {
	f := &PostForm{Text: p.Text, GroupID: p.GroupID, Errors: Errors{}}
	if p.GroupID != nil {
		f.rawGroup = strconv.FormatUint(uint64(*p.GroupID), 10)
	}
	return f
}

// Validate checks the text and resolves the selected group against groups.
func (f *PostForm) Validate(groups []models.Group) bool {
	if strings.TrimSpace(f.Text) == "" {
		f.Errors.Add("text", msgRequired)
	}
	f.GroupID = nil
	if f.rawGroup != "" {
		id, err := strconv.ParseUint(f.rawGroup, 10, 64)
		if err != nil || !hasGroup(groups, uint(id)) {
			f.Errors.Add("group", "Select a valid choice. That choice is not one of the available choices.")
		} else {
			gid := uint(id)
			f.GroupID = &gid
		}
	}
	return f.Errors.Valid()
}

// SelectedGroup is the group value to pre-select when rendering.
func (f *PostForm) SelectedGroup() string { return f.rawGroup }

func hasGroup(groups []models.Group, id uint) bool {
	for _, g := range groups {
		if g.ID == id {
			return true
		}
	}
	return false
}

type CommentForm struct {
	Text   string
	Errors Errors
}

func NewCommentForm(v url.Values) *CommentForm {
	return &CommentForm{Text: v.Get("text"), Errors: Errors{}}
}

func (f *CommentForm) Validate() bool {
	if strings.TrimSpace(f.Text) == "" {
		f.Errors.Add("text", msgRequired)
	}
	return f.Errors.Valid()
}

type LoginForm struct {
	Username string
	Password string
	Next     string
	Errors   Errors
}

func NewLoginForm(v url.Values) *LoginForm {
	return &LoginForm{
		Username: strings.TrimSpace(v.Get("username")),
		Password: v.Get("password"),
		Next:     v.Get("next"),
		Errors:   Errors{},
	}
}

func (f *LoginForm) Validate() bool {
	if f.Username == "" {
		f.Errors.Add("username", msgRequired)
	}
	if f.Password == "" {
		f.Errors.Add("password", msgRequired)
	}
	return f.Errors.Valid()
}

func runes(s string) int { return utf8.RuneCountInString(s) }

package forms

import (
	"fmt"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// SignupRules are the registration constraints.
type SignupRules struct {
	NameMin     int
	NameMax     int
	EmailMax    int
	UsernameMax int
	PasswordMin int
}

func DefaultSignupRules() SignupRules {
	return SignupRules{
		NameMin:     4,
		NameMax:     12,
		EmailMax:    50,
		UsernameMax: 150,
		PasswordMin: 8,
	}
}

type SignupForm struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Password1 string
	Password2 string
	Errors    Errors
}

func NewSignupForm(v url.Values) *SignupForm {
	return &SignupForm{
		FirstName: strings.TrimSpace(v.Get("first_name")),
		LastName:  strings.TrimSpace(v.Get("last_name")),
		Username:  strings.TrimSpace(v.Get("username")),
		Email:     strings.TrimSpace(v.Get("email")),
		Password1: v.Get("password1"),
		Password2: v.Get("password2"),
		Errors:    Errors{},
	}
}

// Validate applies rules to the form. Username uniqueness is checked on
// registration, not here.
func (f *SignupForm) Validate(rules SignupRules) bool {
	f.checkName("first_name", f.FirstName, rules)
	f.checkName("last_name", f.LastName, rules)

	switch {
	case f.Username == "":
		f.Errors.Add("username", msgRequired)
	case runes(f.Username) > rules.UsernameMax:
		f.Errors.Add("username", fmt.Sprintf("Ensure this value has at most %d characters (it has %d).", rules.UsernameMax, runes(f.Username)))
	case !usernamePattern.MatchString(f.Username):
		f.Errors.Add("username", "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.")
	}

	switch {
	case f.Email == "":
		f.Errors.Add("email", msgRequired)
	case runes(f.Email) > rules.EmailMax:
		f.Errors.Add("email", fmt.Sprintf("Ensure this value has at most %d characters (it has %d).", rules.EmailMax, runes(f.Email)))
	case !validEmail(f.Email):
		f.Errors.Add("email", "Enter a valid email address.")
	}

	switch {
	case f.Password1 == "":
		f.Errors.Add("password1", msgRequired)
	case runes(f.Password1) < rules.PasswordMin:
		f.Errors.Add("password1", fmt.Sprintf("This password is too short. It must contain at least %d characters.", rules.PasswordMin))
	}
	if f.Password2 == "" {
		f.Errors.Add("password2", msgRequired)
	} else if f.Password1 != f.Password2 {
		f.Errors.Add("password2", "The two password fields didn't match.")
	}
	return f.Errors.Valid()
}

func (f *SignupForm) checkName(field, value string, rules SignupRules) {
	n := runes(value)
	switch {
	case n == 0:
		f.Errors.Add(field, msgRequired)
	case n < rules.NameMin:
		f.Errors.Add(field, fmt.Sprintf("Ensure this value has at least %d characters (it has %d).", rules.NameMin, n))
	case n > rules.NameMax:
		f.Errors.Add(field, fmt.Sprintf("Ensure this value has at most %d characters (it has %d).", rules.NameMax, n))
	}
}

// validEmail accepts a bare address only, no display name.
func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s && strings.Contains(s[strings.LastIndex(s, "@"):], ".")
}

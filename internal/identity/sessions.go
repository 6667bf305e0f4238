package identity

import (
	"fmt"
	"net/http"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
)

const (
	sessionName = "yatube_session"
	userIDKey   = "user_id"
)

// Sessions keeps the logged in user id in a signed cookie.
type Sessions struct {
	store *sessions.CookieStore
}

// NewSessions signs cookies with key. An empty key gets a random one, which
// logs everybody out on restart.
func NewSessions(key []byte, secure bool) *Sessions {
	if len(key) == 0 {
		key = securecookie.GenerateRandomKey(32)
	}
	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   3600 * 16, // 16 hours
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Sessions{store: store}
}

func (s *Sessions) Login(w http.ResponseWriter, r *http.Request, userID uint) error {
	sess, _ := s.store.Get(r, sessionName)
	sess.Values[userIDKey] = userID
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *Sessions) Logout(w http.ResponseWriter, r *http.Request) error {
	sess, _ := s.store.Get(r, sessionName)
	delete(sess.Values, userIDKey)
	sess.Options.MaxAge = -1
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// UserID reports the logged in user, if any. Cookies that fail to decode are
// treated as anonymous.
func (s *Sessions) UserID(r *http.Request) (uint, bool) {
	sess, err := s.store.Get(r, sessionName)
	if err != nil {
		return 0, false
	}
	id, ok := sess.Values[userIDKey].(uint)
	return id, ok && id != 0
}

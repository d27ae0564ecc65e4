// Package session keeps the short-lived cookie state that crosses the
// redirect after a submission: flash toasts and the signed-in user's display
// name.
package session

import (
	"crypto/sha256"
	"encoding/gob"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
)

const (
	// CookieName is the name of the cookie that stores the session.
	CookieName = "hypes_session"

	// CookieMaxAge sets the cookie expiration (1 hour).
	CookieMaxAge = 60 * 60

	keyName  = "name"
	keyEmail = "email"
)

// Level is the severity of a toast.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Toast is one notification shown once on the next rendered page.
type Toast struct {
	Level   Level
	Message string
}

func init() {
	gob.Register(Toast{})
}

// User is what the dashboard greets.
type User struct {
	Name  string
	Email string
}

// Store wraps a gorilla cookie store.
type Store struct {
	cookies *sessions.CookieStore
}

// NewStore creates a Store whose cookies are signed with a key derived from secret.
func NewStore(secret string, secure bool) *Store {
	hash := sha256.Sum256([]byte(secret))

	cookies := sessions.NewCookieStore(hash[:])
	cookies.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   CookieMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Store{cookies: cookies}
}

func (s *Store) get(r *http.Request) *sessions.Session {
	// A cookie that fails to decode (rotated secret, tampering) yields a fresh
	// session alongside the error, which is all we need.
	sess, _ := s.cookies.Get(r, CookieName)
	return sess
}

// AddToasts queues toasts for the next page and writes the cookie.
// Call before any body is written.
func (s *Store) AddToasts(w http.ResponseWriter, r *http.Request, toasts ...Toast) error {
	if len(toasts) == 0 {
		return nil
	}
	sess := s.get(r)
	for _, t := range toasts {
		sess.AddFlash(t)
	}
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("save flash: %w", err)
	}
	return nil
}

// Toasts returns and clears the queued toasts.
func (s *Store) Toasts(w http.ResponseWriter, r *http.Request) ([]Toast, error) {
	sess := s.get(r)
	flashes := sess.Flashes()
	if len(flashes) == 0 {
		return nil, nil
	}

	toasts := make([]Toast, 0, len(flashes))
	for _, f := range flashes {
		if t, ok := f.(Toast); ok {
			toasts = append(toasts, t)
		}
	}
	if err := sess.Save(r, w); err != nil {
		return toasts, fmt.Errorf("clear flash: %w", err)
	}
	return toasts, nil
}

// SignIn records who just signed in and queues toasts for the next page in
// a single cookie write.
func (s *Store) SignIn(w http.ResponseWriter, r *http.Request, u User, toasts ...Toast) error {
	sess := s.get(r)
	sess.Values[keyName] = u.Name
	sess.Values[keyEmail] = u.Email
	for _, t := range toasts {
		sess.AddFlash(t)
	}
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("save sign-in: %w", err)
	}
	return nil
}

// User returns the signed-in user, if any.
func (s *Store) User(r *http.Request) (User, bool) {
	sess := s.get(r)
	email, _ := sess.Values[keyEmail].(string)
	if email == "" {
		return User{}, false
	}
	name, _ := sess.Values[keyName].(string)
	return User{Name: name, Email: email}, true
}

// SignOut forgets the signed-in user and queues toasts for the next page.
func (s *Store) SignOut(w http.ResponseWriter, r *http.Request, toasts ...Toast) error {
	sess := s.get(r)
	delete(sess.Values, keyName)
	delete(sess.Values, keyEmail)
	for _, t := range toasts {
		sess.AddFlash(t)
	}
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("save sign-out: %w", err)
	}
	return nil
}

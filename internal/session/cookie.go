package session

import (
	"net/http"
	"time"
)

const defaultCookieName = "explorer_session"

type CookieConfig struct {
	Name     string
	Path     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

func (c CookieConfig) name() string {
	if c.Name == "" {
		return defaultCookieName
	}
	return c.Name
}

// read returns the session id carried by r, or "".
func (c CookieConfig) read(r *http.Request) string {
	ck, err := r.Cookie(c.name())
	if err != nil {
		return ""
	}
	return ck.Value
}

// write issues the cookie for sess, expiring together with it.
func (c CookieConfig) write(w http.ResponseWriter, sess *Session, now time.Time) {
	path := c.Path
	if path == "" {
		path = "/"
	}
	http.SetCookie(w, &http.Cookie{
		Name:     c.name(),
		Value:    sess.ID,
		Path:     path,
		Domain:   c.Domain,
		Expires:  sess.ExpiresAt,
		MaxAge:   max(int(sess.ExpiresAt.Sub(now).Seconds()), 1),
		Secure:   c.Secure,
		HttpOnly: true,
		SameSite: c.SameSite,
	})
}

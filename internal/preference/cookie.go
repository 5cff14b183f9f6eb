package preference

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"
)

// cookieMaxAge keeps browser-side preferences for a year.
const cookieMaxAge = 365 * 24 * time.Hour

// CookieStore keeps preferences in browser cookies. It is bound to a single
// request/response pair; values saved during the request are visible to
// later Gets on the same store.
type CookieStore struct {
	r       *http.Request
	w       http.ResponseWriter
	Path    string
	pending map[string]string
}

// NewCookieStore creates a CookieStore for one request.
func NewCookieStore(w http.ResponseWriter, r *http.Request) *CookieStore {
	return &CookieStore{r: r, w: w, Path: "/", pending: map[string]string{}}
}

func (s *CookieStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := s.pending[key]; ok {
		return v, nil
	}
	c, err := s.r.Cookie(key)
	if errors.Is(err, http.ErrNoCookie) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	v, err := url.QueryUnescape(c.Value)
	if err != nil {
		return "", err
	}
	return v, nil
}

func (s *CookieStore) Save(_ context.Context, key, value string) error {
	s.pending[key] = value
	http.SetCookie(s.w, &http.Cookie{
		Name:     key,
		Value:    url.QueryEscape(value),
		Path:     s.Path,
		MaxAge:   int(cookieMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

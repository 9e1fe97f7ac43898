package handler

import (
	"encoding/base64"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const flashCookieName = "mapgate_flash"

// CookieSettings holds the attributes applied to the session and flash cookies.
type CookieSettings struct {
	Name     string
	TTL      time.Duration
	Secure   bool
	HTTPOnly bool
	SameSite http.SameSite
}

func (s CookieSettings) session(token string) *http.Cookie {
	return &http.Cookie{
		Name:     s.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.TTL.Seconds()),
		Expires:  time.Now().Add(s.TTL),
		Secure:   s.Secure,
		HttpOnly: s.HTTPOnly,
		SameSite: s.SameSite,
	}
}

func (s CookieSettings) expire(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   s.Secure,
		HttpOnly: s.HTTPOnly,
		SameSite: s.SameSite,
	}
}

// setFlash stores a one-shot message for the next page render.
func (s CookieSettings) setFlash(c echo.Context, msg string) {
	c.SetCookie(&http.Cookie{
		Name:     flashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString([]byte(msg)),
		Path:     "/",
		MaxAge:   60,
		Secure:   s.Secure,
		HttpOnly: true,
		SameSite: s.SameSite,
	})
}

// popFlash reads and clears the pending flash message.
func (s CookieSettings) popFlash(c echo.Context) string {
	cookie, err := c.Cookie(flashCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	c.SetCookie(s.expire(flashCookieName))

	msg, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return ""
	}
	return string(msg)
}

func sessionToken(c echo.Context, name string) string {
	cookie, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// csrfToken returns the token set by echo's CSRF middleware, if enabled.
func csrfToken(c echo.Context) string {
	token, _ := c.Get("csrf").(string)
	return token
}

package middleware

import (
	"net/http"
	"net/url"
)

// Flash sets a one-shot message cookie read and cleared by the next page.
func Flash(w http.ResponseWriter, msg string) {
	http.SetCookie(w, &http.Cookie{Name: "flash", Value: url.QueryEscape(msg), Path: "/"})
}

// PopFlash returns the pending flash message, clearing the cookie.
func PopFlash(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie("flash")
	if err != nil || c.Value == "" {
		return ""
	}
	http.SetCookie(w, &http.Cookie{Name: "flash", Value: "", Path: "/", MaxAge: -1})
	if dec, derr := url.QueryUnescape(c.Value); derr == nil {
		return dec
	}
	return c.Value
}

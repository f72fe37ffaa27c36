package main

import (
	"net/http"
	"os"
	"path/filepath"

	"gorm.io/gorm"

	"github.com/GopkoDev/invoiceForge-sub001/internal/auth"
	"github.com/GopkoDev/invoiceForge-sub001/internal/server"
	"github.com/GopkoDev/invoiceForge-sub001/internal/view"
)

// NewApp wraps the API router with the public landing page and static assets.
func NewApp(dbConn *gorm.DB) http.Handler {
	api := auth.Middleware(server.New(dbConn))

	fs := http.FileServer(http.Dir("static"))
	staticHandler := http.StripPrefix("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ext := filepath.Ext(r.URL.Path); ext == ".css" {
			w.Header().Set("Content-Type", "text/css; charset=utf-8")
		} else if ext == ".js" {
			w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		}
		if os.Getenv("DEV") != "1" {
			w.Header().Set("Cache-Control", "public, max-age=86400")
		} else {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		}
		fs.ServeHTTP(w, r)
	}))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case len(r.URL.Path) >= 8 && r.URL.Path[:8] == "/static/":
			staticHandler.ServeHTTP(w, r)
		case r.URL.Path == "/":
			// logged-in users land on the dashboard
			if uid, ok := auth.ParseSession(r); ok && uid != 0 {
				http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
				return
			}
			if err := view.Render(w, r, "index.html", nil); err != nil {
				http.Error(w, "template error", http.StatusInternalServerError)
			}
		default:
			api.ServeHTTP(w, r)
		}
	})
}

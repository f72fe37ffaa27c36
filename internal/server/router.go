package server

import (
	"context"
	"log"
	"net/http"
	"runtime/debug"
	"time"

	"gorm.io/gorm"

	"github.com/GopkoDev/invoiceForge-sub001/internal/auth"
	"github.com/GopkoDev/invoiceForge-sub001/internal/handlers"
	"github.com/GopkoDev/invoiceForge-sub001/internal/httpx"
	"github.com/GopkoDev/invoiceForge-sub001/internal/models"
	"github.com/GopkoDev/invoiceForge-sub001/internal/services"
)

// New constructs the root http.Handler with all routes and middlewares applied.
func New(db *gorm.DB) http.Handler {
	mux := http.NewServeMux()

	// RequireAuth re-checks that the session's user still exists.
	auth.SetUserVerifier(func(_ context.Context, uid uint) bool {
		var count int64
		if err := db.Model(&models.User{}).Where("id = ?", uid).Limit(1).Count(&count).Error; err != nil {
			return false
		}
		return count > 0
	})

	// --- Health endpoints ---
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Auth endpoints
	authHandler := handlers.NewAuthHandler(db)
	authHandler.Register(mux)

	protected := func(h http.HandlerFunc) http.Handler {
		return auth.Middleware(auth.RequireAuth(h))
	}
	methods := func(routes map[string]http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if h, ok := routes[r.Method]; ok {
				h(w, r)
				return
			}
			allow := ""
			for m := range routes {
				if allow != "" {
					allow += ","
				}
				allow += m
			}
			w.Header().Set("Allow", allow)
			httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		}
	}

	// Invoice endpoints
	invSvc := services.NewInvoiceService(db)
	ih := handlers.NewInvoiceHandler(db, invSvc)
	mux.Handle("/invoices", protected(methods(map[string]http.HandlerFunc{
		http.MethodGet: ih.List,
	})))
	mux.Handle("/invoices/edit", protected(methods(map[string]http.HandlerFunc{
		http.MethodGet: ih.Editor,
	})))
	mux.Handle("/invoices/save", protected(methods(map[string]http.HandlerFunc{
		http.MethodPost: ih.Save,
	})))
	mux.Handle("/invoices/pdf", protected(methods(map[string]http.HandlerFunc{
		http.MethodGet: ih.PDF,
	})))
	mux.Handle("/invoices/delete", protected(methods(map[string]http.HandlerFunc{
		http.MethodPost: ih.Delete,
	})))

	// Product catalog
	ph := handlers.NewProductHandler(db)
	mux.Handle("/products", protected(methods(map[string]http.HandlerFunc{
		http.MethodGet:  ph.List,
		http.MethodPost: ph.Create,
	})))
	mux.Handle("/products/update", protected(methods(map[string]http.HandlerFunc{http.MethodPost: ph.Update})))
	mux.Handle("/products/delete", protected(methods(map[string]http.HandlerFunc{http.MethodPost: ph.Delete})))
	mux.Handle("/products/activate", protected(methods(map[string]http.HandlerFunc{http.MethodPost: ph.Activate})))
	mux.Handle("/products/deactivate", protected(methods(map[string]http.HandlerFunc{http.MethodPost: ph.Deactivate})))
	mux.Handle("/products/custom-price", protected(methods(map[string]http.HandlerFunc{http.MethodPost: ph.SetCustomPrice})))
	mux.Handle("/products/custom-price/delete", protected(methods(map[string]http.HandlerFunc{http.MethodPost: ph.DeleteCustomPrice})))

	// Customers
	ch := handlers.NewCustomerHandler(db)
	mux.Handle("/customers", protected(methods(map[string]http.HandlerFunc{
		http.MethodGet:  ch.List,
		http.MethodPost: ch.Create,
	})))
	mux.Handle("/customers/update", protected(methods(map[string]http.HandlerFunc{http.MethodPost: ch.Update})))
	mux.Handle("/customers/delete", protected(methods(map[string]http.HandlerFunc{http.MethodPost: ch.Delete})))

	// Sender profiles and bank accounts
	prh := handlers.NewProfileHandler(db)
	mux.Handle("/profiles", protected(methods(map[string]http.HandlerFunc{
		http.MethodGet:  prh.List,
		http.MethodPost: prh.Create,
	})))
	mux.Handle("/profiles/update", protected(methods(map[string]http.HandlerFunc{http.MethodPost: prh.Update})))
	mux.Handle("/profiles/delete", protected(methods(map[string]http.HandlerFunc{http.MethodPost: prh.Delete})))
	mux.Handle("/profiles/bank-accounts", protected(methods(map[string]http.HandlerFunc{http.MethodPost: prh.CreateBankAccount})))
	mux.Handle("/profiles/bank-accounts/delete", protected(methods(map[string]http.HandlerFunc{http.MethodPost: prh.DeleteBankAccount})))

	// Dashboard
	dh := handlers.NewDashboardHandler(services.NewReportingService(db))
	mux.Handle("/dashboard", protected(methods(map[string]http.HandlerFunc{http.MethodGet: dh.Show})))

	return withRecover(withLogging(mux))
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		log.Printf("%s %s %d %s", r.Method, r.URL.Path, sw.status, time.Since(start).Round(time.Millisecond))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (s *statusWriter) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("panic serving %s %s: %v\n%s", r.Method, r.URL.Path, rec, debug.Stack())
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

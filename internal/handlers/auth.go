package handlers

import (
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/GopkoDev/invoiceForge-sub001/internal/auth"
	"github.com/GopkoDev/invoiceForge-sub001/internal/httpx"
	"github.com/GopkoDev/invoiceForge-sub001/internal/models"
	"github.com/GopkoDev/invoiceForge-sub001/internal/view"
)

type AuthHandler struct{ DB *gorm.DB }

func NewAuthHandler(db *gorm.DB) *AuthHandler { return &AuthHandler{DB: db} }

func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/signup", h.signup)
	mux.HandleFunc("/login", h.login)
	mux.HandleFunc("/logout", h.logout)
}

func renderTemplate(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	if err := view.Render(w, r, name+".html", data); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		if _, werr := w.Write([]byte("template error")); werr != nil {
			_ = werr
		}
	}
}

type credentialsReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// readCredentials accepts either a JSON body or a classic form post.
func readCredentials(r *http.Request) (credentialsReq, error) {
	var c credentialsReq
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		if err := httpx.DecodeJSON(r, &c); err != nil {
			return c, err
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return c, err
		}
		c.Email = r.FormValue("email")
		c.Password = r.FormValue("password")
		c.Name = r.FormValue("name")
	}
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	c.Name = strings.TrimSpace(c.Name)
	return c, nil
}

func (h *AuthHandler) signup(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		renderTemplate(w, r, "signup", nil)
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET,POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	c, err := readCredentials(r)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return
	}
	if c.Email == "" || c.Password == "" {
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", map[string]string{"email": "required", "password": "required"})
			return
		}
		renderTemplate(w, r, "signup", map[string]any{"Error": "email and password required"})
		return
	}
	if len(c.Password) < 8 {
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", map[string]string{"password": "too_short"})
			return
		}
		renderTemplate(w, r, "signup", map[string]any{"Error": "password must be at least 8 characters"})
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(c.Password), bcrypt.DefaultCost)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "hash_failed", nil)
		return
	}
	user := models.User{Email: c.Email, Password: string(hash), Name: c.Name}
	if err := h.DB.Create(&user).Error; err != nil {
		// the unique index on email is the usual culprit
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusConflict, "email_taken", nil)
			return
		}
		renderTemplate(w, r, "signup", map[string]any{"Error": "an account with this email already exists"})
		return
	}
	auth.CreateSession(w, user.ID)
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusCreated, map[string]any{"user_id": user.ID})
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		if uid, ok := auth.ParseSession(r); ok && uid != 0 {
			var count int64
			if err := h.DB.Model(&models.User{}).Where("id = ?", uid).Limit(1).Count(&count).Error; err == nil && count > 0 {
				http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
				return
			}
			auth.ClearSession(w)
		}
		renderTemplate(w, r, "login", nil)
		return
	}
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET,POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	c, err := readCredentials(r)
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_form", nil)
		return
	}
	var user models.User
	err = h.DB.Where("email = ?", c.Email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) ||
		(err == nil && bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(c.Password)) != nil) {
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
			return
		}
		renderTemplate(w, r, "login", map[string]any{"Error": "invalid email or password"})
		return
	}
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "login_failed", nil)
		return
	}
	auth.CreateSession(w, user.ID)
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"user_id": user.ID})
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"logged_out": true})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

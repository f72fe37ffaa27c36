package view

import (
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/GopkoDev/invoiceForge-sub001/internal/auth"
)

var (
	baseDir  string
	once     sync.Once
	tplCache = struct {
		sync.RWMutex
		m map[string]*template.Template
	}{m: map[string]*template.Template{}}
)

func detectBase() {
	candidates := []string{"templates", "../templates", "../../templates", "../../../templates"}
	for _, c := range candidates {
		if fi, err := os.Stat(filepath.Clean(c)); err == nil && fi.IsDir() {
			baseDir = filepath.Clean(c)
			return
		}
	}
	baseDir = "templates"
}

// SetBaseDir overrides the template base directory (useful for tests).
func SetBaseDir(path string) {
	if path == "" {
		return
	}
	baseDir = filepath.Clean(path)
	once = sync.Once{}
}

// ResetForTests clears the cache and forces base dir detection to rerun.
func ResetForTests() {
	tplCache.Lock()
	tplCache.m = map[string]*template.Template{}
	tplCache.Unlock()
	baseDir = ""
	once = sync.Once{}
}

// Funcs returns the shared template helpers.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"money": func(amount float64, currency string) string {
			return fmt.Sprintf("%.2f %s", amount, currency)
		},
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("2006-01-02")
		},
		"year": func() int { return time.Now().Year() },
		"title": func(s string) string {
			if s == "" {
				return s
			}
			return strings.ToUpper(s[:1]) + s[1:]
		},
	}
}

// Render parses and executes a template file wrapped in layout.html when one
// exists next to it. Parsed templates are cached outside DEV mode.
func Render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) error {
	once.Do(detectBase)
	if data == nil {
		data = map[string]any{}
	}
	if _, exists := data["Year"]; !exists {
		data["Year"] = time.Now().Year()
	}
	if _, exists := data["IsLoggedIn"]; !exists {
		_, loggedIn := auth.UserIDFromContext(r.Context())
		data["IsLoggedIn"] = loggedIn
	}

	devMode := os.Getenv("DEV") == "1"
	if !devMode {
		tplCache.RLock()
		t, ok := tplCache.m[name]
		tplCache.RUnlock()
		if ok && t != nil {
			return t.Execute(w, data)
		}
	}

	mainPath := filepath.Join(baseDir, name)
	if _, err := os.Stat(mainPath); err != nil {
		return err
	}
	layoutPath := filepath.Join(baseDir, "layout.html")
	var t *template.Template
	if fi, err := os.Stat(layoutPath); err == nil && !fi.IsDir() {
		parsed, err := template.New("layout.html").Funcs(Funcs()).ParseFiles(layoutPath, mainPath)
		if err != nil {
			return err
		}
		t = parsed
	} else {
		parsed, err := template.New(name).Funcs(Funcs()).ParseFiles(mainPath)
		if err != nil {
			return err
		}
		t = parsed
	}
	if !devMode {
		tplCache.Lock()
		tplCache.m[name] = t
		tplCache.Unlock()
	}
	return t.Execute(w, data)
}

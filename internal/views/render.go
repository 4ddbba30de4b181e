package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/natours/natours-api/internal/apperr"
	"github.com/natours/natours-api/internal/users"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

const (
	pageOverview = "overview"
	pageLogin    = "login"
	pageAccount  = "account"
	pageError    = "error"
)

var funcs = template.FuncMap{
	"firstName": func(name string) string {
		if f := strings.Fields(name); len(f) > 0 {
			return f[0]
		}
		return name
	},
}

type pageData struct {
	Title   string
	User    *users.User
	Message string
}

// Renderer executes the page templates. It also renders failed requests as an
// error page, so it can stand in for apperr.Responder on page routes.
type Renderer struct {
	pages       map[string]*template.Template
	logger      *slog.Logger
	development bool
}

func NewRenderer(logger *slog.Logger, development bool) (*Renderer, error) {
	base, err := template.New("base").Funcs(funcs).ParseFS(templateFS, "templates/base.gohtml")
	if err != nil {
		return nil, fmt.Errorf("parse base template: %w", err)
	}

	pages := make(map[string]*template.Template)
	for _, name := range []string{pageOverview, pageLogin, pageAccount, pageError} {
		t, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(templateFS, "templates/"+name+".gohtml"); err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		pages[name] = t
	}

	return &Renderer{pages: pages, logger: logger, development: development}, nil
}

func (rn *Renderer) render(w http.ResponseWriter, status int, page string, data pageData) {
	var buf bytes.Buffer
	if err := rn.pages[page].ExecuteTemplate(&buf, "base", data); err != nil {
		rn.logger.Error("failed to render page", "page", page, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// Write renders err as the error page with the same status and message the
// JSON API would use.
func (rn *Renderer) Write(w http.ResponseWriter, r *http.Request, err error) {
	status, body := apperr.Public(err, rn.development)

	if status >= http.StatusInternalServerError {
		rn.logger.Error("page request failed",
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
	}

	data := pageData{Title: "Something went wrong!", Message: body.Message}
	if u, ok := users.FromContext(r.Context()); ok {
		data.User = &u
	}
	rn.render(w, status, pageError, data)
}

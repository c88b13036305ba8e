// Package handler contains the HTTP handlers of the blog.
//
// Handlers are the glue between HTTP and the services:
//  1. parse the request (form values, URL params, current user from context)
//  2. call a service
//  3. render a page, redirect, or write JSON
//
// They hold no business rules. Validation, ownership and credential checks
// all live in internal/service.
package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/blog/internal/auth"
	"github.com/sakif/blog/internal/model"
)

// pages lists every template that is rendered on its own inside base.html.
var pages = []string{"register", "login", "index", "create", "update", "error"}

// pageData is what every template receives. Unused fields stay zero.
type pageData struct {
	Title   string
	User    *model.User
	Flash   string
	Form    map[string]string
	Posts   []model.Post
	Post    *model.Post
	Message string
}

// Renderer executes pre-parsed page templates.
//
// Each page is parsed together with base.html into its own template set,
// so every page can define "content" (and optionally "header") without
// clashing with the others.
type Renderer struct {
	pages  map[string]*template.Template
	logger *slog.Logger
}

// NewRenderer parses base.html plus each page from fsys once at startup.
func NewRenderer(fsys fs.FS, logger *slog.Logger) (*Renderer, error) {
	funcs := template.FuncMap{
		"linebreaks": linebreaks,
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(pages)), logger: logger}
	for _, page := range pages {
		tmpl, err := template.New("").Funcs(funcs).ParseFS(fsys, "base.html", page+".html")
		if err != nil {
			return nil, fmt.Errorf("handler: parsing %s template: %w", page, err)
		}
		r.pages[page] = tmpl
	}
	return r, nil
}

// render writes page with the given status. The current user is filled in
// from the request context so the navigation always reflects the session.
//
// The page is executed into a buffer first: a template error then turns
// into a clean 500 instead of a half-written page.
func (p *Renderer) render(w http.ResponseWriter, r *http.Request, status int, page string, data pageData) {
	tmpl, ok := p.pages[page]
	if !ok {
		p.logger.Error("unknown template", slog.String("page", page))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if user, ok := auth.UserFromContext(r.Context()); ok {
		data.User = user
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		p.logger.Error("failed to render template",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// linebreaks escapes s and turns blank-line separated blocks into
// paragraphs and single newlines into <br>.
func linebreaks(s string) template.HTML {
	s = template.HTMLEscapeString(strings.ReplaceAll(s, "\r\n", "\n"))

	var out []string
	for _, p := range strings.Split(s, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			p = strings.ReplaceAll(p, "\n", "<br>")
			out = append(out, "<p>"+p+"</p>")
		}
	}
	return template.HTML(strings.Join(out, "\n"))
}

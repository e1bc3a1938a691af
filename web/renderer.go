// web/renderer.go
package web

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"learning-platform/models"
)

// Page carries the fields every template shares. Data holds the
// page-specific payload.
type Page struct {
	Title       string
	User        *models.User
	Flashes     []models.Flash
	CSRFField   template.HTML
	UnreadCount int
	Year        int
	Data        any
}

// Renderer executes the embedded page templates. Each page is parsed
// together with the layout at startup, so a broken template fails the
// boot instead of the first request.
type Renderer struct {
	pages map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	layout, err := fs.ReadFile(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("read layout: %w", err)
	}

	entries, err := fs.ReadDir(templateFS, "templates/pages")
	if err != nil {
		return nil, fmt.Errorf("read pages: %w", err)
	}

	pages := make(map[string]*template.Template, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".html") {
			continue
		}
		content, err := fs.ReadFile(templateFS, "templates/pages/"+entry.Name())
		if err != nil {
			return nil, err
		}
		t := template.New("layout").Funcs(funcMap())
		if _, err := t.Parse(string(layout)); err != nil {
			return nil, fmt.Errorf("parse layout for %s: %w", entry.Name(), err)
		}
		if _, err := t.Parse(string(content)); err != nil {
			return nil, fmt.Errorf("parse %s: %w", entry.Name(), err)
		}
		pages[strings.TrimSuffix(entry.Name(), ".html")] = t
	}
	return &Renderer{pages: pages}, nil
}

// Render writes the named page. The page is executed into a buffer
// first so a failing template never sends half a document.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, p *Page) {
	t, ok := r.pages[name]
	if !ok {
		slog.Error("unknown template", "page", name)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if p == nil {
		p = &Page{}
	}
	if p.Year == 0 {
		p.Year = time.Now().Year()
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", p); err != nil {
		slog.Error("template render failed", "page", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

package http

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"budgettracker/internal/core"
	applog "budgettracker/internal/log"
	"budgettracker/internal/nav"
)

// Each page is parsed together with the shared layout, navigation and
// partial templates so that every page can define its own "content".
var (
	sharedTemplates = []string{"templates/layout.html", "templates/nav.html", "templates/partials.html"}
	pageTemplates   = []string{"login.html", "signup.html", "dashboard.html", "categories.html", "budgets.html", "reports.html", "not_found.html"}
)

var templateFuncs = template.FuncMap{
	"money": func(m core.Money) string { return m.String() },
	"usage": core.UsagePercent,
	"status": func(spent, limit core.Money) core.BudgetStatus {
		return core.StatusFor(core.UsagePercent(spent, limit))
	},
	"capped": func(p int) int {
		if p > 100 {
			return 100
		}
		if p < 0 {
			return 0
		}
		return p
	},
	"defaultColor": func() string { return core.DefaultCategoryColor },
}

func loadTemplates(fsys fs.FS) (map[string]*template.Template, error) {
	base, err := template.New("").Funcs(templateFuncs).ParseFS(fsys, sharedTemplates...)
	if err != nil {
		return nil, fmt.Errorf("parse shared templates: %w", err)
	}
	out := make(map[string]*template.Template, len(pageTemplates))
	for _, name := range pageTemplates {
		t, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone templates for %s: %w", name, err)
		}
		if _, err := t.ParseFS(fsys, "templates/"+name); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		out[name] = t
	}
	return out, nil
}

// pageData is embedded by every page's view model.
type pageData struct {
	Title    string
	Path     string
	Nav      []nav.Link
	LoggedIn bool
	Notice   string
	Error    string
}

func (s *Server) basePage(r *http.Request, title string) pageData {
	p := pageData{Title: title, Path: r.URL.Path}
	if s.shell != nil {
		p.Nav = s.shell.Links(r.URL.Path)
		p.LoggedIn = s.shell.LoggedIn()
	}
	return p
}

func (s *Server) execute(page, block string, data any) ([]byte, error) {
	if s.templateErr != nil || s.templates == nil {
		return nil, fmt.Errorf("templates not loaded: %v", s.templateErr)
	}
	t, ok := s.templates[page]
	if !ok {
		return nil, fmt.Errorf("unknown page template %q", page)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, block, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// renderPage writes a whole page with the layout.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	body, err := s.execute(page, "layout", data)
	if err != nil {
		s.sl.LogError(r.Context(), "Template execution failed", err,
			applog.ComponentTemplate, applog.OpRender, applog.LogFields{"template": page})
		http.Error(w, "error rendering page", http.StatusInternalServerError)
		return
	}
	NewHTMXResponse().Status(status).BodyHTML(string(body)).Write(w)
}

// partial renders one named block of a page into a response builder the
// caller can add triggers to. On failure it returns a 500 response.
func (s *Server) partial(r *http.Request, page, block string, data any) *HTMXResponseBuilder {
	body, err := s.execute(page, block, data)
	if err != nil {
		s.sl.LogError(r.Context(), "Template execution failed", err,
			applog.ComponentTemplate, applog.OpRender, applog.LogFields{"template": page, "block": block})
		return InternalServerError("Error rendering page")
	}
	return NewHTMXResponse().BodyHTML(string(body))
}

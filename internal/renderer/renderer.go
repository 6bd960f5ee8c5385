package renderer

import (
	"embed"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

//go:embed views
var views embed.FS

// funcs are available to every page template.
var funcs = template.FuncMap{
	"add": func(a, b int) int { return a + b },
	"sub": func(a, b int) int { return a - b },
	"formatTime": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format("2006-01-02 15:04")
	},
}

// TemplateRenderer implements echo.Renderer
type TemplateRenderer struct {
	Templates map[string]*template.Template
}

// New parses every page against the base layout. It panics on a malformed
// template, which can only happen at build time.
func New() *TemplateRenderer {
	r := &TemplateRenderer{
		Templates: make(map[string]*template.Template),
	}
	r.parseTemplates()
	return r
}

func (t *TemplateRenderer) parseTemplates() {
	parse := func(name, pageFile string) {
		t.Templates[name] = template.Must(template.New(name).Funcs(funcs).ParseFS(views,
			"views/layouts/base.html",
			"views/pages/"+pageFile,
		))
	}

	parse("browser", "browser.html")
}

// Render executes the "base" layout of the named page.
func (t *TemplateRenderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	tmpl, ok := t.Templates[name]
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "Template not found: "+name)
	}
	return tmpl.ExecuteTemplate(w, "base", data)
}

package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/medlink/medlink/internal/domain/doctor"
	"github.com/medlink/medlink/internal/domain/mapping"
	"github.com/medlink/medlink/internal/domain/patient"
	"github.com/medlink/medlink/internal/platform/validation"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const layoutFile = "templates/layout.html"

// Renderer executes a page template inside the shared layout. Every page is
// parsed together with layout.html at startup.
type Renderer struct {
	pages map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, file := range files {
		if file == layoutFile {
			continue
		}
		name := strings.TrimSuffix(path.Base(file), ".html")
		tmpl, err := template.New("layout").Funcs(funcs).ParseFS(templateFS, layoutFile, file)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.pages[name] = tmpl
	}
	return r, nil
}

// Render implements echo.Renderer.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	return tmpl.ExecuteTemplate(w, "layout", data)
}

// ErrorPage renders the error template. It is handed to the platform error
// handler for browser requests.
func (r *Renderer) ErrorPage(c echo.Context, code int, message string) error {
	if message == "" {
		message = http.StatusText(code)
	}
	return c.Render(code, "error", echo.Map{
		"Title":   http.StatusText(code),
		"Code":    code,
		"Message": message,
	})
}

type choice struct {
	Value string
	Label string
}

func choicesOf(values []string, names map[string]string) []choice {
	out := make([]choice, 0, len(values))
	for _, v := range values {
		label := v
		if names != nil {
			label = names[v]
		}
		out = append(out, choice{Value: v, Label: label})
	}
	return out
}

var funcs = template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("Jan 2, 2006")
	},
	"datetime": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("Jan 2, 2006 15:04")
	},
	"field": func(form map[string]string, name string) string {
		return form[name]
	},
	"fieldError": func(errs validation.Errors, name string) string {
		return errs.First(name)
	},
	"genders":         func() []choice { return choicesOf(patient.Genders, patient.GenderNames) },
	"bloodTypes":      func() []choice { return choicesOf(patient.BloodTypes, nil) },
	"specializations": func() []choice { return choicesOf(doctor.Specializations, doctor.SpecializationNames) },
	"statuses":        func() []choice { return choicesOf(mapping.Statuses, mapping.StatusNames) },
	"specializationName": func(code string) string {
		if n, ok := doctor.SpecializationNames[code]; ok {
			return n
		}
		return code
	},
}

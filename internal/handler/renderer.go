package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"sync"
)

// Renderer manages template parsing and rendering with isolated template sets.
// It supports two layouts:
//   - "auth" layout for the login, signup and forgot password pages
//   - "app" layout for pages behind the auth screens (dashboard)
//
// Templates are organized as:
//   - layouts/auth.html, layouts/app.html - base layouts
//   - components/*.html - reusable components (shared across layouts)
//   - partials/*.html - standalone fragments for htmx responses
//   - pages/auth/*.html - auth pages (use auth layout)
//   - pages/*.html - app pages (use app layout)
type Renderer struct {
	fsys   fs.FS
	logger *slog.Logger
	isDev  bool

	mu        sync.RWMutex
	templates map[string]*template.Template
}

// RendererConfig holds configuration for the renderer.
type RendererConfig struct {
	// FS is rooted at the templates directory: web.Templates in production,
	// os.DirFS("web/templates") for hot reload in development.
	FS     fs.FS
	Logger *slog.Logger
	IsDev  bool
}

// NewRenderer parses every template in cfg.FS.
func NewRenderer(cfg RendererConfig) (*Renderer, error) {
	if cfg.FS == nil {
		return nil, fmt.Errorf("renderer: template filesystem is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	r := &Renderer{
		fsys:   cfg.FS,
		logger: cfg.Logger,
		isDev:  cfg.IsDev,
	}

	templates, err := r.load()
	if err != nil {
		return nil, err
	}
	r.templates = templates
	return r, nil
}

var _ TemplateRenderer = (*Renderer)(nil)

func (r *Renderer) load() (map[string]*template.Template, error) {
	templates := make(map[string]*template.Template)

	components, err := r.glob("components/*.html")
	if err != nil {
		return nil, err
	}
	partials, err := r.glob("partials/*.html")
	if err != nil {
		return nil, err
	}

	// Each partial also stands alone for htmx responses.
	for _, partial := range partials {
		tmpl, err := template.New("").Funcs(TemplateFuncs()).ParseFS(r.fsys, append([]string{partial}, components...)...)
		if err != nil {
			return nil, fmt.Errorf("failed to parse partial %s: %w", partial, err)
		}
		templates["partial/"+baseName(partial)] = tmpl
	}

	layouts := []struct {
		name  string
		pages string
		key   func(page string) string
	}{
		{"auth", "pages/auth/*.html", func(page string) string { return "auth/" + baseName(page) }},
		{"app", "pages/*.html", baseName},
	}

	for _, layout := range layouts {
		files := append([]string{"layouts/" + layout.name + ".html"}, components...)
		files = append(files, partials...)

		base, err := template.New(layout.name).Funcs(TemplateFuncs()).ParseFS(r.fsys, files...)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s layout: %w", layout.name, err)
		}

		pages, err := r.glob(layout.pages)
		if err != nil {
			return nil, err
		}
		for _, page := range pages {
			pageTmpl, err := base.Clone()
			if err != nil {
				return nil, fmt.Errorf("failed to clone %s template for %s: %w", layout.name, page, err)
			}
			if pageTmpl, err = pageTmpl.ParseFS(r.fsys, page); err != nil {
				return nil, fmt.Errorf("failed to parse page %s: %w", page, err)
			}
			templates[layout.key(page)] = pageTmpl
		}
	}

	r.logger.Debug("templates loaded", "count", len(templates))
	return templates, nil
}

func (r *Renderer) glob(pattern string) ([]string, error) {
	matches, err := fs.Glob(r.fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to glob %s: %w", pattern, err)
	}
	return matches, nil
}

func baseName(file string) string {
	return strings.TrimSuffix(path.Base(file), path.Ext(file))
}

// Reload re-parses all templates. Useful for development.
func (r *Renderer) Reload() error {
	templates, err := r.load()
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.templates = templates
	r.mu.Unlock()
	return nil
}

func (r *Renderer) lookup(name string) (*template.Template, string, error) {
	if r.isDev {
		if err := r.Reload(); err != nil {
			return nil, "", fmt.Errorf("template reload failed: %w", err)
		}
	}

	r.mu.RLock()
	tmpl, ok := r.templates[name]
	r.mu.RUnlock()
	if !ok {
		return nil, "", fmt.Errorf("template %q not found", name)
	}
	return tmpl, r.getBaseTemplateName(name), nil
}

// Render renders a template to an io.Writer.
func (r *Renderer) Render(w io.Writer, name string, data any) error {
	tmpl, execName, err := r.lookup(name)
	if err != nil {
		return err
	}
	return tmpl.ExecuteTemplate(w, execName, data)
}

// RenderHTTP renders a page with status 200.
func (r *Renderer) RenderHTTP(w http.ResponseWriter, name string, data any) {
	r.RenderHTTPStatus(w, http.StatusOK, name, data)
}

// RenderHTTPStatus renders a page with the given status.
// Output is buffered so a template error still yields a clean 500.
func (r *Renderer) RenderHTTPStatus(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := r.Render(&buf, name, data); err != nil {
		r.logger.Error("template execution failed", "name", name, "error", err)
		http.Error(w, "Template execution failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// RenderPartial renders a partial template (for htmx responses).
// The partial file should contain {{define "name"}}...{{end}} where name matches the file name.
func (r *Renderer) RenderPartial(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := r.Render(&buf, "partial/"+name, data); err != nil {
		r.logger.Error("partial execution failed", "name", name, "error", err)
		http.Error(w, "Partial execution failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// getBaseTemplateName determines which base template to execute.
func (r *Renderer) getBaseTemplateName(name string) string {
	switch {
	case strings.HasPrefix(name, "auth/"):
		return "auth"
	case strings.HasPrefix(name, "partial/"):
		return strings.TrimPrefix(name, "partial/")
	default:
		return "app"
	}
}

package handler

import (
	"log/slog"
	"net/http"

	"github.com/hypesin/hypes/internal/csrf"
	"github.com/hypesin/hypes/internal/session"
	"github.com/hypesin/hypes/internal/templ/pages/dashboard"
)

// DashboardHandler serves the page a successful login or signup lands on.
//
// Routes handled:
// - GET  /dashboard -> Show
// - POST /logout    -> Logout
type DashboardHandler struct {
	sessions *session.Store
	renderer TemplateRenderer
	logger   *slog.Logger
}

// NewDashboardHandler creates a new DashboardHandler with the required dependencies.
func NewDashboardHandler(sessions *session.Store, renderer TemplateRenderer, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		sessions: sessions,
		renderer: renderer,
		logger:   logger,
	}
}

// Show renders the dashboard for the signed-in user, or sends visitors to
// the login page.
func (h *DashboardHandler) Show(w http.ResponseWriter, r *http.Request) {
	user, ok := h.sessions.User(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	toasts, err := h.sessions.Toasts(w, r)
	if err != nil {
		h.logger.Warn("failed to read flash", "error", err)
	}

	h.renderer.RenderHTTP(w, "dashboard", dashboard.PageData{
		Name:      user.Name,
		Email:     user.Email,
		SignedIn:  true,
		CSRFToken: csrf.Token(r.Context()),
		Toasts:    toasts,
	})
}

// Logout forgets the user and returns to the login page.
func (h *DashboardHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.SignOut(w, r, session.Toast{Level: session.LevelSuccess, Message: "You have been logged out."}); err != nil {
		h.logger.Error("failed to clear session", "error", err)
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// RegisterRoutes registers the dashboard routes. path is the configured
// destination of successful submissions.
func (h *DashboardHandler) RegisterRoutes(mux *http.ServeMux, path string) {
	mux.HandleFunc("GET "+path, h.Show)
	mux.HandleFunc("POST /logout", h.Logout)
}

// Package handler contains the HTTP handlers of the hypes.in auth screens.
//
// Every GET of /login or /signup opens a screen in the registry and embeds its
// id in the form. A POST looks the screen up again, submits through its
// workflow and, when the submission is accepted, holds the request open until
// the submission task finishes. If the client goes away first the screen is
// torn down, which cancels the task.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/hypesin/hypes/internal/csrf"
	"github.com/hypesin/hypes/internal/domain"
	"github.com/hypesin/hypes/internal/metrics"
	"github.com/hypesin/hypes/internal/screen"
	"github.com/hypesin/hypes/internal/session"
	authpages "github.com/hypesin/hypes/internal/templ/pages/auth"
	"github.com/hypesin/hypes/internal/workflow"
)

// ScreenIDField is the hidden form field carrying the screen id.
const ScreenIDField = "screen_id"

// TemplateRenderer is the interface for rendering HTML templates.
// This interface allows for mocking in tests.
type TemplateRenderer interface {
	RenderHTTP(w http.ResponseWriter, name string, data any)
	RenderHTTPStatus(w http.ResponseWriter, status int, name string, data any)
	RenderPartial(w http.ResponseWriter, name string, data any)
}

// AuthHandler handles the login and signup screens.
//
// Routes handled:
//   - GET  /                       -> redirect to /login
//   - GET  /login, /signup         -> ShowLogin, ShowSignup
//   - POST /login, /signup         -> Login, Signup
//   - POST /signup/fields/{field}  -> EditSignupField (htmx)
//   - GET  /screens/{id}           -> ScreenStatus
//   - POST /screens/{id}/leave     -> LeaveScreen
//   - GET  /forgot-password        -> ShowForgotPassword
type AuthHandler struct {
	screens  *screen.Registry
	sessions *session.Store
	renderer TemplateRenderer
	logger   *slog.Logger
}

// NewAuthHandler creates a new AuthHandler with the required dependencies.
func NewAuthHandler(screens *screen.Registry, sessions *session.Store, renderer TemplateRenderer, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		screens:  screens,
		sessions: sessions,
		renderer: renderer,
		logger:   logger,
	}
}

// submission is the part of a screen the shared POST flow needs.
type submission interface {
	workflow.Instance
	Outbox() *workflow.Recorder
	Done() <-chan struct{}
	Session() *workflow.Session
	Elapsed() time.Duration
	Closed() bool
}

// =============================================================================
// Login
// =============================================================================

// ShowLogin opens a login screen and renders its empty form.
func (h *AuthHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	s := h.screens.NewLogin()
	h.renderLogin(w, r, http.StatusOK, s, h.flashed(w, r))
}

// Login submits the login form of the screen named by the screen_id field.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	form := workflow.LoginForm{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
		Remember: workflow.Checked(r.PostFormValue("remember")),
	}

	s, err := h.screens.Login(r.PostFormValue(ScreenIDField))
	if err != nil {
		// Stale tab: the screen expired or the server restarted.
		s = h.screens.NewLogin()
	}

	errs, err := s.Submit(form)
	if errors.Is(err, workflow.ErrTornDown) {
		s = h.screens.NewLogin()
		errs, err = s.Submit(form)
	}

	rerender := func(status int, toasts []session.Toast) {
		h.renderLogin(w, r, status, s, toasts)
	}
	h.handleSubmit(w, r, s, errs, err, rerender)
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, status int, s *workflow.LoginScreen, toasts []session.Toast) {
	form := s.Form()
	form.Password = "" // never echoed back

	h.renderer.RenderHTTPStatus(w, status, "auth/login", authpages.LoginPageData{
		Shell:     authpages.LoginShell,
		ScreenID:  s.ID(),
		CSRFToken: csrf.Token(r.Context()),
		Form:      form,
		Errors:    s.Errors().Strings(),
		Pending:   s.Status() == workflow.StatusPending,
		Toasts:    toasts,
	})
}

// =============================================================================
// Signup
// =============================================================================

// ShowSignup opens a signup screen and renders its empty form.
func (h *AuthHandler) ShowSignup(w http.ResponseWriter, r *http.Request) {
	s := h.screens.NewSignup()
	h.renderSignup(w, r, http.StatusOK, s, h.flashed(w, r))
}

// Signup submits the signup form of the screen named by the screen_id field.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	form := workflow.SignupForm{
		FullName:        r.PostFormValue("fullName"),
		Email:           r.PostFormValue("email"),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirmPassword"),
		AgreeToTerms:    workflow.Checked(r.PostFormValue("terms")),
	}

	s, err := h.screens.Signup(r.PostFormValue(ScreenIDField))
	if err != nil {
		s = h.screens.NewSignup()
	}

	errs, err := s.Submit(form)
	if errors.Is(err, workflow.ErrTornDown) {
		s = h.screens.NewSignup()
		errs, err = s.Submit(form)
	}

	rerender := func(status int, toasts []session.Toast) {
		h.renderSignup(w, r, status, s, toasts)
	}
	h.handleSubmit(w, r, s, errs, err, rerender)
}

func (h *AuthHandler) renderSignup(w http.ResponseWriter, r *http.Request, status int, s *workflow.SignupScreen, toasts []session.Toast) {
	form := s.Form()
	form.Password = ""
	form.ConfirmPassword = ""

	h.renderer.RenderHTTPStatus(w, status, "auth/signup", authpages.SignupPageData{
		Shell:     authpages.SignupShell,
		ScreenID:  s.ID(),
		CSRFToken: csrf.Token(r.Context()),
		Form:      form,
		Errors:    s.Errors().Strings(),
		Pending:   s.Status() == workflow.StatusPending,
		Toasts:    toasts,
	})
}

// EditSignupField binds one input of a signup screen and clears that field's
// error. It answers with the emptied error slot for htmx to swap in.
func (h *AuthHandler) EditSignupField(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}
	field := r.PathValue("field")

	s, err := h.screens.Signup(r.PostFormValue(ScreenIDField))
	if err == nil {
		err = s.Edit(workflow.Field(field), r.PostFormValue(field))
	}
	if err != nil {
		if code := domain.ErrorCode(err); code == domain.ENOTFOUND || code == domain.EGONE {
			// Reload to get a fresh screen.
			w.Header().Set("HX-Refresh", "true")
		}
		ErrorResponse(w, r, h.logger, err)
		return
	}

	h.renderer.RenderPartial(w, "field_error", authpages.FieldErrorData{
		Field:   field,
		Message: s.Errors().Get(field),
	})
}

// =============================================================================
// Shared submit flow
// =============================================================================

// handleSubmit turns the outcome of Submit into a response:
//   - rejected input re-renders the form with 422, or answers JSON clients
//     with the field messages and rule kinds
//   - a submission already in flight re-renders it disabled with 409
//   - an accepted submission waits for the task, then redirects on success
//     or re-renders with the failure toast
func (h *AuthHandler) handleSubmit(w http.ResponseWriter, r *http.Request, s submission, errs workflow.Errors, err error, rerender func(int, []session.Toast)) {
	kind := string(s.Kind())

	switch {
	case errors.Is(err, workflow.ErrSubmissionPending):
		metrics.SubmissionDuplicate(kind)
		rerender(http.StatusConflict, nil)
		return
	case errors.Is(err, workflow.ErrAlreadySucceeded):
		h.redirect(w, r, s.Outbox().Route())
		return
	case err != nil:
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if !errs.Empty() {
		fields := make([]string, 0, len(errs))
		for f := range errs {
			fields = append(fields, string(f))
		}
		slices.Sort(fields)
		metrics.SubmissionRejected(kind, fields)
		notes := toasts(s.Outbox().Drain())
		if acceptsJSON(r) {
			ValidationErrorResponse(w, r, h.logger, rejection("handler."+kind, errs))
			return
		}
		rerender(http.StatusUnprocessableEntity, notes)
		return
	}

	select {
	case <-s.Done():
	case <-r.Context().Done():
		h.logger.Debug("client left during submission", "screen_id", s.ID(), "form", kind)
		h.screens.Leave(s.ID())
		metrics.SubmissionCancelled(kind)
		return
	}

	notes := toasts(s.Outbox().Drain())

	switch {
	case s.Status() == workflow.StatusSucceeded:
		metrics.SubmissionSucceeded(kind, s.Elapsed())
		user := session.User{}
		if sess := s.Session(); sess != nil {
			user = session.User{Name: sess.Name, Email: sess.Email}
		}
		if err := h.sessions.SignIn(w, r, user, notes...); err != nil {
			h.logger.Error("failed to save session", "error", err)
		}
		route := s.Outbox().Route()
		h.screens.Leave(s.ID())
		h.redirect(w, r, route)
	case s.Closed():
		// Swept or shut down while waiting.
		metrics.SubmissionCancelled(kind)
		ErrorResponse(w, r, h.logger, workflow.ErrTornDown)
	default:
		metrics.SubmissionFailed(kind, s.Elapsed())
		rerender(http.StatusBadGateway, notes)
	}
}

// rejection converts stored errors into a ValidationError tagged with the
// kind of each failed rule.
func rejection(op string, errs workflow.Errors) *domain.ValidationError {
	ve := domain.NewValidationError(op, errs.Strings())
	for _, v := range errs.Violations() {
		ve.WithKind(string(v.Field), string(v.Kind))
	}
	return ve
}

// redirect navigates a full page POST with 303 and an htmx request with
// HX-Redirect.
func (h *AuthHandler) redirect(w http.ResponseWriter, r *http.Request, route string) {
	if route == "" {
		route = workflow.DefaultDestination
	}
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", route)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, route, http.StatusSeeOther)
}

func (h *AuthHandler) parseForm(w http.ResponseWriter, r *http.Request) bool {
	err := r.ParseForm()
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
		return false
	}
	ErrorResponse(w, r, h.logger, domain.Invalid("handler.parseForm", "Invalid form submission"))
	return false
}

// flashed returns toasts queued by a previous request, logging cookie errors.
func (h *AuthHandler) flashed(w http.ResponseWriter, r *http.Request) []session.Toast {
	ts, err := h.sessions.Toasts(w, r)
	if err != nil {
		h.logger.Warn("failed to read flash", "error", err)
	}
	return ts
}

func toasts(ns []workflow.Notification) []session.Toast {
	if len(ns) == 0 {
		return nil
	}
	out := make([]session.Toast, len(ns))
	for i, n := range ns {
		out[i] = session.Toast{Level: session.Level(n.Level), Message: n.Message}
	}
	return out
}

// =============================================================================
// Screens
// =============================================================================

// ScreenStatusResponse is the JSON body of GET /screens/{id}.
type ScreenStatusResponse struct {
	ID       string            `json:"id"`
	Form     string            `json:"form"`
	Status   workflow.Status   `json:"status"`
	Errors   map[string]string `json:"errors"`
	Attempts int               `json:"attempts"`
}

// ScreenStatus reports a screen's submission status.
func (h *AuthHandler) ScreenStatus(w http.ResponseWriter, r *http.Request) {
	s, err := h.screens.Get(r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	resp := ScreenStatusResponse{
		ID:     s.ID(),
		Form:   string(s.Kind()),
		Status: s.Status(),
		Errors: map[string]string{},
	}
	if v, ok := s.(interface{ Errors() workflow.Errors }); ok {
		resp.Errors = v.Errors().Strings()
	}
	if v, ok := s.(interface{ Attempts() int }); ok {
		resp.Attempts = v.Attempts()
	}
	writeJSON(w, http.StatusOK, resp)
}

// LeaveScreen tears a screen down. Browsers call it with navigator.sendBeacon
// when the page unloads, so it always answers 204.
func (h *AuthHandler) LeaveScreen(w http.ResponseWriter, r *http.Request) {
	if h.screens.Leave(r.PathValue("id")) {
		h.logger.Debug("screen left", "screen_id", r.PathValue("id"))
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Placeholders
// =============================================================================

// ShowForgotPassword renders the target of the "Forgot password?" link.
func (h *AuthHandler) ShowForgotPassword(w http.ResponseWriter, r *http.Request) {
	h.renderer.RenderHTTP(w, "auth/forgot_password", authpages.ForgotPasswordPageData{
		Shell:  authpages.ForgotPasswordShell,
		Toasts: h.flashed(w, r),
	})
}

// =============================================================================
// Routes
// =============================================================================

// RegisterRoutes registers the auth routes. limitLogin and limitSignup wrap
// the POST handlers; pass nil to leave a route unthrottled.
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux, limitLogin, limitSignup func(http.Handler) http.Handler) {
	wrap := func(limit func(http.Handler) http.Handler, fn http.HandlerFunc) http.Handler {
		if limit == nil {
			return fn
		}
		return limit(fn)
	}

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusFound)
	})

	mux.HandleFunc("GET /login", h.ShowLogin)
	mux.Handle("POST /login", wrap(limitLogin, h.Login))

	mux.HandleFunc("GET /signup", h.ShowSignup)
	mux.Handle("POST /signup", wrap(limitSignup, h.Signup))
	mux.HandleFunc("POST /signup/fields/{field}", h.EditSignupField)

	mux.HandleFunc("GET /screens/{id}", h.ScreenStatus)
	mux.HandleFunc("POST /screens/{id}/leave", h.LeaveScreen)

	mux.HandleFunc("GET /forgot-password", h.ShowForgotPassword)
}


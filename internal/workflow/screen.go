package workflow

import (
	"context"
	"log/slog"
	"sync"
)

// ScreenKind names the screen a workflow belongs to.
type ScreenKind string

const (
	KindLogin  ScreenKind = "login"
	KindSignup ScreenKind = "signup"
)

// Instance is what the screen registry tracks.
type Instance interface {
	ID() string
	Kind() ScreenKind
	Status() Status
	Teardown()
}

// ScreenConfig holds the dependencies shared by screen constructors.
type ScreenConfig struct {
	Authenticator Authenticator
	Validator     *Validator
	Destination   string
	Logger        *slog.Logger
}

func (cfg ScreenConfig) validator() *Validator {
	if cfg.Validator != nil {
		return cfg.Validator
	}
	return defaultValidator
}

func (cfg ScreenConfig) logger(id string) *slog.Logger {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return logger.With("screen_id", id)
}

// =============================================================================
// Signup
// =============================================================================

// SignupScreen owns the state of one visit to the signup page.
type SignupScreen struct {
	id        string
	auth      Authenticator
	validator *Validator
	outbox    *Recorder

	*Controller

	mu   sync.Mutex
	form SignupForm
}

// NewSignupScreen returns an idle signup screen.
func NewSignupScreen(id string, cfg ScreenConfig) *SignupScreen {
	outbox := NewRecorder()
	return &SignupScreen{
		id:        id,
		auth:      cfg.Authenticator,
		validator: cfg.validator(),
		outbox:    outbox,
		Controller: NewController(ControllerConfig{
			Name:        string(KindSignup),
			Messages:    SignupMessages,
			Destination: cfg.Destination,
			Notifier:    outbox,
			Navigator:   outbox,
			Logger:      cfg.logger(id),
		}),
	}
}

func (s *SignupScreen) ID() string { return s.id }
func (s *SignupScreen) Kind() ScreenKind { return KindSignup }
func (s *SignupScreen) Outbox() *Recorder { return s.outbox }

// Form returns a copy of the bound form state.
func (s *SignupScreen) Form() SignupForm {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

// Submit replaces the form state with form and runs the workflow.
func (s *SignupScreen) Submit(form SignupForm) (Errors, error) {
	return s.Controller.Submit(
		func() Errors {
			s.mu.Lock()
			s.form = form
			s.mu.Unlock()
			return s.validator.Signup(form)
		},
		func(ctx context.Context) (*Session, error) {
			return s.auth.SubmitSignup(ctx, Profile{
				FullName: form.FullName,
				Email:    form.Email,
				Password: form.Password,
			})
		},
	)
}

// Edit binds value to field and clears that field's error only. Other errors
// are left as they are and nothing is re-validated.
func (s *SignupScreen) Edit(field Field, value string) error {
	if s.Closed() {
		return ErrTornDown
	}
	s.mu.Lock()
	err := s.form.Bind(field, value)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.ClearError(field)
	return nil
}

// =============================================================================
// Login
// =============================================================================

// LoginScreen owns the state of one visit to the login page.
type LoginScreen struct {
	id        string
	auth      Authenticator
	validator *Validator
	outbox    *Recorder

	*Controller

	mu   sync.Mutex
	form LoginForm
}

// NewLoginScreen returns an idle login screen.
func NewLoginScreen(id string, cfg ScreenConfig) *LoginScreen {
	outbox := NewRecorder()
	return &LoginScreen{
		id:        id,
		auth:      cfg.Authenticator,
		validator: cfg.validator(),
		outbox:    outbox,
		Controller: NewController(ControllerConfig{
			Name:        string(KindLogin),
			Messages:    LoginMessages,
			Destination: cfg.Destination,
			Notifier:    outbox,
			Navigator:   outbox,
			Logger:      cfg.logger(id),
		}),
	}
}

func (s *LoginScreen) ID() string { return s.id }
func (s *LoginScreen) Kind() ScreenKind { return KindLogin }
func (s *LoginScreen) Outbox() *Recorder { return s.outbox }

// Form returns a copy of the bound form state.
func (s *LoginScreen) Form() LoginForm {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

// Submit replaces the form state with form and runs the workflow.
func (s *LoginScreen) Submit(form LoginForm) (Errors, error) {
	return s.Controller.Submit(
		func() Errors {
			s.mu.Lock()
			s.form = form
			s.mu.Unlock()
			return s.validator.Login(form)
		},
		func(ctx context.Context) (*Session, error) {
			return s.auth.SubmitLogin(ctx, form.Email, form.Password)
		},
	)
}

// Edit binds value to field and clears that field's error only.
func (s *LoginScreen) Edit(field Field, value string) error {
	if s.Closed() {
		return ErrTornDown
	}
	s.mu.Lock()
	err := s.form.Bind(field, value)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.ClearError(field)
	return nil
}

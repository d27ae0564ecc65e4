// Package auth holds the view models of the login, signup and forgot
// password pages.
package auth

import (
	"github.com/hypesin/hypes/internal/session"
	"github.com/hypesin/hypes/internal/workflow"
)

// Shell is what the auth layout needs around a form.
type Shell struct {
	Title    string
	Subtitle string
	LinkText string // optional secondary link under the form
	LinkHref string
}

// HasLink reports whether both link text and destination are set.
func (s Shell) HasLink() bool {
	return s.LinkText != "" && s.LinkHref != ""
}

var (
	LoginShell = Shell{
		Title:    "Welcome back",
		Subtitle: "Log in to your hypes.in account",
		LinkText: "Don't have an account? Sign up",
		LinkHref: "/signup",
	}
	SignupShell = Shell{
		Title:    "Join hypes.in",
		Subtitle: "Create an account to start your startup journey",
		LinkText: "Already have an account? Log in",
		LinkHref: "/login",
	}
	ForgotPasswordShell = Shell{
		Title:    "Reset your password",
		Subtitle: "Password recovery is not available yet",
		LinkText: "Back to log in",
		LinkHref: "/login",
	}
)

// LoginPageData contains data for the login page.
type LoginPageData struct {
	Shell
	ScreenID  string
	CSRFToken string
	Form      workflow.LoginForm
	Errors    map[string]string
	Pending   bool
	Toasts    []session.Toast
}

// SignupPageData contains data for the signup page.
type SignupPageData struct {
	Shell
	ScreenID  string
	CSRFToken string
	Form      workflow.SignupForm
	Errors    map[string]string
	Pending   bool
	Toasts    []session.Toast
}

// ForgotPasswordPageData contains data for the forgot password placeholder.
type ForgotPasswordPageData struct {
	Shell
	Toasts []session.Toast
}

// FieldErrorData is the htmx fragment returned after a single field edit.
type FieldErrorData struct {
	Field   string
	Message string
}

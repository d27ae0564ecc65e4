// Package workflow implements the validate -> submit -> pending -> success
// sequence shared by the login and signup screens.
//
// A screen instance owns its FormState, its ValidationErrors and the status of
// its current submission. Nothing in this package is shared between screens.
package workflow

import (
	"fmt"
	"maps"
	"strconv"
	"strings"
)

// Field names a bound form input. The values match the rendered input names.
type Field string

const (
	FieldFullName        Field = "fullName"
	FieldEmail           Field = "email"
	FieldPassword        Field = "password"
	FieldConfirmPassword Field = "confirmPassword"
	FieldTerms           Field = "terms"
	FieldRemember        Field = "remember"

	// FieldForm carries a form-level message that is shown as a toast
	// instead of next to an input.
	FieldForm Field = "_form"
)

// SignupForm is the FormState of the signup screen.
type SignupForm struct {
	FullName        string
	Email           string
	Password        string
	ConfirmPassword string
	AgreeToTerms    bool
}

// LoginForm is the FormState of the login screen.
// Remember is bound but has no effect yet.
type LoginForm struct {
	Email    string
	Password string
	Remember bool
}

// Bind assigns value to the named signup field.
func (f *SignupForm) Bind(field Field, value string) error {
	switch field {
	case FieldFullName:
		f.FullName = value
	case FieldEmail:
		f.Email = value
	case FieldPassword:
		f.Password = value
	case FieldConfirmPassword:
		f.ConfirmPassword = value
	case FieldTerms:
		f.AgreeToTerms = Checked(value)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

// Bind assigns value to the named login field.
func (f *LoginForm) Bind(field Field, value string) error {
	switch field {
	case FieldEmail:
		f.Email = value
	case FieldPassword:
		f.Password = value
	case FieldRemember:
		f.Remember = Checked(value)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

// Checked reports whether a checkbox value means checked. It accepts what
// browsers and htmx send: "on" or a boolean literal.
func Checked(value string) bool {
	value = strings.TrimSpace(value)
	if value == "on" {
		return true
	}
	b, err := strconv.ParseBool(value)
	return err == nil && b
}

// Errors maps a field to a human-readable message. An empty mapping means valid.
type Errors map[Field]string

// Empty reports whether there are no errors.
func (e Errors) Empty() bool {
	return len(e) == 0
}

// Has reports whether field currently has an error.
func (e Errors) Has(field Field) bool {
	_, ok := e[field]
	return ok
}

// Get returns the message for field, or "".
func (e Errors) Get(field string) string {
	return e[Field(field)]
}

// Clone returns an independent copy. A nil receiver yields an empty map.
func (e Errors) Clone() Errors {
	out := make(Errors, len(e))
	maps.Copy(out, e)
	return out
}

// Strings converts the mapping to plain string keys for templates and JSON.
func (e Errors) Strings() map[string]string {
	out := make(map[string]string, len(e))
	for k, v := range e {
		out[string(k)] = v
	}
	return out
}

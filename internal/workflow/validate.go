package workflow

import (
	"cmp"
	"errors"
	"regexp"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Kind classifies a validation failure.
type Kind string

const (
	KindMissingField     Kind = "missing_field"
	KindInvalidFormat    Kind = "invalid_format"
	KindTooShort         Kind = "too_short"
	KindMismatch         Kind = "mismatch"
	KindTermsNotAccepted Kind = "terms_not_accepted"
)

// MinPasswordLength is the shortest password signup accepts.
const MinPasswordLength = 8

// MsgFillAllFields is the single notification the login screen shows when a
// required field is empty.
const MsgFillAllFields = "Please fill in all fields"

// emailPattern is local-part@domain.tld with a TLD of at least two letters.
var emailPattern = regexp.MustCompile(`(?i)^[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}$`)

// Violation is one failed rule.
type Violation struct {
	Field   Field
	Kind    Kind
	Message string
}

type rule struct {
	field   Field
	kind    Kind
	message string
}

// signupRules is keyed by struct field name, then validator tag.
var signupRules = map[string]map[string]rule{
	"FullName": {
		"notblank": {FieldFullName, KindMissingField, "Full name is required"},
	},
	"Email": {
		"notblank":    {FieldEmail, KindMissingField, "Email is required"},
		"signupemail": {FieldEmail, KindInvalidFormat, "Invalid email address"},
	},
	"Password": {
		"required": {FieldPassword, KindMissingField, "Password is required"},
		"min":      {FieldPassword, KindTooShort, "Password must be at least 8 characters"},
	},
	"ConfirmPassword": {
		"eqfield": {FieldConfirmPassword, KindMismatch, "Passwords do not match"},
	},
	"AgreeToTerms": {
		"required": {FieldTerms, KindTermsNotAccepted, "You must agree to the terms and conditions"},
	},
}

// messageKinds maps every rule message back to the kind of its rule.
var messageKinds = func() map[string]Kind {
	kinds := map[string]Kind{MsgFillAllFields: KindMissingField}
	for _, tags := range signupRules {
		for _, r := range tags {
			kinds[r.message] = r.kind
		}
	}
	return kinds
}()

// fieldOrder is the order inputs appear on the screens.
var fieldOrder = []Field{FieldForm, FieldFullName, FieldEmail, FieldPassword, FieldConfirmPassword, FieldTerms, FieldRemember}

// Violations lists the stored errors in field order, each tagged with the kind
// of the rule that produced its message. Unknown messages are KindInvalidFormat.
func (e Errors) Violations() []Violation {
	violations := make([]Violation, 0, len(e))
	for field, message := range e {
		kind, ok := messageKinds[message]
		if !ok {
			kind = KindInvalidFormat
		}
		violations = append(violations, Violation{Field: field, Kind: kind, Message: message})
	}
	slices.SortFunc(violations, func(a, b Violation) int {
		return cmp.Or(
			cmp.Compare(fieldRank(a.Field), fieldRank(b.Field)),
			cmp.Compare(a.Field, b.Field),
		)
	})
	return violations
}

func fieldRank(f Field) int {
	if i := slices.Index(fieldOrder, f); i >= 0 {
		return i
	}
	return len(fieldOrder)
}

// signupRequest and loginRequest carry the rules as struct tags so the form
// types stay free of validator concerns.
type signupRequest struct {
	FullName        string `validate:"notblank"`
	Email           string `validate:"notblank,signupemail"`
	Password        string `validate:"required,min=8"`
	ConfirmPassword string `validate:"eqfield=Password"`
	AgreeToTerms    bool   `validate:"required"`
}

type loginRequest struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

// Validator checks form states. It holds no per-call state and is safe for
// concurrent use.
type Validator struct {
	validate *validator.Validate
}

// NewValidator builds a Validator with the custom signup tags registered.
func NewValidator() (*Validator, error) {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}); err != nil {
		return nil, err
	}
	if err := v.RegisterValidation("signupemail", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	}); err != nil {
		return nil, err
	}

	return &Validator{validate: v}, nil
}

var defaultValidator = mustValidator()

func mustValidator() *Validator {
	v, err := NewValidator()
	if err != nil {
		panic("workflow: " + err.Error())
	}
	return v
}

// ValidateSignup runs the signup rules with the package validator.
func ValidateSignup(form SignupForm) Errors {
	return defaultValidator.Signup(form)
}

// ValidateLogin runs the login presence check with the package validator.
func ValidateLogin(form LoginForm) Errors {
	return defaultValidator.Login(form)
}

// Signup returns one message per invalid field. confirmPassword is compared
// against password even when password itself is invalid.
func (v *Validator) Signup(form SignupForm) Errors {
	errs := make(Errors)
	for _, violation := range v.SignupViolations(form) {
		errs[violation.Field] = violation.Message
	}
	return errs
}

// SignupViolations returns the failed rules in field order.
func (v *Validator) SignupViolations(form SignupForm) []Violation {
	err := v.validate.Struct(signupRequest{
		FullName:        form.FullName,
		Email:           form.Email,
		Password:        form.Password,
		ConfirmPassword: form.ConfirmPassword,
		AgreeToTerms:    form.AgreeToTerms,
	})
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []Violation{{Field: FieldForm, Kind: KindInvalidFormat, Message: err.Error()}}
	}

	violations := make([]Violation, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		r, ok := signupRules[fe.StructField()][fe.Tag()]
		if !ok {
			continue
		}
		violations = append(violations, Violation{Field: r.field, Kind: r.kind, Message: r.message})
	}
	return violations
}

// Login only checks presence. A failure is reported as a single form-level
// message rather than per field.
func (v *Validator) Login(form LoginForm) Errors {
	err := v.validate.Struct(loginRequest{Email: form.Email, Password: form.Password})
	if err == nil {
		return Errors{}
	}
	return Errors{FieldForm: MsgFillAllFields}
}

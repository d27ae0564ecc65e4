package workflow_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hypesin/hypes/internal/backend"
	"github.com/hypesin/hypes/internal/workflow"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test doubles
// =============================================================================

type mockAuthenticator struct {
	SubmitLoginFunc  func(ctx context.Context, email, password string) (*workflow.Session, error)
	SubmitSignupFunc func(ctx context.Context, profile workflow.Profile) (*workflow.Session, error)
}

func (m *mockAuthenticator) SubmitLogin(ctx context.Context, email, password string) (*workflow.Session, error) {
	if m.SubmitLoginFunc != nil {
		return m.SubmitLoginFunc(ctx, email, password)
	}
	return nil, errors.New("SubmitLoginFunc not implemented")
}

func (m *mockAuthenticator) SubmitSignup(ctx context.Context, profile workflow.Profile) (*workflow.Session, error) {
	if m.SubmitSignupFunc != nil {
		return m.SubmitSignupFunc(ctx, profile)
	}
	return nil, errors.New("SubmitSignupFunc not implemented")
}

func validSignup() workflow.SignupForm {
	return workflow.SignupForm{
		FullName:        "Ada Lovelace",
		Email:           "ada@example.com",
		Password:        "longenough1",
		ConfirmPassword: "longenough1",
		AgreeToTerms:    true,
	}
}

// simulatedScreen wires a signup screen to the simulated backend on a fake clock.
func simulatedScreen(t *testing.T) (*workflow.SignupScreen, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	auth := backend.NewSimulated(backend.SimulatedConfig{Clock: clock, Latency: backend.DefaultLatency})
	screen := workflow.NewSignupScreen("screen-1", workflow.ScreenConfig{Authenticator: auth})
	t.Cleanup(screen.Teardown)
	return screen, clock
}

func waitForTimer(t *testing.T, clock *clockwork.FakeClock) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1), "submission never started waiting")
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("submission task did not finish")
	}
}

// =============================================================================
// Submission lifecycle
// =============================================================================

func TestSignupScreen_ValidSubmitSucceedsAfterLatency(t *testing.T) {
	screen, clock := simulatedScreen(t)
	assert.Equal(t, workflow.StatusIdle, screen.Status())

	errs, err := screen.Submit(validSignup())
	require.NoError(t, err)
	assert.True(t, errs.Empty())
	assert.Equal(t, workflow.StatusPending, screen.Status())

	waitForTimer(t, clock)
	clock.Advance(backend.DefaultLatency - time.Millisecond)
	assert.Equal(t, workflow.StatusPending, screen.Status(), "completed before the latency elapsed")

	clock.Advance(time.Millisecond)
	waitDone(t, screen.Done())

	assert.Equal(t, workflow.StatusSucceeded, screen.Status())
	assert.Equal(t, []workflow.Notification{
		{Level: workflow.LevelSuccess, Message: "Account created successfully! Welcome to hypes.in"},
	}, screen.Outbox().Drain())
	assert.Equal(t, 1, screen.Outbox().Navigations())
	assert.Equal(t, "/dashboard", screen.Outbox().Route())

	session := screen.Session()
	require.NotNil(t, session)
	assert.Equal(t, "ada@example.com", session.Email)
	assert.Equal(t, "Ada Lovelace", session.Name)
}

func TestSignupScreen_InvalidSubmitStaysIdle(t *testing.T) {
	screen, _ := simulatedScreen(t)

	form := validSignup()
	form.Email = "not-an-email"
	form.AgreeToTerms = false

	errs, err := screen.Submit(form)
	require.NoError(t, err)

	assert.Equal(t, workflow.Errors{
		workflow.FieldEmail: "Invalid email address",
		workflow.FieldTerms: "You must agree to the terms and conditions",
	}, errs)
	assert.Equal(t, errs, screen.Errors())
	assert.Equal(t, workflow.StatusIdle, screen.Status())
	assert.Empty(t, screen.Outbox().Drain(), "signup validation must not notify")
	assert.Zero(t, screen.Outbox().Navigations())
	assert.Zero(t, screen.Attempts())
}

func TestSignupScreen_ResubmitReplacesErrorsWholesale(t *testing.T) {
	screen, _ := simulatedScreen(t)

	_, err := screen.Submit(workflow.SignupForm{})
	require.NoError(t, err)
	require.Len(t, screen.Errors(), 4)

	form := validSignup()
	form.Password = "short1"
	form.ConfirmPassword = "short1"
	errs, err := screen.Submit(form)
	require.NoError(t, err)

	assert.Equal(t, workflow.Errors{workflow.FieldPassword: "Password must be at least 8 characters"}, errs)
}

func TestSignupScreen_DuplicateSubmitWhilePending(t *testing.T) {
	screen, clock := simulatedScreen(t)

	_, err := screen.Submit(validSignup())
	require.NoError(t, err)

	_, err = screen.Submit(validSignup())
	assert.ErrorIs(t, err, workflow.ErrSubmissionPending)
	assert.Equal(t, 1, screen.Attempts())

	waitForTimer(t, clock)
	clock.Advance(backend.DefaultLatency)
	waitDone(t, screen.Done())

	assert.Len(t, screen.Outbox().Drain(), 1)
	assert.Equal(t, 1, screen.Outbox().Navigations())

	_, err = screen.Submit(validSignup())
	assert.ErrorIs(t, err, workflow.ErrAlreadySucceeded)
}

func TestSignupScreen_TeardownCancelsPendingSubmission(t *testing.T) {
	screen, clock := simulatedScreen(t)

	_, err := screen.Submit(validSignup())
	require.NoError(t, err)
	waitForTimer(t, clock)

	screen.Teardown()

	// The task has returned; advancing past the latency must not revive it.
	clock.Advance(backend.DefaultLatency)
	waitDone(t, screen.Done())

	assert.Equal(t, workflow.StatusIdle, screen.Status())
	assert.Empty(t, screen.Outbox().Drain())
	assert.Zero(t, screen.Outbox().Navigations())

	_, err = screen.Submit(validSignup())
	assert.ErrorIs(t, err, workflow.ErrTornDown)
	assert.ErrorIs(t, screen.Edit(workflow.FieldEmail, "x"), workflow.ErrTornDown)
}

func TestSignupScreen_TeardownIsIdempotent(t *testing.T) {
	screen, _ := simulatedScreen(t)
	screen.Teardown()
	screen.Teardown()
	assert.True(t, screen.Closed())
}

func TestSignupScreen_BackendFailureReturnsToIdle(t *testing.T) {
	calls := 0
	auth := &mockAuthenticator{
		SubmitSignupFunc: func(ctx context.Context, profile workflow.Profile) (*workflow.Session, error) {
			calls++
			if calls == 1 {
				return nil, errors.New("duplicate account")
			}
			return &workflow.Session{ID: "s-1", Email: profile.Email}, nil
		},
	}
	screen := workflow.NewSignupScreen("screen-2", workflow.ScreenConfig{Authenticator: auth})
	t.Cleanup(screen.Teardown)

	_, err := screen.Submit(validSignup())
	require.NoError(t, err)
	waitDone(t, screen.Done())

	assert.Equal(t, workflow.StatusIdle, screen.Status())
	assert.Equal(t, []workflow.Notification{
		{Level: workflow.LevelError, Message: "Something went wrong. Please try again."},
	}, screen.Outbox().Drain())
	assert.Zero(t, screen.Outbox().Navigations())

	// A failed attempt may be retried.
	_, err = screen.Submit(validSignup())
	require.NoError(t, err)
	waitDone(t, screen.Done())
	assert.Equal(t, workflow.StatusSucceeded, screen.Status())
	assert.Equal(t, 2, screen.Attempts())
}

func TestSignupScreen_ProfileSentToBackend(t *testing.T) {
	var got workflow.Profile
	auth := &mockAuthenticator{
		SubmitSignupFunc: func(ctx context.Context, profile workflow.Profile) (*workflow.Session, error) {
			got = profile
			return &workflow.Session{ID: "s-1"}, nil
		},
	}
	screen := workflow.NewSignupScreen("screen-3", workflow.ScreenConfig{Authenticator: auth})
	t.Cleanup(screen.Teardown)

	_, err := screen.Submit(validSignup())
	require.NoError(t, err)
	waitDone(t, screen.Done())

	assert.Equal(t, workflow.Profile{
		FullName: "Ada Lovelace",
		Email:    "ada@example.com",
		Password: "longenough1",
	}, got)
}

// =============================================================================
// Field editing
// =============================================================================

func TestSignupScreen_EditClearsOnlyThatField(t *testing.T) {
	screen, _ := simulatedScreen(t)

	_, err := screen.Submit(workflow.SignupForm{Email: "bad", Password: "short", ConfirmPassword: "short"})
	require.NoError(t, err)
	before := screen.Errors()
	require.True(t, before.Has(workflow.FieldEmail))
	require.True(t, before.Has(workflow.FieldPassword))

	// Still invalid, but the error clears without re-validation.
	require.NoError(t, screen.Edit(workflow.FieldEmail, "still-bad"))

	after := screen.Errors()
	assert.False(t, after.Has(workflow.FieldEmail))
	delete(before, workflow.FieldEmail)
	assert.Equal(t, before, after)
	assert.Equal(t, "still-bad", screen.Form().Email)
}

func TestSignupScreen_EditFieldWithoutErrorChangesNothing(t *testing.T) {
	screen, _ := simulatedScreen(t)

	form := validSignup()
	form.FullName = ""
	_, err := screen.Submit(form)
	require.NoError(t, err)

	require.NoError(t, screen.Edit(workflow.FieldPassword, "another-pass"))

	assert.Equal(t, workflow.Errors{workflow.FieldFullName: "Full name is required"}, screen.Errors())
}

func TestSignupScreen_EditUnknownField(t *testing.T) {
	screen, _ := simulatedScreen(t)
	err := screen.Edit(workflow.Field("nickname"), "x")
	assert.ErrorIs(t, err, workflow.ErrUnknownField)
}

// =============================================================================
// Login
// =============================================================================

func TestLoginScreen_MissingFieldNotifiesOnce(t *testing.T) {
	auth := &mockAuthenticator{}
	screen := workflow.NewLoginScreen("login-1", workflow.ScreenConfig{Authenticator: auth})
	t.Cleanup(screen.Teardown)

	errs, err := screen.Submit(workflow.LoginForm{Email: "ada@example.com"})
	require.NoError(t, err)

	assert.Equal(t, workflow.Errors{workflow.FieldForm: workflow.MsgFillAllFields}, errs)
	assert.Equal(t, workflow.StatusIdle, screen.Status())
	assert.Equal(t, []workflow.Notification{
		{Level: workflow.LevelError, Message: "Please fill in all fields"},
	}, screen.Outbox().Drain())
}

func TestLoginScreen_SucceedsAndNavigates(t *testing.T) {
	clock := clockwork.NewFakeClock()
	auth := backend.NewSimulated(backend.SimulatedConfig{Clock: clock})
	screen := workflow.NewLoginScreen("login-2", workflow.ScreenConfig{Authenticator: auth})
	t.Cleanup(screen.Teardown)

	_, err := screen.Submit(workflow.LoginForm{Email: "Ada@Example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusPending, screen.Status())

	waitForTimer(t, clock)
	clock.Advance(backend.DefaultLatency)
	waitDone(t, screen.Done())

	assert.Equal(t, workflow.StatusSucceeded, screen.Status())
	assert.Equal(t, []workflow.Notification{
		{Level: workflow.LevelSuccess, Message: "Login successful! Welcome back."},
	}, screen.Outbox().Drain())
	assert.Equal(t, "/dashboard", screen.Outbox().Route())
	assert.Equal(t, "ada@example.com", screen.Session().Email)
}

func TestLoginScreen_FailureUsesLoginMessage(t *testing.T) {
	auth := &mockAuthenticator{
		SubmitLoginFunc: func(ctx context.Context, email, password string) (*workflow.Session, error) {
			return nil, errors.New("bad credentials")
		},
	}
	screen := workflow.NewLoginScreen("login-3", workflow.ScreenConfig{Authenticator: auth})
	t.Cleanup(screen.Teardown)

	_, err := screen.Submit(workflow.LoginForm{Email: "a@b.co", Password: "pw"})
	require.NoError(t, err)
	waitDone(t, screen.Done())

	assert.Equal(t, []workflow.Notification{
		{Level: workflow.LevelError, Message: "Login failed. Please check your credentials."},
	}, screen.Outbox().Drain())
	assert.Equal(t, workflow.StatusIdle, screen.Status())
}

func TestController_CustomDestination(t *testing.T) {
	rec := workflow.NewRecorder()
	ctl := workflow.NewController(workflow.ControllerConfig{
		Name:        "signup",
		Messages:    workflow.SignupMessages,
		Destination: "/welcome",
		Notifier:    rec,
		Navigator:   rec,
	})
	t.Cleanup(ctl.Teardown)

	_, err := ctl.Submit(
		func() workflow.Errors { return workflow.Errors{} },
		func(ctx context.Context) (*workflow.Session, error) { return &workflow.Session{}, nil },
	)
	require.NoError(t, err)
	require.NoError(t, ctl.Wait(context.Background()))

	assert.Equal(t, "/welcome", rec.Route())
}

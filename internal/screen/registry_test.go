package screen

import (
	"context"
	"testing"
	"time"

	"github.com/hypesin/hypes/internal/backend"
	"github.com/hypesin/hypes/internal/domain"
	"github.com/hypesin/hypes/internal/workflow"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T, ttl time.Duration) (*Registry, *clockwork.FakeClock) {
	t.Helper()
	return newCappedRegistry(t, ttl, 0)
}

func newCappedRegistry(t *testing.T, ttl time.Duration, maxScreens int) (*Registry, *clockwork.FakeClock) {
	t.Helper()

	clock := clockwork.NewFakeClock()
	r, err := New(Config{
		TTL:        ttl,
		MaxScreens: maxScreens,
		Clock:      clock,
		Screen: workflow.ScreenConfig{
			Authenticator: backend.NewSimulated(backend.SimulatedConfig{Clock: clock}),
		},
	}, nil)
	require.NoError(t, err)
	t.Cleanup(r.Close)
	return r, clock
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

func TestConfig_Validate(t *testing.T) {
	auth := backend.NewSimulated(backend.SimulatedConfig{})

	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"zero ttl uses default", Config{Screen: workflow.ScreenConfig{Authenticator: auth}}, false},
		{"explicit ttl", Config{TTL: time.Minute, Screen: workflow.ScreenConfig{Authenticator: auth}}, false},
		{"negative ttl", Config{TTL: -time.Second, Screen: workflow.ScreenConfig{Authenticator: auth}}, true},
		{"sub-second ttl", Config{TTL: 10 * time.Millisecond, Screen: workflow.ScreenConfig{Authenticator: auth}}, true},
		{"missing authenticator", Config{TTL: time.Minute}, true},
		{"negative max screens", Config{MaxScreens: -1, Screen: workflow.ScreenConfig{Authenticator: auth}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRegistry_CreateAndLookup(t *testing.T) {
	r, _ := newTestRegistry(t, time.Minute)

	login := r.NewLogin()
	signup := r.NewSignup()

	assert.NotEqual(t, login.ID(), signup.ID())
	assert.Equal(t, 2, r.Len())

	got, err := r.Login(login.ID())
	require.NoError(t, err)
	assert.Same(t, login, got)

	gotSignup, err := r.Signup(signup.ID())
	require.NoError(t, err)
	assert.Same(t, signup, gotSignup)
}

func TestRegistry_LookupWrongKindIsNotFound(t *testing.T) {
	r, _ := newTestRegistry(t, time.Minute)
	login := r.NewLogin()

	_, err := r.Signup(login.ID())
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func TestRegistry_UnknownIDIsNotFound(t *testing.T) {
	r, _ := newTestRegistry(t, time.Minute)

	_, err := r.Get("missing")
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func TestRegistry_LeaveCancelsPendingSubmission(t *testing.T) {
	r, clock := newTestRegistry(t, time.Minute)
	s := r.NewSignup()

	errs, err := s.Submit(validSignup())
	require.NoError(t, err)
	require.True(t, errs.Empty())
	require.Equal(t, workflow.StatusPending, s.Status())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	assert.True(t, r.Leave(s.ID()))
	assert.False(t, r.Leave(s.ID()), "second leave should be a no-op")

	// Teardown has returned, so the task is over and nothing was emitted.
	assert.True(t, s.Closed())
	assert.Equal(t, workflow.StatusIdle, s.Status())
	assert.Empty(t, s.Outbox().Drain())
	assert.Equal(t, 0, s.Outbox().Navigations())
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_FullRegistryEvictsLeastRecentlySeen(t *testing.T) {
	r, clock := newCappedRegistry(t, time.Hour, 2)

	first := r.NewLogin()
	clock.Advance(time.Second)
	second := r.NewSignup()
	clock.Advance(time.Second)
	_, err := r.Get(first.ID())
	require.NoError(t, err)

	third := r.NewLogin()

	assert.Equal(t, 2, r.Len())
	assert.True(t, second.Closed())
	assert.False(t, first.Closed())
	_, err = r.Get(second.ID())
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
	_, err = r.Get(third.ID())
	assert.NoError(t, err)
}

func TestRegistry_FullRegistryKeepsPendingScreens(t *testing.T) {
	r, _ := newCappedRegistry(t, time.Hour, 1)
	pending := r.NewSignup()

	errs, err := pending.Submit(validSignup())
	require.NoError(t, err)
	require.True(t, errs.Empty())

	r.NewLogin()

	assert.Equal(t, 2, r.Len(), "a pending screen is never evicted")
	assert.False(t, pending.Closed())
	assert.Equal(t, workflow.StatusPending, pending.Status())
}

func TestRegistry_SweepExpiresIdleScreens(t *testing.T) {
	r, clock := newTestRegistry(t, time.Minute)

	stale := r.NewLogin()
	clock.Advance(45 * time.Second)
	fresh := r.NewLogin()
	clock.Advance(30 * time.Second)

	assert.Equal(t, 1, r.Sweep())
	assert.True(t, stale.Closed())
	assert.False(t, fresh.Closed())

	_, err := r.Get(stale.ID())
	assert.Error(t, err)
	_, err = r.Get(fresh.ID())
	assert.NoError(t, err)
}

func TestRegistry_GetRefreshesTTL(t *testing.T) {
	r, clock := newTestRegistry(t, time.Minute)
	s := r.NewSignup()

	clock.Advance(50 * time.Second)
	_, err := r.Get(s.ID())
	require.NoError(t, err)
	clock.Advance(50 * time.Second)

	assert.Equal(t, 0, r.Sweep())
	assert.False(t, s.Closed())
}

func TestRegistry_StartSweepsOnTicker(t *testing.T) {
	clock := clockwork.NewFakeClock()
	r, err := New(Config{
		TTL:           time.Minute,
		SweepInterval: 10 * time.Second,
		Clock:         clock,
		Screen: workflow.ScreenConfig{
			Authenticator: backend.NewSimulated(backend.SimulatedConfig{Clock: clock}),
		},
	}, nil)
	require.NoError(t, err)
	defer r.Close()

	s := r.NewLogin()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	r.Start(ctx)
	require.NoError(t, clock.BlockUntilContext(ctx, 1))

	clock.Advance(2 * time.Minute)

	assert.Eventually(t, s.Closed, time.Second, 5*time.Millisecond)
	r.Stop()
	r.Stop()
}

func TestRegistry_CloseTearsDownEverything(t *testing.T) {
	r, _ := newTestRegistry(t, time.Minute)
	a := r.NewLogin()
	b := r.NewSignup()

	r.Close()

	assert.True(t, a.Closed())
	assert.True(t, b.Closed())
	assert.Equal(t, 0, r.Len())

	_, err := b.Submit(validSignup())
	assert.ErrorIs(t, err, workflow.ErrTornDown)
}

// Package backend provides the authentication backends the screens submit to.
//
// Only a simulation exists: every submission succeeds after a fixed delay.
package backend

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hypesin/hypes/internal/workflow"
	"github.com/jonboulle/clockwork"
)

// DefaultLatency is the simulated network round trip.
const DefaultLatency = 1500 * time.Millisecond

// Simulated is an Authenticator that waits Latency and then succeeds.
type Simulated struct {
	clock   clockwork.Clock
	latency time.Duration
	logger  *slog.Logger
}

// SimulatedConfig configures a Simulated backend.
type SimulatedConfig struct {
	Clock   clockwork.Clock // defaults to the real clock
	Latency time.Duration   // defaults to DefaultLatency
	Logger  *slog.Logger
}

// NewSimulated creates a Simulated backend.
func NewSimulated(cfg SimulatedConfig) *Simulated {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Latency <= 0 {
		cfg.Latency = DefaultLatency
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &Simulated{
		clock:   cfg.Clock,
		latency: cfg.Latency,
		logger:  cfg.Logger,
	}
}

var _ workflow.Authenticator = (*Simulated)(nil)

// SubmitLogin waits the simulated latency and returns a fresh session.
func (s *Simulated) SubmitLogin(ctx context.Context, email, password string) (*workflow.Session, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	session := s.newSession(email, "")
	s.logger.Debug("simulated login accepted", "session_id", session.ID)
	return session, nil
}

// SubmitSignup waits the simulated latency and returns a fresh session.
func (s *Simulated) SubmitSignup(ctx context.Context, profile workflow.Profile) (*workflow.Session, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	session := s.newSession(profile.Email, strings.TrimSpace(profile.FullName))
	s.logger.Debug("simulated signup accepted", "session_id", session.ID)
	return session, nil
}

func (s *Simulated) wait(ctx context.Context) error {
	select {
	case <-s.clock.After(s.latency):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Simulated) newSession(email, name string) *workflow.Session {
	return &workflow.Session{
		ID:        uuid.NewString(),
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Name:      name,
		CreatedAt: s.clock.Now(),
	}
}

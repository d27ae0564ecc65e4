// Package screen keeps the live login and signup screens of the server.
//
// A screen is created when its page is rendered and lives until the user
// leaves, the idle TTL expires, or the server shuts down. Every exit path runs
// the screen's Teardown so a pending submission never outlives its page.
package screen

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hypesin/hypes/internal/domain"
	"github.com/hypesin/hypes/internal/metrics"
	"github.com/hypesin/hypes/internal/workflow"
	"github.com/jonboulle/clockwork"
)

// Config holds the configuration for a Registry.
type Config struct {
	// TTL is how long a screen may go untouched before the sweep tears it down.
	// Default: 30 minutes
	TTL time.Duration

	// SweepInterval is how often the sweep runs.
	// Default: TTL / 6, at least one second
	SweepInterval time.Duration

	// MaxScreens caps how many screens are held at once. Opening one more
	// evicts the least recently seen screen without a submission in flight.
	// Default: 10000
	MaxScreens int

	// Screen is passed to every screen constructor.
	Screen workflow.ScreenConfig

	// Clock drives TTL accounting. Default: the real clock
	Clock clockwork.Clock
}

const (
	// DefaultTTL is used when Config.TTL is zero.
	DefaultTTL = 30 * time.Minute

	// DefaultMaxScreens is used when Config.MaxScreens is zero.
	DefaultMaxScreens = 10000
)

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.TTL < 0 {
		return fmt.Errorf("ttl must not be negative, got %v", c.TTL)
	}
	if c.TTL > 0 && c.TTL < time.Second {
		return fmt.Errorf("ttl must be at least 1 second, got %v", c.TTL)
	}
	if c.MaxScreens < 0 {
		return fmt.Errorf("max screens must not be negative, got %d", c.MaxScreens)
	}
	if c.Screen.Authenticator == nil {
		return fmt.Errorf("screen authenticator is required")
	}
	return nil
}

type entry struct {
	instance workflow.Instance
	lastSeen time.Time
}

// Registry tracks live screens by id.
type Registry struct {
	config Config
	clock  clockwork.Clock
	logger *slog.Logger

	mu      sync.Mutex
	screens map[string]*entry

	wg       sync.WaitGroup
	stopCh   chan struct{}
	stopOnce sync.Once
}

// New creates a Registry. The sweep runs only after Start.
func New(config Config, logger *slog.Logger) (*Registry, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if config.TTL == 0 {
		config.TTL = DefaultTTL
	}
	if config.MaxScreens == 0 {
		config.MaxScreens = DefaultMaxScreens
	}
	if config.SweepInterval <= 0 {
		config.SweepInterval = max(config.TTL/6, time.Second)
	}
	if config.Clock == nil {
		config.Clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	config.Screen.Logger = logger

	return &Registry{
		config:  config,
		clock:   config.Clock,
		logger:  logger,
		screens: make(map[string]*entry),
		stopCh:  make(chan struct{}),
	}, nil
}

// NewLogin creates and registers an idle login screen.
func (r *Registry) NewLogin() *workflow.LoginScreen {
	s := workflow.NewLoginScreen(uuid.NewString(), r.config.Screen)
	r.add(s)
	return s
}

// NewSignup creates and registers an idle signup screen.
func (r *Registry) NewSignup() *workflow.SignupScreen {
	s := workflow.NewSignupScreen(uuid.NewString(), r.config.Screen)
	r.add(s)
	return s
}

func (r *Registry) add(s workflow.Instance) {
	r.mu.Lock()
	var evicted workflow.Instance
	if len(r.screens) >= r.config.MaxScreens {
		evicted = r.evictLocked()
	}
	r.screens[s.ID()] = &entry{instance: s, lastSeen: r.clock.Now()}
	r.mu.Unlock()

	if evicted != nil {
		r.teardown(evicted, "evicted")
		metrics.ScreensEvictedTotal.Inc()
	}
	metrics.ScreensActive.WithLabelValues(string(s.Kind())).Inc()
	r.logger.Debug("screen opened", "screen_id", s.ID(), "form", s.Kind())
}

// evictLocked removes the least recently seen screen that has no submission
// in flight. With every screen pending nothing is removed and the registry
// grows past its capacity. The caller holds mu.
func (r *Registry) evictLocked() workflow.Instance {
	var (
		oldestID string
		oldest   *entry
	)
	for id, e := range r.screens {
		if e.instance.Status() == workflow.StatusPending {
			continue
		}
		if oldest == nil || e.lastSeen.Before(oldest.lastSeen) {
			oldestID, oldest = id, e
		}
	}
	if oldest == nil {
		r.logger.Warn("screen registry over capacity", "screens", len(r.screens), "max", r.config.MaxScreens)
		return nil
	}
	delete(r.screens, oldestID)
	return oldest.instance
}

// Get returns the screen with id and marks it as seen.
func (r *Registry) Get(id string) (workflow.Instance, error) {
	const op = "screen.get"

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.screens[id]
	if !ok {
		return nil, domain.NotFound(op, "screen", id)
	}
	e.lastSeen = r.clock.Now()
	return e.instance, nil
}

// Login returns the login screen with id.
func (r *Registry) Login(id string) (*workflow.LoginScreen, error) {
	s, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	login, ok := s.(*workflow.LoginScreen)
	if !ok {
		return nil, domain.NotFound("screen.login", "login screen", id)
	}
	return login, nil
}

// Signup returns the signup screen with id.
func (r *Registry) Signup(id string) (*workflow.SignupScreen, error) {
	s, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	signup, ok := s.(*workflow.SignupScreen)
	if !ok {
		return nil, domain.NotFound("screen.signup", "signup screen", id)
	}
	return signup, nil
}

// Leave removes the screen and tears it down, cancelling any pending
// submission. It reports whether the screen existed.
func (r *Registry) Leave(id string) bool {
	r.mu.Lock()
	e, ok := r.screens[id]
	if ok {
		delete(r.screens, id)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	r.teardown(e.instance, "left")
	return true
}

// Sweep tears down screens idle for longer than the TTL, except those with a
// submission in flight. It returns how many were removed.
func (r *Registry) Sweep() int {
	cutoff := r.clock.Now().Add(-r.config.TTL)

	var expired []workflow.Instance
	r.mu.Lock()
	for id, e := range r.screens {
		if e.lastSeen.After(cutoff) || e.instance.Status() == workflow.StatusPending {
			continue
		}
		delete(r.screens, id)
		expired = append(expired, e.instance)
	}
	r.mu.Unlock()

	for _, s := range expired {
		r.teardown(s, "expired")
		metrics.ScreensExpiredTotal.Inc()
	}
	if len(expired) > 0 {
		r.logger.Info("expired idle screens", "count", len(expired))
	}
	return len(expired)
}

func (r *Registry) teardown(s workflow.Instance, reason string) {
	s.Teardown()
	metrics.ScreensActive.WithLabelValues(string(s.Kind())).Dec()
	r.logger.Debug("screen closed", "screen_id", s.ID(), "form", s.Kind(), "reason", reason)
}

// Len returns the number of live screens.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.screens)
}

// Start runs the idle sweep until Stop is called or ctx is done.
func (r *Registry) Start(ctx context.Context) {
	r.wg.Add(1)
	go r.run(ctx)
	r.logger.Info("screen registry started", "ttl", r.config.TTL, "sweep_interval", r.config.SweepInterval)
}

func (r *Registry) run(ctx context.Context) {
	defer r.wg.Done()

	ticker := r.clock.NewTicker(r.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			r.Sweep()
		}
	}
}

// Stop ends the sweep and waits for it to return. Screens are left in place;
// call Close to tear them down.
func (r *Registry) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
	r.wg.Wait()
}

// Close stops the sweep and tears down every live screen.
func (r *Registry) Close() {
	r.Stop()

	r.mu.Lock()
	screens := r.screens
	r.screens = make(map[string]*entry)
	r.mu.Unlock()

	for _, e := range screens {
		r.teardown(e.instance, "shutdown")
	}
	r.logger.Info("screen registry closed", "screens", len(screens))
}

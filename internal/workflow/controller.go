package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultDestination is where a successful submission navigates.
const DefaultDestination = "/dashboard"

// Messages are the notifications one workflow emits.
type Messages struct {
	Success string // after the backend accepts the submission
	Failure string // after the backend rejects it
}

var (
	LoginMessages = Messages{
		Success: "Login successful! Welcome back.",
		Failure: "Login failed. Please check your credentials.",
	}
	SignupMessages = Messages{
		Success: "Account created successfully! Welcome to hypes.in",
		Failure: "Something went wrong. Please try again.",
	}
)

// ControllerConfig holds the collaborators of a Controller.
type ControllerConfig struct {
	Name        string // "login" or "signup", used in logs
	Messages    Messages
	Destination string
	Notifier    Notifier
	Navigator   Navigator
	Logger      *slog.Logger
}

// Controller orchestrates Idle -> Pending -> Succeeded for one form.
//
// A valid submit starts a single task bound to the controller's lifetime. The
// task calls the backend, emits the notification, moves the status and
// navigates. Teardown cancels the task and waits for it, so no callback fires
// after Teardown returns.
type Controller struct {
	cfg    ControllerConfig
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	status   Status
	errors   Errors
	session  *Session
	done     chan struct{}
	closed   bool
	started  time.Time
	elapsed  time.Duration
	attempts int
}

// NewController returns an idle controller.
func NewController(cfg ControllerConfig) *Controller {
	if cfg.Destination == "" {
		cfg.Destination = DefaultDestination
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		cfg:    cfg,
		logger: logger.With("form", cfg.Name),
		ctx:    ctx,
		cancel: cancel,
		errors: Errors{},
	}
}

// SubmitFunc performs the backend call for an accepted submission.
type SubmitFunc func(ctx context.Context) (*Session, error)

// Submit validates and, when the result is empty, starts the submission task.
//
// validate runs only when no submission is in flight. Its result replaces the
// stored errors wholesale. A form-level entry is also emitted as an error
// notification. Invalid input leaves the status Idle with no other effects.
func (c *Controller) Submit(validate func() Errors, send SubmitFunc) (Errors, error) {
	c.mu.Lock()

	if c.closed {
		c.mu.Unlock()
		return nil, ErrTornDown
	}
	if status := c.status; !status.CanTransitionTo(StatusPending) {
		c.mu.Unlock()
		if status == StatusSucceeded {
			return nil, ErrAlreadySucceeded
		}
		return nil, ErrSubmissionPending
	}

	errs := validate().Clone()
	c.errors = errs

	if !errs.Empty() {
		c.mu.Unlock()
		c.logger.Debug("submission rejected", "fields", len(errs))
		if msg, ok := errs[FieldForm]; ok {
			c.cfg.Notifier.NotifyError(msg)
		}
		return errs.Clone(), nil
	}

	c.moveTo(StatusPending)
	c.done = make(chan struct{})
	c.started = time.Now()
	c.attempts++
	done := c.done
	c.mu.Unlock()

	c.logger.Debug("submission pending")
	go c.run(send, done)

	return Errors{}, nil
}

func (c *Controller) run(send SubmitFunc, done chan struct{}) {
	defer close(done)

	session, err := send(c.ctx)

	c.mu.Lock()
	c.elapsed = time.Since(c.started)
	if c.ctx.Err() != nil {
		c.moveTo(StatusIdle)
		c.mu.Unlock()
		c.logger.Debug("submission cancelled")
		return
	}
	if err != nil {
		moved := c.moveTo(StatusIdle)
		c.mu.Unlock()
		c.logger.Warn("submission failed", "error", err)
		if moved {
			c.cfg.Notifier.NotifyError(c.cfg.Messages.Failure)
		}
		return
	}
	if !c.moveTo(StatusSucceeded) {
		c.mu.Unlock()
		return
	}
	c.session = session
	c.mu.Unlock()

	c.logger.Debug("submission succeeded")
	c.cfg.Notifier.NotifySuccess(c.cfg.Messages.Success)
	c.cfg.Navigator.GoTo(c.cfg.Destination)
}

// moveTo sets the status when the transition is allowed. The caller holds mu.
func (c *Controller) moveTo(next Status) bool {
	if !c.status.CanTransitionTo(next) {
		c.logger.Error("invalid status transition", "from", c.status, "to", next)
		return false
	}
	c.status = next
	return true
}

// ClearError removes field's entry from the stored errors, leaving the rest.
func (c *Controller) ClearError(field Field) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.errors, field)
}

// Errors returns a copy of the current errors.
func (c *Controller) Errors() Errors {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errors.Clone()
}

// Status returns the current status.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Session returns the session of a succeeded submission, or nil.
func (c *Controller) Session() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Elapsed returns how long the last finished submission task ran.
func (c *Controller) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elapsed
}

// Attempts returns how many submissions were accepted.
func (c *Controller) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

var closedCh = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Done returns a channel closed when the current submission task finishes.
// With no task started it is already closed.
func (c *Controller) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done == nil {
		return closedCh
	}
	return c.done
}

// Wait blocks until the current task finishes or ctx is done.
func (c *Controller) Wait(ctx context.Context) error {
	select {
	case <-c.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Teardown cancels any pending task and waits for it to return. It is safe to
// call more than once.
func (c *Controller) Teardown() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.cancel()
	done := c.done
	c.mu.Unlock()

	if done != nil {
		<-done
	}
}

// Closed reports whether Teardown has run.
func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

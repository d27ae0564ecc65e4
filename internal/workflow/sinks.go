package workflow

import (
	"context"
	"sync"
	"time"
)

// Notifier receives one-shot, fire-and-forget user notifications.
type Notifier interface {
	NotifySuccess(message string)
	NotifyError(message string)
}

// Navigator moves the user to another route.
type Navigator interface {
	GoTo(route string)
}

// Session is what a successful backend submission yields.
type Session struct {
	ID        string
	Email     string
	Name      string
	CreatedAt time.Time
}

// Profile is the signup payload sent to the backend.
type Profile struct {
	FullName string
	Email    string
	Password string
}

// Authenticator is the seam a real backend attaches to. Implementations must
// return promptly once ctx is done.
type Authenticator interface {
	SubmitLogin(ctx context.Context, email, password string) (*Session, error)
	SubmitSignup(ctx context.Context, profile Profile) (*Session, error)
}

// Level is the severity of a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is one message emitted by a workflow.
type Notification struct {
	Level   Level
	Message string
}

// Recorder is a Notifier and Navigator that keeps what it receives so the
// HTTP layer can turn it into toasts and a redirect.
type Recorder struct {
	mu            sync.Mutex
	notifications []Notification
	routes        []string
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) NotifySuccess(message string) {
	r.push(Notification{Level: LevelSuccess, Message: message})
}

func (r *Recorder) NotifyError(message string) {
	r.push(Notification{Level: LevelError, Message: message})
}

func (r *Recorder) push(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, n)
}

func (r *Recorder) GoTo(route string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, route)
}

// Drain returns and clears pending notifications.
func (r *Recorder) Drain() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.notifications
	r.notifications = nil
	return out
}

// Route returns the most recent navigation target, or "".
func (r *Recorder) Route() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.routes) == 0 {
		return ""
	}
	return r.routes[len(r.routes)-1]
}

// Navigations returns how many times GoTo was called.
func (r *Recorder) Navigations() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.routes)
}

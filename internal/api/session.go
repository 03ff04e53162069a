package api

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/avelaine/storefront/internal/view"
)

// One browsing session per client. The controller requires its events to run
// one at a time, so each session serializes dispatch behind its own mutex.

const sessionTTL = 30 * time.Minute

// Notification is one queued user-facing message produced while handling an
// intent.
type Notification struct {
	Title   string
	Message string
}

// capabilities implements the controller's confirm and notify capabilities
// for one dispatch: the confirm answer comes in with the intent, and
// notifications are collected for the response.
type capabilities struct {
	confirmed bool
	notes     []Notification
}

func (c *capabilities) Confirm(string) bool {
	return c.confirmed
}

func (c *capabilities) Notify(title, message string) {
	c.notes = append(c.notes, Notification{Title: title, Message: message})
}

// Session binds one controller to one client.
type Session struct {
	ID string

	mu       sync.Mutex
	ctrl     *view.Controller
	caps     *capabilities
	lastSeen time.Time
}

// dispatch runs fn against the session's controller with the confirm answer
// bound, and returns the notifications fn produced. Events within a session
// run to completion one at a time.
func (s *Session) dispatch(confirmed bool, fn func(ctrl *view.Controller) error) ([]Notification, view.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastSeen = time.Now()
	s.caps.confirmed = confirmed
	s.caps.notes = nil

	err := fn(s.ctrl)
	return s.caps.notes, s.ctrl.Snapshot(), err
}

// snapshot returns the session's current view state.
func (s *Session) snapshot() view.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()
	return s.ctrl.Snapshot()
}

// ControllerFactory builds a fresh controller bound to the given
// capabilities.
type ControllerFactory func(confirm view.Confirmer, notify view.Notifier) *view.Controller

// SessionManager creates, resolves, and expires sessions.
type SessionManager struct {
	factory ControllerFactory

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionManager returns a manager creating controllers via factory.
func NewSessionManager(factory ControllerFactory) *SessionManager {
	return &SessionManager{
		factory:  factory,
		sessions: make(map[string]*Session),
	}
}

// Get resolves an existing session by id.
func (m *SessionManager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Create starts a new session: fresh controller, fresh cart, initial catalog
// load.
func (m *SessionManager) Create(ctx context.Context) (*Session, error) {
	caps := &capabilities{}
	ctrl := m.factory(caps, caps)
	if err := ctrl.Start(ctx); err != nil {
		return nil, errors.Wrap(err, "start session controller")
	}

	s := &Session{
		ID:       uuid.NewString(),
		ctrl:     ctrl,
		caps:     caps,
		lastSeen: time.Now(),
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s, nil
}

// Sweep evicts idle sessions every interval until ctx is cancelled.
func (m *SessionManager) Sweep(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				m.evict(now)
			}
		}
	}()
}

func (m *SessionManager) evict(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		s.mu.Lock()
		idle := now.Sub(s.lastSeen)
		s.mu.Unlock()
		if idle > sessionTTL {
			delete(m.sessions, id)
		}
	}
}

// Len returns the number of live sessions.
func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

package session

import (
	"context"
	"errors"
	"time"

	"github.com/PabloPavan/data_explorer/internal/users"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("session not found")

var errNoStore = errors.New("session store not configured")

const defaultTTL = 24 * time.Hour

// Session carries a visitor's view state between requests. The mounted page
// holds the live copy; the stored one seeds a new mount after a restart or an
// idle sweep.
type Session struct {
	ID        string
	View      users.ViewState
	CreatedAt time.Time
	ExpiresAt time.Time
}

type Store interface {
	Save(ctx context.Context, s Session, ttl time.Duration) error
	// Load returns ErrNotFound for unknown or expired sessions.
	Load(ctx context.Context, id string) (*Session, error)
}

type Manager struct {
	Store Store
	TTL   time.Duration
	// RefreshBefore limits Touch to sessions with less than this left.
	// Zero extends on every request.
	RefreshBefore time.Duration
	NewID         func() string

	now func() time.Time
}

func (m *Manager) clock() time.Time {
	if m.now != nil {
		return m.now()
	}
	return time.Now()
}

func (m *Manager) ttl() time.Duration {
	if m.TTL > 0 {
		return m.TTL
	}
	return defaultTTL
}

func (m *Manager) newID() string {
	if m.NewID != nil {
		return m.NewID()
	}
	return "ses_" + uuid.NewString()
}

// Start stores a new session holding the default view state.
func (m *Manager) Start(ctx context.Context) (*Session, error) {
	if m.Store == nil {
		return nil, errNoStore
	}

	now := m.clock()
	s := Session{
		ID:        m.newID(),
		View:      users.DefaultViewState(),
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl()),
	}
	if err := m.Store.Save(ctx, s, m.ttl()); err != nil {
		return nil, err
	}
	return &s, nil
}

// Load fetches a session; a stored view that no longer validates falls back
// to the defaults field by field.
func (m *Manager) Load(ctx context.Context, id string) (*Session, error) {
	if m.Store == nil {
		return nil, errNoStore
	}
	if id == "" {
		return nil, ErrNotFound
	}
	sess, err := m.Store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sess.ExpiresAt.IsZero() && m.clock().After(sess.ExpiresAt) {
		return nil, ErrNotFound
	}
	sess.View = sess.View.Normalize()
	return sess, nil
}

// SaveView persists view without extending the session.
func (m *Manager) SaveView(ctx context.Context, sess *Session, view users.ViewState) error {
	if m.Store == nil {
		return errNoStore
	}
	left := sess.ExpiresAt.Sub(m.clock())
	if left <= 0 {
		return ErrNotFound
	}
	sess.View = view
	return m.Store.Save(ctx, *sess, left)
}

// Touch pushes ExpiresAt a full TTL ahead once the session is within
// RefreshBefore of expiring. It reports whether it did.
func (m *Manager) Touch(ctx context.Context, sess *Session) (bool, error) {
	if m.Store == nil {
		return false, errNoStore
	}
	now := m.clock()
	if m.RefreshBefore > 0 && sess.ExpiresAt.Sub(now) > m.RefreshBefore {
		return false, nil
	}

	next := *sess
	next.ExpiresAt = now.Add(m.ttl())
	if err := m.Store.Save(ctx, next, m.ttl()); err != nil {
		return false, err
	}
	*sess = next
	return true, nil
}

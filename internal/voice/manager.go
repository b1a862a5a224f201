package voice

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrSessionActive is returned by Manager.Start while a session is live.
var ErrSessionActive = errors.New("voice: a session is already active")

// ErrNoSession is returned by Manager.Stop when nothing is running.
var ErrNoSession = errors.New("voice: no active session")

// Manager allows at most one live session at a time. A new session can be
// started only after the previous one has fully torn down.
type Manager struct {
	cfg Config
	log *zap.Logger

	mu       sync.Mutex
	current  *Session
	starting bool
}

func NewManager(cfg Config, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger
	}
	return &Manager{cfg: cfg, log: logger}
}

// Start opens a new session. It fails with ErrSessionActive if one is
// already running.
func (m *Manager) Start(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	if m.current != nil || m.starting {
		m.mu.Unlock()
		return nil, ErrSessionActive
	}
	m.starting = true
	m.mu.Unlock()

	cfg := m.cfg
	hostOnClose := cfg.OnClose
	cfg.OnClose = func(err error) {
		m.clear()
		if hostOnClose != nil {
			hostOnClose(err)
		}
	}

	sess, err := Open(ctx, cfg)
	m.mu.Lock()
	m.starting = false
	if err == nil {
		m.current = sess
		// The session may have already torn down and invoked clear before
		// we got here; clear serializes on the same mutex, so the state
		// check below cannot miss it.
		if st := sess.State(); st == StateClosed || st == StateError {
			m.current = nil
		}
	}
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// Stop closes the active session, if any.
func (m *Manager) Stop() error {
	m.mu.Lock()
	sess := m.current
	m.mu.Unlock()
	if sess == nil {
		return ErrNoSession
	}
	return sess.Close()
}

// Active reports whether a session is currently live.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current != nil
}

// Session returns the active session, or nil.
func (m *Manager) Session() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *Manager) clear() {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()
}

// Package sessions tracks the identity and scratch data of one logical
// connection. Expiry and transport binding of the session id belong to the
// transport layer, not here.
package sessions

import (
	"encoding/hex"
	"sync"

	"github.com/google/uuid"
)

// Manager holds a single active session identifier (or none) plus a
// free-form key/value store scoped to the manager's lifetime. Identifier
// and data are cleared together.
//
// Manager is safe for concurrent use.
type Manager struct {
	mu   sync.Mutex
	id   string
	data map[string]any
}

// NewManager returns a manager with no active session.
func NewManager() *Manager {
	return &Manager{data: make(map[string]any)}
}

// GenerateSessionID produces a fresh cryptographically random 128-bit
// identifier rendered as a 32-character hex string, replacing any existing
// id, and returns it.
func (m *Manager) GenerateSessionID() string {
	u := uuid.New()
	id := hex.EncodeToString(u[:])
	m.mu.Lock()
	m.id = id
	m.mu.Unlock()
	return id
}

// SetSessionID installs an externally supplied session id, replacing any
// existing one.
func (m *Manager) SetSessionID(id string) {
	m.mu.Lock()
	m.id = id
	m.mu.Unlock()
}

// SessionID returns the active session id; ok is false when none is set.
func (m *Manager) SessionID() (id string, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.id, m.id != ""
}

// Clear drops the session id and all session data together.
func (m *Manager) Clear() {
	m.mu.Lock()
	m.id = ""
	m.data = make(map[string]any)
	m.mu.Unlock()
}

// Set stores a session-scoped value.
func (m *Manager) Set(key string, value any) {
	m.mu.Lock()
	m.data[key] = value
	m.mu.Unlock()
}

// Get returns a session-scoped value.
func (m *Manager) Get(key string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

// Has reports whether key is set.
func (m *Manager) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

// Remove drops a session-scoped value, reporting whether it was present.
func (m *Manager) Remove(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	delete(m.data, key)
	return ok
}

// All returns a copy of the session data.
func (m *Manager) All() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]any, len(m.data))
	for k, v := range m.data {
		out[k] = v
	}
	return out
}

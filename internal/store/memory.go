package store

import (
	"context"
	"sync"
	"time"

	"github.com/telecrm/helpdesk-sso/internal/domain"
)

// Memory is the in-process Store used in tests and single-instance
// deployments. State lives for the lifetime of the process only.
type Memory struct {
	mu sync.Mutex

	pending      map[string]domain.PendingVerification
	pendingOrder []string

	verified      map[string]struct{}
	verifiedOrder []string

	sessions map[string]domain.Session

	counters map[string]*counterWindow
}

type counterWindow struct {
	count   int64
	started time.Time
}

func NewMemory() *Memory {
	return &Memory{
		pending:  make(map[string]domain.PendingVerification),
		verified: make(map[string]struct{}),
		sessions: make(map[string]domain.Session),
		counters: make(map[string]*counterWindow),
	}
}

func (m *Memory) CreatePending(_ context.Context, rec domain.PendingVerification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.pending[rec.Token]; !exists {
		m.pendingOrder = append(m.pendingOrder, rec.Token)
	}
	m.pending[rec.Token] = rec
	return nil
}

func (m *Memory) GetPending(_ context.Context, token string) (*domain.PendingVerification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.pending[token]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *Memory) ConsumePending(_ context.Context, token string) (*domain.PendingVerification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.pending[token]
	if !ok {
		return nil, nil
	}
	delete(m.pending, token)
	m.dropPendingOrder(token)
	return &rec, nil
}

func (m *Memory) ListPending(_ context.Context) ([]domain.PendingVerification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.PendingVerification, 0, len(m.pending))
	for _, token := range m.pendingOrder {
		if rec, ok := m.pending[token]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *Memory) dropPendingOrder(token string) {
	for i, t := range m.pendingOrder {
		if t == token {
			m.pendingOrder = append(m.pendingOrder[:i], m.pendingOrder[i+1:]...)
			return
		}
	}
}

func (m *Memory) AddVerified(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.verified[email]; !ok {
		m.verifiedOrder = append(m.verifiedOrder, email)
	}
	m.verified[email] = struct{}{}
	return nil
}

func (m *Memory) IsVerified(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.verified[email]
	return ok, nil
}

func (m *Memory) RemoveVerified(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.verified[email]; !ok {
		return false, nil
	}
	delete(m.verified, email)
	for i, e := range m.verifiedOrder {
		if e == email {
			m.verifiedOrder = append(m.verifiedOrder[:i], m.verifiedOrder[i+1:]...)
			break
		}
	}
	return true, nil
}

func (m *Memory) ListVerified(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.verifiedOrder))
	copy(out, m.verifiedOrder)
	return out, nil
}

func (m *Memory) PutSession(_ context.Context, s domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *Memory) GetSession(_ context.Context, id string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	if time.Now().After(s.ExpiresAt) {
		delete(m.sessions, id)
		return nil, nil
	}
	return &s, nil
}

func (m *Memory) DeleteSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *Memory) IncrementCounter(_ context.Context, key string, window time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	w, ok := m.counters[key]
	if !ok || now.Sub(w.started) > window {
		w = &counterWindow{started: now}
		m.counters[key] = w
	}
	w.count++
	return w.count, nil
}

func (m *Memory) Close() error { return nil }

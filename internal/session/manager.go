package session

import (
	"context"
	"sync"
	"time"

	"servicredit-registro/internal/common/errors"
	"servicredit-registro/internal/common/logger"
	"servicredit-registro/internal/common/metrics"
	"servicredit-registro/internal/registro"

	"github.com/google/uuid"
)

// Manager hands out live sessions. Sessions stay in process while in use so
// the busy flag of an in-flight submission is seen by every request; the
// store receives a snapshot after each change and revives sessions evicted
// from memory or held by another instance.
type Manager struct {
	store  Store
	deps   registro.Dependencies
	ttl    time.Duration
	logger logger.Logger
	now    func() time.Time
	newID  func() string

	mu   sync.Mutex
	live map[string]*registro.Session
}

func NewManager(store Store, deps registro.Dependencies, ttl time.Duration, log logger.Logger) *Manager {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	return &Manager{
		store:  store,
		deps:   deps,
		ttl:    ttl,
		logger: log,
		now:    now,
		newID:  uuid.NewString,
		live:   make(map[string]*registro.Session),
	}
}

// Create starts an empty session with a fresh random id.
func (m *Manager) Create(ctx context.Context) (*registro.Session, error) {
	s, err := registro.NewSession(m.newID(), m.deps)
	if err != nil {
		return nil, err
	}
	if err := m.store.Save(ctx, s.Snapshot()); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.live[s.ID()] = s
	metrics.SessionsActive.Set(float64(len(m.live)))
	m.mu.Unlock()

	m.logger.Debug("Session created", map[string]interface{}{"sessionId": s.ID()})
	return s, nil
}

// Get returns the live session or revives it from the store.
func (m *Manager) Get(ctx context.Context, id string) (*registro.Session, error) {
	if id == "" {
		return nil, errors.NewSessionNotFoundError(id)
	}

	m.mu.Lock()
	s, ok := m.live[id]
	m.mu.Unlock()
	if ok {
		return s, nil
	}

	// The store round trip runs unlocked; a concurrent revive of the same id
	// is resolved below in favour of whichever session went live first.
	snap, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	revived, err := registro.Restore(*snap, m.deps)
	if err != nil {
		m.logger.Warn("Discarding incompatible session snapshot", map[string]interface{}{
			"sessionId": id,
			"error":     err,
		})
		return nil, errors.NewSessionNotFoundError(id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.live[id]; ok {
		return s, nil
	}
	m.live[id] = revived
	metrics.SessionsActive.Set(float64(len(m.live)))
	return revived, nil
}

// GetOrCreate resolves id, creating a new session when it is unknown.
func (m *Manager) GetOrCreate(ctx context.Context, id string) (*registro.Session, bool, error) {
	s, err := m.Get(ctx, id)
	if err == nil {
		return s, false, nil
	}
	if !errors.IsCode(err, errors.ErrCodeSessionNotFound) {
		return nil, false, err
	}
	s, err = m.Create(ctx)
	return s, err == nil, err
}

// Save writes the session snapshot through to the store.
func (m *Manager) Save(ctx context.Context, s *registro.Session) error {
	return m.store.Save(ctx, s.Snapshot())
}

func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.live, id)
	metrics.SessionsActive.Set(float64(len(m.live)))
	m.mu.Unlock()
	return m.store.Delete(ctx, id)
}

// Evict drops idle live sessions. Busy sessions are kept regardless of age.
func (m *Manager) Evict() int {
	cutoff := m.now().Add(-m.ttl)

	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for id, s := range m.live {
		if s.Busy() || s.UpdatedAt().After(cutoff) {
			continue
		}
		delete(m.live, id)
		evicted++
	}
	metrics.SessionsActive.Set(float64(len(m.live)))
	if evicted > 0 {
		m.logger.Debug("Evicted idle sessions", map[string]interface{}{"count": evicted})
	}
	return evicted
}

// Live is the number of sessions held in memory.
func (m *Manager) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}

// Run evicts idle sessions every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Evict()
		}
	}
}

// Ping checks the backing store.
func (m *Manager) Ping(ctx context.Context) error {
	return m.store.Ping(ctx)
}

func (m *Manager) Close() error {
	return m.store.Close()
}

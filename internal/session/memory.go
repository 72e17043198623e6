package session

import (
	"context"
	"sync"
	"time"

	"servicredit-registro/internal/common/errors"
	"servicredit-registro/internal/common/logger"
	"servicredit-registro/internal/registro"
)

type memoryEntry struct {
	snap      registro.Snapshot
	expiresAt time.Time
}

// MemoryStore keeps snapshots in process with an idle TTL.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
	ttl     time.Duration
	now     func() time.Time
	logger  logger.Logger

	stop chan struct{}
	once sync.Once
}

// NewMemoryStore starts a cleanup loop that runs every interval until Close.
func NewMemoryStore(ttl, interval time.Duration, log logger.Logger) *MemoryStore {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	s := &MemoryStore{
		entries: make(map[string]*memoryEntry),
		ttl:     ttl,
		now:     time.Now,
		logger:  log,
		stop:    make(chan struct{}),
	}
	if interval > 0 {
		go s.cleanupLoop(interval)
	}
	return s
}

func (s *MemoryStore) Load(_ context.Context, id string) (*registro.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok || !s.now().Before(e.expiresAt) {
		return nil, errors.NewSessionNotFoundError(id)
	}
	snap := e.snap
	return &snap, nil
}

func (s *MemoryStore) Save(_ context.Context, snap registro.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[snap.ID] = &memoryEntry{snap: snap, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error {
	s.once.Do(func() { close(s.stop) })
	return nil
}

// Len counts stored entries, expired ones included until the next cleanup.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Cleanup drops expired entries and returns how many were removed.
func (s *MemoryStore) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, id)
			removed++
			s.logger.Debug("Cleaned up expired session", map[string]interface{}{
				"sessionId": id,
			})
		}
	}
	return removed
}

func (s *MemoryStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.Cleanup()
		}
	}
}

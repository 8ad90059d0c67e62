package session

import (
	"context"
	"sync"

	"food-ordering-agent/internal/common/metrics"
	"food-ordering-agent/internal/models"
)

// MemoryRepository keeps sessions for the lifetime of the process.
type MemoryRepository struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{sessions: make(map[string]*models.Session)}
}

func (r *MemoryRepository) Get(_ context.Context, id string) (*models.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s.Clone(), nil
}

func (r *MemoryRepository) Save(_ context.Context, s *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[s.ID]; !exists {
		metrics.SessionsActive.Inc()
	}
	r.sessions[s.ID] = s.Clone()
	return nil
}

func (r *MemoryRepository) Ping(context.Context) error {
	return nil
}

// Len returns the number of stored sessions.
func (r *MemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Package session keeps per-user conversation state and serialises turns per user.
package session

import (
	"context"
	"errors"

	"food-ordering-agent/internal/models"
)

var ErrSessionNotFound = errors.New("SESSION_NOT_FOUND")

// Repository persists sessions. Implementations must be safe for concurrent use.
type Repository interface {
	Get(ctx context.Context, id string) (*models.Session, error)
	Save(ctx context.Context, s *models.Session) error
	Ping(ctx context.Context) error
}

// Locker grants exclusive access to a session key. The returned func releases it.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

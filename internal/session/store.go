package session

import (
	"context"
	"errors"

	apperrors "food-ordering-agent/internal/common/errors"
	"food-ordering-agent/internal/common/logger"
	"food-ordering-agent/internal/models"
)

// Store is the single entry point the engine uses to read and change sessions.
type Store struct {
	repo   Repository
	locker Locker
	logger logger.Logger
}

func NewStore(repo Repository, locker Locker, log logger.Logger) *Store {
	if locker == nil {
		locker = NewKeyedMutex()
	}
	return &Store{
		repo:   repo,
		locker: locker,
		logger: logger.Component(log, "session-store"),
	}
}

// Load returns a copy of the session, creating an empty one if id is unknown.
// The new session is only persisted by a later Update.
func (s *Store) Load(ctx context.Context, id string) (*models.Session, error) {
	sess, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrSessionNotFound) {
		return models.NewSession(id), nil
	}
	if err != nil {
		return nil, apperrors.NewSessionStoreError(err)
	}
	return sess, nil
}

// Update runs fn on a copy of the session while holding the session's lock. The copy is
// saved only when fn returns nil, so a failing turn leaves the stored session untouched.
func (s *Store) Update(ctx context.Context, id string, fn func(sess *models.Session) error) error {
	unlock, err := s.locker.Lock(ctx, id)
	if err != nil {
		return apperrors.NewSessionStoreError(err)
	}
	defer unlock()

	sess, err := s.Load(ctx, id)
	if err != nil {
		return err
	}

	if err := fn(sess); err != nil {
		s.logger.Debug("session update discarded", map[string]interface{}{
			"session": id,
			"error":   err,
		})
		return err
	}

	sess.Touch()
	if err := s.repo.Save(ctx, sess); err != nil {
		return apperrors.NewSessionStoreError(err)
	}
	return nil
}

// PendingOrder returns the order proposed in the last successful search, if any.
func (s *Store) PendingOrder(ctx context.Context, id string) (*models.OrderDetails, error) {
	sess, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return sess.PendingOrder, nil
}

// ClearPendingOrder drops the pending order after it has been booked.
func (s *Store) ClearPendingOrder(ctx context.Context, id string) error {
	return s.Update(ctx, id, func(sess *models.Session) error {
		sess.PendingOrder = nil
		return nil
	})
}

func (s *Store) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

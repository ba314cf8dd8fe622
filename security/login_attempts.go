package security

import (
	"context"
	"time"
)

// LoginAttemptService blocks an identity after too many failed sign-ins
// within the block window.
type LoginAttemptService struct {
	store       CounterStore
	maxAttempts int
	window      time.Duration
}

func NewLoginAttemptService(store CounterStore, maxAttempts int, window time.Duration) *LoginAttemptService {
	return &LoginAttemptService{
		store:       store,
		maxAttempts: maxAttempts,
		window:      window,
	}
}

func (s *LoginAttemptService) LoginSucceeded(ctx context.Context, key string) error {
	return s.store.Reset(ctx, key)
}

func (s *LoginAttemptService) LoginFailed(ctx context.Context, key string) error {
	_, err := s.store.Increment(ctx, key, s.window)
	return err
}

func (s *LoginAttemptService) IsBlocked(ctx context.Context, key string) (bool, error) {
	attempts, err := s.store.Get(ctx, key)
	if err != nil {
		return false, err
	}
	return attempts >= s.maxAttempts, nil
}

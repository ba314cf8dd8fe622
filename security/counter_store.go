// Package security holds the request filters that sit in front of the API:
// rate limiting, login throttling, security headers and method validation.
package security

import (
	"context"
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"invoicing-backend/models"
)

// CounterStore keeps expiring per-key counters. Counts reset once the window
// opened by the first increment has passed.
type CounterStore interface {
	Get(ctx context.Context, key string) (int, error)
	Increment(ctx context.Context, key string, window time.Duration) (int, error)
	Reset(ctx context.Context, key string) error
}

type counterEntry struct {
	count     int
	expiresAt time.Time
}

// MemoryCounterStore is a process-local CounterStore.
type MemoryCounterStore struct {
	mu      sync.Mutex
	entries map[string]*counterEntry
	now     func() time.Time
}

const memoryStorePurgeThreshold = 10000

func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{
		entries: make(map[string]*counterEntry),
		now:     time.Now,
	}
}

func (s *MemoryCounterStore) Get(_ context.Context, key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return 0, nil
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.entries, key)
		return 0, nil
	}
	return e.count, nil
}

func (s *MemoryCounterStore) Increment(_ context.Context, key string, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if len(s.entries) >= memoryStorePurgeThreshold {
		s.purgeLocked(now)
	}

	e, ok := s.entries[key]
	if !ok || !now.Before(e.expiresAt) {
		e = &counterEntry{expiresAt: now.Add(window)}
		s.entries[key] = e
	}
	e.count++
	return e.count, nil
}

func (s *MemoryCounterStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

func (s *MemoryCounterStore) purgeLocked(now time.Time) {
	for key, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, key)
		}
	}
}

// GormCounterStore keeps counters in the login_attempts table so every API
// instance sees the same counts.
type GormCounterStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormCounterStore(db *gorm.DB) *GormCounterStore {
	return &GormCounterStore{db: db, now: time.Now}
}

func (s *GormCounterStore) Get(ctx context.Context, key string) (int, error) {
	var row models.LoginAttempt
	err := s.db.WithContext(ctx).Where("attempt_key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if !s.now().Before(row.ExpiresAt) {
		return 0, nil
	}
	return row.Count, nil
}

// Increment seeds the row before locking it, so concurrent first failures
// for a key queue on the same row lock instead of overwriting each other.
func (s *GormCounterStore) Increment(ctx context.Context, key string, window time.Duration) (int, error) {
	var count int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.now()

		seed := models.LoginAttempt{Key: key, ExpiresAt: now}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
			return err
		}

		var row models.LoginAttempt
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("attempt_key = ?", key).
			First(&row).Error; err != nil {
			return err
		}

		if row.Count == 0 || !now.Before(row.ExpiresAt) {
			row.Count = 0
			row.ExpiresAt = now.Add(window)
		}
		row.Count++
		count = row.Count

		return tx.Model(&row).Updates(map[string]any{
			"count":      row.Count,
			"expires_at": row.ExpiresAt,
		}).Error
	})
	return count, err
}

func (s *GormCounterStore) Reset(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Where("attempt_key = ?", key).Delete(&models.LoginAttempt{}).Error
}

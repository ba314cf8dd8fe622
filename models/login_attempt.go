package models

import "time"

// LoginAttempt backs the database counter store; Key is the throttled
// identity (client IP or username).
type LoginAttempt struct {
	Key       string `gorm:"column:attempt_key;size:191;primaryKey"`
	Count     int    `gorm:"not null;default:0"`
	ExpiresAt time.Time
	UpdatedAt time.Time
}

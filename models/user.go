package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"invoicing-backend/utils"
)

const (
	RoleAdmin     = "ROLE_ADMIN"
	RoleModerator = "ROLE_MODERATOR"
	RoleUser      = "ROLE_USER"
)

func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleModerator || role == RoleUser
}

type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username string    `gorm:"size:50;uniqueIndex;not null"`
	Email    string    `gorm:"size:100;uniqueIndex;not null"`
	Password string    `gorm:"not null"`

	Role string `gorm:"type:varchar(20);not null"`

	LastLogin *time.Time
	IsActive  bool `gorm:"not null;default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Hash the plain-text password before the row is written
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	hashed, err := utils.HashPassword(u.Password)
	if err != nil {
		return err
	}
	u.Password = hashed
	return
}

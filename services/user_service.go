package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"invoicing-backend/logger"
	"invoicing-backend/models"
	"invoicing-backend/utils"
)

type UserService struct {
	db     *gorm.DB
	tokens utils.TokenConfig
	now    func() time.Time
	log    zerolog.Logger
}

func NewUserService(db *gorm.DB, tokens utils.TokenConfig) *UserService {
	return &UserService{
		db:     db,
		tokens: tokens,
		now:    time.Now,
		log:    logger.WithComponent("users"),
	}
}

// Register creates a user with the given role, ROLE_USER when empty.
func (s *UserService) Register(ctx context.Context, username, email, password, role string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if role == "" {
		role = models.RoleUser
	}
	if !models.ValidRole(role) {
		return nil, NewValidationError("role", fmt.Sprintf("Unknown role %q", role))
	}

	db := s.db.WithContext(ctx)

	var existing int64
	if err := db.Model(&models.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, ErrUserExists
	}

	user := models.User{
		Username: username,
		Email:    email,
		Password: password, // hashed in BeforeCreate
		Role:     role,
		IsActive: true,
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", user.ID.String()).Str("username", username).Str("role", role).Msg("user registered")
	return &user, nil
}

// Authenticate checks the credentials of a username or email and returns a
// signed token.
func (s *UserService) Authenticate(ctx context.Context, identifier, password string) (*models.User, string, error) {
	identifier = strings.TrimSpace(identifier)
	db := s.db.WithContext(ctx)

	var user models.User
	err := db.Where("username = ? OR email = ?", identifier, strings.ToLower(identifier)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, "", ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, "", ErrUserDisabled
	}

	token, err := utils.GenerateToken(s.tokens, user.ID.String(), user.Username, user.Role)
	if err != nil {
		return nil, "", err
	}

	now := s.now()
	if err := db.Model(&user).Update("last_login", now).Error; err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("failed to record last login")
	}
	user.LastLogin = &now

	return &user, token, nil
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// EnsureAdmin creates the bootstrap administrator unless a user with that
// username already exists. It reports whether a user was created.
func (s *UserService) EnsureAdmin(ctx context.Context, username, email, password string) (bool, error) {
	if password == "" {
		return false, nil
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	if _, err := s.Register(ctx, username, email, password, models.RoleAdmin); err != nil {
		return false, err
	}
	return true, nil
}

// UpdateProfile changes the email and, when newPassword is set, the password
// of a user. The current password must match.
func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, email, currentPassword, newPassword string) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !utils.CheckPasswordHash(currentPassword, user.Password) {
		return nil, ErrInvalidCredentials
	}

	updates := map[string]interface{}{}
	if email = strings.ToLower(strings.TrimSpace(email)); email != "" && email != user.Email {
		var taken int64
		if err := s.db.WithContext(ctx).Model(&models.User{}).
			Where("email = ? AND id <> ?", email, id).
			Count(&taken).Error; err != nil {
			return nil, err
		}
		if taken > 0 {
			return nil, ErrUserExists
		}
		updates["email"] = email
	}
	if newPassword != "" {
		hashed, err := utils.HashPassword(newPassword)
		if err != nil {
			return nil, err
		}
		updates["password"] = hashed
	}
	if len(updates) == 0 {
		return user, nil
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", id.String()).Msg("profile updated")
	return s.Get(ctx, id)
}

package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"invoicing-backend/logger"
	"invoicing-backend/models"
	"invoicing-backend/security"
	"invoicing-backend/services"
	"invoicing-backend/utils"
)

type UpdateProfileInput struct {
	Email           string `json:"email" binding:"omitempty,email,max=100"`
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"omitempty,min=8,max=72"`
}

type AuthController struct {
	users    *services.UserService
	attempts *security.LoginAttemptService
}

func NewAuthController(users *services.UserService, attempts *security.LoginAttemptService) *AuthController {
	return &AuthController{users: users, attempts: attempts}
}

// controllers/auth.go
func (ac *AuthController) Register(c *gin.Context) {
	var input SignupInput
	if !bindJSON(c, &input) {
		return
	}

	user, err := ac.users.Register(c.Request.Context(), input.Username, input.Email, input.Password, models.RoleUser)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    toUserResponse(*user),
	})
}

func (ac *AuthController) Login(c *gin.Context) {
	var input SigninInput
	if !bindJSON(c, &input) {
		return
	}

	ctx := c.Request.Context()
	log := logger.WithComponent("auth")
	ip := utils.ClientIP(c)
	usernameKey := "user:" + strings.ToLower(strings.TrimSpace(input.Username))

	// the middleware already checked the IP
	if blocked, err := ac.attempts.IsBlocked(ctx, usernameKey); err != nil {
		log.Error().Err(err).Msg("failed to read login attempts")
	} else if blocked {
		utils.RespondWithError(c, http.StatusForbidden, "Too many login attempts. Please try again later.")
		return
	}

	user, token, err := ac.users.Authenticate(ctx, input.Username, input.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			for _, key := range []string{ip, usernameKey} {
				if err := ac.attempts.LoginFailed(ctx, key); err != nil {
					log.Error().Err(err).Str("key", key).Msg("failed to record login attempt")
				}
			}
			log.Warn().Str("ip", ip).Str("username", input.Username).Msg("failed sign-in")
		}
		handleServiceError(c, err)
		return
	}

	for _, key := range []string{ip, usernameKey} {
		if err := ac.attempts.LoginSucceeded(ctx, key); err != nil {
			log.Error().Err(err).Str("key", key).Msg("failed to reset login attempts")
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"token":     token,
		"tokenType": "Bearer",
		"user":      toUserResponse(*user),
	})
}

func (ac *AuthController) Me(c *gin.Context) {
	userID, err := uuid.Parse(c.GetString(utils.ContextUserID))
	if err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	user, err := ac.users.Get(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			utils.RespondWithError(c, http.StatusUnauthorized, "User not found")
			return
		}
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(*user)})
}

func (ac *AuthController) UpdateProfile(c *gin.Context) {
	userID, err := uuid.Parse(c.GetString(utils.ContextUserID))
	if err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "User ID not found in context")
		return
	}

	var input UpdateProfileInput
	if !bindJSON(c, &input) {
		return
	}

	user, err := ac.users.UpdateProfile(c.Request.Context(), userID, input.Email, input.CurrentPassword, input.NewPassword)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    toUserResponse(*user),
	})
}

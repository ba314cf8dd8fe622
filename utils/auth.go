// utils/auth.go
package utils

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Context keys set by AuthMiddleware
const (
	ContextUserID   = "userId"
	ContextUsername = "username"
	ContextRole     = "role"
)

// BcryptCost is lowered in tests.
var BcryptCost = 12

// Generate JWT secret key (run once initially)
func GenerateJWTSecret() string {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		panic("failed to generate JWT secret")
	}
	return base64.StdEncoding.EncodeToString(key)
}

// Hash password
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	return string(bytes), err
}

// Check password
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

type TokenConfig struct {
	Secret string
	Expiry time.Duration
}

// Generate JWT token
func GenerateToken(cfg TokenConfig, userID, username, role string) (string, error) {
	if cfg.Secret == "" {
		return "", errors.New("JWT secret not set")
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      userID,
		"username": username,
		"role":     role,
		"exp":      now.Add(cfg.Expiry).Unix(),
		"iat":      now.Unix(),
	})

	return token.SignedString([]byte(cfg.Secret))
}

// Auth middleware
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.GetHeader("Authorization")
		if tokenString == "" {
			RespondWithError(c, http.StatusUnauthorized, "Authorization header required")
			return
		}

		if len(tokenString) > 7 && strings.ToUpper(tokenString[0:6]) == "BEARER" {
			tokenString = tokenString[7:]
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(secret), nil
		})

		if err != nil || !token.Valid {
			RespondWithError(c, http.StatusUnauthorized, "Invalid token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			RespondWithError(c, http.StatusUnauthorized, "Invalid token claims")
			return
		}

		sub, _ := claims["sub"].(string)
		role, _ := claims["role"].(string)
		username, _ := claims["username"].(string)
		if sub == "" || role == "" {
			RespondWithError(c, http.StatusUnauthorized, "Invalid token claims")
			return
		}

		c.Set(ContextUserID, sub)
		c.Set(ContextUsername, username)
		c.Set(ContextRole, role)

		c.Next()
	}
}

// RequireRole rejects requests whose token role is not one of roles.
// Must run after AuthMiddleware.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *gin.Context) {
		role := c.GetString(ContextRole)
		if !allowed[role] {
			RespondWithError(c, http.StatusForbidden, "Insufficient permissions")
			return
		}
		c.Next()
	}
}

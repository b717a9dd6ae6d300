package service

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/examforge/examforge-backend/internal/config"
)

// ErrInvalidToken covers malformed, mis-signed, and expired tokens.
var ErrInvalidToken = errors.New("invalid token")

// Role distinguishes participant vs admin tokens.
type Role string

const (
	RoleParticipant Role = "participant"
	RoleAdmin       Role = "admin"
)

// Claims carries the authenticated identity supplied by the external auth
// service. This backend only verifies; it never issues tokens or touches
// credentials.
type Claims struct {
	jwt.RegisteredClaims
	Role          Role   `json:"role"`
	ParticipantID int64  `json:"participant_id,omitempty"`
	DeviceTag     string `json:"device_tag,omitempty"`
}

// TokenService verifies bearer tokens against the shared signing secret.
type TokenService struct {
	cfg *config.Config
}

// NewTokenService creates a new TokenService.
func NewTokenService(cfg *config.Config) *TokenService {
	return &TokenService{cfg: cfg}
}

// Validate parses and verifies a token string, returning its claims.
func (s *TokenService) Validate(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

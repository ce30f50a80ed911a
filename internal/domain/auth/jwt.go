package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"kadryhr/internal/core/id"
	"kadryhr/internal/core/security"
)

// ErrTokenExpired is returned by ParseToken for a well-formed token past its exp.
var ErrTokenExpired = errors.New("token expired")

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	Secret         string
	Issuer         string
	AccessTokenTTL time.Duration
}

// DefaultJWTConfig returns default JWT configuration.
func DefaultJWTConfig(secret string) JWTConfig {
	return JWTConfig{
		Secret:         secret,
		Issuer:         "kadryhr",
		AccessTokenTTL: 15 * time.Minute,
	}
}

// Claims represents JWT claims. A token is only as valid as the session it names.
type Claims struct {
	jwt.RegisteredClaims
	SessionID      string `json:"sid"`
	UserID         string `json:"uid"`
	OrganisationID string `json:"oid"`
	Role           string `json:"role"`
}

// JWTService handles JWT operations.
type JWTService struct {
	config JWTConfig
	now    func() time.Time
}

// NewJWTService creates a new JWT service.
func NewJWTService(config JWTConfig) *JWTService {
	return &JWTService{config: config, now: time.Now}
}

// GenerateAccessToken signs a token for the session. It never outlives the session.
func (s *JWTService) GenerateAccessToken(session *Session, role security.Role) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.config.AccessTokenTTL)
	if session.ExpiresAt.Before(expiresAt) {
		expiresAt = session.ExpiresAt
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   session.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		SessionID:      session.ID.String(),
		UserID:         session.UserID.String(),
		OrganisationID: session.OrganisationID.String(),
		Role:           string(role),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// ParseToken verifies signature, issuer and expiry and returns the session id.
func (s *JWTService) ParseToken(tokenString string) (*Claims, id.ID, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.config.Issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, id.Nil(), ErrTokenExpired
		}
		return nil, id.Nil(), fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, id.Nil(), fmt.Errorf("invalid token claims")
	}

	sessionID, err := id.Parse(claims.SessionID)
	if err != nil {
		return nil, id.Nil(), fmt.Errorf("invalid session claim: %w", err)
	}
	return claims, sessionID, nil
}

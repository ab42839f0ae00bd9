package jwtutil

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"medmap-admin/pkg/config"
)

var cfg *config.JWTConfig

// Initialize sets the signing configuration used by the package.
func Initialize(c *config.JWTConfig) {
	cfg = c
}

// SessionClaims is the client-held session record: the authenticated user
// plus an advisory tenant reference. The tenant slug carried here is a
// routing hint only; authorization re-resolves the tenant from the store.
type SessionClaims struct {
	UserID     string  `json:"user_id"`
	Email      string  `json:"email"`
	Name       string  `json:"name"`
	Role       string  `json:"role"`
	TenantID   *string `json:"tenant_id,omitempty"`
	TenantSlug string  `json:"tenant_slug,omitempty"`
	jwt.RegisteredClaims
}

// GenerateToken signs a session token for the given claims.
func GenerateToken(claims SessionClaims) (string, error) {
	if cfg == nil {
		return "", errors.New("JWT configuration not provided")
	}

	expiration := time.Duration(cfg.ExpirationHours) * time.Hour
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiration)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.SigningKey))
}

// ValidateToken validates and parses a session token.
func ValidateToken(tokenString string) (*SessionClaims, error) {
	if cfg == nil {
		return nil, errors.New("JWT configuration not provided")
	}

	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(cfg.SigningKey), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*SessionClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrSignatureInvalid
}

package users

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers missing, malformed, expired and badly signed tokens.
var ErrInvalidToken = errors.New("invalid token")

// TokenManager issues and parses the HS256 bearer tokens the platform uses
// as credentials.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

// Generate signs a token for the user. The subject is the email; the numeric
// id travels in the uid claim.
func (m *TokenManager) Generate(user *User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": user.Email,
		"uid": user.ID,
		"iat": now.Unix(),
		"exp": now.Add(m.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse validates the token and returns the uid claim.
func (m *TokenManager) Parse(tokenString string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidToken
	}
	uid, ok := claims["uid"].(float64)
	if !ok || uid <= 0 {
		return 0, ErrInvalidToken
	}
	return int64(uid), nil
}

// Package auth validates the bearer tokens the API optionally requires.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Service signs and validates HS256 JWTs carrying the caller's profile id.
type Service struct {
	secretKey string
	tokenTTL  time.Duration
}

// NewService creates a Service with the given secret key and token TTL.
func NewService(secretKey string, tokenTTL time.Duration) *Service {
	return &Service{
		secretKey: secretKey,
		tokenTTL:  tokenTTL,
	}
}

// GenerateToken issues a token for a profile.
func (s *Service) GenerateToken(profileID, email string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"profile_id": profileID,
		"email":      email,
		"exp":        now.Add(s.tokenTTL).Unix(),
		"iat":        now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secretKey))
}

// ValidateToken checks signature and expiry and returns the profile id
// the token was issued for.
func (s *Service) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Only HS256 tokens are accepted.
		if token.Method.Alg() != "HS256" {
			return "", fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.secretKey), nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}
	profileID, ok := claims["profile_id"].(string)
	if !ok || profileID == "" {
		return "", fmt.Errorf("token missing profile_id claim")
	}
	return profileID, nil
}

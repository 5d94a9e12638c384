package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/HamidTech-Ventures/Room-MatchPK-sub002/model"
	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// TokenMetadata is the identity carried by an access token issued by the
// marketplace auth service.
type TokenMetadata struct {
	ID    string
	Email string
	Name  string
	Role  model.Role
	Otp   bool
	Exp   int64
}

// GenerateToken signs an HS512 access token. Messaging never issues tokens
// to users; this is used by tests and local tooling.
func GenerateToken(meta TokenMetadata, key string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"id":    meta.ID,
		"email": meta.Email,
		"role":  string(meta.Role),
		"otp":   meta.Otp,
		"exp":   time.Now().Add(ttl).Unix(),
	}
	if meta.Name != "" {
		claims["name"] = meta.Name
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	return token.SignedString([]byte(key))
}

// CheckAndExtractTokenMetadata verifies token with key and returns its
// identity claims.
func CheckAndExtractTokenMetadata(token, key string) (*TokenMetadata, error) {
	t, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return []byte(key), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}))
	if err != nil {
		return nil, err
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok || !t.Valid {
		return nil, ErrInvalidToken
	}
	return ExtractTokenMetadata(claims)
}

// ExtractTokenMetadata reads identity claims from an already verified token.
func ExtractTokenMetadata(claims jwt.MapClaims) (*TokenMetadata, error) {
	meta := &TokenMetadata{}

	id, ok := claims["id"]
	if !ok {
		return nil, fmt.Errorf("%w: missing id", ErrInvalidToken)
	}
	switch v := id.(type) {
	case string:
		meta.ID = v
	case float64:
		meta.ID = fmt.Sprintf("%.0f", v)
	default:
		return nil, fmt.Errorf("%w: bad id", ErrInvalidToken)
	}
	if meta.ID == "" {
		return nil, fmt.Errorf("%w: missing id", ErrInvalidToken)
	}

	meta.Email, _ = claims["email"].(string)
	meta.Name, _ = claims["name"].(string)
	role, _ := claims["role"].(string)
	meta.Role = model.Role(role)
	meta.Otp, _ = claims["otp"].(bool)
	if exp, ok := claims["exp"].(float64); ok {
		meta.Exp = int64(exp)
	}
	return meta, nil
}

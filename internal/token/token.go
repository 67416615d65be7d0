// Package token issues and verifies the signed bearer tokens that carry a
// user identity between requests.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	issuer   = "devlink-api"
	audience = "devlink-client"
)

// Verification failures are split so the authorization gate can answer 403
// for a well-formed but rejected token.
var (
	ErrExpired = errors.New("token expired")
	ErrInvalid = errors.New("token invalid")
)

// Service signs and verifies tokens with a shared HMAC secret and a fixed
// expiry, both supplied at construction.
type Service struct {
	secret []byte
	expiry time.Duration
}

// NewService creates a token service. expirySeconds is the server-side token
// lifetime.
func NewService(secret string, expirySeconds int) (*Service, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret not configured")
	}
	if expirySeconds <= 0 {
		return nil, fmt.Errorf("token expiry must be positive, got %d", expirySeconds)
	}
	return &Service{
		secret: []byte(secret),
		expiry: time.Duration(expirySeconds) * time.Second,
	}, nil
}

// Issue produces a signed token embedding the user ID as the subject claim.
func (s *Service) Issue(userID uint) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"iss": issuer,
		"aud": audience,
		"exp": now.Add(s.expiry).Unix(),
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"jti": generateJTI(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify validates signature, expiry, issuer and audience, and returns the
// embedded user ID. Returns ErrExpired or ErrInvalid on rejection.
func (s *Service) Verify(tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrExpired
		}
		return 0, ErrInvalid
	}
	if !token.Valid {
		return 0, ErrInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalid
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, ErrInvalid
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil {
		return 0, ErrInvalid
	}
	return uint(userID), nil
}

// generateJTI creates a unique JWT ID to prevent replay attacks
func generateJTI() string {
	return fmt.Sprintf("%d-%s", time.Now().Unix(), uuid.New().String()[:8])
}

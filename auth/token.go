package auth

import (
	"fmt"
	"time"

	"github.com/Tropical8818/iProTalk/errors"

	"github.com/golang-jwt/jwt/v5"
)

const Issuer = "iprotalk"

// Principal is the authenticated identity behind a credential.
type Principal struct {
	UserID string
	Name   string
}

// CustomClaims defines the structure of the data stored inside the JWT.
// The user id travels in the standard "sub" claim.
type CustomClaims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 bearer tokens.
type TokenManager struct {
	secret   []byte
	duration time.Duration
	now      func() time.Time
}

func NewTokenManager(secret string, duration time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, fmt.Errorf("token secret must not be empty")
	}
	return &TokenManager{secret: []byte(secret), duration: duration, now: time.Now}, nil
}

// GenerateToken creates a signed JWT for a specific user.
func (m *TokenManager) GenerateToken(userID, name string) (string, error) {
	now := m.now()
	claims := &CustomClaims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    Issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ValidateCredential checks signature, algorithm, issuer and expiry of a token.
// Every failure is reported as errors.ErrUnauthorized.
func (m *TokenManager) ValidateCredential(token string) (Principal, error) {
	if token == "" {
		return Principal{}, fmt.Errorf("%w: missing credential", errors.ErrUnauthorized)
	}
	parsed, err := jwt.ParseWithClaims(token, &CustomClaims{},
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", errors.ErrUnauthorized, err)
	}
	claims, ok := parsed.Claims.(*CustomClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return Principal{}, fmt.Errorf("%w: invalid claims", errors.ErrUnauthorized)
	}
	return Principal{UserID: claims.Subject, Name: claims.Name}, nil
}

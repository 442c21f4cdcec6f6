// Package auth issues and checks the HS256 tokens handed out by the dev server.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Claims carries the standard claims plus the user id, role and token type,
// the same set the events service puts into its tokens.
type Claims struct {
	jwt.RegisteredClaims
	UserID    string `json:"user_id"`
	Role      string `json:"role,omitempty"`
	TokenType string `json:"token_type"`
}

// Issuer signs and verifies tokens with one shared secret.
type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewIssuer(secret []byte, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{secret: secret, accessTTL: accessTTL, refreshTTL: refreshTTL, now: time.Now}
}

// GenerateToken signs a token of the given type valid for validity.
func (i *Issuer) GenerateToken(userID, role, tokenType string, validity time.Duration) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		UserID:    userID,
		Role:      role,
		TokenType: tokenType,
	})

	tokenString, err := token.SignedString(i.secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// Pair returns a fresh access and refresh token for the user.
func (i *Issuer) Pair(userID, role string) (access, refresh string, err error) {
	access, err = i.GenerateToken(userID, role, TokenTypeAccess, i.accessTTL)
	if err != nil {
		return "", "", err
	}
	refresh, err = i.GenerateToken(userID, role, TokenTypeRefresh, i.refreshTTL)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// ParseAccess verifies tokenString and requires it to be an access token.
func (i *Issuer) ParseAccess(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	if !token.Valid || claims.TokenType != TokenTypeAccess {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

package credentials

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo is what the client can tell about an access token for display.
// It is never used for authorization decisions: tokens are opaque to the
// client and only the server validates them.
type TokenInfo struct {
	Subject   string
	UserID    string
	ExpiresAt time.Time
}

// Expired reports whether the token carried an expiry that is before now.
func (i TokenInfo) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}

// Inspect decodes the claims of a JWT access token without verifying its
// signature.
func Inspect(token string) (TokenInfo, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenInfo{}, fmt.Errorf("decode token: %w", err)
	}

	var info TokenInfo
	if sub, err := claims.GetSubject(); err == nil {
		info.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	switch v := claims["user_id"].(type) {
	case string:
		info.UserID = v
	case float64:
		info.UserID = fmt.Sprintf("%.0f", v)
	}
	return info, nil
}

// Package credentials is the single source of truth for who is logged in and
// with which role. The tuple survives client restarts through one of the
// Store backends.
package credentials

import (
	"context"
	"errors"
	"fmt"
)

// Role is the coarse authorization category returned by the events service.
type Role string

const (
	RoleSeeker      Role = "SEEKER"
	RoleFacilitator Role = "FACILITATOR"
)

// Well-known keys of the persisted session.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyRole         = "role"
)

var ErrUnknownRole = errors.New("unknown role")

// Valid reports whether r is one of the roles the client knows about.
func (r Role) Valid() bool {
	return r == RoleSeeker || r == RoleFacilitator
}

func (r Role) String() string {
	return string(r)
}

// ParseRole converts a wire value into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return r, nil
}

// Credential is the persisted session tuple. AccessToken and Role are
// written and cleared together; RefreshToken is kept but never used to renew.
type Credential struct {
	AccessToken  string
	RefreshToken string
	Role         Role
}

// HasSession is the session predicate: an access token is present.
func (c Credential) HasSession() bool {
	return c.AccessToken != ""
}

// Store persists the Credential.
//
// Set and SetRole exist for callers that write the halves separately;
// Establish writes the whole tuple in one step and is what the client uses.
// Clear always removes the whole tuple, role included.
type Store interface {
	Set(ctx context.Context, access, refresh string) error
	SetRole(ctx context.Context, role Role) error
	Establish(ctx context.Context, c Credential) error
	Clear(ctx context.Context) error
	Read(ctx context.Context) (Credential, error)
}

func fromMap(m map[string]string) Credential {
	return Credential{
		AccessToken:  m[KeyAccessToken],
		RefreshToken: m[KeyRefreshToken],
		Role:         Role(m[KeyRole]),
	}
}

func toMap(c Credential) map[string]string {
	return map[string]string{
		KeyAccessToken:  c.AccessToken,
		KeyRefreshToken: c.RefreshToken,
		KeyRole:         string(c.Role),
	}
}

// Package common contains constants and small helpers shared by the client,
// the transport and the dev server.
package common

// HTTP header names used on every request to the events service.
const (
	AuthorizationHeader = "Authorization"
	RequestIDHeader     = "X-Request-ID"
	ContentTypeHeader   = "Content-Type"
)

// BearerScheme prefixes the access token in the Authorization header.
const BearerScheme = "Bearer"

// ContentTypeJSON is the only body encoding the events service speaks.
const ContentTypeJSON = "application/json"

// BearerValue renders an Authorization header value for token.
func BearerValue(token string) string {
	return BearerScheme + " " + token
}

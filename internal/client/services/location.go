package services

import (
	"net/url"

	"github.com/dmitrijs2005/eventsplatform/internal/client/guard"
)

// VerifyLocation is the verify view for email.
func VerifyLocation(email string) string {
	return guard.PathVerify + "?" + url.Values{"email": {email}}.Encode()
}

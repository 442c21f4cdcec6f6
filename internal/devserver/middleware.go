package devserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/eventsplatform/internal/common"
	"github.com/dmitrijs2005/eventsplatform/internal/devserver/auth"
	"github.com/labstack/echo/v4"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

const (
	msgNoCredentials = "Authentication credentials were not provided."
	msgBadToken      = "Given token not valid for any token type"
	msgExpiredToken  = "Token is expired"
	msgForbidden     = "You do not have permission to perform this action."
)

// Bearer validates the access token and puts the user id and role into the
// echo context. Every failure is a 401 with a detail body.
func Bearer(issuer *auth.Issuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(common.AuthorizationHeader)
			if header == "" {
				return detail(c, http.StatusUnauthorized, msgNoCredentials)
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], common.BearerScheme) {
				return detail(c, http.StatusUnauthorized, msgBadToken)
			}

			claims, err := issuer.ParseAccess(parts[1])
			if err != nil {
				if errors.Is(err, auth.ErrTokenExpired) {
					return detail(c, http.StatusUnauthorized, msgExpiredToken)
				}
				return detail(c, http.StatusUnauthorized, msgBadToken)
			}

			c.Set(ctxUserID, claims.UserID)
			c.Set(ctxRole, claims.Role)

			return next(c)
		}
	}
}

// RBAC lets through only the listed roles; everyone else gets 403.
func RBAC(allowedRoles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(ctxRole).(string)
			if _, ok := allowed[role]; !ok {
				return detail(c, http.StatusForbidden, msgForbidden)
			}
			return next(c)
		}
	}
}

func detail(c echo.Context, code int, msg string) error {
	return c.JSON(code, map[string]string{"detail": msg})
}

func userID(c echo.Context) string {
	id, _ := c.Get(ctxUserID).(string)
	return id
}

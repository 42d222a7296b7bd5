package middleware // middleware provides reusable HTTP middleware functions

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/melody-camp/internal/utils"
)

// TokenVerifier recovers the identity claim from a bearer token.
// utils.TokenService implements it.
type TokenVerifier interface {
	Verify(raw string) (utils.IdentityClaim, error)
}

// Authenticated validates the Authorization header and stores the decoded
// identity in the context.  A missing or non-Bearer header is rejected as
// unauthorized; a token that fails verification as an invalid token.
func Authenticated(tokens TokenVerifier) Check {
	return func(c echo.Context) *Rejection {
		auth := c.Request().Header.Get(echo.HeaderAuthorization)
		if auth == "" {
			return reject(http.StatusUnauthorized, ErrUnauthorized)
		}
		raw, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			return reject(http.StatusUnauthorized, ErrUnauthorized)
		}
		claim, err := tokens.Verify(strings.TrimSpace(raw))
		if err != nil {
			return reject(http.StatusUnauthorized, utils.ErrInvalidToken)
		}
		setIdentity(c, claim)
		return nil
	}
}

// JWTAuth is the middleware form of Authenticated for route groups that
// need nothing else.
func JWTAuth(tokens TokenVerifier) echo.MiddlewareFunc {
	return Guard(Authenticated(tokens))
}

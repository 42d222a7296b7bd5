package middleware

// identity.go holds the context keys written by Authenticated and the
// accessors handlers use to read them.

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/melody-camp/internal/utils"
)

const (
	ctxEmail    = "email"
	ctxIdentity = "identity"
	ctxRole     = "role"
)

func setIdentity(c echo.Context, claim utils.IdentityClaim) {
	c.Set(ctxEmail, strings.ToLower(claim.Email))
	c.Set(ctxIdentity, claim)
}

// CurrentEmail returns the verified email of the caller.
func CurrentEmail(c echo.Context) (string, bool) {
	s, ok := c.Get(ctxEmail).(string)
	return s, ok && s != ""
}

// CurrentIdentity returns the full verified claim.
func CurrentIdentity(c echo.Context) (utils.IdentityClaim, bool) {
	claim, ok := c.Get(ctxIdentity).(utils.IdentityClaim)
	return claim, ok
}

// userKey identifies the caller for rate limiting; "anon" when no identity
// has been verified yet.
func userKey(c echo.Context) string {
	if email, ok := CurrentEmail(c); ok {
		return email
	}
	return "anon"
}

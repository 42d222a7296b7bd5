package middleware // middleware provides shared request processing for handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/melody-camp/internal/model"
	"github.com/iliyamo/melody-camp/internal/repository"
)

// RoleResolver looks up the stored role for a verified email.
type RoleResolver interface {
	ResolveRole(ctx context.Context, email string) (model.Role, error)
}

// SameEmail allows the request only when the path parameter param equals
// the caller's verified email.  It must run after Authenticated.
func SameEmail(param string) Check {
	return func(c echo.Context) *Rejection {
		email, ok := CurrentEmail(c)
		if !ok {
			return reject(http.StatusUnauthorized, ErrUnauthorized)
		}
		if !strings.EqualFold(strings.TrimSpace(c.Param(param)), email) {
			return reject(http.StatusForbidden, ErrForbidden)
		}
		return nil
	}
}

// HasRole resolves the caller's role from the user store and allows the
// request when it is one of roles.  The resolved role is stored in the
// context under "role".  It must run after Authenticated.
func HasRole(resolver RoleResolver, roles ...model.Role) Check {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c echo.Context) *Rejection {
		email, ok := CurrentEmail(c)
		if !ok {
			return reject(http.StatusUnauthorized, ErrUnauthorized)
		}
		role, err := resolver.ResolveRole(c.Request().Context(), email)
		if errors.Is(err, repository.ErrUserNotFound) {
			return reject(http.StatusForbidden, ErrForbidden)
		}
		if err != nil {
			return reject(http.StatusInternalServerError, err)
		}
		if !allowed[role] {
			return reject(http.StatusForbidden, ErrForbidden)
		}
		c.Set(ctxRole, role)
		return nil
	}
}

// RequireRole is the middleware form of HasRole.
func RequireRole(resolver RoleResolver, roles ...model.Role) echo.MiddlewareFunc {
	return Guard(HasRole(resolver, roles...))
}

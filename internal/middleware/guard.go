package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ErrUnauthorized is the rejection for requests without a usable bearer
// token.
var ErrUnauthorized = errors.New("unauthorized")

// ErrForbidden is the rejection for authenticated requests lacking the
// required identity or role.
var ErrForbidden = errors.New("forbidden")

// Rejection is a terminal deny decision with the HTTP status to send.
type Rejection struct {
	Status int
	Err    error
}

func (r *Rejection) Error() string { return r.Err.Error() }

func reject(status int, err error) *Rejection { return &Rejection{Status: status, Err: err} }

// Check is one access predicate.  It returns nil to let the request
// continue to the next check.
type Check func(c echo.Context) *Rejection

// Guard runs checks in order and stops at the first rejection, so a
// later check never sees a request an earlier one refused.  Identity
// checks must therefore come before role checks.
func Guard(checks ...Check) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			for _, check := range checks {
				if rej := check(c); rej != nil {
					if rej.Status >= http.StatusInternalServerError {
						c.Logger().Errorf("guard %s %s: %v", c.Request().Method, c.Path(), rej.Err)
						return c.JSON(rej.Status, echo.Map{"error": "internal server error"})
					}
					return c.JSON(rej.Status, echo.Map{"error": rej.Err.Error()})
				}
			}
			return next(c)
		}
	}
}

package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is a liveness endpoint for load balancers.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// GiftCookie is set on every visit to the bare API host.
const GiftCookie = "melody-makers-camp-cookie"

// Root greets visitors of the bare API host and leaves the gift cookie.
func Root(c echo.Context) error {
	c.SetCookie(&http.Cookie{Name: GiftCookie, Value: "I am here", Path: "/"})
	return c.String(http.StatusOK, "Hello from, Melody Maker Camp. Check your cookie to get your gift")
}

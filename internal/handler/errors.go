package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/melody-camp/internal/repository"
	"github.com/iliyamo/melody-camp/internal/service"
	"github.com/iliyamo/melody-camp/internal/utils"
)

// writeError maps service and repository errors onto HTTP responses.
// Store failures are logged and reported without detail.
func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, utils.ErrMissingEmail):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrInvalidID):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid class id"})
	case errors.Is(err, repository.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	case errors.Is(err, repository.ErrClassNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "class not found"})
	case errors.Is(err, service.ErrClassFull):
		return c.JSON(http.StatusConflict, echo.Map{"error": "class is full"})
	case errors.Is(err, service.ErrAlreadyEnrolled):
		return c.JSON(http.StatusConflict, echo.Map{"error": "already enrolled"})
	}
	c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
}

// classRef is the body of the selection and enrollment mutations.
type classRef struct {
	ClassID string `json:"classId"`
}

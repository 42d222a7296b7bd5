package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/melody-camp/internal/middleware"
	"github.com/iliyamo/melody-camp/internal/service"
)

// InstructorHandler lets instructors create and list their classes.
type InstructorHandler struct {
	Catalog *service.CatalogService
}

func NewInstructorHandler(catalog *service.CatalogService) *InstructorHandler {
	if catalog == nil {
		panic("nil catalog passed to NewInstructorHandler")
	}
	return &InstructorHandler{Catalog: catalog}
}

// AddClass handles POST /instructors/add-class.  The owner is always the
// caller; an instructorEmail in the body is ignored.
func (h *InstructorHandler) AddClass(c echo.Context) error {
	email, ok := middleware.CurrentEmail(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req service.NewClass
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	class, err := h.Catalog.CreateClass(c.Request().Context(), email, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, class)
}

// MyClasses handles GET /instructors/:email/classes.
func (h *InstructorHandler) MyClasses(c echo.Context) error {
	classes, err := h.Catalog.InstructorClasses(c.Request().Context(), c.Param("email"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": classes})
}

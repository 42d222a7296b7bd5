// Package handler exposes HTTP handlers for the public catalogue, the
// user-scoped selection and enrollment endpoints, instructors and admins.
package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/melody-camp/internal/service"
)

// CatalogHandler serves the unauthenticated class and instructor listings.
type CatalogHandler struct {
	Catalog *service.CatalogService
}

func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	if catalog == nil {
		panic("nil catalog passed to NewCatalogHandler")
	}
	return &CatalogHandler{Catalog: catalog}
}

// Classes handles GET /classes: approved classes only.
func (h *CatalogHandler) Classes(c echo.Context) error {
	classes, err := h.Catalog.ApprovedClasses(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": classes})
}

// PopularClasses handles GET /popular-classes.
func (h *CatalogHandler) PopularClasses(c echo.Context) error {
	classes, err := h.Catalog.PopularClasses(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": classes})
}

// ManageClasses handles GET /manage-classes: every class in any status.
func (h *CatalogHandler) ManageClasses(c echo.Context) error {
	classes, err := h.Catalog.AllClasses(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": classes})
}

// Instructors handles GET /instructors.
func (h *CatalogHandler) Instructors(c echo.Context) error {
	out, err := h.Catalog.Instructors(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// PopularInstructors handles GET /popular-instructors.
func (h *CatalogHandler) PopularInstructors(c echo.Context) error {
	out, err := h.Catalog.PopularInstructors(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

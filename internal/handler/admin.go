package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/melody-camp/internal/model"
	"github.com/iliyamo/melody-camp/internal/repository"
	"github.com/iliyamo/melody-camp/internal/service"
)

// AuditLister reads the enrollment ledger.  repository.AuditRepo
// implements it.
type AuditLister interface {
	ListByClass(ctx context.Context, classID string, limit int) ([]model.AuditEntry, error)
}

// AdminHandler serves the admin-only management endpoints.  Audit is nil
// when the ledger is not configured.
type AdminHandler struct {
	Users *service.UserService
	Audit AuditLister
}

func NewAdminHandler(users *service.UserService, audit AuditLister) *AdminHandler {
	if users == nil {
		panic("nil user service passed to NewAdminHandler")
	}
	return &AdminHandler{Users: users, Audit: audit}
}

type roleReq struct {
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

type statusReq struct {
	ClassID string            `json:"classId"`
	Status  model.ClassStatus `json:"status"`
}

// ListUsers handles GET /manage-users.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	users, err := h.Users.ListUsers(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": users})
}

// SetRole handles PATCH /manage-users/role.
func (h *AdminHandler) SetRole(c echo.Context) error {
	var req roleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := h.Users.SetUserRole(c.Request().Context(), req.Email, req.Role); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"email": repository.NormalizeEmail(req.Email), "role": req.Role})
}

// SetClassStatus handles PATCH /manage-classes/status.
func (h *AdminHandler) SetClassStatus(c echo.Context) error {
	var req statusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := h.Users.SetClassStatus(c.Request().Context(), req.ClassID, req.Status); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"classId": req.ClassID, "status": req.Status})
}

// ClassEnrollments handles GET /manage-classes/:id/enrollments.  The
// optional ?limit= caps the number of ledger rows (default 100).
func (h *AdminHandler) ClassEnrollments(c echo.Context) error {
	if h.Audit == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "enrollment ledger disabled"})
	}
	id := c.Param("id")
	if _, err := repository.ParseClassID(id); err != nil {
		return writeError(c, err)
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	entries, err := h.Audit.ListByClass(c.Request().Context(), id, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": entries})
}

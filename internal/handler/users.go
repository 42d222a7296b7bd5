package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/melody-camp/internal/model"
	"github.com/iliyamo/melody-camp/internal/service"
)

// UserHandler serves registration, role flags and the selection and
// enrollment endpoints.  Every /users/:email route is mounted behind a
// guard that checks :email against the token, so handlers read the email
// from the path.
type UserHandler struct {
	Users      *service.UserService
	Enrollment *service.EnrollmentService
}

func NewUserHandler(users *service.UserService, enrollment *service.EnrollmentService) *UserHandler {
	if users == nil || enrollment == nil {
		panic("nil service passed to NewUserHandler")
	}
	return &UserHandler{Users: users, Enrollment: enrollment}
}

// Register handles POST /users.  An existing email answers 200 with
// "user already exists" and writes nothing.
func (h *UserHandler) Register(c echo.Context) error {
	var req service.Registration
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	u, created, err := h.Users.Register(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	if !created {
		return c.JSON(http.StatusOK, echo.Map{"message": "user already exists"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"user": u})
}

// RoleFlags handles GET /roles/users/:email.
func (h *UserHandler) RoleFlags(c echo.Context) error {
	role, err := h.Users.ResolveRole(c.Request().Context(), c.Param("email"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, model.FlagsFor(role))
}

// SelectedClasses handles GET /users/:email/selected-classes.
func (h *UserHandler) SelectedClasses(c echo.Context) error {
	classes, err := h.Enrollment.SelectedClasses(c.Request().Context(), c.Param("email"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": classes})
}

// EnrolledClasses handles GET /users/:email/enrolled-classes.
func (h *UserHandler) EnrolledClasses(c echo.Context) error {
	classes, err := h.Enrollment.EnrolledClasses(c.Request().Context(), c.Param("email"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": classes})
}

// Select handles PATCH /users/:email/select.
func (h *UserHandler) Select(c echo.Context) error {
	var req classRef
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := h.Enrollment.Select(c.Request().Context(), c.Param("email"), req.ClassID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"selected": req.ClassID})
}

// Deselect handles PATCH /users/:email/deselect.
func (h *UserHandler) Deselect(c echo.Context) error {
	var req classRef
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := h.Enrollment.Deselect(c.Request().Context(), c.Param("email"), req.ClassID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"deselected": req.ClassID})
}

// Enroll handles PATCH /users/:email/enroll.  Repeating the call for a class
// the user already attends answers 200 with alreadyEnrolled=true.
func (h *UserHandler) Enroll(c echo.Context) error {
	var req classRef
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	res, err := h.Enrollment.Enroll(c.Request().Context(), c.Param("email"), req.ClassID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

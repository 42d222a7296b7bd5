package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/melody-camp/internal/handler"
	"github.com/iliyamo/melody-camp/internal/middleware"
	"github.com/iliyamo/melody-camp/internal/model"
)

// Deps bundles what the routes need.  Cache and Invalidate wrap the public
// catalogue reads and the mutations that change them.  RateLimit runs after
// the guard on protected routes so it can key on the verified email.  All
// three may be nil.
type Deps struct {
	Tokens     middleware.TokenVerifier
	Roles      middleware.RoleResolver
	Auth       *handler.AuthHandler
	Catalog    *handler.CatalogHandler
	Users      *handler.UserHandler
	Instructor *handler.InstructorHandler
	Admin      *handler.AdminHandler
	Cache      echo.MiddlewareFunc
	Invalidate echo.MiddlewareFunc
	RateLimit  echo.MiddlewareFunc
}

func (d Deps) cache() echo.MiddlewareFunc      { return orPass(d.Cache) }
func (d Deps) invalidate() echo.MiddlewareFunc { return orPass(d.Invalidate) }
func (d Deps) limit() echo.MiddlewareFunc      { return orPass(d.RateLimit) }

func orPass(m echo.MiddlewareFunc) echo.MiddlewareFunc {
	if m == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return m
}

// RegisterRoutes registers the unauthenticated routes: health, greeting,
// token issue, registration and the public catalogue.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/", handler.Root)
	e.GET("/healthz", handler.Health)
	e.POST("/jwt", d.Auth.IssueToken, d.limit())
	e.POST("/users", d.Users.Register, d.limit())

	e.GET("/classes", d.Catalog.Classes, d.limit(), d.cache())
	e.GET("/popular-classes", d.Catalog.PopularClasses, d.limit(), d.cache())
	e.GET("/instructors", d.Catalog.Instructors, d.limit(), d.cache())
	e.GET("/popular-instructors", d.Catalog.PopularInstructors, d.limit(), d.cache())
	e.GET("/manage-classes", d.Catalog.ManageClasses, d.limit())
}

// RegisterUser registers routes scoped to the caller's own email.  The
// guard verifies the token first, then that :email is the token's email.
func RegisterUser(e *echo.Echo, d Deps) {
	self := middleware.Guard(
		middleware.Authenticated(d.Tokens),
		middleware.SameEmail("email"),
	)
	e.GET("/roles/users/:email", d.Users.RoleFlags, self, d.limit())

	g := e.Group("/users/:email", self, d.limit())
	g.GET("/selected-classes", d.Users.SelectedClasses)
	g.GET("/enrolled-classes", d.Users.EnrolledClasses)
	g.PATCH("/select", d.Users.Select)
	g.PATCH("/deselect", d.Users.Deselect)
	g.PATCH("/enroll", d.Users.Enroll, d.invalidate())
}

// RegisterInstructor registers class creation and listing for instructors.
func RegisterInstructor(e *echo.Echo, d Deps) {
	e.POST("/instructors/add-class", d.Instructor.AddClass,
		middleware.Guard(
			middleware.Authenticated(d.Tokens),
			middleware.HasRole(d.Roles, model.RoleInstructor),
		),
		d.limit(),
		d.invalidate(),
	)
	e.GET("/instructors/:email/classes", d.Instructor.MyClasses,
		middleware.Guard(
			middleware.Authenticated(d.Tokens),
			middleware.SameEmail("email"),
			middleware.HasRole(d.Roles, model.RoleInstructor),
		),
		d.limit(),
	)
}

// RegisterAdmin registers admin-only management routes.  Identity is
// verified before the role lookup.
func RegisterAdmin(e *echo.Echo, d Deps) {
	admin := middleware.Guard(
		middleware.Authenticated(d.Tokens),
		middleware.HasRole(d.Roles, model.RoleAdmin),
	)
	e.GET("/manage-users", d.Admin.ListUsers, admin, d.limit())
	e.PATCH("/manage-users/role", d.Admin.SetRole, admin, d.limit())
	e.PATCH("/manage-classes/status", d.Admin.SetClassStatus, admin, d.limit(), d.invalidate())
	e.GET("/manage-classes/:id/enrollments", d.Admin.ClassEnrollments, admin, d.limit())
}

// Register mounts every route group.
func Register(e *echo.Echo, d Deps) {
	RegisterRoutes(e, d)
	RegisterUser(e, d)
	RegisterInstructor(e, d)
	RegisterAdmin(e, d)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/melody-camp/internal/model"
	"github.com/iliyamo/melody-camp/internal/repository"
)

// UserService covers registration, role resolution and the admin-only
// role and status mutations.
type UserService struct {
	users   UserStore
	classes ClassStore
}

func NewUserService(users UserStore, classes ClassStore) *UserService {
	return &UserService{users: users, classes: classes}
}

// Registration is the body of POST /users.
type Registration struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Photo string `json:"photo"`
}

// Register creates a student account.  Registering an existing email is a
// no-op and reports created=false.
func (s *UserService) Register(ctx context.Context, r Registration) (model.User, bool, error) {
	email := repository.NormalizeEmail(r.Email)
	if email == "" || !strings.Contains(email, "@") {
		return model.User{}, false, fmt.Errorf("%w: a valid email is required", ErrValidation)
	}
	existing, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return model.User{}, false, err
	}
	u := model.User{
		Email: email,
		Name:  strings.TrimSpace(r.Name),
		Photo: strings.TrimSpace(r.Photo),
		Role:  model.RoleStudent,
	}
	if err := s.users.Insert(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			// lost a race with a concurrent registration
			existing, ferr := s.users.FindByEmail(ctx, email)
			if ferr != nil {
				return model.User{}, false, ferr
			}
			return existing, false, nil
		}
		return model.User{}, false, err
	}
	return u, true, nil
}

// ResolveRole looks up the stored role of a verified identity.  Users
// without an explicit role are students.
func (s *UserService) ResolveRole(ctx context.Context, email string) (model.Role, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if u.Role == "" {
		return model.RoleStudent, nil
	}
	return u.Role, nil
}

// ListUsers returns all users for the admin view.
func (s *UserService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.users.List(ctx)
}

// SetUserRole overwrites a user's role after validating it.
func (s *UserService) SetUserRole(ctx context.Context, email string, role model.Role) error {
	if strings.TrimSpace(email) == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	role = model.Role(strings.ToLower(strings.TrimSpace(string(role))))
	if !role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}
	return s.users.SetRole(ctx, email, role)
}

// SetClassStatus overwrites a class's review status after validating it.
func (s *UserService) SetClassStatus(ctx context.Context, classID string, status model.ClassStatus) error {
	if strings.TrimSpace(classID) == "" {
		return fmt.Errorf("%w: classId is required", ErrValidation)
	}
	status = model.ClassStatus(strings.ToLower(strings.TrimSpace(string(status))))
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	return s.classes.SetStatus(ctx, classID, status)
}

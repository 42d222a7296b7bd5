package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/iliyamo/melody-camp/internal/model"
)

// RankingLimit is the number of rows shown by the popular listings.
const RankingLimit = 6

// CatalogService serves the public class and instructor listings, the
// rankings and class creation by instructors.
type CatalogService struct {
	users       UserStore
	classes     ClassStore
	instructors InstructorStore
}

func NewCatalogService(users UserStore, classes ClassStore, instructors InstructorStore) *CatalogService {
	return &CatalogService{users: users, classes: classes, instructors: instructors}
}

// ApprovedClasses lists classes visible to students.
func (s *CatalogService) ApprovedClasses(ctx context.Context) ([]model.Class, error) {
	return s.classes.ListByStatus(ctx, model.StatusApproved)
}

// AllClasses lists every class for the management view.
func (s *CatalogService) AllClasses(ctx context.Context) ([]model.Class, error) {
	return s.classes.ListAll(ctx)
}

// PopularClasses returns the classes with the highest seat counters.
func (s *CatalogService) PopularClasses(ctx context.Context) ([]model.Class, error) {
	return s.classes.Popular(ctx, RankingLimit)
}

// Instructors lists every instructor.
func (s *CatalogService) Instructors(ctx context.Context) ([]model.Instructor, error) {
	return s.instructors.List(ctx)
}

// PopularInstructors ranks instructors by the total number of students
// enrolled across their classes.
func (s *CatalogService) PopularInstructors(ctx context.Context) ([]model.InstructorRanking, error) {
	return s.instructors.Ranking(ctx, RankingLimit)
}

// InstructorClasses lists the classes owned by one instructor.
func (s *CatalogService) InstructorClasses(ctx context.Context, email string) ([]model.Class, error) {
	return s.classes.ListByInstructor(ctx, email)
}

// NewClass is the instructor-supplied part of a class.
type NewClass struct {
	Name           string  `json:"name"`
	Image          string  `json:"image"`
	InstructorName string  `json:"instructorName"`
	AvailableSeats int     `json:"availableSeats"`
	Price          float64 `json:"price"`
}

// CreateClass stores a pending class owned by instructorEmail and links it
// to the instructor's user document.
func (s *CatalogService) CreateClass(ctx context.Context, instructorEmail string, in NewClass) (model.Class, error) {
	instructorEmail = strings.ToLower(strings.TrimSpace(instructorEmail))
	in.Name = strings.TrimSpace(in.Name)
	switch {
	case instructorEmail == "":
		return model.Class{}, fmt.Errorf("%w: instructor email is required", ErrValidation)
	case in.Name == "":
		return model.Class{}, fmt.Errorf("%w: name is required", ErrValidation)
	case in.AvailableSeats <= 0:
		return model.Class{}, fmt.Errorf("%w: availableSeats must be positive", ErrValidation)
	case in.Price < 0:
		return model.Class{}, fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	u, err := s.users.FindByEmail(ctx, instructorEmail)
	if err != nil {
		return model.Class{}, err
	}
	name := strings.TrimSpace(in.InstructorName)
	if name == "" {
		name = u.Name
	}
	c := model.Class{
		Name:            in.Name,
		Image:           in.Image,
		InstructorName:  name,
		InstructorEmail: instructorEmail,
		AvailableSeats:  in.AvailableSeats,
		Price:           in.Price,
		Status:          model.StatusPending,
	}
	if err := s.classes.Insert(ctx, &c); err != nil {
		return model.Class{}, err
	}
	if err := s.users.AddOwnedClass(ctx, instructorEmail, c.ID.Hex()); err != nil {
		return model.Class{}, err
	}
	return c, nil
}

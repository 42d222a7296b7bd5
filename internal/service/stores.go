package service

import (
	"context"

	"github.com/iliyamo/melody-camp/internal/model"
	"github.com/iliyamo/melody-camp/internal/queue"
)

// UserStore is the subset of the users collection the services need.
// repository.UserRepo implements it.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (model.User, error)
	Insert(ctx context.Context, u *model.User) error
	List(ctx context.Context) ([]model.User, error)
	SetRole(ctx context.Context, email string, role model.Role) error
	AddSelected(ctx context.Context, email, classID string) (bool, error)
	RemoveSelected(ctx context.Context, email, classID string) error
	ClaimEnrollment(ctx context.Context, email, classID string) (bool, error)
	ReleaseEnrollment(ctx context.Context, email, classID string, restoreSelection bool) error
	AddOwnedClass(ctx context.Context, email, classID string) error
}

// ClassStore is the subset of the classes collection the services need.
type ClassStore interface {
	Insert(ctx context.Context, c *model.Class) error
	FindByID(ctx context.Context, id string) (model.Class, error)
	FindByIDs(ctx context.Context, ids []string) ([]model.Class, error)
	ListByStatus(ctx context.Context, status model.ClassStatus) ([]model.Class, error)
	ListAll(ctx context.Context) ([]model.Class, error)
	ListByInstructor(ctx context.Context, email string) ([]model.Class, error)
	Popular(ctx context.Context, limit int64) ([]model.Class, error)
	IncrementEnrolled(ctx context.Context, id string) (bool, error)
	SetStatus(ctx context.Context, id string, status model.ClassStatus) error
}

// InstructorStore reads instructors and runs the ranking aggregation.
type InstructorStore interface {
	List(ctx context.Context) ([]model.Instructor, error)
	Ranking(ctx context.Context, limit int64) ([]model.InstructorRanking, error)
}

// Transactor groups store calls into one unit of work when the store
// supports it.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventPublisher announces completed enrollments.
type EventPublisher interface {
	PublishEnrollment(ctx context.Context, ev queue.EnrollmentEvent) error
}

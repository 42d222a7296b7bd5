package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/melody-camp/internal/model"
	"github.com/iliyamo/melody-camp/internal/queue"
	"github.com/iliyamo/melody-camp/internal/repository"
)

// EnrollmentService moves class ids between a user's selected and enrolled
// sets and keeps the class seat counter in step.
//
// Enroll touches two documents.  With a transactional Transactor the steps
// commit together.  Without one they run in a fixed order where the user
// document is claimed first; the seat counter is only incremented by the
// caller that won the claim, and a failed increment releases the claim, so
// repeating Enroll after a partial failure never counts a seat twice.
type EnrollmentService struct {
	users   UserStore
	classes ClassStore
	tx      Transactor
	events  EventPublisher
	now     func() time.Time
}

// NewEnrollmentService wires the workflow.  tx and events may be nil.
func NewEnrollmentService(users UserStore, classes ClassStore, tx Transactor, events EventPublisher) *EnrollmentService {
	if users == nil || classes == nil {
		panic("nil store passed to NewEnrollmentService")
	}
	return &EnrollmentService{users: users, classes: classes, tx: tx, events: events, now: time.Now}
}

// EnrollResult reports the outcome of Enroll.
type EnrollResult struct {
	Class           model.Class `json:"class"`
	AlreadyEnrolled bool        `json:"alreadyEnrolled"`
}

func requireIDs(email, classID string) error {
	if strings.TrimSpace(email) == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	if strings.TrimSpace(classID) == "" {
		return fmt.Errorf("%w: classId is required", ErrValidation)
	}
	return nil
}

// canonicalID returns the lower-case hex form of an object id.  The user
// class lists store ids as strings, so every spelling must collapse to one
// before it is compared or written.  Malformed ids pass through unchanged
// and are rejected by the class lookup.
func canonicalID(classID string) string {
	oid, err := repository.ParseClassID(classID)
	if err != nil {
		return classID
	}
	return oid.Hex()
}

func requireOpen(c model.Class) error {
	if c.Status != model.StatusApproved {
		return fmt.Errorf("%w: class is not open for enrollment", ErrValidation)
	}
	return nil
}

// Select adds classID to the user's selection.  Selecting twice is a no-op.
// Only approved classes can be selected.
func (s *EnrollmentService) Select(ctx context.Context, email, classID string) error {
	if err := requireIDs(email, classID); err != nil {
		return err
	}
	classID = canonicalID(classID)
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		return err
	}
	if err := requireOpen(class); err != nil {
		return err
	}
	added, err := s.users.AddSelected(ctx, email, classID)
	if err != nil {
		return err
	}
	if !added {
		return ErrAlreadyEnrolled
	}
	return nil
}

// Deselect removes classID from the selection.  Removing an id that is not
// selected succeeds.
func (s *EnrollmentService) Deselect(ctx context.Context, email, classID string) error {
	if err := requireIDs(email, classID); err != nil {
		return err
	}
	return s.users.RemoveSelected(ctx, email, canonicalID(classID))
}

// Enroll performs the composite enrollment: claim the class on the user
// document (add to enrolled, pull from selected), then take a seat.  A
// repeated call for an already enrolled pair changes nothing and reports
// AlreadyEnrolled.
func (s *EnrollmentService) Enroll(ctx context.Context, email, classID string) (EnrollResult, error) {
	if err := requireIDs(email, classID); err != nil {
		return EnrollResult{}, err
	}
	classID = canonicalID(classID)
	var res EnrollResult
	err := s.withTx(ctx, func(ctx context.Context) error {
		res = EnrollResult{}
		u, err := s.users.FindByEmail(ctx, email)
		if err != nil {
			return err
		}
		class, err := s.classes.FindByID(ctx, classID)
		if err != nil {
			return err
		}
		res.Class = class

		if u.HasEnrolled(classID) {
			res.AlreadyEnrolled = true
			if u.HasSelected(classID) {
				return s.users.RemoveSelected(ctx, email, classID)
			}
			return nil
		}
		if err := requireOpen(class); err != nil {
			return err
		}

		wasSelected := u.HasSelected(classID)
		claimed, err := s.users.ClaimEnrollment(ctx, email, classID)
		if err != nil {
			return err
		}
		if !claimed {
			// a concurrent Enroll for the same pair got there first
			res.AlreadyEnrolled = true
			return nil
		}

		seated, err := s.classes.IncrementEnrolled(ctx, classID)
		if err == nil && seated {
			res.Class.EnrolledStudents++
			return nil
		}
		if rerr := s.users.ReleaseEnrollment(ctx, email, classID, wasSelected); rerr != nil {
			log.Printf("enrollment: release claim user=%s class=%s failed: %v", email, classID, rerr)
		}
		if err != nil {
			return err
		}
		// the increment also misses when the class was removed after the
		// lookup above
		if _, ferr := s.classes.FindByID(ctx, classID); ferr != nil {
			return ferr
		}
		return ErrClassFull
	})
	if err != nil {
		return EnrollResult{}, err
	}
	if !res.AlreadyEnrolled {
		s.publish(ctx, email, res.Class)
	}
	return res, nil
}

// SelectedClasses resolves the user's selection to class documents.
// Dangling ids are skipped.
func (s *EnrollmentService) SelectedClasses(ctx context.Context, email string) ([]model.Class, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return s.classes.FindByIDs(ctx, u.SelectedClasses)
}

// EnrolledClasses resolves the user's enrolled set to class documents.
func (s *EnrollmentService) EnrolledClasses(ctx context.Context, email string) ([]model.Class, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return s.classes.FindByIDs(ctx, u.EnrolledClasses)
}

func (s *EnrollmentService) withTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.tx == nil {
		return fn(ctx)
	}
	return s.tx.WithTransaction(ctx, fn)
}

// publish is best-effort: the enrollment is already committed.
func (s *EnrollmentService) publish(ctx context.Context, email string, class model.Class) {
	if s.events == nil {
		return
	}
	ev := queue.EnrollmentEvent{
		EventID:         uuid.NewString(),
		UserEmail:       strings.ToLower(strings.TrimSpace(email)),
		ClassID:         class.ID.Hex(),
		ClassName:       class.Name,
		InstructorEmail: class.InstructorEmail,
		EnrolledAt:      s.now().UTC(),
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.events.PublishEnrollment(pctx, ev); err != nil {
		log.Printf("enrollment: publish event %s failed: %v", ev.EventID, err)
	}
}

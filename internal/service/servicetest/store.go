// Package servicetest provides in-memory implementations of the service
// store interfaces for tests.  They follow the repository contracts: same
// sentinel errors, set semantics on the user class lists, and an atomic
// capacity-guarded seat increment.
package servicetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/iliyamo/melody-camp/internal/model"
	"github.com/iliyamo/melody-camp/internal/queue"
	"github.com/iliyamo/melody-camp/internal/repository"
)

// Store holds users, classes and instructors behind one mutex, so every
// method is atomic the way a single-document update is.
type Store struct {
	mu          sync.Mutex
	users       map[string]*model.User
	classes     map[string]*model.Class
	order       []string
	instructors []model.Instructor

	// Fail, when set, is returned by the next call named by FailOn.
	Fail   error
	FailOn string
	// Calls counts invocations per method name.
	Calls map[string]int
	// Before, when set, runs ahead of every call with the method name.  It
	// runs without the lock held, so it may use the seeding helpers.
	Before func(name string)
}

func NewStore() *Store {
	return &Store{
		users:   map[string]*model.User{},
		classes: map[string]*model.Class{},
		Calls:   map[string]int{},
	}
}

func (s *Store) enter(name string) error {
	if s.Before != nil {
		s.Before(name)
	}
	s.mu.Lock()
	s.Calls[name]++
	if s.Fail != nil && s.FailOn == name {
		err := s.Fail
		s.Fail = nil
		return err
	}
	return nil
}

// Users returns the UserStore view.
func (s *Store) Users() *Users { return &Users{s} }

// Classes returns the ClassStore view.
func (s *Store) Classes() *Classes { return &Classes{s} }

// Instructors returns the InstructorStore view.
func (s *Store) Instructors() *Instructors { return &Instructors{s} }

// AddUser seeds a user document.
func (s *Store) AddUser(u model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.Email = repository.NormalizeEmail(u.Email)
	if u.Role == "" {
		u.Role = model.RoleStudent
	}
	cp := u
	s.users[u.Email] = &cp
}

// AddClass seeds a class and returns its hex id.
func (s *Store) AddClass(c model.Class) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	id := c.ID.Hex()
	cp := c
	s.classes[id] = &cp
	s.order = append(s.order, id)
	return id
}

// DeleteClass removes a class document, leaving dangling references.
func (s *Store) DeleteClass(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.classes, classKey(id))
}

// classKey resolves an id the way the class collection does: any hex
// spelling of an object id names the same document.
func classKey(id string) string {
	oid, err := repository.ParseClassID(id)
	if err != nil {
		return id
	}
	return oid.Hex()
}

// AddInstructor seeds an instructor document.
func (s *Store) AddInstructor(in model.Instructor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if in.ID.IsZero() {
		in.ID = primitive.NewObjectID()
	}
	s.instructors = append(s.instructors, in)
}

// User returns a copy of a stored user.
func (s *Store) User(email string) (model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[repository.NormalizeEmail(email)]
	if !ok {
		return model.User{}, false
	}
	return copyUser(*u), true
}

// Class returns a copy of a stored class.
func (s *Store) Class(id string) (model.Class, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.classes[classKey(id)]
	if !ok {
		return model.Class{}, false
	}
	return *c, true
}

// UserCount reports how many user documents exist.
func (s *Store) UserCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

func copyUser(u model.User) model.User {
	u.SelectedClasses = append([]string{}, u.SelectedClasses...)
	u.EnrolledClasses = append([]string{}, u.EnrolledClasses...)
	u.Classes = append([]string{}, u.Classes...)
	return u
}

func addToSet(ids []string, id string) []string {
	for _, v := range ids {
		if v == id {
			return ids
		}
	}
	return append(ids, id)
}

func pull(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// Users implements service.UserStore.
type Users struct{ s *Store }

func (u *Users) FindByEmail(_ context.Context, email string) (model.User, error) {
	if err := u.s.enter("FindByEmail"); err != nil {
		u.s.mu.Unlock()
		return model.User{}, err
	}
	defer u.s.mu.Unlock()
	doc, ok := u.s.users[repository.NormalizeEmail(email)]
	if !ok {
		return model.User{}, repository.ErrUserNotFound
	}
	return copyUser(*doc), nil
}

func (u *Users) Insert(_ context.Context, doc *model.User) error {
	if err := u.s.enter("Insert"); err != nil {
		u.s.mu.Unlock()
		return err
	}
	defer u.s.mu.Unlock()
	doc.Email = repository.NormalizeEmail(doc.Email)
	if _, ok := u.s.users[doc.Email]; ok {
		return repository.ErrUserExists
	}
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	if doc.Role == "" {
		doc.Role = model.RoleStudent
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	cp := copyUser(*doc)
	u.s.users[doc.Email] = &cp
	return nil
}

func (u *Users) List(_ context.Context) ([]model.User, error) {
	if err := u.s.enter("List"); err != nil {
		u.s.mu.Unlock()
		return nil, err
	}
	defer u.s.mu.Unlock()
	out := make([]model.User, 0, len(u.s.users))
	for _, doc := range u.s.users {
		out = append(out, copyUser(*doc))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (u *Users) mutate(name, email string, fn func(doc *model.User)) error {
	if err := u.s.enter(name); err != nil {
		u.s.mu.Unlock()
		return err
	}
	defer u.s.mu.Unlock()
	doc, ok := u.s.users[repository.NormalizeEmail(email)]
	if !ok {
		return repository.ErrUserNotFound
	}
	fn(doc)
	return nil
}

func (u *Users) SetRole(_ context.Context, email string, role model.Role) error {
	return u.mutate("SetRole", email, func(doc *model.User) { doc.Role = role })
}

func (u *Users) AddSelected(_ context.Context, email, classID string) (bool, error) {
	if err := u.s.enter("AddSelected"); err != nil {
		u.s.mu.Unlock()
		return false, err
	}
	defer u.s.mu.Unlock()
	doc, ok := u.s.users[repository.NormalizeEmail(email)]
	if !ok {
		return false, repository.ErrUserNotFound
	}
	if doc.HasEnrolled(classID) {
		return false, nil
	}
	doc.SelectedClasses = addToSet(doc.SelectedClasses, classID)
	return true, nil
}

func (u *Users) RemoveSelected(_ context.Context, email, classID string) error {
	return u.mutate("RemoveSelected", email, func(doc *model.User) {
		doc.SelectedClasses = pull(doc.SelectedClasses, classID)
	})
}

func (u *Users) ClaimEnrollment(_ context.Context, email, classID string) (bool, error) {
	if err := u.s.enter("ClaimEnrollment"); err != nil {
		u.s.mu.Unlock()
		return false, err
	}
	defer u.s.mu.Unlock()
	doc, ok := u.s.users[repository.NormalizeEmail(email)]
	if !ok || doc.HasEnrolled(classID) {
		return false, nil
	}
	doc.EnrolledClasses = addToSet(doc.EnrolledClasses, classID)
	doc.SelectedClasses = pull(doc.SelectedClasses, classID)
	return true, nil
}

func (u *Users) ReleaseEnrollment(_ context.Context, email, classID string, restoreSelection bool) error {
	return u.mutate("ReleaseEnrollment", email, func(doc *model.User) {
		doc.EnrolledClasses = pull(doc.EnrolledClasses, classID)
		if restoreSelection {
			doc.SelectedClasses = addToSet(doc.SelectedClasses, classID)
		}
	})
}

func (u *Users) AddOwnedClass(_ context.Context, email, classID string) error {
	return u.mutate("AddOwnedClass", email, func(doc *model.User) {
		doc.Classes = addToSet(doc.Classes, classID)
	})
}

// Classes implements service.ClassStore.
type Classes struct{ s *Store }

func (c *Classes) Insert(_ context.Context, doc *model.Class) error {
	if err := c.s.enter("InsertClass"); err != nil {
		c.s.mu.Unlock()
		return err
	}
	c.s.mu.Unlock()
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	c.s.AddClass(*doc)
	return nil
}

func (c *Classes) FindByID(_ context.Context, id string) (model.Class, error) {
	if err := c.s.enter("FindByID"); err != nil {
		c.s.mu.Unlock()
		return model.Class{}, err
	}
	defer c.s.mu.Unlock()
	oid, err := repository.ParseClassID(id)
	if err != nil {
		return model.Class{}, err
	}
	doc, ok := c.s.classes[oid.Hex()]
	if !ok {
		return model.Class{}, repository.ErrClassNotFound
	}
	return *doc, nil
}

func (c *Classes) filter(name string, keep func(*model.Class) bool) ([]model.Class, error) {
	if err := c.s.enter(name); err != nil {
		c.s.mu.Unlock()
		return nil, err
	}
	defer c.s.mu.Unlock()
	out := []model.Class{}
	for _, id := range c.s.order {
		if doc, ok := c.s.classes[id]; ok && keep(doc) {
			out = append(out, *doc)
		}
	}
	return out, nil
}

func (c *Classes) FindByIDs(_ context.Context, ids []string) ([]model.Class, error) {
	want := map[string]bool{}
	for _, id := range ids {
		want[id] = true
	}
	return c.filter("FindByIDs", func(doc *model.Class) bool { return want[doc.ID.Hex()] })
}

func (c *Classes) ListByStatus(_ context.Context, status model.ClassStatus) ([]model.Class, error) {
	return c.filter("ListByStatus", func(doc *model.Class) bool { return doc.Status == status })
}

func (c *Classes) ListAll(_ context.Context) ([]model.Class, error) {
	return c.filter("ListAll", func(*model.Class) bool { return true })
}

func (c *Classes) ListByInstructor(_ context.Context, email string) ([]model.Class, error) {
	email = repository.NormalizeEmail(email)
	return c.filter("ListByInstructor", func(doc *model.Class) bool { return doc.InstructorEmail == email })
}

func (c *Classes) Popular(ctx context.Context, limit int64) ([]model.Class, error) {
	all, err := c.filter("Popular", func(*model.Class) bool { return true })
	if err != nil {
		return nil, err
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].EnrolledStudents > all[j].EnrolledStudents })
	if int64(len(all)) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (c *Classes) IncrementEnrolled(_ context.Context, id string) (bool, error) {
	if err := c.s.enter("IncrementEnrolled"); err != nil {
		c.s.mu.Unlock()
		return false, err
	}
	defer c.s.mu.Unlock()
	doc, ok := c.s.classes[classKey(id)]
	if !ok || doc.EnrolledStudents >= doc.AvailableSeats {
		return false, nil
	}
	doc.EnrolledStudents++
	return true, nil
}

func (c *Classes) SetStatus(_ context.Context, id string, status model.ClassStatus) error {
	if err := c.s.enter("SetStatus"); err != nil {
		c.s.mu.Unlock()
		return err
	}
	defer c.s.mu.Unlock()
	oid, err := repository.ParseClassID(id)
	if err != nil {
		return err
	}
	doc, ok := c.s.classes[oid.Hex()]
	if !ok {
		return repository.ErrClassNotFound
	}
	doc.Status = status
	return nil
}

// Instructors implements service.InstructorStore.  Ranking evaluates the
// same join, sum and sort as the Mongo aggregation pipeline.
type Instructors struct{ s *Store }

func (in *Instructors) List(_ context.Context) ([]model.Instructor, error) {
	if err := in.s.enter("ListInstructors"); err != nil {
		in.s.mu.Unlock()
		return nil, err
	}
	defer in.s.mu.Unlock()
	return append([]model.Instructor{}, in.s.instructors...), nil
}

func (in *Instructors) Ranking(_ context.Context, limit int64) ([]model.InstructorRanking, error) {
	if err := in.s.enter("Ranking"); err != nil {
		in.s.mu.Unlock()
		return nil, err
	}
	defer in.s.mu.Unlock()
	out := make([]model.InstructorRanking, 0, len(in.s.instructors))
	for _, inst := range in.s.instructors {
		row := model.InstructorRanking{Instructor: inst}
		for _, id := range in.s.order {
			if c, ok := in.s.classes[id]; ok && c.InstructorEmail == inst.Email {
				row.ClassCount++
				row.TotalStudents += c.EnrolledStudents
			}
		}
		out = append(out, row)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalStudents > out[j].TotalStudents })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Tx records how many units of work ran.
type Tx struct {
	mu   sync.Mutex
	Runs int
}

func (t *Tx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	t.Runs++
	t.mu.Unlock()
	return fn(ctx)
}

// Publisher collects published events.
type Publisher struct {
	mu     sync.Mutex
	Events []queue.EnrollmentEvent
	Err    error
}

func (p *Publisher) PublishEnrollment(_ context.Context, ev queue.EnrollmentEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.Events = append(p.Events, ev)
	return nil
}

// Published returns a copy of the collected events.
func (p *Publisher) Published() []queue.EnrollmentEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]queue.EnrollmentEvent{}, p.Events...)
}

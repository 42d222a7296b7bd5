package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is the access level stored on a user document.
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
)

// Valid reports whether r is one of the recognised roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	}
	return false
}

// User mirrors a document in the `users` collection.  Email is the natural
// key.  SelectedClasses and EnrolledClasses hold class ids as hex strings
// and behave as sets; a class id is never in both at once.  Classes lists
// the classes an instructor created.
type User struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Email           string             `bson:"email" json:"email"`
	Name            string             `bson:"name,omitempty" json:"name,omitempty"`
	Photo           string             `bson:"photo,omitempty" json:"photo,omitempty"`
	Role            Role               `bson:"role" json:"role"`
	SelectedClasses []string           `bson:"selectedClasses" json:"selectedClasses"`
	EnrolledClasses []string           `bson:"enrolledClasses" json:"enrolledClasses"`
	Classes         []string           `bson:"classes" json:"classes"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
}

// HasSelected reports whether classID is in the user's selection.
func (u User) HasSelected(classID string) bool { return contains(u.SelectedClasses, classID) }

// HasEnrolled reports whether classID is in the user's enrolled set.
func (u User) HasEnrolled(classID string) bool { return contains(u.EnrolledClasses, classID) }

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// RoleFlags is the shape returned to clients for UI gating.
type RoleFlags struct {
	Admin      bool `json:"admin"`
	Instructor bool `json:"instructor"`
	Student    bool `json:"student"`
}

// FlagsFor expands a role into RoleFlags.
func FlagsFor(r Role) RoleFlags {
	return RoleFlags{
		Admin:      r == RoleAdmin,
		Instructor: r == RoleInstructor,
		Student:    r == RoleStudent,
	}
}

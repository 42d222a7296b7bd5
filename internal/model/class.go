package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ClassStatus is the review state of a class.
type ClassStatus string

const (
	StatusPending  ClassStatus = "pending"
	StatusApproved ClassStatus = "approved"
	StatusDenied   ClassStatus = "denied"
)

// Valid reports whether s is a recognised status.
func (s ClassStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusDenied:
		return true
	}
	return false
}

// Class mirrors a document in the `classes` collection.  AvailableSeats is
// the capacity; EnrolledStudents is the seat counter and stays within
// [0, AvailableSeats].
type Class struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name             string             `bson:"name" json:"name"`
	Image            string             `bson:"image,omitempty" json:"image,omitempty"`
	InstructorName   string             `bson:"instructorName" json:"instructorName"`
	InstructorEmail  string             `bson:"instructorEmail" json:"instructorEmail"`
	AvailableSeats   int                `bson:"availableSeats" json:"availableSeats"`
	Price            float64            `bson:"price" json:"price"`
	Status           ClassStatus        `bson:"status" json:"status"`
	Feedback         string             `bson:"feedback,omitempty" json:"feedback,omitempty"`
	EnrolledStudents int                `bson:"enrolledStudents" json:"enrolledStudents"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
}

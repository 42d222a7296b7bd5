// Package queue defines message payloads exchanged over the message broker
// and the background consumer that records them.
package queue

import "time"

// EnrollmentQueue is the durable queue carrying EnrollmentEvent messages.
const EnrollmentQueue = "enrollment.confirmed"

// EnrollmentEvent is published once per first-time enrollment.  EventID
// lets consumers drop redeliveries.
type EnrollmentEvent struct {
	EventID         string    `json:"event_id"`
	UserEmail       string    `json:"user_email"`
	ClassID         string    `json:"class_id"`
	ClassName       string    `json:"class_name"`
	InstructorEmail string    `json:"instructor_email"`
	EnrolledAt      time.Time `json:"enrolled_at"`
}

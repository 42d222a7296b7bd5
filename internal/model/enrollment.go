package model

import "time"

// AuditEntry is one row of the MySQL `enrollment_audit` ledger.
type AuditEntry struct {
	ID              uint64    `json:"id"`
	EventID         string    `json:"event_id"`
	UserEmail       string    `json:"user_email"`
	ClassID         string    `json:"class_id"`
	ClassName       string    `json:"class_name"`
	InstructorEmail string    `json:"instructor_email"`
	EnrolledAt      time.Time `json:"enrolled_at"`
	RecordedAt      time.Time `json:"recorded_at"`
}

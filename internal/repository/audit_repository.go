package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/melody-camp/internal/model"
)

// AuditRepo writes and reads the enrollment ledger kept in MySQL.  The
// ledger is fed asynchronously from the enrollment.confirmed queue and is
// never consulted by the enrollment workflow itself.
type AuditRepo struct{ db *sql.DB }

func NewAuditRepo(db *sql.DB) *AuditRepo { return &AuditRepo{db: db} }

// Record inserts one ledger row.  Redelivered events carry the same
// event_id and are ignored, so Record reports whether a row was written.
func (r *AuditRepo) Record(ctx context.Context, e model.AuditEntry) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT IGNORE INTO enrollment_audit (event_id, user_email, class_id, class_name, instructor_email, enrolled_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.EventID, e.UserEmail, e.ClassID, e.ClassName, e.InstructorEmail, e.EnrolledAt.UTC())
	if err != nil {
		return false, storeErr("record audit", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storeErr("record audit", err)
	}
	return n == 1, nil
}

// ListByClass returns ledger rows for one class, newest first.
func (r *AuditRepo) ListByClass(ctx context.Context, classID string, limit int) ([]model.AuditEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, event_id, user_email, class_id, class_name, instructor_email, enrolled_at, recorded_at
		 FROM enrollment_audit WHERE class_id = ? ORDER BY enrolled_at DESC, id DESC LIMIT ?`,
		classID, limit)
	if err != nil {
		return nil, storeErr("list audit", err)
	}
	defer rows.Close()

	out := []model.AuditEntry{}
	for rows.Next() {
		var (
			e          model.AuditEntry
			recordedAt sql.NullTime
		)
		if err := rows.Scan(&e.ID, &e.EventID, &e.UserEmail, &e.ClassID, &e.ClassName,
			&e.InstructorEmail, &e.EnrolledAt, &recordedAt); err != nil {
			return nil, storeErr("scan audit", err)
		}
		if recordedAt.Valid {
			e.RecordedAt = recordedAt.Time
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list audit", err)
	}
	return out, nil
}

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Open connects to the MySQL audit ledger and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// The ledger is written by a single consumer and read by admins only.
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// auditSchema is applied at startup; the ledger has a single table.
const auditSchema = `CREATE TABLE IF NOT EXISTS enrollment_audit (
	id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
	event_id CHAR(36) NOT NULL,
	user_email VARCHAR(320) NOT NULL,
	class_id CHAR(24) NOT NULL,
	class_name VARCHAR(255) NOT NULL DEFAULT '',
	instructor_email VARCHAR(320) NOT NULL DEFAULT '',
	enrolled_at DATETIME NOT NULL,
	recorded_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE KEY uq_enrollment_audit_event (event_id),
	KEY idx_enrollment_audit_class (class_id, enrolled_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

// MigrateAudit creates the enrollment_audit table when it does not exist.
func MigrateAudit(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, auditSchema); err != nil {
		return fmt.Errorf("migrate enrollment_audit: %w", err)
	}
	return nil
}

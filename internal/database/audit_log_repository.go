package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/medipulse/medipulse/internal/models"
)

// AuditLogRepository mirrors the coordinator audit log into Postgres.
type AuditLogRepository struct {
	db *sql.DB
}

// NewAuditLogRepository creates a new audit log repository.
func NewAuditLogRepository(db *sql.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

// Append stores one audit entry.
func (r *AuditLogRepository) Append(ctx context.Context, entry models.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	query := `
		INSERT INTO audit_log (id, emergency_id, message, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.ExecContext(ctx, query, entry.ID, entry.EmergencyID, entry.Message, entry.Timestamp)
	return err
}

// Clear removes every stored entry.
func (r *AuditLogRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM audit_log`)
	return err
}

// List returns the newest entries first, optionally scoped to one emergency.
func (r *AuditLogRepository) List(ctx context.Context, limit int, emergencyID string) ([]models.AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}

	query := `SELECT id, emergency_id, message, created_at FROM audit_log`
	args := []interface{}{}
	if emergencyID != "" {
		query += ` WHERE emergency_id = $1 ORDER BY created_at DESC LIMIT $2`
		args = append(args, emergencyID, limit)
	} else {
		query += ` ORDER BY created_at DESC LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.AuditEntry{}
	for rows.Next() {
		var entry models.AuditEntry
		if err := rows.Scan(&entry.ID, &entry.EmergencyID, &entry.Message, &entry.Timestamp); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// DeleteOlderThan prunes entries older than age.
func (r *AuditLogRepository) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM audit_log WHERE created_at < $1`, time.Now().Add(-age))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

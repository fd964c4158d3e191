package models

import (
	"fmt"
	"time"
)

// AuditEntry is one line of the orchestration audit trail.
type AuditEntry struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	EmergencyID string    `json:"emergency_id,omitempty"`
	Message     string    `json:"message"`
}

// Line renders the entry with its wrapping millisecond counter prefix.
func (e AuditEntry) Line() string {
	return fmt.Sprintf("[%d] %s", e.Timestamp.UnixMilli()%100000, e.Message)
}

package models

import (
	"strings"
	"testing"
	"time"
)

func TestEmergencyStatusCanTransition(t *testing.T) {
	tests := []struct {
		from, to EmergencyStatus
		want     bool
	}{
		{StatusDetected, StatusDispatched, true},
		{StatusDetected, StatusResolved, true},
		{StatusDispatched, StatusEnRoute, true},
		{StatusEnRoute, StatusArrived, true},
		{StatusArrived, StatusResolved, true},
		{StatusDispatched, StatusDetected, false},
		{StatusArrived, StatusEnRoute, false},
		{StatusDetected, StatusDetected, false},
		{StatusEnRoute, StatusCancelled, true},
		{StatusResolved, StatusCancelled, false},
		{StatusCancelled, StatusDispatched, false},
		{StatusDetected, EmergencyStatus("LOST"), false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("%s -> %s: CanTransition = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestNewEmergencyEventDefaults(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	event := NewEmergencyEvent(EmergencyTypeAccident, PriorityHigh, Coordinate{Latitude: 1, Longitude: 2}, "crash", now)

	if event.Status != StatusDetected {
		t.Errorf("expected DETECTED status, got %s", event.Status)
	}
	if !strings.HasPrefix(event.ID, "ACC-") {
		t.Errorf("expected ACC- prefix, got %s", event.ID)
	}
	if !event.Timestamp.Equal(now) {
		t.Errorf("timestamp = %v, want %v", event.Timestamp, now)
	}
}

func TestNewIDDistinctWithinSameMillisecond(t *testing.T) {
	now := time.Now()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewID("MAT", now)
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}

func TestPatientDisplayName(t *testing.T) {
	var missing *PatientRecord
	if got := missing.DisplayName(); got != "Unknown" {
		t.Errorf("nil patient DisplayName = %q", got)
	}
	if got := (&PatientRecord{}).DisplayName(); got != "Unknown" {
		t.Errorf("empty patient DisplayName = %q", got)
	}
	if got := (&PatientRecord{Name: "Asha"}).DisplayName(); got != "Asha" {
		t.Errorf("DisplayName = %q", got)
	}
}

func TestParsePriority(t *testing.T) {
	if p, err := ParsePriority(""); err != nil || p != PriorityHigh {
		t.Errorf("empty priority = %v, %v", p, err)
	}
	if p, err := ParsePriority("CRITICAL"); err != nil || p != PriorityCritical {
		t.Errorf("CRITICAL priority = %v, %v", p, err)
	}
	if _, err := ParsePriority("urgent"); err == nil {
		t.Error("expected error for unknown priority")
	}
}

func TestAuditEntryLineWrapsMillis(t *testing.T) {
	entry := AuditEntry{Timestamp: time.UnixMilli(1_700_000_123_456), Message: "hello"}
	if got := entry.Line(); got != "[23456] hello" {
		t.Errorf("Line() = %q", got)
	}
}

func TestBloodInventoryCloneIsDeep(t *testing.T) {
	inv := BloodInventory{"H001": {"O+": 3}}
	clone := inv.Clone()
	clone["H001"]["O+"] = 0

	if inv["H001"]["O+"] != 3 {
		t.Fatal("mutating clone changed the original inventory")
	}
}

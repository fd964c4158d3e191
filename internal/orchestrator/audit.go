package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medipulse/medipulse/internal/models"
)

const sinkTimeout = 5 * time.Second

// Snapshot is the observable state pushed to subscribers after every change.
type Snapshot struct {
	Emergencies []models.EmergencyEvent `json:"emergencies"`
	Log         []string                `json:"log"`
}

// record appends a formatted line to the audit log, mirrors it to slog and
// the sink, and notifies subscribers.
func (o *Orchestrator) record(ctx context.Context, emergencyID, format string, args ...any) {
	entry := models.AuditEntry{
		ID:          uuid.NewString(),
		Timestamp:   o.now(),
		EmergencyID: emergencyID,
		Message:     fmt.Sprintf(format, args...),
	}

	o.mu.Lock()
	o.audit = append(o.audit, entry)
	o.mu.Unlock()

	o.logger.Info(entry.Message, "emergency_id", emergencyID, "component", "orchestrator")

	if o.sink != nil {
		sinkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sinkTimeout)
		if err := o.sink.Append(sinkCtx, entry); err != nil {
			o.logger.Warn("Failed to persist audit entry", "entry_id", entry.ID, "error", err)
		}
		cancel()
	}

	o.publish()
}

// RecentLog returns the most recent RecentLogSize audit lines, oldest first.
func (o *Orchestrator) RecentLog() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.recentLocked()
}

func (o *Orchestrator) recentLocked() []string {
	entries := o.audit
	if len(entries) > RecentLogSize {
		entries = entries[len(entries)-RecentLogSize:]
	}
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.Line()
	}
	return lines
}

// FullLog returns every audit entry since the last clear.
func (o *Orchestrator) FullLog() []models.AuditEntry {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]models.AuditEntry(nil), o.audit...)
}

// ClearLog empties the audit log. Active emergencies are untouched.
func (o *Orchestrator) ClearLog(ctx context.Context) error {
	o.mu.Lock()
	o.audit = nil
	o.mu.Unlock()

	o.logger.Info("Audit log cleared")
	o.publish()

	if o.sink != nil {
		if err := o.sink.Clear(ctx); err != nil {
			return fmt.Errorf("failed to clear persisted audit log: %w", err)
		}
	}
	return nil
}

// Subscribe returns a channel that receives the current state and every
// later change. Slow subscribers only see the latest snapshot. Call cancel
// to unsubscribe.
func (o *Orchestrator) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	o.subMu.Lock()
	id := o.nextSub
	o.nextSub++
	o.subs[id] = ch
	ch <- o.snapshot()
	o.subMu.Unlock()

	cancel := func() {
		o.subMu.Lock()
		defer o.subMu.Unlock()
		if _, ok := o.subs[id]; ok {
			delete(o.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

func (o *Orchestrator) snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Snapshot{
		Emergencies: append([]models.EmergencyEvent(nil), o.emergencies...),
		Log:         o.recentLocked(),
	}
}

func (o *Orchestrator) publish() {
	o.subMu.Lock()
	defer o.subMu.Unlock()
	if len(o.subs) == 0 {
		return
	}

	snap := o.snapshot()
	for _, ch := range o.subs {
		select {
		case ch <- snap:
			continue
		default:
		}
		// Replace the stale snapshot.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

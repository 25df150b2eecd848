package jobs

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Audit actions recorded by the approval workflows.
const (
	AuditGoaRequested          = "goa_requested"
	AuditGoaApproved           = "goa_approved"
	AuditGoaDenied             = "goa_denied"
	AuditUnsuccessfulRequested = "unsuccessful_requested"
	AuditUnsuccessfulApproved  = "unsuccessful_approved"
	AuditUnsuccessfulDenied    = "unsuccessful_denied"
	AuditJobCanceled           = "job_canceled"
	AuditJobDeleted            = "job_deleted"
	AuditJobReactivated        = "job_reactivated"
)

// ApprovalAuditEntry is one immutable record of an approval-workflow action.
type ApprovalAuditEntry struct {
	ID           string    `json:"id"`
	JobID        string    `json:"jobId"`
	Action       string    `json:"action"`
	PerformedBy  string    `json:"performedBy"`
	PerformedAt  time.Time `json:"performedAt"`
	StatusBefore string    `json:"statusBefore,omitempty"`
	StatusAfter  string    `json:"statusAfter,omitempty"`
	Reason       string    `json:"reason,omitempty"`
}

// AuditRecorder receives approval audit entries. Recorders must not fail the
// action; persistence of the trail is best-effort from the action layer's
// point of view.
type AuditRecorder interface {
	Record(entry ApprovalAuditEntry)
}

// MemoryAuditLog is an in-process AuditRecorder.
type MemoryAuditLog struct {
	mu      sync.Mutex
	entries []ApprovalAuditEntry
}

func (l *MemoryAuditLog) Record(entry ApprovalAuditEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

// Entries returns a copy of the recorded trail.
func (l *MemoryAuditLog) Entries() []ApprovalAuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]ApprovalAuditEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

func newAuditEntry(jobID, action, userID string, at time.Time) ApprovalAuditEntry {
	return ApprovalAuditEntry{
		ID:          uuid.NewString(),
		JobID:       jobID,
		Action:      action,
		PerformedBy: userID,
		PerformedAt: at,
	}
}

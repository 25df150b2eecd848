// Package status defines the job lifecycle state machine: the canonical
// forward-ordered status sequence, the out-of-band terminal states, the
// driver-restricted transition table, and the display-only expiry
// derivation.
package status

import (
	"time"

	"dispatchportal/lib/models"
)

// Job statuses. The first seven form the canonical forward sequence; GOA,
// Unsuccessful, and Expired are out-of-band terminals reached through the
// approval workflows or auto-expiry. AwaitingApproval is the side-channel
// overlay a job sits in while a GOA/Unsuccessful request is pending, and
// Canceled is reached only through the cancel action.
const (
	Pending           = "Pending"
	Scheduled         = "Scheduled"
	PendingAcceptance = "Pending Acceptance"
	Dispatched        = "Dispatched"
	EnRoute           = "En Route"
	OnSite            = "On Site"
	Completed         = "Completed"
	GOA               = "GOA"
	Unsuccessful      = "Unsuccessful"
	Expired           = "Expired"
	AwaitingApproval  = "Awaiting Approval"
	Canceled          = "Canceled"
)

// ordered is the priority table source. Position determines priority;
// statuses outside this list (AwaitingApproval, Canceled, unknowns) get
// priority 0.
var ordered = []string{
	Pending,
	Scheduled,
	PendingAcceptance,
	Dispatched,
	EnRoute,
	OnSite,
	Completed,
	GOA,
	Unsuccessful,
	Expired,
}

// driverSequence is the only movement a driver-restricted user may make.
var driverSequence = map[string]string{
	Dispatched: EnRoute,
	EnRoute:    OnSite,
	OnSite:     Completed,
}

// Canonical returns the statuses a privileged user may set directly, in
// display order.
func Canonical() []string {
	out := make([]string, len(ordered))
	copy(out, ordered)
	return out
}

// Priority returns the forward-ordering rank of a status, derived from its
// position in the canonical sequence. Unknown statuses rank 0 so they never
// satisfy a forward comparison.
func Priority(s string) int {
	for i, name := range ordered {
		if name == s {
			return i + 1
		}
	}
	return 0
}

// CanDriverAdvance reports whether a driver-restricted user may move a job
// from current to target. Only the three single-step advances are allowed;
// skips and regressions are rejected.
func CanDriverAdvance(current, target string) bool {
	return driverSequence[current] == target
}

// DriverProgressions returns the driver-restricted transition table in the
// profile's progression-map shape.
func DriverProgressions() map[string][]string {
	out := make(map[string][]string, len(driverSequence))
	for from, to := range driverSequence {
		out[from] = []string{to}
	}
	return out
}

// UnrestrictedProgressions returns the progression table for privileged
// roles: every canonical status is reachable from any current status,
// including backwards moves like Completed -> Pending. The side-channel
// states (AwaitingApproval, Canceled) appear as sources so a manager can pull
// a job out of them, but never as targets; they are only entered through the
// approval and cancel actions.
func UnrestrictedProgressions() map[string][]string {
	sources := append(Canonical(), AwaitingApproval, Canceled)
	out := make(map[string][]string, len(sources))
	for _, from := range sources {
		targets := make([]string, 0, len(ordered))
		for _, to := range ordered {
			if to != from {
				targets = append(targets, to)
			}
		}
		out[from] = targets
	}
	return out
}

// ForwardChoices filters the canonical statuses to those at or beyond the
// current status's priority. The driver status-update dialog applies this on
// top of the role transition table; both checks must pass.
func ForwardChoices(current string) []string {
	floor := Priority(current)
	var out []string
	for _, s := range ordered {
		if Priority(s) >= floor && s != current {
			out = append(out, s)
		}
	}
	return out
}

// IsTerminal reports whether a status ends the job lifecycle.
func IsTerminal(s string) bool {
	switch s {
	case Completed, Canceled, GOA, Unsuccessful, Expired:
		return true
	}
	return false
}

// IsExpired reports whether a pending-acceptance job has passed its
// auto-reject deadline. This is a display/filtering derivation only: the
// persisted status is flipped by an external background process, and local
// code must never use expiry as authority to transition the job itself.
func IsExpired(job *models.Job, now time.Time) bool {
	if job == nil || job.AutoRejectAt == nil {
		return false
	}
	return job.Status == PendingAcceptance && now.After(*job.AutoRejectAt)
}

// DisplayColor maps a status to the hex color the portal renders it with.
func DisplayColor(s string) string {
	switch s {
	case Pending:
		return "#f59e0b"
	case Scheduled:
		return "#8b5cf6"
	case PendingAcceptance:
		return "#f97316"
	case Dispatched:
		return "#3b82f6"
	case EnRoute:
		return "#06b6d4"
	case OnSite:
		return "#10b981"
	case Completed:
		return "#22c55e"
	case GOA:
		return "#ef4444"
	case Unsuccessful:
		return "#dc2626"
	case Expired:
		return "#6b7280"
	case AwaitingApproval:
		return "#eab308"
	case Canceled:
		return "#9ca3af"
	}
	return "#9ca3af"
}

package models

import "time"

// Approval states for the GOA and Unsuccessful side-channel workflows.
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
	ApprovalDenied   = "denied"
)

// Job is the authorization object and state-machine subject. It mirrors the
// job document handed over by the API layer; the core treats it as plain data
// and never persists it itself.
type Job struct {
	ID       string `json:"id,omitempty"`
	MongoID  string `json:"_id,omitempty"`
	Status   string `json:"status"`
	VendorID string `json:"vendorId,omitempty"`
	Region   string `json:"region,omitempty"`

	// DriverID is authoritative once present. Driver is the display name and
	// may lag DriverID after a fresh dispatch.
	DriverID string `json:"driverId,omitempty"`
	Driver   string `json:"driver,omitempty"`

	// GOA approval side-channel. PreviousStatus holds the active status the
	// job is restored to when a request is denied.
	ApprovalStatus string `json:"approvalStatus,omitempty"`
	GoaReason      string `json:"goaReason,omitempty"`

	// Unsuccessful approval side-channel.
	ApprovalStatusUnsuccessful string `json:"approvalStatusUnsuccessful,omitempty"`
	UnsuccessfulReason         string `json:"unsuccessfulReason,omitempty"`

	PreviousStatus string `json:"previousStatus,omitempty"`

	// AutoRejectAt is the pending-acceptance expiry deadline. Passing it makes
	// the job display as expired; flipping the persisted status is the
	// responsibility of an external background process.
	AutoRejectAt *time.Time `json:"autoRejectAt,omitempty"`

	// VisibleTo is an optional explicit ACL of user ids.
	VisibleTo []string `json:"visibleTo,omitempty"`

	CreatedBy string `json:"createdBy,omitempty"`
}

// Key returns the identifier the job is cached and matched under.
func (j *Job) Key() string {
	if j == nil {
		return ""
	}
	if j.ID != "" {
		return j.ID
	}
	return j.MongoID
}

// VisibleToUser checks the explicit ACL, if any.
func (j *Job) VisibleToUser(userID string) bool {
	if j == nil || userID == "" {
		return false
	}
	for _, id := range j.VisibleTo {
		if id == userID {
			return true
		}
	}
	return false
}

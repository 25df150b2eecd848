package models

import "time"

// PermissionProfile is the derived, cached authorization profile for the
// current session. It is computed in full from the normalized user snapshot
// on login or initialization, serialized as a single JSON blob under one
// well-known storage key, and never partially updated.
type PermissionProfile struct {
	// Normalized identity echo, so consumers reading the persisted blob do
	// not need the raw snapshot.
	UserID         string   `json:"userId,omitempty"`
	PrimaryRole    string   `json:"primaryRole"`
	SecondaryRoles []string `json:"secondaryRoles"`
	VendorID       string   `json:"vendorId,omitempty"`
	Regions        []string `json:"regions,omitempty"`
	IsDriverOnly   bool     `json:"isDriverOnly"`

	// Page name -> access. Unset pages are denied.
	PageAccess map[string]bool `json:"pageAccess"`

	// Capability flags.
	CanCreateJobs          bool `json:"canCreateJobs"`
	CanDispatchJobs        bool `json:"canDispatchJobs"`
	CanApproveGOA          bool `json:"canApproveGOA"`
	CanRequestGOA          bool `json:"canRequestGOA"`
	CanApproveUnsuccessful bool `json:"canApproveUnsuccessful"`
	CanRequestUnsuccessful bool `json:"canRequestUnsuccessful"`
	CanManageUsers         bool `json:"canManageUsers"`
	DeleteJobs             bool `json:"deleteJobs"`
	CancelJobs             bool `json:"cancelJobs"`
	MarkJobsGoa            bool `json:"markJobsGoa"`
	MarkJobsUnsuccessful   bool `json:"markJobsUnsuccessful"`
	DuplicateJobs          bool `json:"duplicateJobs"`
	ReactivateJobs         bool `json:"reactivateJobs"`
	UpdateJobsInCompletedTabs bool `json:"updateJobsInCompletedTabs"`
	UpdateJobsInCanceledTabs  bool `json:"updateJobsInCanceledTabs"`

	// AllowedJobProgressions maps a current job status to the statuses
	// directly reachable from it for this role. This is the single source of
	// truth job-action handlers consult before attempting a status change.
	AllowedJobProgressions map[string][]string `json:"allowedJobProgressions"`

	ComputedAt time.Time `json:"computedAt"`
}

// AllowsProgression checks membership of target in the progression set for
// the current status. Missing entries deny.
func (p *PermissionProfile) AllowsProgression(current, target string) bool {
	if p == nil {
		return false
	}
	for _, s := range p.AllowedJobProgressions[current] {
		if s == target {
			return true
		}
	}
	return false
}

// HasSecondaryRole checks the echoed secondary-role list.
func (p *PermissionProfile) HasSecondaryRole(role string) bool {
	if p == nil {
		return false
	}
	for _, r := range p.SecondaryRoles {
		if r == role {
			return true
		}
	}
	return false
}

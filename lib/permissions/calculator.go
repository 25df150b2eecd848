// Package permissions derives a complete permission profile from a
// normalized user. The calculator is pure: no I/O, no global state, and it
// assumes role normalization already happened at the boundary
// (models.UserFromRaw / models.NormalizeSecondaryRoles).
package permissions

import (
	"time"

	"dispatchportal/lib/constants"
	"dispatchportal/lib/models"
	"dispatchportal/lib/status"
)

// ComputeProfile derives the full permission profile for a user. The profile
// is always recomputed as a whole; callers must never patch individual
// fields.
func ComputeProfile(user *models.User) *models.PermissionProfile {
	if user == nil {
		return nil
	}

	driverOnly := user.IsDriverOnly()

	profile := &models.PermissionProfile{
		UserID:         user.ID,
		PrimaryRole:    user.PrimaryRole,
		SecondaryRoles: user.SecondaryRoleList(),
		VendorID:       user.VendorID,
		Regions:        user.Regions,
		IsDriverOnly:   driverOnly,

		PageAccess: pageAccess(user),

		CanCreateJobs:          canCreateJobs(user),
		CanDispatchJobs:        canDispatchJobs(user),
		CanApproveGOA:          canApprove(user),
		CanApproveUnsuccessful: canApprove(user),
		CanRequestGOA:          canRequest(user),
		CanRequestUnsuccessful: canRequest(user),
		CanManageUsers:         canManageUsers(user),
		DeleteJobs:             canDeleteJobs(user),

		// These flags are really "is not a bare driver" checks: every
		// non-driver-only user gets them, driver-only users never do.
		CancelJobs:                !driverOnly,
		MarkJobsGoa:               !driverOnly,
		MarkJobsUnsuccessful:      !driverOnly,
		DuplicateJobs:             !driverOnly,
		ReactivateJobs:            !driverOnly,
		UpdateJobsInCompletedTabs: !driverOnly,
		UpdateJobsInCanceledTabs:  !driverOnly,

		AllowedJobProgressions: allowedProgressions(user),

		ComputedAt: time.Now().UTC(),
	}

	return profile
}

// DefaultDriverProfile is the low-privilege fallback the driver UI renders
// with while the real profile fetch is still in flight. It must only ever
// decide what to display, never authorize a mutating action.
func DefaultDriverProfile() *models.PermissionProfile {
	return ComputeProfile(&models.User{
		PrimaryRole:    constants.RoleNone,
		SecondaryRoles: map[string]bool{constants.SecondaryDriver: true},
	})
}

// pageAccess builds the page matrix. Dashboard is always reachable; unset
// pages default to denied.
func pageAccess(user *models.User) map[string]bool {
	access := make(map[string]bool, len(constants.AllPages()))
	for _, page := range constants.AllPages() {
		access[page] = false
	}
	access[constants.PageDashboard] = true

	switch user.PrimaryRole {
	case constants.RoleOwner, constants.RoleSubOwner:
		for page := range access {
			access[page] = true
		}
	case constants.RoleRegionalManager:
		access[constants.PageJobs] = true
		access[constants.PageSettings] = true
		access[constants.PageUsers] = true
		access[constants.PagePerformance] = true
		access[constants.PagePayments] = true
		// Regions stays gated to owners.
	case constants.RoleServiceProvider:
		access[constants.PageJobs] = true
		access[constants.PageSettings] = true
		access[constants.PageUsers] = true
		access[constants.PagePerformance] = true
		access[constants.PagePayments] = true
		// Never Submissions or Regions.
	}

	if user.HasSecondaryRole(constants.SecondaryDispatcher) ||
		user.HasSecondaryRole(constants.SecondaryAnsweringService) {
		access[constants.PageJobs] = true
		access[constants.PagePerformance] = true
	}
	if user.HasSecondaryRole(constants.SecondaryDriver) {
		access[constants.PageJobs] = true
	}

	return access
}

// Capability rules below share one shape: the primary role decides first, and
// secondary roles only widen the grant for users with no primary role at all.
// A primary role that is not listed never falls through to the secondary
// checks; an SP's admin secondary must not smuggle in approval authority.

func canCreateJobs(user *models.User) bool {
	switch user.PrimaryRole {
	case constants.RoleOwner, constants.RoleSubOwner, constants.RoleRegionalManager:
		return true
	case constants.RoleNone:
		// Dispatch staff of the owning organization only.
		if user.HasSecondaryRole(constants.SecondaryDispatcher) ||
			user.HasSecondaryRole(constants.SecondaryAnsweringService) {
			return user.OwnerOrganization()
		}
	}
	return false
}

func canDispatchJobs(user *models.User) bool {
	switch user.PrimaryRole {
	case constants.RoleOwner, constants.RoleSubOwner,
		constants.RoleRegionalManager, constants.RoleServiceProvider:
		return true
	case constants.RoleNone:
		return user.HasSecondaryRole(constants.SecondaryDispatcher) ||
			user.HasSecondaryRole(constants.SecondaryAnsweringService)
	}
	return false
}

// canApprove covers both GOA and Unsuccessful approval authority. The
// vendor-ownership check for admin-secondary users is deferred to call time
// in the PermissionManager, which has the resource in hand.
func canApprove(user *models.User) bool {
	switch user.PrimaryRole {
	case constants.RoleOwner, constants.RoleSubOwner, constants.RoleRegionalManager:
		return true
	case constants.RoleNone:
		return user.HasSecondaryRole(constants.SecondaryAdmin)
	}
	return false
}

func canRequest(user *models.User) bool {
	switch user.PrimaryRole {
	case constants.RoleOwner, constants.RoleSubOwner,
		constants.RoleRegionalManager, constants.RoleServiceProvider:
		return true
	case constants.RoleNone:
		return user.HasSecondaryRole(constants.SecondaryDispatcher) ||
			user.HasSecondaryRole(constants.SecondaryAnsweringService) ||
			user.HasSecondaryRole(constants.SecondaryAdmin)
	}
	return false
}

func canManageUsers(user *models.User) bool {
	switch user.PrimaryRole {
	case constants.RoleOwner, constants.RoleSubOwner,
		constants.RoleRegionalManager, constants.RoleServiceProvider:
		return true
	case constants.RoleNone:
		return user.HasSecondaryRole(constants.SecondaryAdmin)
	}
	return false
}

func canDeleteJobs(user *models.User) bool {
	switch user.PrimaryRole {
	case constants.RoleOwner, constants.RoleSubOwner, constants.RoleRegionalManager:
		return true
	case constants.RoleNone:
		return user.HasSecondaryRole(constants.SecondaryDispatcher) && user.OwnerOrganization()
	}
	return false
}

// allowedProgressions builds the role-dependent status transition table.
// Roles with a primary role other than N/A get the unrestricted table; users
// without a primary role (driver-only included) get only the forward driver
// sequence.
func allowedProgressions(user *models.User) map[string][]string {
	if user.PrimaryRole != constants.RoleNone {
		return status.UnrestrictedProgressions()
	}
	return status.DriverProgressions()
}

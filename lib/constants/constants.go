// Package constants defines the role, page, and storage-key vocabulary shared
// across the dispatch portal authorization core.
package constants

import "time"

// Primary roles carried on the user profile. RoleNone means the user has no
// primary role and relies entirely on secondary roles.
const (
	RoleOwner           = "OW"
	RoleSubOwner        = "sOW"
	RoleRegionalManager = "RM"
	RoleServiceProvider = "SP"
	RoleNone            = "N/A"
)

// Secondary roles. A user may hold any combination of these on top of (or
// instead of) a primary role.
const (
	SecondaryAdmin            = "admin"
	SecondaryDispatcher       = "dispatcher"
	SecondaryAnsweringService = "answeringService"
	SecondaryDriver           = "driver"
)

// Portal page names used by the page-access matrix.
const (
	PageDashboard   = "Dashboard"
	PageSubmissions = "Submissions"
	PageJobs        = "Jobs"
	PageSettings    = "Settings"
	PageUsers       = "Users"
	PagePerformance = "Performance"
	PagePayments    = "Payments"
	PageRegions     = "Regions"
)

// AllPages returns every page the portal knows about, in display order.
func AllPages() []string {
	return []string{
		PageDashboard,
		PageSubmissions,
		PageJobs,
		PageSettings,
		PageUsers,
		PagePerformance,
		PagePayments,
		PageRegions,
	}
}

// Storage keys. The serialized permission profile lives under exactly one
// well-known key; the raw user snapshot may live under either the current key
// or the legacy key (first match wins on initialization).
const (
	PermissionsKey        = "portal_permissions"
	UserSnapshotKey       = "portal_user"
	LegacyUserSnapshotKey = "currentUser"
	AssignmentKeyPrefix   = "job_assignment:"
)

// DefaultCacheTTL is how long an in-process authorization decision or
// permission profile stays valid before it is recomputed.
const DefaultCacheTTL = 5 * time.Minute

// Owner-organization vendor convention. A vendor id of "1" or one prefixed
// with "OW" identifies the owning motor-club organization. OwnerOrganization
// on models.User is the only place this convention is applied.
const (
	OwnerVendorID     = "1"
	OwnerVendorPrefix = "OW"
)

// DriverName is the database/sql driver used by the Postgres-backed stores.
const DriverName = "postgres"
